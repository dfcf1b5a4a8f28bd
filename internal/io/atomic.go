package io

import (
	"bufio"
	stdio "io"
	"os"
	"path/filepath"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

// tempPath creates an empty temporary file next to path and returns its name
func tempPath(path string) (string, error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	f, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		os.Remove(name)
		return "", err
	}

	return name, nil
}

// writeAtomic writes path through a temporary file that is renamed into place
// only if write succeeds, so readers never observe a partial file
func writeAtomic(stage string, path string, write func(w stdio.Writer) error) error {
	tmp, err := tempPath(path)
	if err != nil {
		return errors.Wrap(err, errors.NotFound, stage, "failed to create temporary file").WithPath(path)
	}

	fail := func(err error, msg string) error {
		os.Remove(tmp)
		return errors.Wrap(err, errors.FileFormat, stage, msg).WithPath(path)
	}

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fail(err, "failed to open temporary file")
	}

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return fail(err, "failed to write")
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fail(err, "failed to flush")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fail(err, "failed to sync")
	}
	if err := f.Close(); err != nil {
		return fail(err, "failed to close")
	}

	return renameInto(stage, tmp, path)
}

func renameInto(stage string, tmp string, path string) error {
	if err := os.Chmod(tmp, 0644); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, errors.FileFormat, stage, "failed to set permissions").WithPath(path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, errors.FileFormat, stage, "failed to move output into place").WithPath(path)
	}

	return nil
}
