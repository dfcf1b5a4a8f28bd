package io

import (
	"os"

	"github.com/gonum/matrix/mat64"
	"github.com/kshedden/gonpy"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

// Mat64toNpy writes mat64 matrix to Python numpy npy binary file
func Mat64toNpy(path string, matrix *mat64.Dense) error {
	rows, cols := matrix.Dims()
	data := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		data = append(data, matrix.RawRowView(i)...)
	}

	tmp, err := tempPath(path)
	if err != nil {
		return errors.Wrap(err, errors.NotFound, "save", "failed to create temporary file").WithPath(path)
	}

	w, err := gonpy.NewFileWriter(tmp)
	if err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, errors.FileFormat, "save", "failed to open npy writer").WithPath(path)
	}
	w.Shape = []int{rows, cols}
	w.Version = 2
	if err := w.WriteFloat64(data); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, errors.FileFormat, "save", "failed to write npy").WithPath(path)
	}

	return renameInto("save", tmp, path)
}

func readNpy(path string) ([]float64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.NotFound, "load", "input file does not exist").WithPath(path)
	}

	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.FileFormat, "load", "failed to open npy").WithPath(path)
	}

	data, err := r.GetFloat64()
	if err != nil {
		return nil, errors.Wrap(err, errors.FileFormat, "load", "npy does not hold float64 data").WithPath(path)
	}

	return data, nil
}

// NpytoMat64 reads Python numpy npy binary file as mat64 matrix
func NpytoMat64(path string) (*mat64.Dense, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.NotFound, "load", "input file does not exist").WithPath(path)
	}

	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.FileFormat, "load", "failed to open npy").WithPath(path)
	}
	if len(r.Shape) != 2 {
		return nil, errors.New(errors.FileFormat, "load", "npy has %d dimensions, want 2", len(r.Shape)).WithPath(path)
	}
	if r.ColumnMajor {
		return nil, errors.New(errors.FileFormat, "load", "column-major npy is not supported").WithPath(path)
	}

	rows := r.Shape[0]
	cols := r.Shape[1]
	data, err := r.GetFloat64()
	if err != nil {
		return nil, errors.Wrap(err, errors.FileFormat, "load", "npy does not hold float64 data").WithPath(path)
	}
	if len(data) != rows*cols || rows == 0 {
		return nil, errors.New(errors.FileFormat, "load", "npy holds %d values for shape %dx%d", len(data), rows, cols).WithPath(path)
	}

	return mat64.NewDense(rows, cols, data), nil
}
