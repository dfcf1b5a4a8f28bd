package io

import (
	"bufio"
	"fmt"
	stdio "io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gonum/matrix/mat64"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

const maxLine = 64 << 20

func open(stage string, path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(err, errors.NotFound, stage, "input file does not exist").WithPath(path)
		}
		return nil, errors.Wrap(err, errors.FileFormat, stage, "failed to open").WithPath(path)
	}

	return f, nil
}

// readRows parses whitespace-delimited numbers, one slice per non-empty line.
// Text after '#' is a comment.
func readRows(stage string, path string) ([][]float64, error) {
	f, err := open(stage, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]float64

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}

		fields := strings.Fields(text)
		if len(fields) == 0 {
			continue
		}

		row := make([]float64, len(fields))
		for i, field := range fields {
			value, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, errors.Wrap(err, errors.FileFormat, stage, "non-numeric token %q at line %d", field, line).WithPath(path)
			}
			row[i] = value
		}

		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.FileFormat, stage, "failed to read").WithPath(path)
	}

	return rows, nil
}

func isNpy(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".npy")
}

// LoadMatrix reads a square matrix from a whitespace-delimited text file or a .npy file
func LoadMatrix(path string) (*mat64.Dense, error) {
	var matrix *mat64.Dense

	if isNpy(path) {
		m, err := NpytoMat64(path)
		if err != nil {
			return nil, err
		}
		matrix = m
	} else {
		rows, err := readRows("load", path)
		if err != nil {
			return nil, err
		}
		if len(rows) == 0 {
			return nil, errors.New(errors.FileFormat, "load", "empty matrix").WithPath(path)
		}

		n := len(rows)
		data := make([]float64, 0, n*n)
		for i, row := range rows {
			if len(row) != n {
				return nil, errors.New(errors.FileFormat, "load", "row %d has %d values, want %d for a square matrix", i+1, len(row), n).WithPath(path)
			}
			data = append(data, row...)
		}
		matrix = mat64.NewDense(n, n, data)
	}

	rows, cols := matrix.Dims()
	if rows != cols {
		return nil, errors.New(errors.FileFormat, "load", "matrix is %d by %d, want square", rows, cols).WithPath(path)
	}

	return matrix, nil
}

// LoadVector reads all numbers of a text or .npy file into one vector, row by row
func LoadVector(path string) (*mat64.Vector, error) {
	var data []float64

	if isNpy(path) {
		d, err := readNpy(path)
		if err != nil {
			return nil, err
		}
		data = d
	} else {
		rows, err := readRows("load", path)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			data = append(data, row...)
		}
	}

	if len(data) == 0 {
		return nil, errors.New(errors.FileFormat, "load", "empty vector").WithPath(path)
	}

	return mat64.NewVector(len(data), data), nil
}

// LoadPair reads a connectivity matrix and its waytotal vector and checks they agree in length
func LoadPair(matrixPath string, waytotalPath string) (*mat64.Dense, *mat64.Vector, error) {
	matrix, err := LoadMatrix(matrixPath)
	if err != nil {
		return nil, nil, err
	}

	waytotal, err := LoadVector(waytotalPath)
	if err != nil {
		return nil, nil, err
	}

	rows, _ := matrix.Dims()
	if waytotal.Len() != rows {
		return nil, nil, errors.New(errors.FileFormat, "load", "waytotal has %d values but %s has %d rows", waytotal.Len(), filepath.Base(matrixPath), rows).WithPath(waytotalPath)
	}

	return matrix, waytotal, nil
}

// Mat64toText saves a matrix in the whitespace-delimited format LoadMatrix reads
func Mat64toText(path string, matrix *mat64.Dense) error {
	return writeAtomic("save", path, func(w stdio.Writer) error {
		rows, cols := matrix.Dims()
		line := make([]string, cols)

		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				line[j] = strconv.FormatFloat(matrix.At(i, j), 'g', -1, 64)
			}
			if _, err := fmt.Fprintln(w, strings.Join(line, " ")); err != nil {
				return err
			}
		}

		return nil
	})
}
