package io

import (
	"encoding/csv"
	stderrors "errors"
	stdio "io"
	"os"
	"path/filepath"
	"testing"

	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

func writeFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadPair(t *testing.T) {
	dir := t.TempDir()
	netfile := writeFile(t, dir, "fdt_network_matrix", "0  4 0\n2\t0 6\n\n0 3 0   \n")
	wtfile := writeFile(t, dir, "waytotal", "2\n3\n3\n")

	matrix, waytotal, err := LoadPair(netfile, wtfile)
	require.NoError(t, err)

	want := mat64.NewDense(3, 3, []float64{0, 4, 0, 2, 0, 6, 0, 3, 0})
	assert.True(t, mat64.Equal(want, matrix))
	assert.Equal(t, 3, waytotal.Len())
	assert.Equal(t, 3.0, waytotal.At(2, 0))
}

func TestLoadVectorSingleRow(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "waytotal", "# totals\n1e3 2.5 7\n")

	v, err := LoadVector(path)
	require.NoError(t, err)
	assert.Equal(t, 3, v.Len())
	assert.Equal(t, 1000.0, v.At(0, 0))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    errors.Kind
	}{
		{"non-numeric", "1 2\nx 4\n", errors.FileFormat},
		{"ragged", "1 2\n3\n", errors.FileFormat},
		{"not square", "1 2 3\n4 5 6\n", errors.FileFormat},
		{"empty", "\n# nothing\n", errors.FileFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.name, tt.content)
			_, err := LoadMatrix(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want))

			var e *errors.Error
			require.True(t, stderrors.As(err, &e))
			assert.Equal(t, path, e.Path)
		})
	}

	_, err := LoadMatrix(filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, errors.NotFound))
	_, err = LoadVector(filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestLoadPairLengthMismatch(t *testing.T) {
	dir := t.TempDir()
	netfile := writeFile(t, dir, "fdt_network_matrix", "0 1\n1 0\n")
	wtfile := writeFile(t, dir, "waytotal", "1 2 3\n")

	_, _, err := LoadPair(netfile, wtfile)
	assert.True(t, errors.Is(err, errors.FileFormat))
}

func TestNpyRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sym.npy")
	m := mat64.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})

	require.NoError(t, Mat64toNpy(path, m))
	got, err := NpytoMat64(path)
	require.NoError(t, err)
	assert.True(t, mat64.Equal(m, got))

	_, err = LoadMatrix(path)
	assert.True(t, errors.Is(err, errors.FileFormat), "2x3 npy is not square")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestMat64toText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.txt")
	m := mat64.NewDense(2, 2, []float64{0, 1.5, 1.5, 0})

	require.NoError(t, Mat64toText(path, m))
	got, err := LoadMatrix(path)
	require.NoError(t, err)
	assert.True(t, mat64.Equal(m, got))
}

func TestWriteCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	require.NoError(t, WriteCSV(path, []string{"a", "b"}, [][]string{{"1", "2"}, {"3", "4"}}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2"}, {"3", "4"}}, records)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must be gone")
}

func TestWriteAtomicFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	err := writeAtomic("write", path, func(w stdio.Writer) error {
		return stderrors.New("boom")
	})
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
