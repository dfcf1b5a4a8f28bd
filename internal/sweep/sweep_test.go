package sweep

import (
	"context"
	stderrors "errors"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gonum/matrix/mat64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KyungWonPark/Connectome/internal/config"
	"github.com/KyungWonPark/Connectome/internal/errors"
	"github.com/KyungWonPark/Connectome/internal/metric"
)

func pathMatrix() *mat64.Dense {
	return mat64.NewDense(4, 4, []float64{
		0, 5, 1, 2,
		5, 0, 6, 3,
		1, 6, 0, 4,
		2, 3, 4, 0,
	})
}

func distinctMatrix(n int) *mat64.Dense {
	rng := rand.New(rand.NewSource(42))
	m := mat64.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := float64(i*n+j+1) + rng.Float64()/2
			m.Set(i, j, v)
			m.Set(j, i, v)
		}
	}

	return m
}

func TestSweepSingleThreshold(t *testing.T) {
	levels, err := Sweep(context.Background(), pathMatrix(), Options{Lower: 50, Upper: 50, ExcludeDiagonal: true})
	require.NoError(t, err)
	require.Len(t, levels, 1)

	level := levels[0]
	assert.Equal(t, 50, level.Threshold)
	assert.InDelta(t, 3.5, level.Cutoff, 1e-12)
	assert.Equal(t, 3, level.Edges)
	assert.Equal(t, []int{1, 2, 2, 1}, level.Metrics.Degree)
	assert.InDeltaSlice(t, []float64{0, 4, 4, 0}, level.Metrics.Betweenness, 1e-9)
}

func TestSweepIncludeDiagonal(t *testing.T) {
	levels, err := Sweep(context.Background(), pathMatrix(), Options{Lower: 50, Upper: 50})
	require.NoError(t, err)

	assert.InDelta(t, 2.5, levels[0].Cutoff, 1e-12)
	assert.Equal(t, 4, levels[0].Edges)
	assert.Equal(t, []int{1, 3, 2, 2}, levels[0].Metrics.Degree)
}

func TestSweepOrderIndependentOfWorkers(t *testing.T) {
	sym := distinctMatrix(9)

	serial, err := Sweep(context.Background(), sym, Options{Lower: 10, Upper: 90, Workers: 1, ExcludeDiagonal: true})
	require.NoError(t, err)
	parallel, err := Sweep(context.Background(), sym, Options{Lower: 10, Upper: 90, Workers: 16, ExcludeDiagonal: true})
	require.NoError(t, err)

	require.Len(t, parallel, 81)
	for i := range serial {
		assert.Equal(t, 10+i, parallel[i].Threshold)
		assert.Equal(t, serial[i].Cutoff, parallel[i].Cutoff)
		assert.Equal(t, serial[i].Metrics.Degree, parallel[i].Metrics.Degree)
		assert.InDeltaSlice(t, serial[i].Metrics.Betweenness, parallel[i].Metrics.Betweenness, 1e-9)
		if i > 0 {
			assert.LessOrEqual(t, parallel[i].Edges, parallel[i-1].Edges)
		}
	}
}

func TestSweepErrors(t *testing.T) {
	_, err := Sweep(context.Background(), mat64.NewDense(3, 3, nil), Options{Lower: 60, Upper: 80})
	assert.True(t, errors.Is(err, errors.DataQuality), "all-zero matrix")

	_, err = Sweep(context.Background(), pathMatrix(), Options{Lower: 80, Upper: 60})
	assert.True(t, errors.Is(err, errors.Config))

	boom := stderrors.New("disk full")
	_, err = Sweep(context.Background(), distinctMatrix(5), Options{
		Lower:   0,
		Upper:   100,
		Workers: 4,
		Dump: func(threshold int, bin *mat64.Dense) error {
			if threshold == 70 {
				return boom
			}
			return nil
		},
	})
	assert.ErrorIs(t, err, boom)
}

func TestAssemble(t *testing.T) {
	levels := []Level{
		{Threshold: 60, Metrics: metric.Nodes{Degree: []int{1, 2}, Betweenness: []float64{0, 0.5}}},
		{Threshold: 61, Metrics: metric.Nodes{Degree: []int{0, 1}, Betweenness: []float64{0, 0}}},
	}

	table, err := Assemble("sub-01", levels)
	require.NoError(t, err)
	assert.Equal(t, []Record{
		{"sub-01", 60, 1, 1, 0},
		{"sub-01", 60, 2, 2, 0.5},
		{"sub-01", 61, 1, 0, 0},
		{"sub-01", 61, 2, 1, 0},
	}, table.Records)

	assert.Equal(t, []string{"sub-01", "60", "2", "2", "0.5"}, table.Rows()[1])
	assert.Equal(t, []string{"sub-01", "61", "1", "0", "0.0"}, table.Rows()[2])

	levels[1].Metrics.Betweenness = []float64{0}
	_, err = Assemble("sub-01", levels)
	assert.True(t, errors.Is(err, errors.Dependency))

	levels[1].Metrics.Betweenness = []float64{0, 0}
	levels[1].Threshold = 60
	_, err = Assemble("sub-01", levels)
	assert.True(t, errors.Is(err, errors.Dependency))
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.0", formatFloat(0))
	assert.Equal(t, "2.0", formatFloat(2))
	assert.Equal(t, "1.5", formatFloat(1.5))
	assert.Equal(t, "1e-05", formatFloat(0.00001))
}

type fixture struct {
	cfg  *config.Config
	dir  string
	out  string
	root string
}

func newFixture(t *testing.T, matrix string, waytotal string) fixture {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default()
	cfg.Root = root
	cfg.Sweep.Workers = 3

	paths, err := cfg.Paths("sub-01", "vat_left")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(paths.Dir, 0755))
	require.NoError(t, os.WriteFile(paths.Matrix, []byte(matrix), 0644))
	require.NoError(t, os.WriteFile(paths.Waytotal, []byte(waytotal), 0644))

	return fixture{cfg: cfg, dir: paths.Dir, out: paths.Output, root: root}
}

func TestRunScenario(t *testing.T) {
	f := newFixture(t, "0 4 0\n2 0 6\n0 3 0\n", "2\n3\n3\n")

	res, err := Run(context.Background(), f.cfg, "sub-01", "vat_left", nil)
	require.NoError(t, err)

	want := mat64.NewDense(3, 3, []float64{
		0, 4.0 / 3, 0,
		4.0 / 3, 0, 1.5,
		0, 1.5, 0,
	})
	assert.True(t, mat64.EqualApprox(want, res.Symmetric, 1e-12))

	require.Len(t, res.Table.Records, 21*3)
	for i, r := range res.Table.Records {
		assert.Equal(t, 60+i/3, r.Threshold)
		assert.Equal(t, 1+i%3, r.Node)
		assert.Equal(t, "sub-01", r.Subject)
	}

	data, err := os.ReadFile(f.out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1+21*3)
	assert.Equal(t, []string{
		"sub,thresh,node,deg,bc",
		"sub-01,60,1,1,0.0",
		"sub-01,60,2,2,2.0",
		"sub-01,60,3,1,0.0",
		"sub-01,61,1,0,0.0",
		"sub-01,61,2,1,0.0",
		"sub-01,61,3,1,0.0",
	}, lines[:7])
	assert.Equal(t, "sub-01,80,3,1,0.0", lines[len(lines)-1])
}

func TestRunSingleThresholdDistinct(t *testing.T) {
	f := newFixture(t, "0 3 5 7\n2 0 11 13\n4 6 0 17\n8 10 12 0\n", "1 1 1 1\n")
	f.cfg.Sweep.Lower, f.cfg.Sweep.Upper = 60, 60

	res, err := Run(context.Background(), f.cfg, "sub-01", "vat_left", nil)
	require.NoError(t, err)

	require.Len(t, res.Table.Records, 4)
	for _, r := range res.Table.Records {
		assert.Equal(t, 60, r.Threshold)
	}
}

func TestRunDumpNpy(t *testing.T) {
	f := newFixture(t, "0 4 0\n2 0 6\n0 3 0\n", "2\n3\n3\n")
	f.cfg.Sweep.DumpNpy = true
	f.cfg.Sweep.Lower, f.cfg.Sweep.Upper = 60, 61

	_, err := Run(context.Background(), f.cfg, "sub-01", "vat_left", nil)
	require.NoError(t, err)

	for _, name := range []string{"network_symmetric.npy", "network_binary_060.npy", "network_binary_061.npy"} {
		assert.FileExists(t, filepath.Join(f.dir, name))
	}
}

func TestRunZeroWaytotal(t *testing.T) {
	f := newFixture(t, "0 4 0\n2 0 6\n0 3 0\n", "2\n0\n3\n")

	_, err := Run(context.Background(), f.cfg, "sub-01", "vat_left", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.DataQuality))

	var e *errors.Error
	require.True(t, stderrors.As(err, &e))
	assert.Equal(t, []int{2}, e.Nodes)
	assert.NoFileExists(t, f.out)
}

func TestRunMismatchedLengths(t *testing.T) {
	f := newFixture(t, "0 4 0\n2 0 6\n0 3 0\n", "2\n3\n")

	_, err := Run(context.Background(), f.cfg, "sub-01", "vat_left", nil)
	assert.True(t, errors.Is(err, errors.FileFormat))
	assert.NoFileExists(t, f.out)
}

func TestRunMissingInput(t *testing.T) {
	f := newFixture(t, "0 1\n1 0\n", "1 1\n")

	_, err := Run(context.Background(), f.cfg, "sub-01", "vat_right", nil)
	assert.True(t, errors.Is(err, errors.NotFound))
}

func TestRunCancelled(t *testing.T) {
	f := newFixture(t, "0 4 0\n2 0 6\n0 3 0\n", "2\n3\n3\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, f.cfg, "sub-01", "vat_left", nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, f.out)
}
