package sweep

import (
	"context"

	"github.com/gonum/matrix/mat64"
	"github.com/montanaflynn/stats"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/KyungWonPark/Connectome/internal/calc"
	"github.com/KyungWonPark/Connectome/internal/errors"
	"github.com/KyungWonPark/Connectome/internal/metric"
)

// Level is the outcome of one threshold of the sweep
type Level struct {
	Threshold int
	Cutoff    float64
	Edges     int
	Metrics   metric.Nodes
}

// Options controls a sweep
type Options struct {
	Lower           int
	Upper           int
	Workers         int
	ExcludeDiagonal bool
	// Dump, if set, receives every binary matrix. It may be called concurrently.
	Dump   func(threshold int, bin *mat64.Dense) error
	Logger *zap.Logger
}

// Thresholds lists the integer percentiles lower..upper
func Thresholds(lower int, upper int) []int {
	var thresholds []int
	for t := lower; t <= upper; t++ {
		thresholds = append(thresholds, t)
	}

	return thresholds
}

// Sweep binarizes sym at every percentile of [opts.Lower, opts.Upper] and
// computes node metrics of each binary matrix. Thresholds are spread over
// opts.Workers goroutines; the returned levels are always in ascending
// threshold order.
func Sweep(ctx context.Context, sym *mat64.Dense, opts Options) ([]Level, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if opts.Lower < 0 || opts.Upper > 100 || opts.Lower > opts.Upper {
		return nil, errors.New(errors.Config, "threshold", "threshold range [%d, %d] must satisfy 0 <= lower <= upper <= 100", opts.Lower, opts.Upper)
	}

	rows, cols := sym.Dims()
	if rows != cols {
		return nil, errors.New(errors.FileFormat, "threshold", "matrix is %d by %d, want square", rows, cols)
	}

	basis := calc.Basis(sym, opts.ExcludeDiagonal)
	if len(basis) == 0 || (basis[0] == 0 && basis[len(basis)-1] == 0) {
		return nil, errors.New(errors.DataQuality, "threshold", "symmetric matrix has no non-zero entries, every cutoff would be 0")
	}

	thresholds := Thresholds(opts.Lower, opts.Upper)
	levels := make([]Level, len(thresholds))

	workers := opts.Workers
	if workers < 1 {
		workers = calc.Init(0).GetNP()
	}
	if workers > len(thresholds) {
		workers = len(thresholds)
	}

	g, gctx := errgroup.WithContext(ctx)
	order := make(chan int)

	g.Go(func() error {
		defer close(order)
		for i := range thresholds {
			if err := gctx.Err(); err != nil {
				return err
			}
			select {
			case order <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			pl := calc.Init(1)
			for index := range order {
				level, err := threshold(pl, sym, basis, thresholds[index], opts.Dump, logger)
				if err != nil {
					return err
				}
				levels[index] = level
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return levels, nil
}

func threshold(pl *calc.PipeLine, sym *mat64.Dense, basis []float64, t int, dump func(int, *mat64.Dense) error, logger *zap.Logger) (Level, error) {
	cutoff, err := calc.Percentile(basis, float64(t))
	if err != nil {
		return Level{}, err
	}

	n, _ := sym.Dims()
	bin := mat64.NewDense(n, n, nil)
	if err := pl.Binarize(sym, bin, cutoff); err != nil {
		return Level{}, err
	}

	nodes, err := metric.Compute(bin)
	if err != nil {
		return Level{}, err
	}

	if dump != nil {
		if err := dump(t, bin); err != nil {
			return Level{}, err
		}
	}

	level := Level{
		Threshold: t,
		Cutoff:    cutoff,
		Edges:     calc.EdgeCount(bin),
		Metrics:   nodes,
	}

	if cutoff == 0 {
		logger.Warn("cutoff is zero, every node pair is connected", zap.Int("thresh", t))
	}
	if ce := logger.Check(zap.DebugLevel, "threshold done"); ce != nil {
		ce.Write(summary(level, n)...)
	}

	return level, nil
}

func summary(level Level, n int) []zap.Field {
	degrees := make(stats.Float64Data, len(level.Metrics.Degree))
	for i, d := range level.Metrics.Degree {
		degrees[i] = float64(d)
	}
	meanDeg, _ := stats.Mean(degrees)
	maxBC, _ := stats.Max(stats.Float64Data(level.Metrics.Betweenness))

	var density float64
	if n > 1 {
		density = float64(level.Edges) / float64(n*(n-1)/2)
	}

	return []zap.Field{
		zap.Int("thresh", level.Threshold),
		zap.Float64("cutoff", level.Cutoff),
		zap.Int("edges", level.Edges),
		zap.Float64("density", density),
		zap.Float64("mean_deg", meanDeg),
		zap.Float64("max_bc", maxBC),
	}
}
