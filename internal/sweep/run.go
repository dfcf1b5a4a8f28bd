package sweep

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gonum/matrix/mat64"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KyungWonPark/Connectome/internal/calc"
	"github.com/KyungWonPark/Connectome/internal/config"
	"github.com/KyungWonPark/Connectome/internal/errors"
	"github.com/KyungWonPark/Connectome/internal/io"
)

// Result is what a successful run produced
type Result struct {
	RunID     string
	Paths     config.Paths
	Symmetric *mat64.Dense
	Levels    []Level
	Table     *Table
}

// Run computes the metrics table of one subject and source directory and
// writes it to the configured output path. Any error aborts the run before the
// table is written.
func Run(ctx context.Context, cfg *config.Config, subject string, source string, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	paths, err := cfg.Paths(subject, source)
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger = logger.With(
		zap.String("run_id", runID),
		zap.String("sub", subject),
		zap.String("source", source),
	)
	logger.Info("run started",
		zap.String("matrix", paths.Matrix),
		zap.String("waytotal", paths.Waytotal),
		zap.Int("lower", cfg.Sweep.Lower),
		zap.Int("upper", cfg.Sweep.Upper),
	)

	start := time.Now()
	raw, waytotal, err := io.LoadPair(paths.Matrix, paths.Waytotal)
	if err != nil {
		return nil, err
	}
	n, _ := raw.Dims()
	logger.Info("inputs loaded", zap.Int("nodes", n), zap.Duration("took", time.Since(start)))

	pl := calc.Init(cfg.Sweep.Workers)

	start = time.Now()
	norm := mat64.NewDense(n, n, nil)
	if err := pl.Normalize(raw, waytotal, norm); err != nil {
		return nil, err
	}

	sym := mat64.NewDense(n, n, nil)
	if err := pl.Symmetrize(norm, sym); err != nil {
		return nil, err
	}
	if !pl.SymCheck(sym, 0) {
		return nil, errors.New(errors.DataQuality, "symmetrize", "symmetrized matrix is not symmetric")
	}
	if isolated := pl.ZeroRows(sym); len(isolated) > 0 {
		logger.Warn("nodes have no connections after symmetrization", zap.Ints("nodes", isolated))
	}
	logger.Info("matrix prepared", zap.Duration("took", time.Since(start)))

	var dump func(int, *mat64.Dense) error
	if cfg.Sweep.DumpNpy {
		if err := io.Mat64toNpy(filepath.Join(paths.Dir, cfg.Layout.SymmetricDump), sym); err != nil {
			return nil, err
		}
		dump = func(t int, bin *mat64.Dense) error {
			return io.Mat64toNpy(filepath.Join(paths.Dir, fmt.Sprintf("%s_%03d.npy", cfg.Layout.BinaryDumpStem, t)), bin)
		}
	}

	start = time.Now()
	levels, err := Sweep(ctx, sym, Options{
		Lower:           cfg.Sweep.Lower,
		Upper:           cfg.Sweep.Upper,
		Workers:         cfg.Sweep.Workers,
		ExcludeDiagonal: cfg.Sweep.ExcludeDiagonal,
		Dump:            dump,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("sweep finished", zap.Int("thresholds", len(levels)), zap.Duration("took", time.Since(start)))

	table, err := Assemble(subject, levels)
	if err != nil {
		return nil, err
	}
	if err := table.Write(paths.Output); err != nil {
		return nil, err
	}
	logger.Info("metrics written", zap.String("output", paths.Output), zap.Int("rows", len(table.Records)))

	return &Result{
		RunID:     runID,
		Paths:     paths,
		Symmetric: sym,
		Levels:    levels,
		Table:     table,
	}, nil
}
