package calc

import (
	"runtime"
	"sync"

	"github.com/gonum/matrix/mat64"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

// PipeLine represents a compute pipeline.
// Every row operation fans row indices out to numPoper workers over an order
// channel; each worker only writes the rows it was handed.
type PipeLine struct {
	numPoper int
}

// Init returns a compute PipeLine with numPoper workers, or one per CPU if numPoper < 1
func Init(numPoper int) *PipeLine {
	if numPoper < 1 {
		numPoper = runtime.NumCPU()
	}

	return &PipeLine{numPoper: numPoper}
}

// GetNP returns the number of workers
func (p *PipeLine) GetNP() int {
	return p.numPoper
}

// dispatch feeds 0..rows-1 to p.numPoper copies of worker and waits for all rows
func (p *PipeLine) dispatch(rows int, worker func(order <-chan int, wg *sync.WaitGroup)) {
	order := make(chan int, p.numPoper)
	var wg sync.WaitGroup

	wg.Add(rows)

	for i := 0; i < p.numPoper; i++ {
		go worker(order, &wg)
	}

	for i := 0; i < rows; i++ {
		order <- i
	}

	wg.Wait()
	close(order)
	return
}

func checkSquare(stage string, matrix *mat64.Dense) error {
	rows, cols := matrix.Dims()
	if rows != cols {
		return errors.New(errors.FileFormat, stage, "matrix is %d by %d, want square", rows, cols)
	}

	return nil
}

func checkSameDims(stage string, inputMat *mat64.Dense, outputMat *mat64.Dense) error {
	inputRows, inputCols := inputMat.Dims()
	outputRows, outputCols := outputMat.Dims()

	if inputRows != outputRows || inputCols != outputCols {
		return errors.New(errors.FileFormat, stage, "input dims: %d by %d when output dims: %d by %d", inputRows, inputCols, outputRows, outputCols)
	}

	return nil
}

// flagged turns a per-row flag slice into sorted 1-based node indices
func flagged(flags []bool) []int {
	var nodes []int
	for i, bad := range flags {
		if bad {
			nodes = append(nodes, i+1)
		}
	}

	return nodes
}
