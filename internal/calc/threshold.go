package calc

import (
	"math"
	"sort"
	"sync"

	"github.com/gonum/matrix/mat64"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

// Basis collects the values the percentile cutoffs are taken over, sorted ascending.
// Zeros are kept; the diagonal is left out when excludeDiagonal is set.
func Basis(matrix *mat64.Dense, excludeDiagonal bool) []float64 {
	rows, cols := matrix.Dims()

	values := make([]float64, 0, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if excludeDiagonal && i == j {
				continue
			}
			values = append(values, matrix.At(i, j))
		}
	}

	sort.Float64s(values)
	return values
}

// Percentile returns the q-th percentile (0..100) of sorted data, interpolating
// linearly between the two closest ranks
func Percentile(sorted []float64, q float64) (float64, error) {
	if len(sorted) == 0 {
		return 0, errors.New(errors.DataQuality, "threshold", "percentile of an empty matrix")
	}
	if q < 0 || q > 100 || math.IsNaN(q) {
		return 0, errors.New(errors.Config, "threshold", "percentile %g outside [0, 100]", q)
	}

	rank := q / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo], nil
	}

	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac, nil
}

func binarize(inputMat *mat64.Dense, outputMat *mat64.Dense, cutoff float64, order <-chan int, wg *sync.WaitGroup) {
	_, inputCols := inputMat.Dims()

	for {
		index, ok := <-order
		if ok {
			for t := 0; t < inputCols; t++ {
				value := 1.0
				if index == t || inputMat.At(index, t) < cutoff {
					value = 0
				}

				outputMat.Set(index, t, value)
			}

			wg.Done()
		} else {
			break
		}
	}

	return
}

// Binarize sets outputMat to 1 where inputMat >= cutoff and 0 elsewhere.
// The diagonal is always 0.
func (p *PipeLine) Binarize(inputMat *mat64.Dense, outputMat *mat64.Dense, cutoff float64) error {
	if err := checkSquare("threshold", inputMat); err != nil {
		return err
	}
	if err := checkSameDims("threshold", inputMat, outputMat); err != nil {
		return err
	}

	inputRows, _ := inputMat.Dims()
	p.dispatch(inputRows, func(order <-chan int, wg *sync.WaitGroup) {
		binarize(inputMat, outputMat, cutoff, order, wg)
	})

	return nil
}

// EdgeCount returns the number of undirected edges (upper triangle non-zeros) of a square matrix
func EdgeCount(matrix *mat64.Dense) int {
	rows, _ := matrix.Dims()

	var edges int
	for i := 0; i < rows; i++ {
		for j := i + 1; j < rows; j++ {
			if matrix.At(i, j) != 0 {
				edges++
			}
		}
	}

	return edges
}
