package calc

import (
	"math"
	"sync"

	"github.com/gonum/matrix/mat64"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

func normalize(inputMat *mat64.Dense, outputMat *mat64.Dense, waytotal *mat64.Vector, nonFinite []bool, order <-chan int, wg *sync.WaitGroup) {
	_, inputCols := inputMat.Dims()

	for {
		index, ok := <-order
		if ok {
			div := waytotal.At(index, 0)
			for t := 0; t < inputCols; t++ {
				value := inputMat.At(index, t)
				if math.IsNaN(value) || math.IsInf(value, 0) {
					nonFinite[index] = true
				}

				outputMat.Set(index, t, value/div)
			}

			wg.Done()
		} else {
			break
		}
	}

	return
}

// Normalize divides every row of inputMat by the matching waytotal entry.
// A zero or non-finite waytotal, or a non-finite connectivity value, is a
// data-quality error naming the affected nodes; outputMat is then unspecified.
func (p *PipeLine) Normalize(inputMat *mat64.Dense, waytotal *mat64.Vector, outputMat *mat64.Dense) error {
	if err := checkSameDims("normalize", inputMat, outputMat); err != nil {
		return err
	}

	inputRows, _ := inputMat.Dims()
	if waytotal.Len() != inputRows {
		return errors.New(errors.FileFormat, "normalize", "waytotal has %d entries for a matrix with %d rows", waytotal.Len(), inputRows)
	}

	badWaytotal := make([]bool, inputRows)
	for i := 0; i < inputRows; i++ {
		w := waytotal.At(i, 0)
		badWaytotal[i] = w == 0 || math.IsNaN(w) || math.IsInf(w, 0)
	}
	if nodes := flagged(badWaytotal); len(nodes) > 0 {
		return errors.New(errors.DataQuality, "normalize", "zero or non-finite waytotal").WithNodes(nodes)
	}

	nonFinite := make([]bool, inputRows)
	p.dispatch(inputRows, func(order <-chan int, wg *sync.WaitGroup) {
		normalize(inputMat, outputMat, waytotal, nonFinite, order, wg)
	})

	if nodes := flagged(nonFinite); len(nodes) > 0 {
		return errors.New(errors.DataQuality, "normalize", "non-finite connectivity values").WithNodes(nodes)
	}

	return nil
}
