package calc

import (
	"sync"

	"github.com/gonum/matrix/mat64"

	"github.com/KyungWonPark/Connectome/internal/errors"
)

func symmetrize(inputMat *mat64.Dense, outputMat *mat64.Dense, order <-chan int, wg *sync.WaitGroup) {
	_, inputCols := inputMat.Dims()

	for {
		index, ok := <-order
		if ok {
			for t := 0; t < inputCols; t++ {
				a := inputMat.At(index, t)
				b := inputMat.At(t, index)

				var value float64
				if a != 0 && b != 0 {
					value = (a + b) / 2
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

// Symmetrize averages every entry with its transpose counterpart, except that
// a pair with a zero on either side becomes zero on both sides.
// outputMat must not share storage with inputMat.
func (p *PipeLine) Symmetrize(inputMat *mat64.Dense, outputMat *mat64.Dense) error {
	if err := checkSquare("symmetrize", inputMat); err != nil {
		return err
	}
	if err := checkSameDims("symmetrize", inputMat, outputMat); err != nil {
		return err
	}
	if inputMat == outputMat {
		return errors.New(errors.Config, "symmetrize", "output matrix aliases input matrix")
	}

	inputRows, _ := inputMat.Dims()
	p.dispatch(inputRows, func(order <-chan int, wg *sync.WaitGroup) {
		symmetrize(inputMat, outputMat, order, wg)
	})

	return nil
}
