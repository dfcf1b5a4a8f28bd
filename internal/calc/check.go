package calc

import (
	"math"
	"sync"

	"github.com/gonum/matrix/mat64"
)

// SymCheck checks symmetry within pre
func (p *PipeLine) SymCheck(matrix *mat64.Dense, pre float64) bool {
	rows, cols := matrix.Dims()
	if rows != cols {
		return false
	}

	isSymm := make([]bool, rows)
	p.dispatch(rows, func(order <-chan int, wg *sync.WaitGroup) {
		symCheck(matrix, isSymm, math.Abs(pre), order, wg)
	})

	symm := true
	for i := 0; i < rows; i++ {
		symm = symm && isSymm[i]
	}

	return symm
}

func symCheck(matrix *mat64.Dense, isSymm []bool, pre float64, order <-chan int, wg *sync.WaitGroup) {
	_, cols := matrix.Dims()

	for {
		index, ok := <-order
		if ok {
			isSymm[index] = true
			for i := index; i < cols; i++ {
				isSame := (math.Abs(matrix.At(index, i)-matrix.At(i, index)) <= pre)
				if !isSame {
					isSymm[index] = false
					break
				}
			}

			wg.Done()
		} else {
			break
		}
	}

	return
}

// BinaryCheck checks every entry is exactly 0 or 1
func (p *PipeLine) BinaryCheck(matrix *mat64.Dense) bool {
	rows, cols := matrix.Dims()

	isBinary := make([]bool, rows)
	p.dispatch(rows, func(order <-chan int, wg *sync.WaitGroup) {
		for {
			index, ok := <-order
			if !ok {
				break
			}

			isBinary[index] = true
			for i := 0; i < cols; i++ {
				if v := matrix.At(index, i); v != 0 && v != 1 {
					isBinary[index] = false
					break
				}
			}

			wg.Done()
		}
	})

	binary := true
	for i := 0; i < rows; i++ {
		binary = binary && isBinary[i]
	}

	return binary
}

// ZeroRows returns the 1-based indices of rows whose entries are all zero
func (p *PipeLine) ZeroRows(matrix *mat64.Dense) []int {
	rows, _ := matrix.Dims()

	isRowZero := make([]bool, rows)
	p.dispatch(rows, func(order <-chan int, wg *sync.WaitGroup) {
		rowCheck(matrix, isRowZero, order, wg)
	})

	return flagged(isRowZero)
}

func rowCheck(matrix *mat64.Dense, isRowZero []bool, order <-chan int, wg *sync.WaitGroup) {
	_, cols := matrix.Dims()

	for {
		index, ok := <-order
		if ok {
			isRowZero[index] = true
			for i := 0; i < cols; i++ {
				if matrix.At(index, i) != 0 {
					isRowZero[index] = false
					break
				}
			}

			wg.Done()
		} else {
			break
		}
	}

	return
}
