package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/KyungWonPark/Connectome/internal/io"
)

// npy2txt converts a 2-D float64 .npy matrix into the whitespace-delimited
// text that netmetrics loads, written next to the input as <name>.txt
func main() {
	if len(os.Args) != 2 {
		log.Fatalf("usage: %s <matrix.npy>\n", os.Args[0])
	}
	fileName := os.Args[1]

	matrix, err := io.NpytoMat64(fileName)
	if err != nil {
		log.Fatalf("[npy2txt] %v\n", err)
	}
	rows, cols := matrix.Dims()
	fmt.Printf("Read %d by %d matrix\n", rows, cols)

	out := strings.TrimSuffix(fileName, ".npy") + ".txt"
	if err := io.Mat64toText(out, matrix); err != nil {
		log.Fatalf("[npy2txt] %v\n", err)
	}
	fmt.Println(out)

	return
}
