package io

import (
	"encoding/csv"
	stdio "io"
)

// WriteCSV writes a header and rows to path. The file appears only once every
// row has been written; on error nothing is left behind.
func WriteCSV(path string, header []string, rows [][]string) error {
	return writeAtomic("write", path, func(w stdio.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(header); err != nil {
			return err
		}
		if err := cw.WriteAll(rows); err != nil {
			return err
		}

		return cw.Error()
	})
}
