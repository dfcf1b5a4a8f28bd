package sweep

import (
	"strconv"
	"strings"

	"github.com/KyungWonPark/Connectome/internal/errors"
	"github.com/KyungWonPark/Connectome/internal/io"
)

// Header is the column header of the metrics table
var Header = []string{"sub", "thresh", "node", "deg", "bc"}

// Record is one (threshold, node) row of the metrics table. Node is 1-based.
type Record struct {
	Subject     string
	Threshold   int
	Node        int
	Degree      int
	Betweenness float64
}

// Table holds records ordered by threshold, then node
type Table struct {
	Records []Record
}

// Assemble flattens the levels of a sweep into a table. Levels must already be
// in ascending threshold order and hold one value per node.
func Assemble(subject string, levels []Level) (*Table, error) {
	if len(levels) == 0 {
		return &Table{}, nil
	}

	n := len(levels[0].Metrics.Degree)
	records := make([]Record, 0, len(levels)*n)

	for i, level := range levels {
		if i > 0 && level.Threshold <= levels[i-1].Threshold {
			return nil, errors.New(errors.Dependency, "assemble", "threshold %d follows %d", level.Threshold, levels[i-1].Threshold)
		}
		if len(level.Metrics.Degree) != n || len(level.Metrics.Betweenness) != n {
			return nil, errors.New(errors.Dependency, "assemble", "threshold %d has %d degrees and %d betweenness values, want %d", level.Threshold, len(level.Metrics.Degree), len(level.Metrics.Betweenness), n)
		}

		for node := 0; node < n; node++ {
			records = append(records, Record{
				Subject:     subject,
				Threshold:   level.Threshold,
				Node:        node + 1,
				Degree:      level.Metrics.Degree[node],
				Betweenness: level.Metrics.Betweenness[node],
			})
		}
	}

	return &Table{Records: records}, nil
}

// Rows formats the records as CSV fields
func (t *Table) Rows() [][]string {
	rows := make([][]string, len(t.Records))
	for i, r := range t.Records {
		rows[i] = []string{
			r.Subject,
			strconv.Itoa(r.Threshold),
			strconv.Itoa(r.Node),
			strconv.Itoa(r.Degree),
			formatFloat(r.Betweenness),
		}
	}

	return rows
}

// Write persists the table as CSV; path only appears once fully written
func (t *Table) Write(path string) error {
	return io.WriteCSV(path, Header, t.Rows())
}

// formatFloat prints the shortest exact representation, keeping a ".0" on whole numbers
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}

	return s
}
