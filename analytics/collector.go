// Package analytics collects simulation observations into tabular records
// for offline analysis. The core only pushes records through the Collector
// interface; how they are stored is this package's concern.
package analytics

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"sync"
)

// Record is one observation row.
type Record map[string]any

// Collector accepts observation records during a run and persists them at
// the end.
type Collector interface {
	Collect(rec Record)
	Flush() error
}

// CSVCollector buffers records in memory and writes them as CSV on Flush.
// Column order is the sorted union of the keys seen across all records;
// missing values are left empty.
type CSVCollector struct {
	path string

	mu   sync.Mutex
	rows []Record
}

// NewCSVCollector constructs a collector writing to path.
func NewCSVCollector(path string) *CSVCollector {
	return &CSVCollector{path: path}
}

// Collect buffers one record.
func (c *CSVCollector) Collect(rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = append(c.rows, rec)
}

// Len returns the number of buffered records.
func (c *CSVCollector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rows)
}

// Flush writes the buffered records to the CSV file. Flushing with no
// records is a no-op.
func (c *CSVCollector) Flush() error {
	c.mu.Lock()
	rows := c.rows
	c.mu.Unlock()

	if len(rows) == 0 {
		return nil
	}

	fieldSet := make(map[string]struct{})
	for _, rec := range rows {
		for k := range rec {
			fieldSet[k] = struct{}{}
		}
	}
	fields := make([]string, 0, len(fieldSet))
	for k := range fieldSet {
		fields = append(fields, k)
	}
	sort.Strings(fields)

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("create %q: %w", c.path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(fields); err != nil {
		return err
	}
	for _, rec := range rows {
		row := make([]string, len(fields))
		for i, k := range fields {
			if v, ok := rec[k]; ok {
				row[i] = fmt.Sprint(v)
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
