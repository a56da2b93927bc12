// Package csvlog reads and writes the tabular training logs produced by
// the SAC trainer: a header row naming the columns followed by one row of
// numbers per record.
package csvlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	ColStep          = "step"
	ColEpisodeReturn = "episode_return"
	ColAvgReturn     = "avg_return"
	ColAlpha         = "alpha"
)

var ErrMissingColumn = errors.New("missing column")

// Table holds the requested columns of every row that parsed cleanly.
type Table struct {
	Columns []string
	Rows    [][]float64
	// Rows that were dropped because a requested field was absent or not a number.
	Skipped int
}

func (t *Table) Len() int {
	return len(t.Rows)
}

// Column returns the values of the named column in row order, or nil if
// the table does not carry that column.
func (t *Table) Column(name string) []float64 {
	idx := -1
	for i, c := range t.Columns {
		if c == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	values := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values
}

func ReadFile(path string, columns ...string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f, columns...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return t, nil
}

// Read parses a log with a header row and extracts the given columns.
// A file without a header yields an empty table.
func Read(r io.Reader, columns ...string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	t := &Table{Columns: columns}

	header, err := reader.Read()
	if err == io.EOF {
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	indices := make([]int, len(columns))
	for i, col := range columns {
		indices[i] = -1
		for j, h := range header {
			if strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")) == col {
				indices[i] = j
				break
			}
		}
		if indices[i] < 0 {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, col)
		}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				t.Skipped++
				continue
			}
			return nil, fmt.Errorf("reading row: %w", err)
		}

		row, ok := parseRow(record, indices)
		if !ok {
			t.Skipped++
			continue
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func parseRow(record []string, indices []int) ([]float64, bool) {
	row := make([]float64, len(indices))
	for i, idx := range indices {
		if idx >= len(record) {
			return nil, false
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(record[idx]), 64)
		if err != nil {
			return nil, false
		}
		row[i] = v
	}
	return row, true
}
