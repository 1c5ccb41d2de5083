package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nfhs-dash/internal/dataset"
)

// ReadCSV loads a CSV file with a header row. Empty cells become nulls.
func ReadCSV(path string) (*dataset.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer file.Close()

	t, err := DecodeCSV(tableName(path), file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return t, nil
}

// DecodeCSV reads a CSV stream with a header row
func DecodeCSV(name string, r io.Reader) (*dataset.Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &dataset.MalformedError{Source: name, Missing: []string{"header"}}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	header = headerNames(header)

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record %d: %w", len(records)+1, err)
		}
		records = append(records, record)
	}
	return dataset.FromStrings(name, header, records), nil
}

// headerNames trims header cells and names blank ones "Unnamed: <i>", the
// way spreadsheet exports label them
func headerNames(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if strings.TrimSpace(h) == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = h
	}
	return out
}

func tableName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

// WriteCSVDir writes each table to <dir>/<name>.csv and returns the number
// of data rows written
func WriteCSVDir(dir string, tables ...*dataset.Table) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	total := 0
	for i, t := range tables {
		name := t.Name
		if name == "" {
			name = fmt.Sprintf("table%d", i+1)
		}
		path := filepath.Join(dir, name+".csv")
		if err := writeCSV(path, t); err != nil {
			return total, err
		}
		total += t.Len()
	}
	return total, nil
}

func writeCSV(path string, t *dataset.Table) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row) {
				record[j] = row[j].String()
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return file.Close()
}
