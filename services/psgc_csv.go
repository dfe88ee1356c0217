package services

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"
)

// CSVRecord is one data row keyed by header name, values trimmed
type CSVRecord struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed value for a column, "" when the column is missing
func (r CSVRecord) Get(column string) string {
	return r.Values[column]
}

// Has reports whether the row carries a non-blank value for column
func (r CSVRecord) Has(column string) bool {
	return r.Values[column] != ""
}

// CSVReader streams a header-keyed CSV file
type CSVReader struct {
	path   string
	file   *os.File
	reader *csv.Reader
}

// OpenCSV opens path for streaming. It fails with ErrNotFound when the path
// is missing or is not a regular file.
func OpenCSV(path string) (*CSVReader, error) {
	if err := CheckCSV(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	br := stripUTF8BOM(bufio.NewReader(f))
	r := csv.NewReader(br)
	r.FieldsPerRecord = -1

	return &CSVReader{path: path, file: f, reader: r}, nil
}

// CheckCSV fails with ErrNotFound unless path is a regular file
func CheckCSV(path string) error {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return fmt.Errorf("%w: file not found: %s", ErrNotFound, path)
	}
	return nil
}

// Close releases the underlying file
func (c *CSVReader) Close() error {
	return c.file.Close()
}

// Records yields data rows lazily. Blank rows, unparsable rows and rows whose
// width differs from the header are skipped. Only I/O failures are yielded as
// errors, after which iteration stops.
func (c *CSVReader) Records() iter.Seq2[CSVRecord, error] {
	return func(yield func(CSVRecord, error) bool) {
		var header []string

		for {
			row, err := c.reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				var parseErr *csv.ParseError
				if errors.As(err, &parseErr) {
					continue
				}
				yield(CSVRecord{}, fmt.Errorf("failed to read %s: %w", c.path, err))
				return
			}
			if isBlankRow(row) {
				continue
			}

			line, _ := c.reader.FieldPos(0)

			if header == nil {
				header = make([]string, len(row))
				for i := range row {
					header[i] = strings.TrimSpace(row[i])
				}
				continue
			}

			if len(row) != len(header) {
				continue
			}

			values := make(map[string]string, len(header))
			for i, name := range header {
				values[name] = strings.TrimSpace(row[i])
			}
			if !yield(CSVRecord{Line: line, Values: values}, nil) {
				return
			}
		}
	}
}

func isBlankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func stripUTF8BOM(r *bufio.Reader) *bufio.Reader {
	b, err := r.Peek(3)
	if err == nil && len(b) == 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		_, _ = r.Discard(3)
	}
	return r
}
