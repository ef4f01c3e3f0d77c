// Package importer pulls participants and practices from tabular feeds: a
// registration form export and one roster sheet per practice, both CSV.
package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"os"
)

// ReadCSV yields the records of r one at a time. Rows may have differing
// lengths. Iteration stops at the first read error, which is yielded.
func ReadCSV(r io.Reader) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		cr.TrimLeadingSpace = true
		for {
			rec, err := cr.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// ReadCSVFile is ReadCSV over a file that is opened on first iteration and
// closed when iteration ends.
func ReadCSVFile(path string) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		f, err := os.Open(path)
		if err != nil {
			yield(nil, err)
			return
		}
		defer f.Close()
		for rec, err := range ReadCSV(f) {
			if !yield(rec, err) {
				return
			}
		}
	}
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
