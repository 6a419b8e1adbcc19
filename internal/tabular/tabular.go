// Package tabular reads and writes header-keyed tables as CSV or XLSX.
package tabular

import (
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Record is one data row keyed by normalized header name.
type Record map[string]string

// Get returns the value for the first key present, trimmed.
func (r Record) Get(keys ...string) string {
	for _, k := range keys {
		if v, ok := r[k]; ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Read loads path as CSV or XLSX based on its extension. The first row is
// the header.
func Read(path string) ([]Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(path)
	case ".xlsx":
		return ReadXLSX(path, 0)
	default:
		return nil, eris.Errorf("tabular: unsupported file type %q (use .csv or .xlsx)", filepath.Ext(path))
	}
}

// normalizeHeader lowercases a header and replaces spaces and dashes with
// underscores, so "Client Name" matches client_name.
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func toRecords(rows [][]string) []Record {
	if len(rows) == 0 {
		return nil
	}
	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = normalizeHeader(h)
	}
	out := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		rec := make(Record, len(header))
		for i, h := range header {
			if h == "" || i >= len(row) {
				continue
			}
			rec[h] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
