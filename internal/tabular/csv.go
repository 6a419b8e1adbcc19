package tabular

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"
)

// ReadCSV reads a comma-separated file with a header row.
func ReadCSV(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable fields
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read rows")
	}
	return toRecords(rows), nil
}
