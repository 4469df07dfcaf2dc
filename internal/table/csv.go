package table

import (
	"encoding/csv"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the CSV parser.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
	TrimSpace  bool
}

// ReadCSV parses the file into a header row plus data records. Variable
// field counts are tolerated; short records are padded on use, not here.
func ReadCSV(path string, opts CSVOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = opts.LazyQuotes
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "csv: read rows")
	}
	if len(records) == 0 {
		return nil, eris.New("csv: file is empty")
	}

	if opts.TrimSpace {
		for _, record := range records {
			for i, field := range record {
				record[i] = strings.TrimSpace(field)
			}
		}
	}

	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// WriteCSV writes the table with the default comma delimiter.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "csv: create file")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(t.Header); err != nil {
		return eris.Wrap(err, "csv: write header")
	}
	if err := w.WriteAll(t.Rows); err != nil {
		return eris.Wrap(err, "csv: write rows")
	}
	w.Flush()
	return eris.Wrap(w.Error(), "csv: flush")
}
