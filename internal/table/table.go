// Package table reads batch input files, detects the address and
// coordinate columns, and writes results back while preserving every
// original column.
package table

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/muni-gis/geocode-cli/internal/geodist"
	"github.com/muni-gis/geocode-cli/internal/model"
)

// Columns holds the detected column indexes; -1 means not present.
// Input files carry either a single combined address column or separate
// street, house-number, and city columns.
type Columns struct {
	Address int
	Street  int
	House   int
	City    int
	Lat     int
	Lon     int
	Message int
}

// Column headers are matched case-insensitively against these fragments,
// covering the Hebrew, Arabic, and English spellings seen in municipal
// exports.
var (
	addressPatterns = []string{"כתובת", "عنوان", "address", "addr"}
	streetPatterns  = []string{"שם רחוב", "רחוב", "شارع", "street"}
	housePatterns   = []string{"מספר בית", "מס' בית", "בית", "رقم", "house", "number"}
	cityPatterns    = []string{"עיר", "ישוב", "مدينة", "city"}
	latPatterns     = []string{"קו רוחב", "רוחב", "خط العرض", "latitude", "lat"}
	lonPatterns     = []string{"קו אורך", "אורך", "خط الطول", "longitude", "long", "lon", "lng"}
	messagePatterns = []string{"הערת מערכת", "geocode message", "message"}
)

// ResolveColumns scans the header row for the address, coordinate, and
// message columns.
func ResolveColumns(header []string) Columns {
	cols := Columns{Address: -1, Street: -1, House: -1, City: -1, Lat: -1, Lon: -1, Message: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case cols.Address < 0 && matchesAny(name, addressPatterns):
			cols.Address = i
		case cols.Street < 0 && matchesAny(name, streetPatterns):
			cols.Street = i
		case cols.House < 0 && matchesAny(name, housePatterns):
			cols.House = i
		case cols.City < 0 && matchesAny(name, cityPatterns):
			cols.City = i
		case cols.Lat < 0 && matchesAny(name, latPatterns):
			cols.Lat = i
		case cols.Lon < 0 && matchesAny(name, lonPatterns):
			cols.Lon = i
		case cols.Message < 0 && matchesAny(name, messagePatterns):
			cols.Message = i
		}
	}
	return cols
}

func matchesAny(name string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}

// Table is a parsed input file: the header row plus all data records.
type Table struct {
	Header []string
	Rows   [][]string
}

// Read dispatches on the file extension; .xlsx goes to the spreadsheet
// reader, everything else is treated as CSV.
func Read(path string) (*Table, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return ReadXLSX(path, XLSXOptions{})
	}
	return ReadCSV(path, CSVOptions{})
}

// BuildRows converts table records into pipeline rows. A combined address
// cell becomes RawText directly; split street/house/city cells are joined
// into one. Prior coordinates are picked up when both coordinate cells
// parse as floats.
func (t *Table) BuildRows(cols Columns) ([]*model.Row, error) {
	if cols.Address < 0 && cols.Street < 0 {
		return nil, eris.New("table: no address or street column detected")
	}

	rows := make([]*model.Row, 0, len(t.Rows))
	for i, record := range t.Rows {
		row := &model.Row{Index: i, Record: record}
		row.RawText = rawAddress(record, cols)
		if p := priorPoint(record, cols); p != nil {
			row.Prior = p
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func rawAddress(record []string, cols Columns) string {
	if cols.Address >= 0 {
		return strings.TrimSpace(cell(record, cols.Address))
	}
	parts := make([]string, 0, 3)
	for _, idx := range []int{cols.Street, cols.House, cols.City} {
		if v := strings.TrimSpace(cell(record, idx)); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return record[idx]
}

func priorPoint(record []string, cols Columns) *geodist.Point {
	if cols.Lat < 0 || cols.Lon < 0 || cols.Lat >= len(record) || cols.Lon >= len(record) {
		return nil
	}
	lat, latErr := strconv.ParseFloat(strings.TrimSpace(record[cols.Lat]), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(record[cols.Lon]), 64)
	if latErr != nil || lonErr != nil || (lat == 0 && lon == 0) {
		return nil
	}
	return &geodist.Point{Lat: lat, Lon: lon}
}

// Result merges processed rows back into an output table: coordinates go
// into the detected latitude/longitude columns (appended when missing),
// the message into a message column, and every other cell is carried over
// unchanged. Skipped rows keep their coordinate cells blank.
func (t *Table) Result(cols Columns, rows []*model.Row) *Table {
	out := &Table{Header: append([]string(nil), t.Header...)}

	// Ragged records can be wider than the header; pad the header so the
	// appended columns land past every original cell instead of over it.
	for _, row := range rows {
		for len(out.Header) < len(row.Record) {
			out.Header = append(out.Header, "")
		}
	}

	if cols.Lat < 0 {
		cols.Lat = len(out.Header)
		out.Header = append(out.Header, "lat")
	}
	if cols.Lon < 0 {
		cols.Lon = len(out.Header)
		out.Header = append(out.Header, "lon")
	}
	if cols.Message < 0 {
		cols.Message = len(out.Header)
		out.Header = append(out.Header, "geocode message")
	}

	width := len(out.Header)
	for _, row := range rows {
		record := make([]string, width)
		copy(record, row.Record)

		if row.Result != nil && row.Status != model.StatusSkipped {
			record[cols.Lat] = strconv.FormatFloat(row.Result.Point.Lat, 'f', 6, 64)
			record[cols.Lon] = strconv.FormatFloat(row.Result.Point.Lon, 'f', 6, 64)
		} else if row.Status == model.StatusSkipped {
			record[cols.Lat] = ""
			record[cols.Lon] = ""
		}
		record[cols.Message] = row.Message

		out.Rows = append(out.Rows, record)
	}
	return out
}

// Write dispatches on the file extension like Read.
func (t *Table) Write(path string) error {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return t.WriteXLSX(path)
	}
	return t.WriteCSV(path)
}
