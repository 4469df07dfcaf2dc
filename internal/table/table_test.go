package table

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muni-gis/geocode-cli/internal/geodist"
	"github.com/muni-gis/geocode-cli/internal/model"
)

func TestResolveColumns_Hebrew(t *testing.T) {
	cols := ResolveColumns([]string{"מספר", "כתובת מלאה", "קו רוחב", "קו אורך", "שכונה"})
	assert.Equal(t, 1, cols.Address)
	assert.Equal(t, 2, cols.Lat)
	assert.Equal(t, 3, cols.Lon)
	assert.Equal(t, -1, cols.Message)
}

func TestResolveColumns_English(t *testing.T) {
	cols := ResolveColumns([]string{"id", "Address", "Latitude", "Longitude", "geocode message"})
	assert.Equal(t, 1, cols.Address)
	assert.Equal(t, 2, cols.Lat)
	assert.Equal(t, 3, cols.Lon)
	assert.Equal(t, 4, cols.Message)
}

func TestResolveColumns_Arabic(t *testing.T) {
	cols := ResolveColumns([]string{"العنوان", "خط العرض", "خط الطول"})
	assert.Equal(t, 0, cols.Address)
	assert.Equal(t, 1, cols.Lat)
	assert.Equal(t, 2, cols.Lon)
}

func TestResolveColumns_SplitAddress(t *testing.T) {
	cols := ResolveColumns([]string{"שם רחוב", "מספר בית", "עיר", "קו רוחב", "קו אורך"})
	assert.Equal(t, -1, cols.Address)
	assert.Equal(t, 0, cols.Street)
	assert.Equal(t, 1, cols.House)
	assert.Equal(t, 2, cols.City)
	assert.Equal(t, 3, cols.Lat)
	assert.Equal(t, 4, cols.Lon)
}

func TestResolveColumns_NothingDetected(t *testing.T) {
	cols := ResolveColumns([]string{"a", "b", "c"})
	assert.Equal(t, Columns{Address: -1, Street: -1, House: -1, City: -1, Lat: -1, Lon: -1, Message: -1}, cols)
}

func TestBuildRows_PriorCoordinates(t *testing.T) {
	tbl := &Table{
		Header: []string{"כתובת", "lat", "lon"},
		Rows: [][]string{
			{"יפו 19 ירושלים", "31.7857", "35.2137"},
			{"הרצל 3", "", ""},
			{"עזה 5", "0", "0"},
			{"בצלאל 7", "abc", "35.2"},
		},
	}
	rows, err := tbl.BuildRows(ResolveColumns(tbl.Header))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	require.NotNil(t, rows[0].Prior)
	assert.InDelta(t, 31.7857, rows[0].Prior.Lat, 1e-9)
	assert.Equal(t, "יפו 19 ירושלים", rows[0].RawText)

	assert.Nil(t, rows[1].Prior)
	assert.Nil(t, rows[2].Prior, "0,0 is treated as no prior")
	assert.Nil(t, rows[3].Prior)
}

func TestBuildRows_SplitColumnsJoined(t *testing.T) {
	tbl := &Table{
		Header: []string{"רחוב", "מספר בית", "עיר"},
		Rows: [][]string{
			{"יפו", "19", "ירושלים"},
			{"הרצל", "", "ירושלים"},
			{"", "", ""},
		},
	}
	rows, err := tbl.BuildRows(ResolveColumns(tbl.Header))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "יפו 19 ירושלים", rows[0].RawText)
	assert.Equal(t, "הרצל ירושלים", rows[1].RawText)
	assert.Empty(t, rows[2].RawText)
}

func TestBuildRows_NoAddressColumn(t *testing.T) {
	tbl := &Table{Header: []string{"x", "y"}, Rows: [][]string{{"1", "2"}}}
	_, err := tbl.BuildRows(ResolveColumns(tbl.Header))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no address or street column")
}

func TestResult_WritesBackAndPreservesColumns(t *testing.T) {
	tbl := &Table{
		Header: []string{"מספר", "כתובת", "שכונה"},
		Rows: [][]string{
			{"1", "יפו 19 ירושלים", "מרכז העיר"},
			{"2", "", "רחביה"},
		},
	}
	cols := ResolveColumns(tbl.Header)
	rows, err := tbl.BuildRows(cols)
	require.NoError(t, err)

	rows[0].Result = &model.GeocodeResult{
		Point:      geodist.Point{Lat: 31.7857, Lon: 35.2137},
		Confidence: 1.0, Source: model.SourceAuthoritative, Method: model.MethodExact,
	}
	rows[0].Status = model.StatusConfirmed
	rows[0].Message = "authoritative exact match, confidence 1.00"

	rows[1].Status = model.StatusSkipped
	rows[1].Message = "no address data in row"

	out := tbl.Result(cols, rows)

	// three new columns appended, originals untouched
	require.Equal(t, []string{"מספר", "כתובת", "שכונה", "lat", "lon", "geocode message"}, out.Header)
	require.Len(t, out.Rows, 2)

	assert.Equal(t, "1", out.Rows[0][0])
	assert.Equal(t, "מרכז העיר", out.Rows[0][2])
	assert.Equal(t, "31.785700", out.Rows[0][3])
	assert.Equal(t, "35.213700", out.Rows[0][4])
	assert.Equal(t, "authoritative exact match, confidence 1.00", out.Rows[0][5])

	// skipped row: coordinates stay blank, message still present
	assert.Empty(t, out.Rows[1][3])
	assert.Empty(t, out.Rows[1][4])
	assert.Equal(t, "no address data in row", out.Rows[1][5])
}

func TestResult_KeepsRaggedRecordCells(t *testing.T) {
	// A record wider than the header keeps its extra cells; the appended
	// columns go after them.
	tbl := &Table{
		Header: []string{"כתובת"},
		Rows: [][]string{
			{"יפו 19 ירושלים", "תא עודף"},
			{"הרצל 3"},
		},
	}
	cols := ResolveColumns(tbl.Header)
	rows, err := tbl.BuildRows(cols)
	require.NoError(t, err)

	rows[0].Result = &model.GeocodeResult{Point: geodist.Point{Lat: 31.7857, Lon: 35.2137}}
	rows[0].Status = model.StatusConfirmed
	rows[0].Message = "ok"
	rows[1].Status = model.StatusNotFound
	rows[1].Message = "no source returned a result"

	out := tbl.Result(cols, rows)
	require.Equal(t, []string{"כתובת", "", "lat", "lon", "geocode message"}, out.Header)
	assert.Equal(t, "תא עודף", out.Rows[0][1])
	assert.Equal(t, "31.785700", out.Rows[0][2])
	assert.Equal(t, "ok", out.Rows[0][4])
	assert.Empty(t, out.Rows[1][1])
}

func TestResult_ReusesExistingCoordinateColumns(t *testing.T) {
	tbl := &Table{
		Header: []string{"כתובת", "lat", "lon"},
		Rows:   [][]string{{"יפו 19", "31.0", "35.0"}},
	}
	cols := ResolveColumns(tbl.Header)
	rows, err := tbl.BuildRows(cols)
	require.NoError(t, err)

	rows[0].Result = &model.GeocodeResult{Point: geodist.Point{Lat: 31.7857, Lon: 35.2137}}
	rows[0].Status = model.StatusUpdated
	rows[0].Message = "coordinates moved 87m from previous value"

	out := tbl.Result(cols, rows)
	require.Equal(t, []string{"כתובת", "lat", "lon", "geocode message"}, out.Header)
	assert.Equal(t, "31.785700", out.Rows[0][1])
	assert.Equal(t, "35.213700", out.Rows[0][2])
}

func TestCSV_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	tbl := &Table{
		Header: []string{"כתובת", "הערה"},
		Rows: [][]string{
			{"יפו 19, ירושלים", "עם פסיק"},
			{"הרצל 3", `עם "מרכאות"`},
		},
	}
	require.NoError(t, tbl.WriteCSV(path))

	got, err := ReadCSV(path, CSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, got.Header)
	assert.Equal(t, tbl.Rows, got.Rows)
}

func TestCSV_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, (&Table{Header: []string{}}).WriteCSV(path))

	_, err := ReadCSV(filepath.Join(t.TempDir(), "missing.csv"), CSVOptions{})
	require.Error(t, err)
}

func TestXLSX_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.xlsx")
	tbl := &Table{
		Header: []string{"address", "note"},
		Rows: [][]string{
			{"יפו 19 ירושלים", "בעברית"},
			{"jaffa 19", "latin"},
		},
	}
	require.NoError(t, tbl.WriteXLSX(path))

	got, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, got.Header)
	assert.Equal(t, tbl.Rows, got.Rows)
}

func TestRead_DispatchesOnExtension(t *testing.T) {
	dir := t.TempDir()
	tbl := &Table{Header: []string{"address"}, Rows: [][]string{{"יפו 19"}}}

	csvPath := filepath.Join(dir, "a.csv")
	require.NoError(t, tbl.Write(csvPath))
	xlsxPath := filepath.Join(dir, "a.xlsx")
	require.NoError(t, tbl.Write(xlsxPath))

	for _, p := range []string{csvPath, xlsxPath} {
		got, err := Read(p)
		require.NoError(t, err)
		assert.Equal(t, tbl.Rows, got.Rows)
	}
}
