package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// Table is a header plus data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable reads a tabular file, choosing the parser from the extension:
// .xlsx spreadsheets, .shp point shapefiles, anything else as delimited text.
func ReadTable(ctx context.Context, path string) (*Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	case ".shp":
		return readShapefile(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "dataset: open %s", path)
		}
		defer func() { _ = f.Close() }()
		return ReadCSV(ctx, f)
	}
}

// ReadCSV parses delimited text. The delimiter is ';' when the header line
// has more semicolons than commas, ',' otherwise. Input that is not valid
// UTF-8 is decoded as ISO-8859-1.
func ReadCSV(ctx context.Context, r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read csv")
	}
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	if !utf8.Valid(raw) {
		zap.L().Debug("dataset: input is not utf-8, decoding as latin-1")
		raw, err = charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, eris.Wrap(err, "dataset: decode latin-1")
		}
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = sniffDelimiter(raw)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	t := &Table{}
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "dataset: context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read csv row")
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		if t.Header == nil {
			t.Header = record
			continue
		}
		if isBlank(record) {
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	if t.Header == nil {
		return nil, eris.New("dataset: empty csv")
	}
	return t, nil
}

func sniffDelimiter(raw []byte) rune {
	line := raw
	if i := bytes.IndexByte(raw, '\n'); i >= 0 {
		line = raw[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

func isBlank(record []string) bool {
	for _, f := range record {
		if f != "" {
			return false
		}
	}
	return true
}

func readXLSX(path string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, eris.Errorf("dataset: xlsx %s has no sheets", path)
	}

	t := &Table{}
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = strings.TrimSpace(cell.String())
		}
		if t.Header == nil {
			t.Header = cells
			continue
		}
		if isBlank(cells) {
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	if t.Header == nil {
		return nil, eris.Errorf("dataset: xlsx %s is empty", path)
	}
	return t, nil
}

// Column names appended to shapefile attributes for the shape location.
const (
	shapeLatColumn = "latitude"
	shapeLonColumn = "longitude"
)

func readShapefile(path string) (*Table, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	t := &Table{Header: make([]string, 0, len(fields)+2)}
	for _, f := range fields {
		t.Header = append(t.Header, strings.TrimRight(f.String(), "\x00"))
	}
	t.Header = append(t.Header, shapeLatColumn, shapeLonColumn)

	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		lat, lon, ok := shapeLocation(shape)
		if !ok {
			skipped++
			continue
		}

		row := make([]string, 0, len(fields)+2)
		for i := range fields {
			val := strings.TrimRight(reader.Attribute(i), "\x00")
			row = append(row, strings.TrimSpace(val))
		}
		row = append(row, lat, lon)
		t.Rows = append(t.Rows, row)
	}
	if err := reader.Err(); err != nil {
		return nil, eris.Wrapf(err, "dataset: read shapefile %s", path)
	}

	if skipped > 0 {
		zap.L().Debug("dataset: skipped shapefile records without geometry",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}
	return t, nil
}

// shapeLocation returns the point of a point shape, or the bounding-box
// center of any other shape, formatted as decimal strings.
func shapeLocation(shape shp.Shape) (lat, lon string, ok bool) {
	switch s := shape.(type) {
	case nil:
		return "", "", false
	case *shp.Null:
		return "", "", false
	case *shp.Point:
		return formatCoord(s.Y), formatCoord(s.X), true
	default:
		box := s.BBox()
		return formatCoord((box.MinY + box.MaxY) / 2), formatCoord((box.MinX + box.MaxX) / 2), true
	}
}
