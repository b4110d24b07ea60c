package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"store-route-planner/internal/domain"

	"github.com/xuri/excelize/v2"
)

// DemandColumns is the header of the demand sheet, in export order.
var DemandColumns = []string{"store", "code", "lat", "lon", "region", "demand (boxes)"}

// WriteDemandCSV writes one row per record under DemandColumns.
func WriteDemandCSV(w io.Writer, records []domain.DemandRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(DemandColumns); err != nil {
		return fmt.Errorf("write demand csv: header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Location.Name,
			r.Location.Code,
			strconv.FormatFloat(r.Location.Coords.Lat, 'f', -1, 64),
			strconv.FormatFloat(r.Location.Coords.Lon, 'f', -1, 64),
			r.Location.Region,
			strconv.Itoa(r.Boxes),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write demand csv: location_id=%d: %w", r.Location.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write demand csv: flush: %w", err)
	}
	return nil
}

// ReadDemandCSV parses a demand sheet. Headers are matched case-insensitively
// after trimming, so column order is free. Comma, semicolon and tab
// delimiters are detected from the header line. Blank lines are skipped.
func ReadDemandCSV(r io.Reader) ([]domain.DemandRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read demand csv: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.NewInputError("csv", "file is empty")
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = detectDelimiter(data)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, domain.NewInputError("csv", err.Error())
	}

	return parseDemandRows(rows, "line")
}

// ReadDemandXLSX parses the first sheet of a workbook laid out like the CSV.
func ReadDemandXLSX(r io.Reader) ([]domain.DemandRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.NewInputError("xlsx", fmt.Sprintf("cannot open workbook: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewInputError("xlsx", "workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read demand xlsx: sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, domain.NewInputError("xlsx", "sheet is empty")
	}

	return parseDemandRows(rows, "row")
}

func detectDelimiter(data []byte) rune {
	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := bytes.Count(header, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func parseDemandRows(rows [][]string, unit string) ([]domain.DemandRecord, error) {
	col := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := col[name]; !dup {
			col[name] = i
		}
	}

	var missing []string
	for _, name := range DemandColumns {
		if _, ok := col[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewInputError("header", "missing columns: "+strings.Join(missing, ", "))
	}

	cell := func(row []string, name string) string {
		i := col[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]domain.DemandRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if isEmptyRow(row) {
			continue
		}
		at := fmt.Sprintf("%s %d", unit, i+2)

		lat, err := strconv.ParseFloat(cell(row, "lat"), 64)
		if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
			return nil, domain.NewInputError("lat", fmt.Sprintf("%s: invalid latitude %q", at, cell(row, "lat")))
		}
		lon, err := strconv.ParseFloat(cell(row, "lon"), 64)
		if err != nil || math.IsNaN(lon) || lon < -180 || lon > 180 {
			return nil, domain.NewInputError("lon", fmt.Sprintf("%s: invalid longitude %q", at, cell(row, "lon")))
		}

		boxes, err := parseBoxes(cell(row, "demand (boxes)"))
		if err != nil {
			return nil, domain.NewInputError("demand (boxes)", fmt.Sprintf("%s: %v", at, err))
		}

		code := cell(row, "code")
		if code == "" {
			return nil, domain.NewInputError("code", at+": must not be empty")
		}

		records = append(records, domain.DemandRecord{
			Location: domain.StoreLocation{
				Name:   cell(row, "store"),
				Code:   code,
				Region: cell(row, "region"),
				Coords: domain.Coordinates{Lat: lat, Lon: lon},
			},
			Boxes: boxes,
		})
	}

	return records, nil
}

// parseBoxes accepts whole numbers, including spreadsheet renderings such as
// "120.0". Empty means zero.
func parseBoxes(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("negative demand %d", n)
		}
		if n > domain.MaxBoxes {
			return 0, fmt.Errorf("demand %d exceeds %d", n, domain.MaxBoxes)
		}
		return n, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("demand %q is not a whole number", s)
	}
	if f < 0 {
		return 0, fmt.Errorf("negative demand %v", f)
	}
	if f > domain.MaxBoxes {
		return 0, fmt.Errorf("demand %v exceeds %d", f, domain.MaxBoxes)
	}
	return int(f), nil
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
