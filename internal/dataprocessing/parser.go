package dataprocessing

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetclean/internal/config"
	apperrors "sheetclean/internal/errors"
	"sheetclean/pkg/contracts/domain"
)

// ParseOptions controls how a worksheet is read into a Table
type ParseOptions struct {
	// Sheet is the worksheet to read. Empty selects the first sheet.
	Sheet string

	// NAValues are text values read as missing. Nil selects config.DefaultNAValues.
	NAValues []string
}

// ParseFile reads one worksheet of an xlsx workbook into a Table. The first
// row is the header; every following row is a record.
func ParseFile(filePath string, opts ParseOptions) (*domain.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).
			WithContext("file", filePath)
	}
	defer f.Close()

	return parseWorkbook(f, opts)
}

// ParseReader is ParseFile for an in-memory or streamed workbook
func ParseReader(r io.Reader, opts ParseOptions) (*domain.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read workbook", err)
	}
	defer f.Close()

	return parseWorkbook(f, opts)
}

func parseWorkbook(f *excelize.File, opts ParseOptions) (*domain.Table, error) {
	sheetName, err := selectSheet(f, opts.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read rows", err).
			WithContext("sheet", sheetName)
	}

	naValues := opts.NAValues
	if naValues == nil {
		naValues = config.DefaultNAValues
	}
	na := make(map[string]struct{}, len(naValues))
	for _, v := range naValues {
		na[v] = struct{}{}
	}

	if len(rows) == 0 {
		slog.Warn("Worksheet is empty", slog.String("sheet", sheetName))
		return domain.NewTable(sheetName)
	}

	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	header := headerNames(rows[0], width)
	dates := newDateStyles(f, sheetName)

	// Cells are read column-major so each column is built in one slice.
	records := trimBlankRows(rows[1:])
	cells := make([][]domain.Value, width)
	for j := range cells {
		cells[j] = make([]domain.Value, len(records))
	}

	for i, row := range records {
		for j := 0; j < len(row); j++ {
			cellName, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, apperrors.NewParsingError("invalid cell coordinates", err)
			}
			cellType, err := f.GetCellType(sheetName, cellName)
			if err != nil {
				return nil, apperrors.NewParsingError("failed to read cell type", err).
					WithContext("cell", cellName)
			}
			v := convertCell(row[j], cellType, na)
			if v.Kind == domain.ValueNumber && (cellType == excelize.CellTypeDate || dates.isDate(cellName)) {
				v = dates.text(v.Number)
			}
			cells[j][i] = v
		}
	}

	columns := make([]*domain.Column, width)
	for j := range columns {
		columns[j] = domain.NewColumn(header[j], cells[j])
	}

	table, err := domain.NewTable(sheetName, columns...)
	if err != nil {
		return nil, apperrors.NewParsingError("inconsistent table", err)
	}

	slog.Debug("Worksheet parsed",
		slog.String("sheet", sheetName),
		slog.Int("rows", table.RowCount()),
		slog.Int("columns", len(table.Columns)),
		slog.Int("missing_cells", table.MissingCount()))

	return table, nil
}

// selectSheet returns the requested sheet, or the first one in the workbook
func selectSheet(f *excelize.File, requested string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", apperrors.NewParsingError("workbook has no worksheets", nil)
	}
	if requested == "" {
		return sheets[0], nil
	}
	for _, name := range sheets {
		if name == requested {
			return name, nil
		}
	}
	return "", apperrors.NewParsingError(fmt.Sprintf("worksheet %q not found", requested), nil).
		WithContext("available", sheets)
}

// headerNames names every column. Blank names become "Unnamed: <index>" and
// repeated names get ".1", ".2" suffixes.
func headerNames(row []string, width int) []string {
	names := make([]string, width)
	used := make(map[string]bool, width)
	counts := make(map[string]int, width)

	for j := 0; j < width; j++ {
		name := ""
		if j < len(row) {
			name = strings.TrimSpace(row[j])
		}
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", j)
		}

		base := name
		for used[name] {
			counts[base]++
			name = fmt.Sprintf("%s.%d", base, counts[base])
		}
		used[name] = true
		names[j] = name
	}
	return names
}

// trimBlankRows drops trailing rows with no non-empty cell
func trimBlankRows(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && isBlankRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

// convertCell maps a raw cell string and its stored type to a Value
func convertCell(raw string, cellType excelize.CellType, na map[string]struct{}) domain.Value {
	switch cellType {
	case excelize.CellTypeError:
		return domain.Missing()
	case excelize.CellTypeBool:
		switch strings.ToUpper(raw) {
		case "1", "TRUE":
			return domain.Bool(true)
		case "0", "FALSE":
			return domain.Bool(false)
		}
		return domain.Missing()
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
		if raw == "" {
			return domain.Missing()
		}
		if f, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(f) {
			return domain.Number(f)
		}
	}

	if _, ok := na[raw]; ok || raw == "" {
		return domain.Missing()
	}
	return domain.Text(raw)
}

// dateStyles recognizes numeric cells whose number format displays a date or
// time. Those cells hold day serials and are read as ISO text so date columns
// stay categorical.
type dateStyles struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	byStyle  map[int]bool
}

func newDateStyles(f *excelize.File, sheet string) *dateStyles {
	d := &dateStyles{f: f, sheet: sheet, byStyle: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *dateStyles) isDate(cell string) bool {
	idx, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil || idx == 0 {
		return false
	}
	if isDate, ok := d.byStyle[idx]; ok {
		return isDate
	}
	style, err := d.f.GetStyle(idx)
	isDate := err == nil && isDateFormat(style)
	d.byStyle[idx] = isDate
	return isDate
}

// text formats a day serial as 2006-01-02, adding the clock when it is not midnight
func (d *dateStyles) text(serial float64) domain.Value {
	t, err := excelize.ExcelDateToTime(serial, d.date1904)
	if err != nil {
		return domain.Number(serial)
	}
	if h, m, sec := t.Clock(); h == 0 && m == 0 && sec == 0 {
		return domain.Text(t.Format(time.DateOnly))
	}
	return domain.Text(t.Format(time.DateTime))
}

// isDateFormat reports whether a style's number format shows a date or time:
// the built-in date ids, or a custom code with year, day or hour tokens.
func isDateFormat(style *excelize.Style) bool {
	if style.CustomNumFmt != nil {
		return isDateFormatCode(*style.CustomNumFmt)
	}
	switch id := style.NumFmt; {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47,
		id >= 50 && id <= 58, id >= 71 && id <= 81:
		return true
	}
	return false
}

func isDateFormatCode(code string) bool {
	var b strings.Builder
	quoted, bracket := false, false
	for _, r := range strings.ToLower(code) {
		switch {
		case r == '"':
			quoted = !quoted
		case quoted:
		case r == '[':
			bracket = true
		case r == ']':
			bracket = false
		case bracket:
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(b.String(), "ydh")
}
