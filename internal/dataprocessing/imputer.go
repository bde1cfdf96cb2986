package dataprocessing

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"sheetclean/internal/config"
	"sheetclean/pkg/contracts/domain"
)

// Fill strategies reported per column
const (
	StrategyNone        = "none"
	StrategyMedian      = "median"
	StrategyMode        = "mode"
	StrategyPlaceholder = "placeholder"
	StrategyZero        = "zero"
)

// ImputeOptions configures coercion and filling
type ImputeOptions struct {
	// NumericThreshold is the share of present cells of a text column that must
	// parse as numbers before the column is converted. Zero converts any column
	// with at least one parseable cell.
	NumericThreshold float64

	// Placeholder fills categorical columns that have no present value
	Placeholder string

	// EmptyNumeric decides what happens to a numeric column with no present
	// value: config.EmptyNumericLeave or config.EmptyNumericZero.
	EmptyNumeric string
}

// DefaultImputeOptions returns the options matching config.Default()
func DefaultImputeOptions() ImputeOptions {
	return ImputeOptions{
		NumericThreshold: config.DefaultNumericThreshold,
		Placeholder:      config.DefaultPlaceholder,
		EmptyNumeric:     config.EmptyNumericLeave,
	}
}

// Imputer coerces text columns to numeric where possible and fills missing
// cells with the column median (numeric) or mode (categorical).
type Imputer struct {
	opts   ImputeOptions
	logger *slog.Logger
}

// NewImputer creates a new imputer
func NewImputer(opts ImputeOptions) *Imputer {
	if opts.Placeholder == "" {
		opts.Placeholder = config.DefaultPlaceholder
	}
	if opts.EmptyNumeric == "" {
		opts.EmptyNumeric = config.EmptyNumericLeave
	}
	return &Imputer{opts: opts, logger: slog.Default()}
}

// WithLogger sets the logger used for per-column diagnostics
func (im *Imputer) WithLogger(logger *slog.Logger) *Imputer {
	if logger != nil {
		im.logger = logger
	}
	return im
}

// ColumnImputation describes what happened to one column
type ColumnImputation struct {
	Column       string
	OriginalKind domain.ColumnKind
	FinalKind    domain.ColumnKind
	Coerced      bool
	CoercedAway  int
	Filled       int
	FillValue    domain.Value
	Strategy     string
}

// ImputationStatistics represents imputation run statistics
type ImputationStatistics struct {
	RowCount         int
	ColumnsProcessed int
	ColumnsCoerced   int
	CellsCoercedAway int
	CellsFilled      int
	Columns          []ColumnImputation
}

// Process implements Processor. The table is modified in place.
func (im *Imputer) Process(table *domain.Table) (*domain.Table, error) {
	return im.Impute(table), nil
}

// Impute cleans every column of the table in place and returns it
func (im *Imputer) Impute(table *domain.Table) *domain.Table {
	t, _ := im.ImputeWithStats(table)
	return t
}

// ImputeWithStats performs Impute and returns per-column statistics
func (im *Imputer) ImputeWithStats(table *domain.Table) (*domain.Table, ImputationStatistics) {
	stats := ImputationStatistics{RowCount: table.RowCount()}

	for _, col := range table.Columns {
		result := im.imputeColumn(col)

		stats.ColumnsProcessed++
		if result.Coerced {
			stats.ColumnsCoerced++
		}
		stats.CellsCoercedAway += result.CoercedAway
		stats.CellsFilled += result.Filled
		stats.Columns = append(stats.Columns, result)

		im.logger.Debug("Column imputed",
			slog.String("column", result.Column),
			slog.String("original_kind", string(result.OriginalKind)),
			slog.String("final_kind", string(result.FinalKind)),
			slog.Bool("coerced", result.Coerced),
			slog.Int("coerced_away", result.CoercedAway),
			slog.Int("filled", result.Filled),
			slog.String("strategy", result.Strategy),
			slog.String("fill_value", result.FillValue.String()))
	}

	return table, stats
}

func (im *Imputer) imputeColumn(col *domain.Column) ColumnImputation {
	result := ColumnImputation{
		Column:       col.Name,
		OriginalKind: col.Kind,
		Strategy:     StrategyNone,
	}

	if col.Kind == domain.ColumnCategorical && hasText(col) {
		if coerced, lost, ok := im.coerce(col); ok {
			col.Cells = coerced
			col.Kind = col.InferKind()
			result.Coerced = true
			result.CoercedAway = lost
		}
	}
	result.FinalKind = col.Kind

	missing := col.MissingCount()
	if missing == 0 {
		return result
	}

	var fill domain.Value
	switch col.Kind {
	case domain.ColumnNumeric:
		values := col.PresentNumbers()
		switch {
		case len(values) > 0:
			fill = domain.Number(Median(values))
			result.Strategy = StrategyMedian
		case im.opts.EmptyNumeric == config.EmptyNumericZero:
			fill = domain.Number(0)
			result.Strategy = StrategyZero
		default:
			return result
		}
	default:
		if mode, ok := Mode(col.Cells); ok {
			fill = mode
			result.Strategy = StrategyMode
		} else {
			fill = domain.Text(im.opts.Placeholder)
			result.Strategy = StrategyPlaceholder
		}
	}

	for i, v := range col.Cells {
		if v.IsMissing() {
			col.Cells[i] = fill
		}
	}
	result.Filled = missing
	result.FillValue = fill

	return result
}

// coerce parses every present cell of col as a number. It returns the new
// cells, the number of present cells that became missing, and whether the
// column converts: at least one cell parsed and the parsed share reached the
// threshold.
func (im *Imputer) coerce(col *domain.Column) ([]domain.Value, int, bool) {
	out := make([]domain.Value, len(col.Cells))
	present, parsed := 0, 0

	for i, v := range col.Cells {
		if v.IsMissing() {
			continue
		}
		present++
		if f, ok := ParseNumber(v); ok {
			out[i] = domain.Number(f)
			parsed++
		}
	}

	if parsed == 0 {
		return nil, 0, false
	}
	if im.opts.NumericThreshold > 0 && float64(parsed)/float64(present) < im.opts.NumericThreshold {
		return nil, 0, false
	}
	return out, present - parsed, true
}

func hasText(col *domain.Column) bool {
	for _, v := range col.Cells {
		if v.Kind == domain.ValueText {
			return true
		}
	}
	return false
}

// ParseNumber converts a cell to a float the way coercion does: numbers pass
// through, bools become 1 or 0, text is trimmed and parsed. NaN is rejected.
func ParseNumber(v domain.Value) (float64, bool) {
	switch v.Kind {
	case domain.ValueNumber:
		return v.Number, true
	case domain.ValueBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	case domain.ValueText:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Text), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Median returns the median of values, averaging the two middle values for
// an even count. It returns NaN for no values. values is not modified.
func Median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return Quantile(sorted, 0.5)
}

// Mode returns the most frequent present cell. Ties resolve to the smallest
// value with numbers before bools before text. ok is false when no cell is
// present.
func Mode(cells []domain.Value) (domain.Value, bool) {
	counts := make(map[domain.Value]int)
	for _, v := range cells {
		if !v.IsMissing() {
			counts[v]++
		}
	}
	if len(counts) == 0 {
		return domain.Missing(), false
	}

	var best domain.Value
	bestCount := 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && lessValue(v, best)) {
			best, bestCount = v, n
		}
	}
	return best, true
}

func kindRank(k domain.ValueKind) int {
	switch k {
	case domain.ValueNumber:
		return 0
	case domain.ValueBool:
		return 1
	default:
		return 2
	}
}

// lessValue orders present cells: numbers, then bools, then text
func lessValue(a, b domain.Value) bool {
	if ra, rb := kindRank(a.Kind), kindRank(b.Kind); ra != rb {
		return ra < rb
	}
	switch a.Kind {
	case domain.ValueNumber:
		return a.Number < b.Number
	case domain.ValueBool:
		return !a.Bool && b.Bool
	default:
		return a.Text < b.Text
	}
}
