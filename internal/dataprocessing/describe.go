package dataprocessing

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"sheetclean/pkg/contracts/domain"
)

// Statistic names, in report order
var (
	NumericStatistics     = []string{"count", "mean", "std", "min", "25%", "50%", "75%", "max"}
	CategoricalStatistics = []string{"count", "unique", "top", "freq"}
)

// ColumnSummary holds the descriptive statistics of one column. Numeric
// fields are NaN when undefined.
type ColumnSummary struct {
	Name  string
	Count int

	Mean float64
	Std  float64
	Min  float64
	Q25  float64
	Q50  float64
	Q75  float64
	Max  float64

	Unique int
	Top    domain.Value
	Freq   int
}

// Summary is the result of Describe. Kind tells which statistics are set.
type Summary struct {
	Kind    domain.ColumnKind
	Columns []ColumnSummary
}

// Empty reports whether no column was described
func (s *Summary) Empty() bool {
	return len(s.Columns) == 0
}

// StatisticNames returns the row labels for the summary kind
func (s *Summary) StatisticNames() []string {
	if s.Kind == domain.ColumnCategorical {
		return CategoricalStatistics
	}
	return NumericStatistics
}

// Grid renders the summary as a header of column names and one row of
// formatted values per statistic, each row led by the statistic name.
func (s *Summary) Grid() ([]string, [][]string) {
	header := make([]string, 0, len(s.Columns)+1)
	header = append(header, "")
	for _, c := range s.Columns {
		header = append(header, c.Name)
	}

	names := s.StatisticNames()
	rows := make([][]string, len(names))
	for i, name := range names {
		row := make([]string, 0, len(s.Columns)+1)
		row = append(row, name)
		for _, c := range s.Columns {
			row = append(row, c.Format(name))
		}
		rows[i] = row
	}
	return header, rows
}

// Format returns one statistic of the column as text
func (c ColumnSummary) Format(stat string) string {
	switch stat {
	case "count":
		return strconv.Itoa(c.Count)
	case "mean":
		return formatFloat(c.Mean)
	case "std":
		return formatFloat(c.Std)
	case "min":
		return formatFloat(c.Min)
	case "25%":
		return formatFloat(c.Q25)
	case "50%":
		return formatFloat(c.Q50)
	case "75%":
		return formatFloat(c.Q75)
	case "max":
		return formatFloat(c.Max)
	case "unique":
		return strconv.Itoa(c.Unique)
	case "top":
		return c.Top.String()
	case "freq":
		return strconv.Itoa(c.Freq)
	}
	return ""
}

func formatFloat(f float64) string {
	if math.IsNaN(f) {
		return "NaN"
	}
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// Describe computes descriptive statistics for the numeric columns of the
// table. A table without numeric columns has its categorical columns
// described instead.
func Describe(table *domain.Table) Summary {
	if numeric := table.NumericColumns(); len(numeric) > 0 {
		summary := Summary{Kind: domain.ColumnNumeric}
		for _, col := range numeric {
			summary.Columns = append(summary.Columns, DescribeNumeric(col.Name, col.PresentNumbers()))
		}
		return summary
	}

	summary := Summary{Kind: domain.ColumnCategorical}
	for _, col := range table.Columns {
		summary.Columns = append(summary.Columns, DescribeCategorical(col))
	}
	return summary
}

// DescribeNumeric summarizes a sample: count, mean, sample standard
// deviation, min, quartiles and max.
func DescribeNumeric(name string, values []float64) ColumnSummary {
	s := ColumnSummary{Name: name, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(sorted, nil)
	if len(sorted) > 1 {
		s.Std = stat.StdDev(sorted, nil)
	} else {
		s.Std = math.NaN()
	}
	s.Min = floats.Min(sorted)
	s.Max = floats.Max(sorted)
	s.Q25 = Quantile(sorted, 0.25)
	s.Q50 = Quantile(sorted, 0.50)
	s.Q75 = Quantile(sorted, 0.75)
	return s
}

// DescribeCategorical summarizes a column by count, distinct values, most
// frequent value and its frequency.
func DescribeCategorical(col *domain.Column) ColumnSummary {
	s := ColumnSummary{Name: col.Name}
	distinct := make(map[domain.Value]int)
	for _, v := range col.Cells {
		if v.IsMissing() {
			continue
		}
		s.Count++
		distinct[v]++
	}
	s.Unique = len(distinct)
	if top, ok := Mode(col.Cells); ok {
		s.Top = top
		s.Freq = distinct[top]
	}
	return s
}

// Quantile returns the p-quantile of sorted data by linear interpolation
// between closest ranks: h = (n-1)p. It returns NaN for no data.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	h := float64(n-1) * p
	lo, hi := int(math.Floor(h)), int(math.Ceil(h))
	// Equal neighbours short circuit so infinities do not turn into NaN
	if lo == hi || sorted[lo] == sorted[hi] {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}
