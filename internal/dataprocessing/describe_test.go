package dataprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetclean/pkg/contracts/domain"
)

func TestDescribeNumeric(t *testing.T) {
	s := DescribeNumeric("x", []float64{4, 2, 1, 3})

	assert.Equal(t, "x", s.Name)
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 1.290994, s.Std, 1e-6)
	assert.Equal(t, 1.0, s.Min)
	assert.InDelta(t, 1.75, s.Q25, 1e-12)
	assert.InDelta(t, 2.5, s.Q50, 1e-12)
	assert.InDelta(t, 3.25, s.Q75, 1e-12)
	assert.Equal(t, 4.0, s.Max)
}

func TestDescribeNumeric_EdgeCases(t *testing.T) {
	t.Run("single value", func(t *testing.T) {
		s := DescribeNumeric("x", []float64{7})
		assert.Equal(t, 1, s.Count)
		assert.Equal(t, 7.0, s.Mean)
		assert.True(t, math.IsNaN(s.Std))
		assert.Equal(t, 7.0, s.Q25)
		assert.Equal(t, 7.0, s.Max)
	})

	t.Run("no values", func(t *testing.T) {
		s := DescribeNumeric("x", nil)
		assert.Equal(t, 0, s.Count)
		for _, v := range []float64{s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max} {
			assert.True(t, math.IsNaN(v))
		}
		assert.Equal(t, "NaN", s.Format("mean"))
	})
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{0.25, 2},
		{0.5, 3},
		{0.9, 4.6},
		{1, 5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Quantile(sorted, tt.p), 1e-12)
	}
	assert.True(t, math.IsNaN(Quantile(nil, 0.5)))

	inf := math.Inf(1)
	infTests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"single infinity", []float64{inf}, 0.5, inf},
		{"exact rank on infinity", []float64{1, inf, inf}, 0.5, inf},
		{"equal infinite neighbours", []float64{1, inf, inf, inf}, 0.75, inf},
		{"negative infinity", []float64{-inf, -inf, 2}, 0.25, -inf},
		{"finite rank below infinities", []float64{1, 2, inf}, 0.25, 1.5},
	}
	for _, tt := range infTests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantile(tt.sorted, tt.p)
			assert.False(t, math.IsNaN(got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDescribe(t *testing.T) {
	t.Run("numeric columns only", func(t *testing.T) {
		table := newTestTable(t,
			domain.NewColumn("a", []domain.Value{num(1), num(2), num(3), num(4)}),
			domain.NewColumn("label", []domain.Value{txt("x"), txt("y"), txt("x"), txt("z")}),
			domain.NewColumn("b", []domain.Value{num(10), m, num(30), num(20)}),
		)

		summary := Describe(table)
		assert.Equal(t, domain.ColumnNumeric, summary.Kind)
		require.Len(t, summary.Columns, 2)
		assert.Equal(t, "a", summary.Columns[0].Name)
		assert.Equal(t, "b", summary.Columns[1].Name)
		assert.Equal(t, 3, summary.Columns[1].Count)
		assert.Equal(t, NumericStatistics, summary.StatisticNames())
	})

	t.Run("categorical fallback", func(t *testing.T) {
		table := newTestTable(t,
			domain.NewColumn("label", []domain.Value{txt("x"), txt("y"), txt("x"), m}),
		)

		summary := Describe(table)
		assert.Equal(t, domain.ColumnCategorical, summary.Kind)
		require.Len(t, summary.Columns, 1)

		c := summary.Columns[0]
		assert.Equal(t, 3, c.Count)
		assert.Equal(t, 2, c.Unique)
		assert.Equal(t, txt("x"), c.Top)
		assert.Equal(t, 2, c.Freq)
	})

	t.Run("empty table", func(t *testing.T) {
		table := newTestTable(t)
		summary := Describe(table)
		assert.True(t, summary.Empty())
	})
}

func TestSummary_Grid(t *testing.T) {
	table := newTestTable(t,
		domain.NewColumn("a", []domain.Value{num(1), num(2), num(3), num(4)}),
	)
	summary := Describe(table)

	header, rows := summary.Grid()
	assert.Equal(t, []string{"", "a"}, header)
	require.Len(t, rows, len(NumericStatistics))
	assert.Equal(t, []string{"count", "4"}, rows[0])
	assert.Equal(t, []string{"mean", "2.500000"}, rows[1])
	assert.Equal(t, []string{"std", "1.290994"}, rows[2])
	assert.Equal(t, []string{"25%", "1.750000"}, rows[4])
	assert.Equal(t, []string{"max", "4.000000"}, rows[7])

	cat := Summary{
		Kind:    domain.ColumnCategorical,
		Columns: []ColumnSummary{{Name: "c", Count: 3, Unique: 2, Top: txt("x"), Freq: 2}},
	}
	_, rows = cat.Grid()
	assert.Equal(t, [][]string{{"count", "3"}, {"unique", "2"}, {"top", "x"}, {"freq", "2"}}, rows)
}
