package domain

import (
	"fmt"
	"strconv"
)

// ValueKind identifies what a single cell holds
type ValueKind int

const (
	ValueMissing ValueKind = iota
	ValueNumber
	ValueText
	ValueBool
)

// String returns the lowercase name of the kind
func (k ValueKind) String() string {
	switch k {
	case ValueNumber:
		return "number"
	case ValueText:
		return "text"
	case ValueBool:
		return "bool"
	default:
		return "missing"
	}
}

// Value is one cell of a Table. The zero Value is missing.
type Value struct {
	Kind   ValueKind
	Number float64
	Text   string
	Bool   bool
}

// Missing returns a missing cell
func Missing() Value {
	return Value{}
}

// Number returns a numeric cell
func Number(f float64) Value {
	return Value{Kind: ValueNumber, Number: f}
}

// Text returns a text cell
func Text(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// Bool returns a boolean cell
func Bool(b bool) Value {
	return Value{Kind: ValueBool, Bool: b}
}

// IsMissing reports whether the cell is null
func (v Value) IsMissing() bool {
	return v.Kind == ValueMissing
}

// String renders the cell the way it is shown in reports
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return strconv.FormatFloat(v.Number, 'g', -1, 64)
	case ValueText:
		return v.Text
	case ValueBool:
		if v.Bool {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// ColumnKind is the inferred type of a whole column
type ColumnKind string

const (
	ColumnNumeric     ColumnKind = "numeric"
	ColumnCategorical ColumnKind = "categorical"
)

// Column is a named, ordered sequence of cells
type Column struct {
	Name  string
	Kind  ColumnKind
	Cells []Value
}

// NewColumn creates a column and infers its kind from the cells
func NewColumn(name string, cells []Value) *Column {
	c := &Column{Name: name, Cells: cells}
	c.Kind = c.InferKind()
	return c
}

// InferKind returns numeric when every present cell is a number (an all-missing
// column counts as numeric) and categorical otherwise.
func (c *Column) InferKind() ColumnKind {
	for _, v := range c.Cells {
		if v.Kind != ValueMissing && v.Kind != ValueNumber {
			return ColumnCategorical
		}
	}
	return ColumnNumeric
}

// Len returns the number of cells
func (c *Column) Len() int {
	return len(c.Cells)
}

// MissingCount returns the number of null cells
func (c *Column) MissingCount() int {
	n := 0
	for _, v := range c.Cells {
		if v.IsMissing() {
			n++
		}
	}
	return n
}

// PresentNumbers returns the numeric values of the present cells in row order
func (c *Column) PresentNumbers() []float64 {
	out := make([]float64, 0, len(c.Cells))
	for _, v := range c.Cells {
		if v.Kind == ValueNumber {
			out = append(out, v.Number)
		}
	}
	return out
}

// Table is an ordered set of equally long columns read from one worksheet
type Table struct {
	Sheet   string
	Columns []*Column
}

// NewTable builds a table and checks that all columns have the same row count
func NewTable(sheet string, columns ...*Column) (*Table, error) {
	t := &Table{Sheet: sheet, Columns: columns}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the row count invariant
func (t *Table) Validate() error {
	if len(t.Columns) == 0 {
		return nil
	}
	rows := t.Columns[0].Len()
	for _, c := range t.Columns[1:] {
		if c.Len() != rows {
			return fmt.Errorf("column %q has %d rows, expected %d", c.Name, c.Len(), rows)
		}
	}
	return nil
}

// RowCount returns the number of data rows
func (t *Table) RowCount() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return t.Columns[0].Len()
}

// Column returns the column with the given name or nil
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ColumnNames returns the header in order
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// NumericColumns returns the numeric columns in order
func (t *Table) NumericColumns() []*Column {
	var out []*Column
	for _, c := range t.Columns {
		if c.Kind == ColumnNumeric {
			out = append(out, c)
		}
	}
	return out
}

// MissingCount returns the number of null cells across the table
func (t *Table) MissingCount() int {
	n := 0
	for _, c := range t.Columns {
		n += c.MissingCount()
	}
	return n
}
