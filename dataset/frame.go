// Package dataset loads the vehicle emissions table and partitions it for
// training and evaluation.
package dataset

import (
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// Kind is the storage type of a column.
type Kind int

const (
	// Numeric columns hold float64 values; NaN marks a missing value.
	Numeric Kind = iota
	// Categorical columns hold strings; "" marks a missing value.
	Categorical
)

func (k Kind) String() string {
	if k == Categorical {
		return "categorical"
	}
	return "numeric"
}

// Frame is an ordered set of equally long named columns backed by a gota
// DataFrame. Every row remembers the 1-based data row of the source it came
// from, so errors raised after cleaning still point at the right vehicle.
type Frame struct {
	df   dataframe.DataFrame
	rows []int
}

// NewFrame returns an empty frame with n rows numbered 1..n.
func NewFrame(n int) *Frame {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i + 1
	}
	return &Frame{rows: rows}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.rows) }

// Row returns the source row number of row i.
func (f *Frame) Row(i int) int { return f.rows[i] }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	if f.df.Ncol() == 0 {
		return nil
	}
	return f.df.Names()
}

// HasColumn reports whether name is present.
func (f *Frame) HasColumn(name string) bool {
	for _, n := range f.Columns() {
		if n == name {
			return true
		}
	}
	return false
}

// Kind returns the kind of column name.
func (f *Frame) Kind(name string) (Kind, bool) {
	if !f.HasColumn(name) {
		return 0, false
	}
	if f.df.Col(name).Type() == series.String {
		return Categorical, true
	}
	return Numeric, true
}

// Numeric returns a copy of a numeric column.
func (f *Frame) Numeric(name string) ([]float64, error) {
	kind, ok := f.Kind(name)
	if !ok {
		return nil, errors.NewColumnError(name, "no such column")
	}
	if kind != Numeric {
		return nil, errors.NewColumnError(name, "not a numeric column")
	}
	return f.df.Col(name).Float(), nil
}

// Categorical returns a copy of a categorical column.
func (f *Frame) Categorical(name string) ([]string, error) {
	kind, ok := f.Kind(name)
	if !ok {
		return nil, errors.NewColumnError(name, "no such column")
	}
	if kind != Categorical {
		return nil, errors.NewColumnError(name, "not a categorical column")
	}
	col := f.df.Col(name)
	values := col.Records()
	for i, missing := range col.IsNaN() {
		if missing {
			values[i] = ""
		}
	}
	return values, nil
}

// AddNumeric appends a numeric column, replacing any column with the same name.
func (f *Frame) AddNumeric(name string, values []float64) error {
	if len(values) != f.Len() {
		return errors.NewDimensionError("Frame.AddNumeric", f.Len(), len(values), 0)
	}
	return f.put(series.New(values, series.Float, name))
}

// AddCategorical appends a categorical column, replacing any column with the
// same name.
func (f *Frame) AddCategorical(name string, values []string) error {
	if len(values) != f.Len() {
		return errors.NewDimensionError("Frame.AddCategorical", f.Len(), len(values), 0)
	}
	return f.put(series.New(values, series.String, name))
}

func (f *Frame) put(s series.Series) error {
	if s.Err != nil {
		return errors.Wrapf(s.Err, "column %s", s.Name)
	}
	next := dataframe.New(s)
	if f.df.Ncol() > 0 {
		next = f.df.Mutate(s)
	}
	if next.Err != nil {
		return errors.Wrapf(next.Err, "column %s", s.Name)
	}
	f.df = next
	return nil
}

// Drop removes the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) {
	var present []string
	for _, n := range names {
		if f.HasColumn(n) {
			present = append(present, n)
		}
	}
	switch {
	case len(present) == 0:
		return
	case len(present) >= f.df.Ncol():
		f.df = dataframe.DataFrame{}
	default:
		f.df = f.df.Drop(present)
	}
}

// Filter returns a new frame holding the rows where keep is true.
func (f *Frame) Filter(keep []bool) (*Frame, error) {
	if len(keep) != f.Len() {
		return nil, errors.NewDimensionError("Frame.Filter", f.Len(), len(keep), 0)
	}
	rows := make([]int, 0, f.Len())
	for i, k := range keep {
		if k {
			rows = append(rows, i)
		}
	}
	return f.Select(rows), nil
}

// Select returns a new frame with the given rows in the given order.
func (f *Frame) Select(rows []int) *Frame {
	out := &Frame{rows: make([]int, len(rows))}
	for i, r := range rows {
		out.rows[i] = f.rows[r]
	}
	switch {
	case f.df.Ncol() == 0:
	case len(rows) == 0:
		out.df = emptyLike(f.df)
	default:
		out.df = f.df.Subset(rows)
	}
	return out
}

func emptyLike(df dataframe.DataFrame) dataframe.DataFrame {
	cols := make([]series.Series, df.Ncol())
	for i, name := range df.Names() {
		cols[i] = series.New([]string{}, df.Col(name).Type(), name)
	}
	return dataframe.New(cols...)
}

// Matrix copies the named numeric columns into an n×len(names) matrix.
// A missing cell is reported with its source row number.
func (f *Frame) Matrix(names []string) (*mat.Dense, error) {
	if f.Len() == 0 || len(names) == 0 {
		return nil, errors.NewModelError("Frame.Matrix", "empty data", errors.ErrEmptyData)
	}
	m := mat.NewDense(f.Len(), len(names), nil)
	for j, name := range names {
		col, err := f.Numeric(name)
		if err != nil {
			return nil, err
		}
		for i, v := range col {
			if math.IsNaN(v) {
				return nil, errors.NewCellError(name, f.Row(i), "NaN", "missing value in feature matrix")
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// Vector copies a numeric column into an n×1 matrix.
func (f *Frame) Vector(name string) (*mat.Dense, error) {
	return f.Matrix([]string{name})
}

// NumericColumns returns the names of numeric columns in order.
func (f *Frame) NumericColumns() []string {
	var names []string
	for _, name := range f.Columns() {
		if k, _ := f.Kind(name); k == Numeric {
			names = append(names, name)
		}
	}
	return names
}
