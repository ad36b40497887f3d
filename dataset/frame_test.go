package dataset

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

func sampleFrame(t *testing.T) *Frame {
	t.Helper()
	f := NewFrame(3)
	if err := f.AddNumeric(ColEngineSize, []float64{2.0, 3.5, math.NaN()}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddCategorical(ColFuelType, []string{"X", "Z", ""}); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestFrameAccessors(t *testing.T) {
	f := sampleFrame(t)

	if f.Len() != 3 {
		t.Errorf("Len = %d", f.Len())
	}
	if got := f.Columns(); len(got) != 2 || got[0] != ColEngineSize || got[1] != ColFuelType {
		t.Errorf("Columns = %v", got)
	}
	if k, ok := f.Kind(ColFuelType); !ok || k != Categorical {
		t.Errorf("Kind(fuel_type) = %v, %v", k, ok)
	}

	var ce *errors.ColumnError
	if _, err := f.Numeric("nope"); !errors.As(err, &ce) {
		t.Errorf("expected ColumnError for unknown column, got %v", err)
	}
	if _, err := f.Numeric(ColFuelType); !errors.As(err, &ce) {
		t.Errorf("expected ColumnError for kind mismatch, got %v", err)
	}
	if err := f.AddNumeric("short", []float64{1}); err == nil {
		t.Error("expected length mismatch error")
	}
}

func TestFrameReplaceAndDrop(t *testing.T) {
	f := sampleFrame(t)
	if err := f.AddNumeric(ColEngineSize, []float64{1, 1, 1}); err != nil {
		t.Fatal(err)
	}
	if len(f.Columns()) != 2 {
		t.Fatalf("replacing must not add a column: %v", f.Columns())
	}

	f.Drop(ColEngineSize, "unknown")
	if f.HasColumn(ColEngineSize) || !f.HasColumn(ColFuelType) {
		t.Errorf("Drop left %v", f.Columns())
	}
	if _, err := f.Categorical(ColFuelType); err != nil {
		t.Errorf("index not rebuilt after Drop: %v", err)
	}
}

func TestFrameFilterSelect(t *testing.T) {
	f := sampleFrame(t)

	kept, err := f.Filter([]bool{true, false, true})
	if err != nil {
		t.Fatal(err)
	}
	fuel, _ := kept.Categorical(ColFuelType)
	if kept.Len() != 2 || fuel[0] != "X" || fuel[1] != "" {
		t.Errorf("Filter = %v", fuel)
	}

	sel := f.Select([]int{1, 0})
	eng, _ := sel.Numeric(ColEngineSize)
	if eng[0] != 3.5 || eng[1] != 2.0 {
		t.Errorf("Select = %v", eng)
	}
	// Select copies
	eng[0] = 99
	orig, _ := f.Numeric(ColEngineSize)
	if orig[1] != 3.5 {
		t.Error("Select shares storage with the source frame")
	}
}

func TestFrameMatrixRejectsMissing(t *testing.T) {
	f := sampleFrame(t)
	if _, err := f.Matrix([]string{ColEngineSize}); err == nil {
		t.Fatal("expected error for NaN cell")
	}

	clean, _ := f.Filter([]bool{true, true, false})
	m, err := clean.Matrix([]string{ColEngineSize})
	if err != nil {
		t.Fatal(err)
	}
	if r, c := m.Dims(); r != 2 || c != 1 || m.At(1, 0) != 3.5 {
		t.Errorf("Matrix = %v", m)
	}
}

func TestFrameRowsFollowFilterAndSelect(t *testing.T) {
	f := sampleFrame(t)
	kept, err := f.Filter([]bool{false, true, true})
	if err != nil {
		t.Fatal(err)
	}
	sel := kept.Select([]int{1, 0})
	if got := []int{sel.Row(0), sel.Row(1)}; got[0] != 3 || got[1] != 2 {
		t.Errorf("source rows = %v, want [3 2]", got)
	}

	empty := f.Select(nil)
	if empty.Len() != 0 || !empty.HasColumn(ColEngineSize) {
		t.Errorf("empty select: len %d columns %v", empty.Len(), empty.Columns())
	}
}

func TestFrameMatrixReportsSourceRow(t *testing.T) {
	f := sampleFrame(t)
	shuffled := f.Select([]int{2, 0})
	_, err := shuffled.Matrix([]string{ColEngineSize})

	var ce *errors.ColumnError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ColumnError, got %v", err)
	}
	if ce.Row != 3 {
		t.Errorf("Row = %d, want source row 3", ce.Row)
	}
}
