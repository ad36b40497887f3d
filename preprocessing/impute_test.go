package preprocessing

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/co2bench/dataset"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

func missingFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	nan := math.NaN()
	f := dataset.NewFrame(6)
	must(t, f.AddNumeric(dataset.ColCO2, []float64{200, nan, 250, 230, 210, 300}))
	must(t, f.AddNumeric(dataset.ColEngineSize, []float64{2.0, 3.0, nan, 4.0, 1.0, 5.0}))
	must(t, f.AddNumeric(dataset.ColCylinders, []float64{4, 6, 6, nan, 4, 8}))
	must(t, f.AddCategorical(dataset.ColFuelType, []string{"X", "Z", "", "X", "Z", "X"}))
	return f
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

func TestSimpleImputerDefaults(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(nil)

	f := missingFrame(t)
	out, records, err := NewSimpleImputer(dataset.ColCO2).Apply(f)
	if err != nil {
		t.Fatal(err)
	}

	if out.Len() != 5 {
		t.Fatalf("Len = %d, want 5 (null target dropped)", out.Len())
	}
	co2, _ := out.Numeric(dataset.ColCO2)
	for i, v := range co2 {
		if math.IsNaN(v) {
			t.Errorf("target is null at row %d", i)
		}
	}

	// rows kept: 0,2,3,4,5 ; engine present values 2,4,1,5 → median 3
	eng, _ := out.Numeric(dataset.ColEngineSize)
	if eng[1] != 3 {
		t.Errorf("engine_size median fill = %v, want 3", eng[1])
	}
	fuel, _ := out.Categorical(dataset.ColFuelType)
	if fuel[1] != "X" {
		t.Errorf("fuel_type most_frequent fill = %q, want X", fuel[1])
	}

	if len(records) != 4 || len(warnings) != 4 {
		t.Errorf("records=%d warnings=%d, want 4 each", len(records), len(warnings))
	}

	// input frame is untouched
	orig, _ := f.Numeric(dataset.ColEngineSize)
	if !math.IsNaN(orig[2]) {
		t.Error("Apply mutated its input")
	}
}

func TestSimpleImputerPolicies(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	im := NewSimpleImputer(dataset.ColCO2)
	im.Policies = map[string]ColumnPolicy{
		dataset.ColEngineSize: {Strategy: StrategyMean},
		dataset.ColCylinders:  {Strategy: StrategyDrop},
		dataset.ColFuelType:   {Strategy: StrategyConstant, Fill: "UNKNOWN"},
	}
	out, _, err := im.Apply(missingFrame(t))
	if err != nil {
		t.Fatal(err)
	}
	// target drop removes row 1, cylinders drop removes row 3
	if out.Len() != 4 {
		t.Fatalf("Len = %d, want 4", out.Len())
	}
	eng, _ := out.Numeric(dataset.ColEngineSize)
	// present among rows 0,2,4,5: 2,1,5 → mean 8/3
	if math.Abs(eng[1]-8.0/3.0) > 1e-12 {
		t.Errorf("mean fill = %v", eng[1])
	}
	fuel, _ := out.Categorical(dataset.ColFuelType)
	if fuel[1] != "UNKNOWN" {
		t.Errorf("constant fill = %q", fuel[1])
	}
}

func TestSimpleImputerErrors(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	tests := []struct {
		name     string
		target   string
		policies map[string]ColumnPolicy
	}{
		{"missing target column", "nope", nil},
		{"unknown strategy", dataset.ColCO2, map[string]ColumnPolicy{dataset.ColCylinders: {Strategy: "interpolate"}}},
		{"mean on categorical", dataset.ColCO2, map[string]ColumnPolicy{dataset.ColFuelType: {Strategy: StrategyMean}}},
		{"non-numeric constant", dataset.ColCO2, map[string]ColumnPolicy{dataset.ColCylinders: {Strategy: StrategyConstant, Fill: "four"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := NewSimpleImputer(tt.target)
			if tt.policies != nil {
				im.Policies = tt.policies
			}
			if _, _, err := im.Apply(missingFrame(t)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMedianAndMode(t *testing.T) {
	if got := median([]float64{1, 2, 3, 4}); got != 2.5 {
		t.Errorf("median even = %v", got)
	}
	if got := median([]float64{1, 2, 9}); got != 2 {
		t.Errorf("median odd = %v", got)
	}
	if got := modeSorted([]float64{1, 1, 2, 2, 3}); got != 1 {
		t.Errorf("mode tie = %v, want smallest", got)
	}
}
