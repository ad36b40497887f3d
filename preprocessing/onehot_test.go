package preprocessing

import (
	"reflect"
	"testing"

	"github.com/YuminosukeSato/co2bench/dataset"
)

func TestOneHotEncoderExclusiveIndicators(t *testing.T) {
	f := dataset.NewFrame(5)
	must(t, f.AddCategorical(dataset.ColFuelType, []string{"Z", "X", "D", "X", "Z"}))
	must(t, f.AddNumeric(dataset.ColCO2, []float64{1, 2, 3, 4, 5}))

	enc := NewOneHotEncoder(dataset.ColFuelType, dataset.ColVehicleClass)
	out, err := enc.FitTransform(f)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"fuel_type_D", "fuel_type_X", "fuel_type_Z"}
	if got := enc.FeatureNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("FeatureNames = %v, want %v", got, want)
	}
	if out.HasColumn(dataset.ColFuelType) {
		t.Error("source column should be dropped")
	}
	for i := 0; i < out.Len(); i++ {
		sum := 0.0
		for _, name := range want {
			col, err := out.Numeric(name)
			if err != nil {
				t.Fatal(err)
			}
			sum += col[i]
		}
		if sum != 1 {
			t.Errorf("row %d has %v active indicators", i, sum)
		}
	}
	// vehicle_class is absent and therefore skipped
	if _, ok := enc.Categories[dataset.ColVehicleClass]; ok {
		t.Error("absent column should not be fitted")
	}
}

func TestOneHotEncoderUnseenValueIsAllZero(t *testing.T) {
	train := dataset.NewFrame(2)
	must(t, train.AddCategorical(dataset.ColFuelType, []string{"X", "Z"}))
	enc := NewOneHotEncoder(dataset.ColFuelType)
	must(t, enc.Fit(train))

	test := dataset.NewFrame(1)
	must(t, test.AddCategorical(dataset.ColFuelType, []string{"E"}))
	out, err := enc.Transform(test)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range enc.FeatureNames() {
		col, _ := out.Numeric(name)
		if col[0] != 0 {
			t.Errorf("%s = %v for unseen value", name, col[0])
		}
	}
}

func TestOneHotEncoderNotFitted(t *testing.T) {
	if _, err := NewOneHotEncoder("x").Transform(dataset.NewFrame(0)); err == nil {
		t.Error("expected NotFittedError")
	}
}

func TestOneHotEncoderNormalizesCase(t *testing.T) {
	f := dataset.NewFrame(3)
	must(t, f.AddCategorical(dataset.ColVehicleClass, []string{"Compact", "COMPACT ", "suv - small"}))
	enc := NewOneHotEncoder(dataset.ColVehicleClass)
	out, err := enc.FitTransform(f)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"vehicle_class_COMPACT", "vehicle_class_SUV - SMALL"}
	if got := enc.FeatureNames(); !reflect.DeepEqual(got, want) {
		t.Fatalf("FeatureNames = %v, want %v", got, want)
	}
	compact, _ := out.Numeric(want[0])
	if !reflect.DeepEqual(compact, []float64{1, 1, 0}) {
		t.Errorf("%s = %v", want[0], compact)
	}
	if got := IndicatorName(dataset.ColVehicleClass, Category(" compact")); got != want[0] {
		t.Errorf("inference-side name = %q", got)
	}
}
