package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/core/model"
	"github.com/YuminosukeSato/co2bench/ensemble"
	"github.com/YuminosukeSato/co2bench/linear"
	"github.com/YuminosukeSato/co2bench/neighbors"
	"github.com/YuminosukeSato/co2bench/preprocessing"
	"github.com/YuminosukeSato/co2bench/tree"
)

func trainingData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(12, 2, nil)
	y := mat.NewDense(12, 1, nil)
	for i := 0; i < 12; i++ {
		size := 1 + 0.4*float64(i)
		X.SetRow(i, []float64{size, float64(i % 2)})
		y.Set(i, 0, 100+48*size+10*float64(i%2))
	}
	return X, y
}

func TestArtifactSaveLoadRoundTrip(t *testing.T) {
	X, y := trainingData()

	models := map[string]model.Regressor{
		"linear_regression": linear.NewLinearRegression(),
		"decision_tree":     tree.NewDecisionTreeRegressor(tree.WithMaxDepth(3)),
		"random_forest":     ensemble.NewRandomForestRegressor(ensemble.WithNEstimators(5)),
		"knn":               neighbors.NewKNeighborsRegressor(neighbors.WithK(3)),
		"gradient_boosting": ensemble.NewGradientBoostingRegressor(ensemble.WithBoostingNEstimators(5)),
	}

	for name, m := range models {
		t.Run(name, func(t *testing.T) {
			scaler := preprocessing.NewStandardScalerDefault()
			scaler.Mask = []bool{true, false}
			Xs, err := scaler.FitTransform(X)
			if err != nil {
				t.Fatal(err)
			}
			if err := m.Fit(Xs, y); err != nil {
				t.Fatal(err)
			}
			want, err := m.Predict(Xs)
			if err != nil {
				t.Fatal(err)
			}

			dir := filepath.Join(t.TempDir(), "artifact")
			a := &Artifact{
				RunID:     "run-1",
				ModelName: name,
				Target:    "co2",
				Accuracy:  99.5,
				Columns:   []string{"engine_size", "fuel_type_D"},
				Scaler:    scaler,
				Model:     m,
			}
			if err := a.Save(dir); err != nil {
				t.Fatalf("Save failed: %v", err)
			}

			loaded, err := Load(dir)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if loaded.ModelName != name || loaded.Accuracy != 99.5 || len(loaded.Columns) != 2 {
				t.Errorf("metadata mismatch: %+v", loaded)
			}

			Xl, err := loaded.Scaler.Transform(X)
			if err != nil {
				t.Fatal(err)
			}
			got, err := loaded.Model.Predict(Xl)
			if err != nil {
				t.Fatal(err)
			}
			if !mat.EqualApprox(got, want, 1e-12) {
				t.Error("predictions differ after round trip")
			}
		})
	}
}

func TestColumnsFile(t *testing.T) {
	dir := t.TempDir()
	a := &Artifact{
		Columns: []string{"engine_size", "cylinders", "vehicle_class_COMPACT"},
		Scaler:  &preprocessing.IdentityScaler{},
		Model:   linear.NewLinearRegression(),
	}
	if err := a.Save(dir); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, ColumnsFile))
	if err != nil {
		t.Fatal(err)
	}
	want := "{\n  \"data_columns\": [\n    \"engine_size\",\n    \"cylinders\",\n    \"vehicle_class_COMPACT\"\n  ]\n}"
	if string(data) != want {
		t.Errorf("columns.json =\n%s\nwant\n%s", data, want)
	}

	cols, err := LoadColumns(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(cols) != 3 || cols[2] != "vehicle_class_COMPACT" {
		t.Errorf("LoadColumns = %v", cols)
	}
}

func TestArtifactErrors(t *testing.T) {
	if err := (&Artifact{}).Save(t.TempDir()); err == nil {
		t.Error("Save without a model should fail")
	}
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load from an empty directory should fail")
	}
}
