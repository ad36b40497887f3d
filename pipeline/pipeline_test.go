package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YuminosukeSato/co2bench/artifact"
	"github.com/YuminosukeSato/co2bench/dataset"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
	"github.com/YuminosukeSato/co2bench/pkg/log"
	"github.com/YuminosukeSato/co2bench/preprocessing"
)

const header = "Make,Model,Vehicle Class,Engine Size(L),Cylinders,Transmission,Fuel Type," +
	"Fuel Consumption City (L/100 km),Fuel Consumption Hwy (L/100 km)," +
	"Fuel Consumption Comb (L/100 km),Fuel Consumption Comb (mpg),CO2 Emissions(g/km)"

// emissionsCSV は CO2 = 23·複合燃費 + 30·ディーゼル の50行データ。
// 行7は気筒数、行11は排出量が欠損している。
func emissionsCSV() string {
	classes := []string{"COMPACT", "SUV - SMALL", "MID-SIZE"}
	transmissions := []string{"AS6", "M6", "AV", "A8"}
	fuels := []string{"X", "Z", "D"}
	cylinders := []string{"4", "6", "8"}

	var b strings.Builder
	b.WriteString(header + "\n")
	for i := 0; i < 50; i++ {
		city := 8 + float64(i*7%13)*0.5
		hwy := 6 + float64(i*5%11)*0.4
		comb := 0.55*city + 0.45*hwy
		fuel := fuels[(i/2)%3]
		co2 := 23 * comb
		if fuel == "D" {
			co2 += 30
		}
		cyl := cylinders[i%3]
		if i == 7 {
			cyl = ""
		}
		co2s := fmt.Sprintf("%g", co2)
		if i == 11 {
			co2s = "NA"
		}
		fmt.Fprintf(&b, "MAKE%d,M%d,%s,%g,%s,%s,%s,%g,%g,%g,%g,%s\n",
			i%5, i, classes[i%3], 1.5+0.1*float64(i%20), cyl, transmissions[i%4], fuel,
			city, hwy, comb, 235.2/comb, co2s)
	}
	return b.String()
}

func loadFrame(t *testing.T) *dataset.Frame {
	t.Helper()
	f, err := dataset.ReadCSV(strings.NewReader(emissionsCSV()))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	return f
}

func quietWarnings(t *testing.T) {
	t.Helper()
	errors.SetWarningHandler(func(error) {})
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
}

// smallConfig は木の本数を減らした、出力なしの設定
func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Models.RandomForest.NEstimators = 10
	cfg.Models.GradientBoosting.NEstimators = 30
	cfg.Output = OutputConfig{}
	return cfg
}

func TestRunFrame(t *testing.T) {
	quietWarnings(t)
	logger, _ := log.NewTestLogger(log.LevelDebug)

	report, err := RunFrame(context.Background(), smallConfig(), loadFrame(t), logger)
	if err != nil {
		t.Fatalf("RunFrame failed: %v", err)
	}

	if report.RunID == "" {
		t.Error("missing run id")
	}
	if report.Rows != 49 {
		t.Errorf("rows = %d, want 49 (one missing target dropped)", report.Rows)
	}
	if report.TrainSize+report.TestSize != report.Rows || report.TestSize != 10 {
		t.Errorf("train/test = %d/%d", report.TrainSize, report.TestSize)
	}

	features := strings.Join(report.Features, ",")
	for _, c := range []string{"co2", "co2_per_liter", "make", "model", "transmission"} {
		for _, f := range report.Features {
			if f == c {
				t.Errorf("feature list must not contain %q: %s", c, features)
			}
		}
	}
	for _, c := range []string{
		"engine_size", "fuel_weighted", "fuel_per_cylinder",
		"fuel_type_D", "vehicle_class_SUV - SMALL", "transmission_type_AS",
	} {
		if !strings.Contains(features, c) {
			t.Errorf("feature list is missing %q: %s", c, features)
		}
	}

	var imputedCylinders bool
	for _, im := range report.Imputations {
		if im.Column == dataset.ColCylinders && im.Count == 1 && im.Strategy == preprocessing.StrategyMedian {
			imputedCylinders = true
		}
	}
	if !imputedCylinders {
		t.Errorf("imputations = %+v, want one median fill of cylinders", report.Imputations)
	}

	if len(report.Results) != 5 {
		t.Fatalf("results = %d, want 5", len(report.Results))
	}
	for i, name := range AllModels() {
		res := report.Results[i]
		if res.Name != name {
			t.Errorf("result %d = %s, want %s", i, res.Name, name)
		}
		if math.IsNaN(res.Accuracy) || math.Abs(res.Accuracy-100*res.R2) > 1e-9 {
			t.Errorf("%s accuracy = %v, R² = %v", name, res.Accuracy, res.R2)
		}
	}

	lr, ok := report.Result(ModelLinearRegression)
	if !ok || lr.Accuracy < 99.9 {
		t.Errorf("linear regression accuracy = %v, want ≈100", lr.Accuracy)
	}
	best, _ := report.Result(report.Best)
	for _, res := range report.Results {
		if res.Accuracy > best.Accuracy {
			t.Errorf("best = %s (%.3f) but %s scored %.3f", report.Best, best.Accuracy, res.Name, res.Accuracy)
		}
	}

	if !logger.ContainsMessage("model evaluated") {
		t.Error("expected a log record per evaluated model")
	}
	if !logger.ContainsField(log.ModelNameKey, "Random Forest") {
		t.Error("expected model name in log fields")
	}
}

func TestRunFrameDeterministic(t *testing.T) {
	quietWarnings(t)
	logger, _ := log.NewTestLogger(log.LevelWarn)
	a, err := RunFrame(context.Background(), smallConfig(), loadFrame(t), logger)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RunFrame(context.Background(), smallConfig(), loadFrame(t), logger)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Results {
		if a.Results[i].Accuracy != b.Results[i].Accuracy {
			t.Errorf("%s: %v vs %v", a.Results[i].Name, a.Results[i].Accuracy, b.Results[i].Accuracy)
		}
	}
	if a.RunID == b.RunID {
		t.Error("run ids should differ between runs")
	}
}

func TestRunFrameOutputs(t *testing.T) {
	quietWarnings(t)
	dir := t.TempDir()
	cfg := smallConfig()
	cfg.Models.Run = []string{ModelLinearRegression, ModelKNN}
	cfg.Output = OutputConfig{
		Plot:     filepath.Join(dir, "algorithm_vs_accuracy.png"),
		Report:   filepath.Join(dir, "report.json"),
		Artifact: filepath.Join(dir, "artifact"),
	}

	logger, _ := log.NewTestLogger(log.LevelInfo)
	report, err := RunFrame(context.Background(), cfg, loadFrame(t), logger)
	if err != nil {
		t.Fatalf("RunFrame failed: %v", err)
	}

	if report.PlotPath != cfg.Output.Plot {
		t.Errorf("plot path = %q", report.PlotPath)
	}
	if _, err := os.Stat(cfg.Output.Plot); err != nil {
		t.Errorf("chart not written: %v", err)
	}

	data, err := os.ReadFile(cfg.Output.Report)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte(`"run_id": "`+report.RunID+`"`)) {
		t.Errorf("report.json does not carry the run id:\n%s", data)
	}

	a, err := artifact.Load(cfg.Output.Artifact)
	if err != nil {
		t.Fatalf("artifact.Load failed: %v", err)
	}
	if a.ModelName != report.Best || a.RunID != report.RunID {
		t.Errorf("artifact = %s/%s, want %s/%s", a.ModelName, a.RunID, report.Best, report.RunID)
	}
	if strings.Join(a.Columns, ",") != strings.Join(report.Features, ",") {
		t.Errorf("artifact columns = %v, want %v", a.Columns, report.Features)
	}
}

func TestRunFrameCancelled(t *testing.T) {
	quietWarnings(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	logger, _ := log.NewTestLogger(log.LevelInfo)
	if _, err := RunFrame(ctx, smallConfig(), loadFrame(t), logger); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestRunMissingPath(t *testing.T) {
	if _, err := Run(context.Background(), DefaultConfig(), nil); err == nil {
		t.Error("Run without a data path should fail")
	}
	cfg := DefaultConfig()
	cfg.Data.Path = filepath.Join(t.TempDir(), "missing.csv")
	if _, err := Run(context.Background(), cfg, nil); err == nil {
		t.Error("Run with a missing file should fail")
	}
}

func TestRunFrameReportsSourceRow(t *testing.T) {
	quietWarnings(t)
	// 2, 3行目は排出量が欠損して削除され、気筒数0は4行目にある
	in := "Cylinders,Fuel Consumption Comb (L/100 km),CO2 Emissions(g/km)\n" +
		"4,8,200\n4,8,NA\n4,8,NA\n0,8,210\n4,9,220\n"
	frame, err := dataset.ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := log.NewTestLogger(log.LevelInfo)
	_, err = RunFrame(context.Background(), smallConfig(), frame, logger)

	var ce *errors.ColumnError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ColumnError, got %v", err)
	}
	if ce.Column != dataset.ColCylinders || ce.Row != 4 || ce.Value != "0" {
		t.Errorf("ColumnError = %+v, want cylinders row 4", ce)
	}
}

func TestRunFrameConstantTestTarget(t *testing.T) {
	quietWarnings(t)
	var b strings.Builder
	b.WriteString("Engine Size(L),Fuel Consumption Comb (L/100 km),CO2 Emissions(g/km)\n")
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&b, "%g,%g,200\n", 1.5+0.2*float64(i), 7+0.3*float64(i))
	}
	frame, err := dataset.ReadCSV(strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	logger, _ := log.NewTestLogger(log.LevelInfo)
	_, err = RunFrame(context.Background(), smallConfig(), frame, logger)

	var ve *errors.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if ve.ParamName != "split.test_size" {
		t.Errorf("ParamName = %q", ve.ParamName)
	}
	if strings.Contains(err.Error(), ModelLinearRegression) {
		t.Errorf("error blames a model: %v", err)
	}
}

func TestRunFrameUnknownModel(t *testing.T) {
	if _, ok := NewModel("svm", DefaultConfig()); ok {
		t.Fatal("NewModel accepted an unknown name")
	}
	cfg := smallConfig()
	cfg.Models.Run = []string{"svm"}
	logger, _ := log.NewTestLogger(log.LevelInfo)
	_, err := RunFrame(context.Background(), cfg, loadFrame(t), logger)

	var ve *errors.ValidationError
	if !errors.As(err, &ve) || ve.ParamName != "models.run" {
		t.Errorf("want ValidationError for models.run, got %v", err)
	}
}

func TestReportTable(t *testing.T) {
	r := &Report{
		Results: []Result{
			{Name: ModelLinearRegression, DisplayName: "Linear Regression", Accuracy: 99.12, R2: 0.9912},
			{Name: ModelRandomForest, DisplayName: "Random Forest", Accuracy: 99.67, R2: 0.9967},
		},
		Best: ModelRandomForest,
	}
	var buf bytes.Buffer
	if err := r.Table(&buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, s := range []string{"MODEL", "Linear Regression", "99.12", "Random Forest", "Best model: Random Forest (99.67%)"} {
		if !strings.Contains(out, s) {
			t.Errorf("table missing %q:\n%s", s, out)
		}
	}
	if r.best().Name != ModelRandomForest {
		t.Errorf("best = %s", r.best().Name)
	}
}
