// Package pipeline は車両の排出量データセットに5種類の回帰モデルを当てはめ、
// テストデータでの精度（R² × 100）を比較します。
//
//	cfg := pipeline.DefaultConfig()
//	cfg.Data.Path = "CO2 Emissions_Canada.csv"
//	report, err := pipeline.Run(ctx, cfg, logger)
//	report.Table(os.Stdout)
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/artifact"
	"github.com/YuminosukeSato/co2bench/chart"
	"github.com/YuminosukeSato/co2bench/core/model"
	"github.com/YuminosukeSato/co2bench/dataset"
	"github.com/YuminosukeSato/co2bench/metrics"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
	"github.com/YuminosukeSato/co2bench/pkg/log"
	"github.com/YuminosukeSato/co2bench/preprocessing"
)

// Run は cfg.Data.Path のCSVを読み込み、RunFrame を実行する
func Run(ctx context.Context, cfg Config, logger log.Logger) (*Report, error) {
	if cfg.Data.Path == "" {
		return nil, errors.NewValidationError("data.path", "must not be empty", cfg.Data.Path)
	}
	frame, err := dataset.LoadCSV(cfg.Data.Path)
	if err != nil {
		return nil, err
	}
	return RunFrame(ctx, cfg, frame, logger)
}

// prepared は分割とスケーリングを終えた学習・評価用データ
type prepared struct {
	features []string
	rows     int
	XTrain   mat.Matrix
	yTrain   mat.Matrix
	XTest    mat.Matrix
	yTest    mat.Matrix
	scaler   preprocessing.Scaler
	imputed  []preprocessing.Imputation
}

// RunFrame は読み込み済みのフレームに対して前処理、学習、評価、出力を行う。
// ctx はモデルの学習の合間に確認される。
func RunFrame(ctx context.Context, cfg Config, frame *dataset.Frame, logger log.Logger) (*Report, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.GetLoggerWithName("pipeline")
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Dataset:   cfg.Data.Path,
		Target:    cfg.Data.Target,
		Seed:      cfg.Split.Seed,
	}
	logger = logger.With(log.EstimatorIDKey, report.RunID)

	data, err := prepare(cfg, frame, logger)
	if err != nil {
		return nil, err
	}
	report.Rows = data.rows
	report.Features = data.features
	report.Imputations = data.imputed
	report.TrainSize, _ = data.XTrain.Dims()
	report.TestSize, _ = data.XTest.Dims()

	fitted := make(map[string]model.Regressor, len(cfg.Models.Run))
	for _, name := range cfg.Models.Run {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "pipeline: cancelled")
		}
		m, ok := NewModel(name, cfg)
		if !ok {
			return nil, errors.NewValidationError("models.run", "unknown model", name)
		}
		res, err := evaluate(name, m, data, logger)
		if err != nil {
			return nil, err
		}
		fitted[name] = m
		report.Results = append(report.Results, res)
	}
	report.Best = report.best().Name

	if err := writeOutputs(cfg, report, data, fitted, logger); err != nil {
		return nil, err
	}
	return report, nil
}

// prepare は欠損値処理、特徴量生成、エンコード、分割、スケーリングを行う
func prepare(cfg Config, frame *dataset.Frame, logger log.Logger) (*prepared, error) {
	logger = logger.With(log.PhaseKey, log.PhasePreprocessing)

	imputer := preprocessing.NewSimpleImputer(cfg.Data.Target)
	imputer.NumericDefault = cfg.Imputation.Numeric
	imputer.CategoricalDefault = cfg.Imputation.Categorical
	for col, p := range cfg.Imputation.Columns {
		imputer.Policies[col] = p
	}
	clean, imputed, err := imputer.Apply(frame)
	if err != nil {
		return nil, err
	}
	if clean.Len() == 0 {
		return nil, errors.NewModelError("pipeline.prepare", "no rows left after cleaning", errors.ErrEmptyData)
	}
	logger.Info("dataset cleaned",
		log.SamplesKey, clean.Len(),
		"rows.dropped", frame.Len()-clean.Len(),
	)

	if err := (preprocessing.Engineer{DropMerged: cfg.Features.DropMerged}).Apply(clean); err != nil {
		return nil, err
	}
	clean.Drop(cfg.Features.Drop...)

	var categorical []string
	for _, c := range cfg.Features.Categorical {
		if clean.HasColumn(c) {
			categorical = append(categorical, c)
		}
	}
	encoder := preprocessing.NewOneHotEncoder(categorical...)
	encoded, err := encoder.FitTransform(clean)
	if err != nil {
		return nil, err
	}

	var leftover []string
	for _, c := range encoded.Columns() {
		if k, _ := encoded.Kind(c); k == dataset.Categorical {
			leftover = append(leftover, c)
		}
	}
	if len(leftover) > 0 {
		logger.Warn("dropping categorical columns that are not encoded", "columns", leftover)
		encoded.Drop(leftover...)
	}

	var features []string
	for _, c := range encoded.NumericColumns() {
		// co2_per_liter は目的変数から計算されるため特徴量にしない
		if c != cfg.Data.Target && c != preprocessing.ColCO2PerLiter {
			features = append(features, c)
		}
	}
	if len(features) == 0 {
		return nil, errors.NewModelError("pipeline.prepare", "no feature columns", errors.ErrEmptyData)
	}

	trainIdx, testIdx, err := dataset.TrainTestSplit(encoded.Len(), cfg.Split.TestSize, cfg.Split.Seed)
	if err != nil {
		return nil, err
	}
	trainFrame, testFrame := encoded.Select(trainIdx), encoded.Select(testIdx)

	XTrain, err := trainFrame.Matrix(features)
	if err != nil {
		return nil, err
	}
	yTrain, err := trainFrame.Vector(cfg.Data.Target)
	if err != nil {
		return nil, err
	}
	XTest, err := testFrame.Matrix(features)
	if err != nil {
		return nil, err
	}
	yTest, err := testFrame.Vector(cfg.Data.Target)
	if err != nil {
		return nil, err
	}
	// R² is undefined for a constant target
	if y := mat.Col(nil, 0, yTest); floats.Min(y) == floats.Max(y) {
		return nil, errors.NewValidationError("split.test_size",
			"target is constant in the test partition, R² is undefined", len(y))
	}

	indicator := make(map[string]bool)
	for _, name := range encoder.FeatureNames() {
		indicator[name] = true
	}
	mask := make([]bool, len(features))
	for j, name := range features {
		mask[j] = !indicator[name]
	}
	scaler, err := preprocessing.NewScaler(cfg.Scaling, mask)
	if err != nil {
		return nil, err
	}
	XTrainS, err := scaler.FitTransform(XTrain)
	if err != nil {
		return nil, err
	}
	XTestS, err := scaler.Transform(XTest)
	if err != nil {
		return nil, err
	}

	logger.Info("dataset split",
		log.FeaturesKey, len(features),
		log.TrainSizeKey, len(trainIdx),
		log.TestSizeKey, len(testIdx),
		log.RandomSeedKey, cfg.Split.Seed,
	)

	return &prepared{
		features: features,
		rows:     encoded.Len(),
		XTrain:   XTrainS,
		yTrain:   yTrain,
		XTest:    XTestS,
		yTest:    yTest,
		scaler:   scaler,
		imputed:  imputed,
	}, nil
}

// evaluate はモデルを学習させ、テストデータで評価する
func evaluate(name string, m model.Regressor, data *prepared, logger log.Logger) (Result, error) {
	logger = logger.With(log.ModelNameKey, DisplayName(name))

	start := time.Now()
	if err := m.Fit(data.XTrain, data.yTrain); err != nil {
		logger.Error("fit failed", err, log.OperationKey, log.OperationFit)
		return Result{}, errors.Wrapf(err, "pipeline: fit %s", name)
	}
	elapsed := time.Since(start)

	pred, err := m.Predict(data.XTest)
	if err != nil {
		return Result{}, errors.Wrapf(err, "pipeline: predict %s", name)
	}
	summary, err := metrics.Summarize(data.yTest, pred)
	if err != nil {
		return Result{}, errors.Wrapf(err, "pipeline: score %s", name)
	}

	res := Result{
		Name:        name,
		DisplayName: DisplayName(name),
		Accuracy:    metrics.Percent(summary.R2),
		R2:          summary.R2,
		RMSE:        summary.RMSE,
		MAE:         summary.MAE,
		FitDuration: elapsed,
	}
	logger.Info("model evaluated",
		log.OperationKey, log.OperationScore,
		log.PhaseKey, log.PhaseTesting,
		log.AccuracyKey, res.Accuracy,
		log.R2ScoreKey, res.R2,
		log.RMSEKey, res.RMSE,
		log.MAEKey, res.MAE,
		log.DurationMsKey, elapsed.Milliseconds(),
	)
	return res, nil
}

// writeOutputs は設定された出力先にグラフ、成果物、レポートを書き出す
func writeOutputs(cfg Config, report *Report, data *prepared, fitted map[string]model.Regressor, logger log.Logger) error {
	if cfg.Output.Plot != "" {
		bars := make([]chart.Bar, len(report.Results))
		for i, r := range report.Results {
			bars[i] = chart.Bar{Name: r.DisplayName, Accuracy: r.Accuracy}
		}
		path, err := chart.AccuracyBar(bars, cfg.Output.Plot)
		if err != nil {
			return err
		}
		report.PlotPath = path
		logger.Info("chart written", log.PathKey, path)
	}

	if cfg.Output.Artifact != "" {
		best := report.best()
		a := &artifact.Artifact{
			RunID:     report.RunID,
			ModelName: best.Name,
			Target:    cfg.Data.Target,
			Accuracy:  best.Accuracy,
			CreatedAt: report.StartedAt,
			Columns:   data.features,
			Scaler:    data.scaler,
			Model:     fitted[best.Name],
		}
		if err := a.Save(cfg.Output.Artifact); err != nil {
			return err
		}
		report.ArtifactDir = cfg.Output.Artifact
		logger.Info("artifact saved",
			log.OperationKey, log.OperationSave,
			log.ModelNameKey, best.DisplayName,
			log.PathKey, cfg.Output.Artifact,
		)
	}

	if cfg.Output.Report != "" {
		f, err := os.Create(cfg.Output.Report)
		if err != nil {
			return errors.Wrapf(err, "pipeline: create %s", cfg.Output.Report)
		}
		defer f.Close()
		if err := report.WriteJSON(f); err != nil {
			return err
		}
		if err := f.Close(); err != nil {
			return errors.WithStack(err)
		}
		logger.Info("report written", log.PathKey, cfg.Output.Report)
	}
	return nil
}
