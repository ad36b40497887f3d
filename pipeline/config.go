package pipeline

import (
	"bytes"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/co2bench/dataset"
	"github.com/YuminosukeSato/co2bench/neighbors"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
	"github.com/YuminosukeSato/co2bench/preprocessing"
)

// Config は1回の学習・評価の設定。YAMLファイルから読み込み、欠けている項目はデフォルト値になる。
type Config struct {
	Data       DataConfig       `yaml:"data" json:"data"`
	Split      SplitConfig      `yaml:"split" json:"split"`
	Imputation ImputationConfig `yaml:"imputation" json:"imputation"`
	Features   FeatureConfig    `yaml:"features" json:"features"`
	Scaling    string           `yaml:"scaling" json:"scaling"`
	Models     ModelsConfig     `yaml:"models" json:"models"`
	Output     OutputConfig     `yaml:"output" json:"output"`
}

// DataConfig は入力データセットの設定
type DataConfig struct {
	Path   string `yaml:"path" json:"path"`
	Target string `yaml:"target" json:"target"`
}

// SplitConfig は訓練・テスト分割の設定
type SplitConfig struct {
	TestSize float64 `yaml:"test_size" json:"test_size"`
	Seed     uint64  `yaml:"seed" json:"seed"`
}

// ImputationConfig は欠損値の扱い
type ImputationConfig struct {
	Numeric     preprocessing.Strategy                `yaml:"numeric" json:"numeric"`
	Categorical preprocessing.Strategy                `yaml:"categorical" json:"categorical"`
	Columns     map[string]preprocessing.ColumnPolicy `yaml:"columns,omitempty" json:"columns,omitempty"`
}

// FeatureConfig は特徴量の作り方
type FeatureConfig struct {
	// Drop は特徴量から除く列
	Drop []string `yaml:"drop" json:"drop"`
	// Categorical はone-hotエンコードする列
	Categorical []string `yaml:"categorical" json:"categorical"`
	// DropMerged が true なら fuel_weighted の元になった市街地・高速道路の列を除く
	DropMerged bool `yaml:"drop_merged" json:"drop_merged"`
}

// ModelsConfig は実行するモデルとハイパーパラメータ
type ModelsConfig struct {
	Run              []string       `yaml:"run" json:"run"`
	LinearRegression LinearParams   `yaml:"linear_regression" json:"linear_regression"`
	DecisionTree     TreeParams     `yaml:"decision_tree" json:"decision_tree"`
	RandomForest     ForestParams   `yaml:"random_forest" json:"random_forest"`
	KNN              KNNParams      `yaml:"knn" json:"knn"`
	GradientBoosting BoostingParams `yaml:"gradient_boosting" json:"gradient_boosting"`
}

// LinearParams は線形回帰のハイパーパラメータ
type LinearParams struct {
	FitIntercept bool `yaml:"fit_intercept" json:"fit_intercept"`
}

// TreeParams は決定木のハイパーパラメータ
type TreeParams struct {
	MaxDepth        int `yaml:"max_depth" json:"max_depth"`
	MinSamplesSplit int `yaml:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf  int `yaml:"min_samples_leaf" json:"min_samples_leaf"`
	MaxFeatures     int `yaml:"max_features" json:"max_features"`
}

// ForestParams はランダムフォレストのハイパーパラメータ
type ForestParams struct {
	NEstimators     int  `yaml:"n_estimators" json:"n_estimators"`
	MaxDepth        int  `yaml:"max_depth" json:"max_depth"`
	MinSamplesSplit int  `yaml:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf  int  `yaml:"min_samples_leaf" json:"min_samples_leaf"`
	MaxFeatures     int  `yaml:"max_features" json:"max_features"`
	Bootstrap       bool `yaml:"bootstrap" json:"bootstrap"`
	NJobs           int  `yaml:"n_jobs" json:"n_jobs"`
}

// KNNParams はk近傍法のハイパーパラメータ
type KNNParams struct {
	K       int    `yaml:"k" json:"k"`
	Weights string `yaml:"weights" json:"weights"`
}

// BoostingParams は勾配ブースティングのハイパーパラメータ
type BoostingParams struct {
	NEstimators     int     `yaml:"n_estimators" json:"n_estimators"`
	LearningRate    float64 `yaml:"learning_rate" json:"learning_rate"`
	MaxDepth        int     `yaml:"max_depth" json:"max_depth"`
	MinSamplesSplit int     `yaml:"min_samples_split" json:"min_samples_split"`
	MinSamplesLeaf  int     `yaml:"min_samples_leaf" json:"min_samples_leaf"`
	Subsample       float64 `yaml:"subsample" json:"subsample"`
}

// OutputConfig は出力先。空文字列の項目は出力しない。
type OutputConfig struct {
	Plot     string `yaml:"plot" json:"plot"`
	Report   string `yaml:"report" json:"report"`
	Artifact string `yaml:"artifact" json:"artifact"`
}

// DefaultConfig はデフォルト設定を返す
func DefaultConfig() Config {
	return Config{
		Data: DataConfig{Target: dataset.ColCO2},
		Split: SplitConfig{
			TestSize: 0.2,
			Seed:     42,
		},
		Imputation: ImputationConfig{
			Numeric:     preprocessing.StrategyMedian,
			Categorical: preprocessing.StrategyMostFrequent,
		},
		Features: FeatureConfig{
			Drop: []string{dataset.ColMake, dataset.ColModel},
			Categorical: []string{
				preprocessing.ColTransmissionType,
				dataset.ColFuelType,
				dataset.ColVehicleClass,
			},
		},
		Scaling: "standard",
		Models: ModelsConfig{
			Run:              AllModels(),
			LinearRegression: LinearParams{FitIntercept: true},
			DecisionTree: TreeParams{
				MinSamplesSplit: 2,
				MinSamplesLeaf:  1,
			},
			RandomForest: ForestParams{
				NEstimators:     100,
				MinSamplesSplit: 2,
				MinSamplesLeaf:  1,
				Bootstrap:       true,
			},
			KNN: KNNParams{K: 5, Weights: neighbors.WeightsUniform},
			GradientBoosting: BoostingParams{
				NEstimators:     100,
				LearningRate:    0.1,
				MaxDepth:        3,
				MinSamplesSplit: 2,
				MinSamplesLeaf:  1,
				Subsample:       1.0,
			},
		},
		Output: OutputConfig{Plot: "algorithm_vs_accuracy.png"},
	}
}

// LoadConfig はYAMLファイルをデフォルト設定の上に読み込む
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "config: read %s", path)
	}
	if err := cfg.decode(data); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ParseConfig はYAML文字列をデフォルト設定の上に読み込む
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	err := cfg.decode(data)
	return cfg, err
}

func (c *Config) decode(data []byte) error {
	// リストはデフォルトに追記されず置き換わる
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "config: decode yaml")
	}
	return nil
}

// Validate は設定値を検証する
func (c Config) Validate() error {
	if c.Data.Target == "" {
		return errors.NewValidationError("data.target", "must not be empty", c.Data.Target)
	}
	if c.Split.TestSize <= 0 || c.Split.TestSize >= 1 {
		return errors.NewValidationError("split.test_size", "must be in (0, 1)", c.Split.TestSize)
	}
	for name, s := range map[string]preprocessing.Strategy{
		"imputation.numeric":     c.Imputation.Numeric,
		"imputation.categorical": c.Imputation.Categorical,
	} {
		if !s.Valid() {
			return errors.NewValidationError(name, "unknown strategy", s)
		}
	}
	for col, p := range c.Imputation.Columns {
		if !p.Strategy.Valid() {
			return errors.NewValidationError("imputation.columns."+col, "unknown strategy", p.Strategy)
		}
	}
	switch c.Scaling {
	case "", "standard", "minmax", "none":
	default:
		return errors.NewValidationError("scaling", "must be one of standard, minmax, none", c.Scaling)
	}
	if len(c.Models.Run) == 0 {
		return errors.NewValidationError("models.run", "at least one model is required", c.Models.Run)
	}
	seen := make(map[string]bool, len(c.Models.Run))
	for _, name := range c.Models.Run {
		if _, ok := registry[name]; !ok {
			return errors.NewValidationError("models.run", "unknown model", name)
		}
		if seen[name] {
			return errors.NewValidationError("models.run", "duplicate model", name)
		}
		seen[name] = true
	}
	return nil
}
