package ensemble

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/core/model"
	"github.com/YuminosukeSato/co2bench/core/parallel"
	"github.com/YuminosukeSato/co2bench/metrics"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
	"github.com/YuminosukeSato/co2bench/pkg/log"
	"github.com/YuminosukeSato/co2bench/tree"
)

// RandomForestRegressor はバギングした回帰木の平均で予測する
type RandomForestRegressor struct {
	model.BaseEstimator

	NEstimators     int    // 木の本数
	MaxDepth        int    // 各木の最大深さ。0は無制限
	MinSamplesSplit int    // 分割を試みる最小サンプル数
	MinSamplesLeaf  int    // 葉の最小サンプル数
	MaxFeatures     int    // 各分割で試す特徴量数。0は全特徴量
	Bootstrap       bool   // false なら全サンプルで各木を学習する
	RandomState     uint64 // 乱数シード
	NJobs           int    // 並列数。0以下はCPU数

	Trees []*tree.DecisionTreeRegressor
}

// ForestOption は RandomForestRegressor を設定する関数
type ForestOption func(*RandomForestRegressor)

// WithNEstimators は木の本数を設定する
func WithNEstimators(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.NEstimators = n }
}

// WithForestMaxDepth は各木の最大深さを設定する
func WithForestMaxDepth(d int) ForestOption {
	return func(f *RandomForestRegressor) { f.MaxDepth = d }
}

// WithForestMinSamplesSplit は分割に必要な最小サンプル数を設定する
func WithForestMinSamplesSplit(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.MinSamplesSplit = n }
}

// WithForestMinSamplesLeaf は葉の最小サンプル数を設定する
func WithForestMinSamplesLeaf(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.MinSamplesLeaf = n }
}

// WithForestMaxFeatures は各分割で試す特徴量数を設定する
func WithForestMaxFeatures(k int) ForestOption {
	return func(f *RandomForestRegressor) { f.MaxFeatures = k }
}

// WithBootstrap はブートストラップ標本の使用を切り替える
func WithBootstrap(b bool) ForestOption {
	return func(f *RandomForestRegressor) { f.Bootstrap = b }
}

// WithForestRandomState は乱数シードを設定する
func WithForestRandomState(seed uint64) ForestOption {
	return func(f *RandomForestRegressor) { f.RandomState = seed }
}

// WithNJobs は並列数を設定する
func WithNJobs(n int) ForestOption {
	return func(f *RandomForestRegressor) { f.NJobs = n }
}

// NewRandomForestRegressor は新しいランダムフォレストを作成する
func NewRandomForestRegressor(opts ...ForestOption) *RandomForestRegressor {
	f := &RandomForestRegressor{
		NEstimators:     100,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Bootstrap:       true,
		RandomState:     42,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// Fit はモデルを訓練データで学習させる
func (f *RandomForestRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "RandomForestRegressor.Fit")

	if f.NEstimators < 1 {
		return errors.NewValidationError("n_estimators", "must be >= 1", f.NEstimators)
	}
	r, c, err := model.CheckFitInput("RandomForestRegressor.Fit", X, y)
	if err != nil {
		return err
	}

	logger := log.GetLoggerWithName("ensemble.forest")
	logger.Debug("fitting random forest",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.HyperParamsKey, f.String(),
	)

	rows, target := model.Rows(X), model.Column(y)
	trees := make([]*tree.DecisionTreeRegressor, f.NEstimators)
	err = parallel.ForEach(f.NEstimators, f.NJobs, func(i int) (err error) {
		defer errors.Recover(&err, "RandomForestRegressor.Fit")
		seed := f.RandomState + uint64(i)
		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(f.MaxDepth),
			tree.WithMinSamplesSplit(f.MinSamplesSplit),
			tree.WithMinSamplesLeaf(f.MinSamplesLeaf),
			tree.WithMaxFeatures(f.MaxFeatures),
			tree.WithRandomState(seed),
		)
		if err := t.FitRows(rows, target, f.sample(r, seed)); err != nil {
			return err
		}
		trees[i] = t
		return nil
	})
	if err != nil {
		return err
	}

	f.Trees = trees
	f.SetFitted(c)
	return nil
}

// sample は i 番目の木の学習に使う行インデックスを返す
func (f *RandomForestRegressor) sample(n int, seed uint64) []int {
	idx := make([]int, n)
	if !f.Bootstrap {
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range idx {
		idx[i] = rng.IntN(n)
	}
	return idx
}

// Predict は全ての木の予測を平均する
func (f *RandomForestRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := f.CheckPredict("RandomForestRegressor", "Predict", c); err != nil {
		return nil, err
	}
	out := mat.NewDense(r, 1, nil)
	parallel.ParallelizeWithThreshold(r, 256, func(start, end int) {
		row := make([]float64, c)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			var sum float64
			for _, t := range f.Trees {
				sum += t.PredictRow(row)
			}
			out.Set(i, 0, sum/float64(len(f.Trees)))
		}
	})
	return out, nil
}

// Score はモデルの決定係数（R²）を計算する
func (f *RandomForestRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !f.IsFitted() {
		return 0, errors.NewNotFittedError("RandomForestRegressor", "Score")
	}
	yPred, err := f.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Matrix(y, yPred)
}

// FeatureImportances は木ごとの重要度の平均を返す
func (f *RandomForestRegressor) FeatureImportances() []float64 {
	imp := make([]float64, f.NFeatures)
	for _, t := range f.Trees {
		for j, v := range t.FeatureImportances() {
			imp[j] += v / float64(len(f.Trees))
		}
	}
	return imp
}

// String はモデルの文字列表現を返す
func (f *RandomForestRegressor) String() string {
	return fmt.Sprintf("RandomForestRegressor(n_estimators=%d, max_depth=%d, random_state=%d)",
		f.NEstimators, f.MaxDepth, f.RandomState)
}
