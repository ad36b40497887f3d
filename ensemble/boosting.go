package ensemble

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/core/model"
	"github.com/YuminosukeSato/co2bench/metrics"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
	"github.com/YuminosukeSato/co2bench/pkg/log"
	"github.com/YuminosukeSato/co2bench/tree"
)

// GradientBoostingRegressor は二乗誤差の勾配ブースティング回帰モデル
type GradientBoostingRegressor struct {
	model.BaseEstimator

	NEstimators     int     // ブースティングの反復回数
	LearningRate    float64 // 各木の寄与に掛ける縮小率
	MaxDepth        int     // 各木の最大深さ
	MinSamplesSplit int     // 分割を試みる最小サンプル数
	MinSamplesLeaf  int     // 葉の最小サンプル数
	Subsample       float64 // 各反復で使うサンプルの割合 (0, 1]
	RandomState     uint64  // 乱数シード

	Init       float64                       // 初期予測（目的変数の平均）
	Trees      []*tree.DecisionTreeRegressor // 学習済みの木
	TrainScore []float64                     // 各反復後の訓練MSE
}

// BoostingOption は GradientBoostingRegressor を設定する関数
type BoostingOption func(*GradientBoostingRegressor)

// WithBoostingNEstimators は反復回数を設定する
func WithBoostingNEstimators(n int) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.NEstimators = n }
}

// WithLearningRate は学習率を設定する
func WithLearningRate(lr float64) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.LearningRate = lr }
}

// WithBoostingMaxDepth は各木の最大深さを設定する
func WithBoostingMaxDepth(d int) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.MaxDepth = d }
}

// WithBoostingMinSamplesSplit は分割に必要な最小サンプル数を設定する
func WithBoostingMinSamplesSplit(n int) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.MinSamplesSplit = n }
}

// WithBoostingMinSamplesLeaf は葉の最小サンプル数を設定する
func WithBoostingMinSamplesLeaf(n int) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.MinSamplesLeaf = n }
}

// WithSubsample はサンプルの割合を設定する
func WithSubsample(s float64) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.Subsample = s }
}

// WithBoostingRandomState は乱数シードを設定する
func WithBoostingRandomState(seed uint64) BoostingOption {
	return func(g *GradientBoostingRegressor) { g.RandomState = seed }
}

// NewGradientBoostingRegressor は新しい勾配ブースティング回帰モデルを作成する
func NewGradientBoostingRegressor(opts ...BoostingOption) *GradientBoostingRegressor {
	g := &GradientBoostingRegressor{
		NEstimators:     100,
		LearningRate:    0.1,
		MaxDepth:        3,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Subsample:       1.0,
		RandomState:     42,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *GradientBoostingRegressor) validate() error {
	switch {
	case g.NEstimators < 1:
		return errors.NewValidationError("n_estimators", "must be >= 1", g.NEstimators)
	case g.LearningRate <= 0:
		return errors.NewValidationError("learning_rate", "must be > 0", g.LearningRate)
	case g.Subsample <= 0 || g.Subsample > 1:
		return errors.NewValidationError("subsample", "must be in (0, 1]", g.Subsample)
	}
	return nil
}

// Fit はモデルを訓練データで学習させる
func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GradientBoostingRegressor.Fit")

	if err := g.validate(); err != nil {
		return err
	}
	r, c, err := model.CheckFitInput("GradientBoostingRegressor.Fit", X, y)
	if err != nil {
		return err
	}

	logger := log.GetLoggerWithName("ensemble.boosting")
	logger.Debug("fitting gradient boosting",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		log.HyperParamsKey, g.String(),
	)

	rows, target := model.Rows(X), model.Column(y)

	var init float64
	for _, v := range target {
		init += v
	}
	init /= float64(r)

	pred := make([]float64, r)
	for i := range pred {
		pred[i] = init
	}
	residual := make([]float64, r)

	all := make([]int, r)
	for i := range all {
		all[i] = i
	}
	nSub := int(g.Subsample * float64(r))
	if nSub < 1 {
		nSub = 1
	}
	rng := rand.New(rand.NewPCG(g.RandomState, g.RandomState))

	trees := make([]*tree.DecisionTreeRegressor, 0, g.NEstimators)
	trainScore := make([]float64, 0, g.NEstimators)
	for m := 0; m < g.NEstimators; m++ {
		// 二乗誤差の負の勾配は残差そのもの
		for i := range residual {
			residual[i] = target[i] - pred[i]
		}

		idx := all
		if nSub < r {
			idx = append([]int(nil), all...)
			rng.Shuffle(r, func(a, b int) { idx[a], idx[b] = idx[b], idx[a] })
			idx = idx[:nSub]
		}

		t := tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(g.MaxDepth),
			tree.WithMinSamplesSplit(g.MinSamplesSplit),
			tree.WithMinSamplesLeaf(g.MinSamplesLeaf),
			tree.WithRandomState(g.RandomState+uint64(m)),
		)
		if err := t.FitRows(rows, residual, idx); err != nil {
			return err
		}
		trees = append(trees, t)

		var mse float64
		for i, row := range rows {
			pred[i] += g.LearningRate * t.PredictRow(row)
			d := target[i] - pred[i]
			mse += d * d
		}
		trainScore = append(trainScore, mse/float64(r))
	}

	g.Init = init
	g.Trees = trees
	g.TrainScore = trainScore
	g.SetFitted(c)
	return nil
}

// PredictRow は1サンプルの予測値を返す
func (g *GradientBoostingRegressor) PredictRow(x []float64) float64 {
	p := g.Init
	for _, t := range g.Trees {
		p += g.LearningRate * t.PredictRow(x)
	}
	return p
}

// Predict は入力データに対する予測を行う
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := g.CheckPredict("GradientBoostingRegressor", "Predict", c); err != nil {
		return nil, err
	}
	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, g.PredictRow(row))
	}
	return out, nil
}

// Score はモデルの決定係数（R²）を計算する
func (g *GradientBoostingRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !g.IsFitted() {
		return 0, errors.NewNotFittedError("GradientBoostingRegressor", "Score")
	}
	yPred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Matrix(y, yPred)
}

// String はモデルの文字列表現を返す
func (g *GradientBoostingRegressor) String() string {
	return fmt.Sprintf("GradientBoostingRegressor(n_estimators=%d, learning_rate=%g, max_depth=%d, subsample=%g)",
		g.NEstimators, g.LearningRate, g.MaxDepth, g.Subsample)
}
