package pipeline

import (
	"github.com/YuminosukeSato/co2bench/core/model"
	"github.com/YuminosukeSato/co2bench/ensemble"
	"github.com/YuminosukeSato/co2bench/linear"
	"github.com/YuminosukeSato/co2bench/neighbors"
	"github.com/YuminosukeSato/co2bench/tree"
)

// モデルの識別子
const (
	ModelLinearRegression = "linear_regression"
	ModelDecisionTree     = "decision_tree"
	ModelRandomForest     = "random_forest"
	ModelKNN              = "knn"
	ModelGradientBoosting = "gradient_boosting"
)

type entry struct {
	display string
	build   func(cfg Config) model.Regressor
}

var registry = map[string]entry{
	ModelLinearRegression: {"Linear Regression", func(cfg Config) model.Regressor {
		return linear.NewLinearRegression(linear.WithFitIntercept(cfg.Models.LinearRegression.FitIntercept))
	}},
	ModelDecisionTree: {"Decision Tree", func(cfg Config) model.Regressor {
		p := cfg.Models.DecisionTree
		return tree.NewDecisionTreeRegressor(
			tree.WithMaxDepth(p.MaxDepth),
			tree.WithMinSamplesSplit(p.MinSamplesSplit),
			tree.WithMinSamplesLeaf(p.MinSamplesLeaf),
			tree.WithMaxFeatures(p.MaxFeatures),
			tree.WithRandomState(cfg.Split.Seed),
		)
	}},
	ModelRandomForest: {"Random Forest", func(cfg Config) model.Regressor {
		p := cfg.Models.RandomForest
		return ensemble.NewRandomForestRegressor(
			ensemble.WithNEstimators(p.NEstimators),
			ensemble.WithForestMaxDepth(p.MaxDepth),
			ensemble.WithForestMinSamplesSplit(p.MinSamplesSplit),
			ensemble.WithForestMinSamplesLeaf(p.MinSamplesLeaf),
			ensemble.WithForestMaxFeatures(p.MaxFeatures),
			ensemble.WithBootstrap(p.Bootstrap),
			ensemble.WithNJobs(p.NJobs),
			ensemble.WithForestRandomState(cfg.Split.Seed),
		)
	}},
	ModelKNN: {"KNN", func(cfg Config) model.Regressor {
		p := cfg.Models.KNN
		return neighbors.NewKNeighborsRegressor(neighbors.WithK(p.K), neighbors.WithWeights(p.Weights))
	}},
	ModelGradientBoosting: {"Gradient Boosting", func(cfg Config) model.Regressor {
		p := cfg.Models.GradientBoosting
		return ensemble.NewGradientBoostingRegressor(
			ensemble.WithBoostingNEstimators(p.NEstimators),
			ensemble.WithLearningRate(p.LearningRate),
			ensemble.WithBoostingMaxDepth(p.MaxDepth),
			ensemble.WithBoostingMinSamplesSplit(p.MinSamplesSplit),
			ensemble.WithBoostingMinSamplesLeaf(p.MinSamplesLeaf),
			ensemble.WithSubsample(p.Subsample),
			ensemble.WithBoostingRandomState(cfg.Split.Seed),
		)
	}},
}

// AllModels は全モデルの識別子を標準の順序で返す
func AllModels() []string {
	return []string{
		ModelLinearRegression,
		ModelDecisionTree,
		ModelRandomForest,
		ModelKNN,
		ModelGradientBoosting,
	}
}

// DisplayName はモデルの表示名を返す。未知の識別子はそのまま返す。
func DisplayName(name string) string {
	if e, ok := registry[name]; ok {
		return e.display
	}
	return name
}

// NewModel は設定からモデルを作成する
func NewModel(name string, cfg Config) (model.Regressor, bool) {
	e, ok := registry[name]
	if !ok {
		return nil, false
	}
	return e.build(cfg), true
}
