// Package linear は最小二乗法による線形回帰を提供します。
package linear

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/core/model"
	"github.com/YuminosukeSato/co2bench/core/parallel"
	"github.com/YuminosukeSato/co2bench/metrics"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// LinearRegression は最小二乗線形回帰モデル。
// 係数は特異値分解で求めるため、one-hot列と切片の組み合わせのように
// 計画行列がランク落ちしていても最小ノルム解が得られる。
type LinearRegression struct {
	model.BaseEstimator

	Weights   []float64 // 重み（係数）
	Intercept float64   // 切片
	Rank      int       // 中心化した計画行列の数値ランク
	Singular  []float64 // 特異値（降順）

	FitIntercept bool
	RCond        float64 // 最大特異値に対する相対しきい値。これ以下の特異値は0とみなす
}

// NewLinearRegression は新しい線形回帰モデルを作成する
//
// 使用例:
//
//	lr := linear.NewLinearRegression()
//	if err := lr.Fit(XTrain, yTrain); err != nil { ... }
//	r2, err := lr.Score(XTest, yTest)
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{
		FitIntercept: true,
		RCond:        1e-10,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
func (lr *LinearRegression) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "LinearRegression.Fit")

	r, c, err := model.CheckFitInput("LinearRegression.Fit", X, y)
	if err != nil {
		return err
	}

	// 切片を求める場合はXとyを中心化してから解く
	xMean := make([]float64, c)
	var yMean float64
	Xc := mat.DenseCopyOf(X)
	yc := mat.DenseCopyOf(y)
	if lr.FitIntercept {
		col := make([]float64, r)
		for j := 0; j < c; j++ {
			mat.Col(col, j, Xc)
			xMean[j] = floats.Sum(col) / float64(r)
		}
		yMean = mat.Sum(yc) / float64(r)

		const parallelThreshold = 1000
		parallel.ParallelizeWithThreshold(r, parallelThreshold, func(start, end int) {
			for i := start; i < end; i++ {
				for j := 0; j < c; j++ {
					Xc.Set(i, j, Xc.At(i, j)-xMean[j])
				}
				yc.Set(i, 0, yc.At(i, 0)-yMean)
			}
		})
	}

	var svd mat.SVD
	if ok := svd.Factorize(Xc, mat.SVDThin); !ok {
		return errors.NewModelError("LinearRegression.Fit", "SVD factorization failed", errors.ErrSingularMatrix)
	}
	lr.Singular = svd.Values(nil)
	lr.Rank = svd.Rank(lr.RCond)
	if lr.Rank == 0 {
		// 全列が定数: 予測は平均値
		lr.Weights = make([]float64, c)
		lr.Intercept = yMean
		lr.SetFitted(c)
		return nil
	}

	var coef mat.Dense
	svd.SolveTo(&coef, yc, lr.Rank)

	lr.Weights = mat.Col(nil, 0, &coef)
	lr.Intercept = 0
	if lr.FitIntercept {
		lr.Intercept = yMean - floats.Dot(xMean, lr.Weights)
	}
	if err := errors.CheckScalar("LinearRegression.Fit", lr.Intercept); err != nil {
		return err
	}

	lr.SetFitted(c)
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := lr.CheckPredict("LinearRegression", "Predict", c); err != nil {
		return nil, err
	}

	// 予測: y = X * weights + intercept
	var pred mat.VecDense
	pred.MulVec(X, mat.NewVecDense(c, lr.Weights))
	out := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		out.Set(i, 0, pred.AtVec(i)+lr.Intercept)
	}
	return out, nil
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	if !lr.IsFitted() {
		return 0, errors.NewNotFittedError("LinearRegression", "Score")
	}
	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Matrix(y, yPred)
}

// String はモデルの文字列表現を返す
func (lr *LinearRegression) String() string {
	return fmt.Sprintf("LinearRegression(fit_intercept=%t)", lr.FitIntercept)
}
