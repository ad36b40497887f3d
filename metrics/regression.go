// Package metrics は回帰モデルの評価指標を提供します。
// yTrue と yPred は同じ長さのベクトル、または n×1 の行列です。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// checkPair は入力ベクトルを検証し、スライスとして返す
func checkPair(op string, yTrue, yPred *mat.VecDense) ([]float64, []float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return mat.Col(nil, 0, yTrue), mat.Col(nil, 0, yPred), nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	// MSE = (1/n) * Σ(yTrue - yPred)²
	d := floats.Distance(t, p, 2)
	return d * d / float64(len(t)), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	// MAE = (1/n) * Σ|yTrue - yPred|
	return floats.Distance(t, p, 1) / float64(len(t)), nil
}

// R2Score は決定係数（R²）を計算する。
// yTrue の分散が0の場合は ErrNoVariance を返す。
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	mean := stat.Mean(t, nil)
	var tss, rss float64
	for i := range t {
		tss += (t[i] - mean) * (t[i] - mean)
		rss += (t[i] - p[i]) * (t[i] - p[i])
	}
	if tss == 0 {
		return 0, errors.NewModelError("R2Score", "total sum of squares is zero", errors.ErrNoVariance)
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// MAPE は平均絶対パーセンテージ誤差を計算する。yTrue が0の要素は除外する。
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MAPE = (100/n) * Σ|yTrue - yPred|/|yTrue|
	var sum float64
	validCount := 0
	for i := range t {
		if t[i] == 0 {
			continue
		}
		sum += math.Abs(t[i]-p[i]) / math.Abs(t[i])
		validCount++
	}
	if validCount == 0 {
		return 0, errors.NewValueError("MAPE", "all yTrue values are zero")
	}
	return sum / float64(validCount) * 100, nil
}

// ExplainedVarianceScore は説明分散スコア 1 - Var(yTrue - yPred) / Var(yTrue) を計算する
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	t, p, err := checkPair("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	diff := make([]float64, len(t))
	floats.SubTo(diff, t, p)

	varTrue := stat.PopVariance(t, nil)
	if varTrue == 0 {
		return 0, errors.NewModelError("ExplainedVarianceScore", "no variance in yTrue", errors.ErrNoVariance)
	}
	return 1 - stat.PopVariance(diff, nil)/varTrue, nil
}

// Percent は R² をパーセント表記の精度に変換する
func Percent(r2 float64) float64 {
	return r2 * 100
}

// ===========================================================================
// 行列入力
// ===========================================================================

// toVecs は n×1 行列の組をベクトルに変換する
func toVecs(op string, yTrue, yPred mat.Matrix) (*mat.VecDense, *mat.VecDense, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()

	if rTrue == 0 || cTrue == 0 {
		return nil, nil, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if cTrue != 1 || cPred != 1 {
		return nil, nil, errors.NewValueError(op, "must be a column vector (n×1 matrix)")
	}

	t := mat.NewVecDense(rTrue, nil)
	p := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		t.SetVec(i, yTrue.At(i, 0))
		p.SetVec(i, yPred.At(i, 0))
	}
	return t, p, nil
}

// MSEMatrix は行列形式の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := toVecs("MSEMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MSE(t, p)
}

// R2Matrix は行列形式の入力に対してR²を計算する
func R2Matrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := toVecs("R2Matrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return R2Score(t, p)
}

// Summary はパイプラインが各モデルについて報告する指標の組
type Summary struct {
	R2   float64
	RMSE float64
	MAE  float64
}

// Summarize は n×1 行列から R²、RMSE、MAE をまとめて計算する
func Summarize(yTrue, yPred mat.Matrix) (Summary, error) {
	t, p, err := toVecs("Summarize", yTrue, yPred)
	if err != nil {
		return Summary{}, err
	}
	r2, err := R2Score(t, p)
	if err != nil {
		return Summary{}, err
	}
	rmse, err := RMSE(t, p)
	if err != nil {
		return Summary{}, err
	}
	mae, err := MAE(t, p)
	if err != nil {
		return Summary{}, err
	}
	return Summary{R2: r2, RMSE: rmse, MAE: mae}, nil
}
