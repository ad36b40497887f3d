// Package model は回帰モデルと前処理器が共有するインターフェースと基底型を提供します。
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。y は n×1 の列ベクトル。
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を n×1 の行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer はモデルの決定係数（R²）を計算するインターフェース
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor はパイプラインで比較される回帰モデルのインターフェース
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
