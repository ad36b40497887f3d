package model

import (
	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// EstimatorState はモデルの学習状態を表す
type EstimatorState int

const (
	// NotFitted はモデルが未学習の状態
	NotFitted EstimatorState = iota
	// Fitted はモデルが学習済みの状態
	Fitted
)

// BaseEstimator は全てのモデルの基底となる構造体。
// gobで保存できるようフィールドは公開されている。
type BaseEstimator struct {
	State     EstimatorState
	NFeatures int // 学習時の特徴量数
}

// IsFitted はモデルが学習済みかどうかを返す
func (e *BaseEstimator) IsFitted() bool {
	return e.State == Fitted
}

// SetFitted はモデルを学習済み状態に設定し、特徴量数を記録する
func (e *BaseEstimator) SetFitted(nFeatures int) {
	e.State = Fitted
	e.NFeatures = nFeatures
}

// Reset はモデルを初期状態にリセットする
func (e *BaseEstimator) Reset() {
	e.State = NotFitted
	e.NFeatures = 0
}

// CheckPredict は学習済みであることと特徴量数の一致を確認する
func (e *BaseEstimator) CheckPredict(modelName, method string, cols int) error {
	if !e.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	if cols != e.NFeatures {
		return errors.NewDimensionError(modelName+"."+method, e.NFeatures, cols, 1)
	}
	return nil
}
