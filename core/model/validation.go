package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// CheckFitInput は学習データの形状と値を検証し、行数と列数を返す。
// 空データ、行数の不一致、列ベクトルでないy、NaN/Infを拒否する。
func CheckFitInput(op string, X, y mat.Matrix) (rows, cols int, err error) {
	rows, cols = X.Dims()
	ry, cy := y.Dims()

	if rows == 0 || cols == 0 {
		return 0, 0, errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if ry != rows {
		return 0, 0, errors.NewDimensionError(op, rows, ry, 0)
	}
	if cy != 1 {
		return 0, 0, errors.NewValueError(op, "y must be a column vector")
	}
	if err := errors.CheckMatrix(op, X); err != nil {
		return 0, 0, err
	}
	if err := errors.CheckMatrix(op, y); err != nil {
		return 0, 0, err
	}
	return rows, cols, nil
}

// Column はn×1行列を新しいスライスにコピーする
func Column(y mat.Matrix) []float64 {
	r, _ := y.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = y.At(i, 0)
	}
	return out
}

// Rows はXを行ごとのスライスにコピーする
func Rows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	out := make([][]float64, r)
	for i := range out {
		row := make([]float64, c)
		for j := range row {
			row[j] = X.At(i, j)
		}
		out[i] = row
	}
	return out
}

// ColumnVector はスライスからn×1行列を作る
func ColumnVector(values []float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}
