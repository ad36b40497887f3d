// Package preprocessing は欠損値補完、カテゴリ変数のエンコード、特徴量生成、
// スケーリングを提供します。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/co2bench/core/model"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// Scaler は学習データで統計量を求め、同じ変換を評価データと推論時の入力に適用する
type Scaler interface {
	model.Transformer
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}

// NewScaler は名前からスケーラーを作成する。"standard"、"minmax"、"none" を受け付ける。
// mask が nil でない場合、mask[j] が false の列はそのまま通過する。
func NewScaler(method string, mask []bool) (Scaler, error) {
	switch method {
	case "", "standard":
		s := NewStandardScalerDefault()
		s.Mask = mask
		return s, nil
	case "minmax":
		s := NewMinMaxScalerDefault()
		s.Mask = mask
		return s, nil
	case "none":
		return &IdentityScaler{}, nil
	default:
		return nil, errors.NewValidationError("scaling", "must be one of standard, minmax, none", method)
	}
}

// scaled は mask を考慮して列 j がスケーリング対象かを返す
func scaled(mask []bool, j int) bool {
	return mask == nil || mask[j]
}

func checkMask(op string, mask []bool, c int) error {
	if mask != nil && len(mask) != c {
		return errors.NewDimensionError(op, c, len(mask), 1)
	}
	return nil
}

// StandardScaler はデータを平均0、標準偏差1（母分散）に変換する
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差。分散が0の列は1。
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool

	// Mask が nil でない場合、false の列は変換しない（one-hot列など）
	Mask []bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
// 使用例:
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XTrain, err := scaler.FitTransform(XTrain)
//	XTest, err := scaler.Transform(XTest)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// Fit は訓練データから統計情報（平均、標準偏差）を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if err := checkMask("StandardScaler.Fit", s.Mask, c); err != nil {
		return err
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		s.Scale[j] = 1.0
		if !scaled(s.Mask, j) {
			continue
		}
		mat.Col(col, j, X)
		mean, variance := stat.PopMeanVariance(col, nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		// 標準偏差が0に近い場合は1のまま（ゼロ除算を避ける）
		if std := math.Sqrt(variance); s.WithStd && std >= 1e-8 {
			s.Scale[j] = std
		}
	}

	s.SetFitted(c)
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := s.CheckPredict("StandardScaler", "Transform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := s.CheckPredict("StandardScaler", "InverseTransform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin は学習データの最小値
	DataMin []float64

	// Scale は各特徴量の (max - min)。定数列は1。
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64

	// Mask が nil でない場合、false の列は変換しない
	Mask []bool
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if m.FeatureRange[1] <= m.FeatureRange[0] {
		return errors.NewValidationError("feature_range", "max must be greater than min", m.FeatureRange)
	}
	if err := checkMask("MinMaxScaler.Fit", m.Mask, c); err != nil {
		return err
	}

	m.DataMin = make([]float64, c)
	m.Scale = make([]float64, c)
	col := make([]float64, r)
	for j := 0; j < c; j++ {
		m.Scale[j] = 1.0
		mat.Col(col, j, X)
		min, max := floats.Min(col), floats.Max(col)
		m.DataMin[j] = min
		if dataRange := max - min; math.Abs(dataRange) >= 1e-8 {
			m.Scale[j] = dataRange
		}
	}

	m.SetFitted(c)
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := m.CheckPredict("MinMaxScaler", "Transform", c); err != nil {
		return nil, err
	}

	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if !scaled(m.Mask, j) {
			return v
		}
		// X_scaled = (X - X.min) / (X.max - X.min) * (max - min) + min
		return (v-m.DataMin[j])/m.Scale[j]*featureRange + m.FeatureRange[0]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := m.CheckPredict("MinMaxScaler", "InverseTransform", c); err != nil {
		return nil, err
	}

	featureRange := m.FeatureRange[1] - m.FeatureRange[0]
	result := mat.NewDense(r, c, nil)
	result.Apply(func(i, j int, v float64) float64 {
		if !scaled(m.Mask, j) {
			return v
		}
		return (v-m.FeatureRange[0])/featureRange*m.Scale[j] + m.DataMin[j]
	}, X)
	return result, nil
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])", m.FeatureRange[0], m.FeatureRange[1])
}

// IdentityScaler は入力をそのまま返す。scaling: none で使われる。
type IdentityScaler struct {
	model.BaseEstimator
}

// Fit は特徴量数のみを記録する
func (s *IdentityScaler) Fit(X mat.Matrix) error {
	_, c := X.Dims()
	s.SetFitted(c)
	return nil
}

// Transform は X のコピーを返す
func (s *IdentityScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	_, c := X.Dims()
	if err := s.CheckPredict("IdentityScaler", "Transform", c); err != nil {
		return nil, err
	}
	return mat.DenseCopyOf(X), nil
}

// FitTransform は Fit の後に Transform を行う
func (s *IdentityScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は X のコピーを返す
func (s *IdentityScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return s.Transform(X)
}
