// Package neighbors はk近傍法による回帰モデルを提供します。
package neighbors

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/core/model"
	"github.com/YuminosukeSato/co2bench/core/parallel"
	"github.com/YuminosukeSato/co2bench/metrics"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// 近傍の重み付け方法
const (
	WeightsUniform  = "uniform"
	WeightsDistance = "distance"
)

// KNeighborsRegressor は近傍K点の目的変数の（重み付き）平均で予測する。
// 距離が等しい近傍は学習データ内の順序が早いものを優先する。
type KNeighborsRegressor struct {
	model.BaseEstimator

	K       int    // 近傍数
	Weights string // "uniform" または "distance"
	NJobs   int    // 予測の並列数。0以下はCPU数

	X [][]float64 // 学習データ
	Y []float64   // 学習データの目的変数
}

// Option は KNeighborsRegressor を設定する関数
type Option func(*KNeighborsRegressor)

// WithK は近傍数を設定する
func WithK(k int) Option { return func(m *KNeighborsRegressor) { m.K = k } }

// WithWeights は重み付け方法を設定する
func WithWeights(w string) Option { return func(m *KNeighborsRegressor) { m.Weights = w } }

// WithNJobs は予測の並列数を設定する
func WithNJobs(n int) Option { return func(m *KNeighborsRegressor) { m.NJobs = n } }

// NewKNeighborsRegressor は新しいk近傍回帰モデルを作成する
func NewKNeighborsRegressor(opts ...Option) *KNeighborsRegressor {
	m := &KNeighborsRegressor{K: 5, Weights: WeightsUniform}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Fit は学習データを保持する
func (m *KNeighborsRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "KNeighborsRegressor.Fit")

	if m.K < 1 {
		return errors.NewValidationError("n_neighbors", "must be >= 1", m.K)
	}
	if m.Weights != WeightsUniform && m.Weights != WeightsDistance {
		return errors.NewValidationError("weights", "must be 'uniform' or 'distance'", m.Weights)
	}
	r, c, err := model.CheckFitInput("KNeighborsRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	if m.K > r {
		return errors.NewValidationError("n_neighbors", fmt.Sprintf("must be <= n_samples (%d)", r), m.K)
	}

	m.X = model.Rows(X)
	m.Y = model.Column(y)
	m.SetFitted(c)
	return nil
}

type neighbor struct {
	dist float64
	idx  int
}

// kneighbors は x に最も近いK点を距離の昇順（同距離はインデックス順）で返す
func (m *KNeighborsRegressor) kneighbors(x []float64) []neighbor {
	nbrs := make([]neighbor, 0, m.K+1)
	for j, xj := range m.X {
		d := floats.Distance(x, xj, 2)
		if len(nbrs) == m.K && d >= nbrs[len(nbrs)-1].dist {
			continue
		}
		// 同距離の既存要素の後ろに挿入する
		pos := sort.Search(len(nbrs), func(i int) bool { return nbrs[i].dist > d })
		nbrs = append(nbrs, neighbor{})
		copy(nbrs[pos+1:], nbrs[pos:])
		nbrs[pos] = neighbor{dist: d, idx: j}
		if len(nbrs) > m.K {
			nbrs = nbrs[:m.K]
		}
	}
	return nbrs
}

// KNeighbors は x の近傍K点のインデックスと距離を返す
func (m *KNeighborsRegressor) KNeighbors(x []float64) (indices []int, distances []float64, err error) {
	if err := m.CheckPredict("KNeighborsRegressor", "KNeighbors", len(x)); err != nil {
		return nil, nil, err
	}
	for _, n := range m.kneighbors(x) {
		indices = append(indices, n.idx)
		distances = append(distances, n.dist)
	}
	return indices, distances, nil
}

func (m *KNeighborsRegressor) predictRow(x []float64) float64 {
	nbrs := m.kneighbors(x)
	if m.Weights == WeightsDistance {
		// 距離0の点があればそれらの平均のみを使う
		var exact, nExact float64
		for _, n := range nbrs {
			if n.dist == 0 {
				exact += m.Y[n.idx]
				nExact++
			}
		}
		if nExact > 0 {
			return exact / nExact
		}
		var sum, wsum float64
		for _, n := range nbrs {
			w := 1 / n.dist
			sum += w * m.Y[n.idx]
			wsum += w
		}
		return sum / wsum
	}
	var sum float64
	for _, n := range nbrs {
		sum += m.Y[n.idx]
	}
	return sum / float64(len(nbrs))
}

// Predict は入力データに対する予測を行う。行ごとに並列で計算する。
func (m *KNeighborsRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := m.CheckPredict("KNeighborsRegressor", "Predict", c); err != nil {
		return nil, err
	}
	out := make([]float64, r)
	parallel.ParallelizeN(r, m.NJobs, func(start, end int) {
		row := make([]float64, c)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			out[i] = m.predictRow(row)
		}
	})
	return mat.NewDense(r, 1, out), nil
}

// Score はモデルの決定係数（R²）を計算する
func (m *KNeighborsRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !m.IsFitted() {
		return 0, errors.NewNotFittedError("KNeighborsRegressor", "Score")
	}
	yPred, err := m.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Matrix(y, yPred)
}

// String はモデルの文字列表現を返す
func (m *KNeighborsRegressor) String() string {
	return fmt.Sprintf("KNeighborsRegressor(n_neighbors=%d, weights=%s)", m.K, m.Weights)
}
