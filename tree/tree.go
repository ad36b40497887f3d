// Package tree は二乗誤差を基準とするCART回帰木を提供します。
// ensemble パッケージのランダムフォレストと勾配ブースティングの弱学習器でもあります。
package tree

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/core/model"
	"github.com/YuminosukeSato/co2bench/metrics"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// Node は木のノード。葉では Feature が -1。
type Node struct {
	Feature   int     // 分割に使う特徴量（葉では -1）
	Threshold float64 // x[Feature] <= Threshold なら左
	Left      int     // 左の子のインデックス（葉では -1）
	Right     int     // 右の子のインデックス（葉では -1）
	Value     float64 // このノードに属する目的変数の平均
	Samples   int     // このノードに属するサンプル数
	Impurity  float64 // ノード内の平均二乗誤差
}

// IsLeaf は葉ノードかどうかを返す
func (n *Node) IsLeaf() bool {
	return n.Feature < 0
}

// DecisionTreeRegressor は二乗誤差を最小化するCART回帰木
type DecisionTreeRegressor struct {
	model.BaseEstimator

	MaxDepth            int     // 最大深さ（根は0）。0は無制限
	MinSamplesSplit     int     // 分割を試みる最小サンプル数
	MinSamplesLeaf      int     // 各葉に必要な最小サンプル数
	MaxFeatures         int     // 各分割で試す特徴量数。0は全特徴量
	MinImpurityDecrease float64 // 分割を受け入れる最小の不純度減少（全サンプル数で正規化）
	RandomState         uint64  // 特徴量サンプリングのシード

	Nodes []Node // Nodes[0] が根

	nRoot int
	rnd   *rand.Rand
}

// Option は DecisionTreeRegressor を設定する関数
type Option func(*DecisionTreeRegressor)

// WithMaxDepth は最大深さを設定する
func WithMaxDepth(d int) Option { return func(t *DecisionTreeRegressor) { t.MaxDepth = d } }

// WithMinSamplesSplit は分割に必要な最小サンプル数を設定する
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesSplit = n }
}

// WithMinSamplesLeaf は葉の最小サンプル数を設定する
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeRegressor) { t.MinSamplesLeaf = n }
}

// WithMaxFeatures は各分割で試す特徴量数を設定する
func WithMaxFeatures(k int) Option { return func(t *DecisionTreeRegressor) { t.MaxFeatures = k } }

// WithMinImpurityDecrease は分割を受け入れる最小の不純度減少を設定する
func WithMinImpurityDecrease(v float64) Option {
	return func(t *DecisionTreeRegressor) { t.MinImpurityDecrease = v }
}

// WithRandomState は乱数シードを設定する
func WithRandomState(seed uint64) Option {
	return func(t *DecisionTreeRegressor) { t.RandomState = seed }
}

// NewDecisionTreeRegressor は新しい回帰木を作成する
func NewDecisionTreeRegressor(opts ...Option) *DecisionTreeRegressor {
	t := &DecisionTreeRegressor{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		RandomState:     42,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

func (t *DecisionTreeRegressor) validate() error {
	switch {
	case t.MaxDepth < 0:
		return errors.NewValidationError("max_depth", "must be >= 0", t.MaxDepth)
	case t.MinSamplesSplit < 2:
		return errors.NewValidationError("min_samples_split", "must be >= 2", t.MinSamplesSplit)
	case t.MinSamplesLeaf < 1:
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", t.MinSamplesLeaf)
	case t.MaxFeatures < 0:
		return errors.NewValidationError("max_features", "must be >= 0", t.MaxFeatures)
	}
	return nil
}

// Fit はモデルを訓練データで学習させる
func (t *DecisionTreeRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeRegressor.Fit")

	r, _, err := model.CheckFitInput("DecisionTreeRegressor.Fit", X, y)
	if err != nil {
		return err
	}
	idx := make([]int, r)
	for i := range idx {
		idx[i] = i
	}
	return t.FitRows(model.Rows(X), model.Column(y), idx)
}

// FitRows は行スライス形式のデータのうち idx が指す行で学習する。
// idx には重複があってもよい（ブートストラップ標本）。
func (t *DecisionTreeRegressor) FitRows(rows [][]float64, y []float64, idx []int) error {
	if err := t.validate(); err != nil {
		return err
	}
	if len(idx) == 0 || len(rows) == 0 {
		return errors.NewModelError("DecisionTreeRegressor.Fit", "empty data", errors.ErrEmptyData)
	}
	if len(rows) != len(y) {
		return errors.NewDimensionError("DecisionTreeRegressor.Fit", len(rows), len(y), 0)
	}

	t.Nodes = t.Nodes[:0]
	t.nRoot = len(idx)
	t.rnd = rand.New(rand.NewPCG(t.RandomState, t.RandomState))
	work := append([]int(nil), idx...)
	t.buildNode(rows, y, work, 0, len(rows[0]))
	t.rnd = nil

	t.SetFitted(len(rows[0]))
	return nil
}

// buildNode は idx のサンプルからノードを再帰的に作り、そのインデックスを返す
func (t *DecisionTreeRegressor) buildNode(rows [][]float64, y []float64, idx []int, depth, p int) int {
	mean, sse := meanSSE(y, idx)
	nodeIdx := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Feature:  -1,
		Left:     -1,
		Right:    -1,
		Value:    mean,
		Samples:  len(idx),
		Impurity: sse / float64(len(idx)),
	})

	if len(idx) < t.MinSamplesSplit || len(idx) < 2*t.MinSamplesLeaf ||
		(t.MaxDepth > 0 && depth >= t.MaxDepth) || sse <= 0 {
		return nodeIdx
	}

	best := t.findBestSplit(rows, y, idx, p, sse)
	if best.feature < 0 || best.gain/float64(t.nRoot) < t.MinImpurityDecrease || best.gain <= 0 {
		return nodeIdx
	}

	leftIdx, rightIdx := partition(rows, idx, best.feature, best.threshold)
	left := t.buildNode(rows, y, leftIdx, depth+1, p)
	right := t.buildNode(rows, y, rightIdx, depth+1, p)

	n := &t.Nodes[nodeIdx]
	n.Feature = best.feature
	n.Threshold = best.threshold
	n.Left = left
	n.Right = right
	return nodeIdx
}

type split struct {
	feature   int
	threshold float64
	gain      float64
}

// findBestSplit は二乗誤差の減少が最大となる分割を探す。
// 同じ減少量の場合は先に評価した候補（特徴量順、しきい値の昇順）を採用する。
func (t *DecisionTreeRegressor) findBestSplit(rows [][]float64, y []float64, idx []int, p int, parentSSE float64) split {
	features := make([]int, p)
	for j := range features {
		features[j] = j
	}
	if t.MaxFeatures > 0 && t.MaxFeatures < p {
		t.rnd.Shuffle(p, func(i, j int) { features[i], features[j] = features[j], features[i] })
		features = features[:t.MaxFeatures]
		sort.Ints(features)
	}

	best := split{feature: -1}
	type pair struct {
		v float64
		i int
	}
	values := make([]pair, len(idx))
	for _, f := range features {
		for k, i := range idx {
			values[k] = pair{rows[i][f], i}
		}
		sort.Slice(values, func(a, b int) bool {
			if values[a].v != values[b].v {
				return values[a].v < values[b].v
			}
			return values[a].i < values[b].i
		})

		var totalSum, totalSq float64
		for _, pv := range values {
			totalSum += y[pv.i]
			totalSq += y[pv.i] * y[pv.i]
		}

		var leftSum, leftSq float64
		n := len(values)
		for k := 0; k < n-1; k++ {
			yi := y[values[k].i]
			leftSum += yi
			leftSq += yi * yi
			if values[k].v == values[k+1].v {
				continue
			}
			nl, nr := k+1, n-k-1
			if nl < t.MinSamplesLeaf || nr < t.MinSamplesLeaf {
				continue
			}
			rightSum, rightSq := totalSum-leftSum, totalSq-leftSq
			childSSE := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if gain := parentSSE - childSSE; gain > best.gain+1e-12 {
				best = split{
					feature:   f,
					threshold: (values[k].v + values[k+1].v) / 2,
					gain:      gain,
				}
			}
		}
	}
	return best
}

func meanSSE(y []float64, idx []int) (mean, sse float64) {
	for _, i := range idx {
		mean += y[i]
	}
	mean /= float64(len(idx))
	for _, i := range idx {
		d := y[i] - mean
		sse += d * d
	}
	return mean, sse
}

func partition(rows [][]float64, idx []int, feature int, threshold float64) (left, right []int) {
	for _, i := range idx {
		if rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// PredictRow は1サンプルの予測値を返す
func (t *DecisionTreeRegressor) PredictRow(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Predict は入力データに対する予測を行う
func (t *DecisionTreeRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if err := t.CheckPredict("DecisionTreeRegressor", "Predict", c); err != nil {
		return nil, err
	}
	out := mat.NewDense(r, 1, nil)
	row := make([]float64, c)
	for i := 0; i < r; i++ {
		mat.Row(row, i, X)
		out.Set(i, 0, t.PredictRow(row))
	}
	return out, nil
}

// Score はモデルの決定係数（R²）を計算する
func (t *DecisionTreeRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !t.IsFitted() {
		return 0, errors.NewNotFittedError("DecisionTreeRegressor", "Score")
	}
	yPred, err := t.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.R2Matrix(y, yPred)
}

// Depth は木の深さを返す
func (t *DecisionTreeRegressor) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(i int) int
	walk = func(i int) int {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// NLeaves は葉の数を返す
func (t *DecisionTreeRegressor) NLeaves() int {
	leaves := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			leaves++
		}
	}
	return leaves
}

// FeatureImportances は各特徴量による二乗誤差の減少量を合計1に正規化して返す
func (t *DecisionTreeRegressor) FeatureImportances() []float64 {
	imp := make([]float64, t.NFeatures)
	var total float64
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			continue
		}
		l, r := &t.Nodes[n.Left], &t.Nodes[n.Right]
		dec := n.Impurity*float64(n.Samples) - l.Impurity*float64(l.Samples) - r.Impurity*float64(r.Samples)
		imp[n.Feature] += dec
		total += dec
	}
	if total > 0 {
		for j := range imp {
			imp[j] /= total
		}
	}
	return imp
}

// String はモデルの文字列表現を返す
func (t *DecisionTreeRegressor) String() string {
	return fmt.Sprintf("DecisionTreeRegressor(max_depth=%d, min_samples_split=%d, min_samples_leaf=%d)",
		t.MaxDepth, t.MinSamplesSplit, t.MinSamplesLeaf)
}
