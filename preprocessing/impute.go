package preprocessing

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/co2bench/dataset"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// Strategy は欠損値の扱い方
type Strategy string

const (
	StrategyMean         Strategy = "mean"
	StrategyMedian       Strategy = "median"
	StrategyMostFrequent Strategy = "most_frequent"
	StrategyConstant     Strategy = "constant"
	StrategyDrop         Strategy = "drop"
)

// Valid は既知の戦略かどうかを返す
func (s Strategy) Valid() bool {
	switch s {
	case StrategyMean, StrategyMedian, StrategyMostFrequent, StrategyConstant, StrategyDrop:
		return true
	}
	return false
}

// ColumnPolicy は列ごとの補完方法。Fill は StrategyConstant のときの値。
type ColumnPolicy struct {
	Strategy Strategy `yaml:"strategy" json:"strategy"`
	Fill     string   `yaml:"fill,omitempty" json:"fill,omitempty"`
}

// Imputation は1列に対して行われた処理の記録
type Imputation struct {
	Column   string
	Strategy Strategy
	Count    int
	Value    string // 補完に使った値。drop の場合は空。
}

// SimpleImputer は欠損値を列ごとの方針で補完または行ごと削除する。
// 目的変数が欠損している行は方針によらず削除される。
type SimpleImputer struct {
	// Target は目的変数の列名
	Target string

	// NumericDefault は方針のない数値列に使う戦略 (デフォルト: median)
	NumericDefault Strategy

	// CategoricalDefault は方針のないカテゴリ列に使う戦略 (デフォルト: most_frequent)
	CategoricalDefault Strategy

	// Policies は列ごとの方針
	Policies map[string]ColumnPolicy
}

// NewSimpleImputer はデフォルト戦略の SimpleImputer を作成する
func NewSimpleImputer(target string) *SimpleImputer {
	return &SimpleImputer{
		Target:             target,
		NumericDefault:     StrategyMedian,
		CategoricalDefault: StrategyMostFrequent,
		Policies:           map[string]ColumnPolicy{},
	}
}

func (im *SimpleImputer) policy(name string, kind dataset.Kind) ColumnPolicy {
	if p, ok := im.Policies[name]; ok {
		return p
	}
	if kind == dataset.Categorical {
		return ColumnPolicy{Strategy: im.CategoricalDefault}
	}
	return ColumnPolicy{Strategy: im.NumericDefault}
}

// Apply は f を変更せずに欠損のないフレームを返す。
// 補完や削除が起きた列ごとに DataConversionWarning を発生させる。
func (im *SimpleImputer) Apply(f *dataset.Frame) (*dataset.Frame, []Imputation, error) {
	target, err := f.Numeric(im.Target)
	if err != nil {
		return nil, nil, err
	}

	keep := make([]bool, f.Len())
	var records []Imputation
	dropped := 0
	for i, v := range target {
		keep[i] = !math.IsNaN(v)
		if !keep[i] {
			dropped++
		}
	}
	if dropped > 0 {
		records = append(records, Imputation{Column: im.Target, Strategy: StrategyDrop, Count: dropped})
	}

	// drop 方針の列の欠損行を削除対象に加える
	for _, name := range f.Columns() {
		if name == im.Target {
			continue
		}
		kind, _ := f.Kind(name)
		p := im.policy(name, kind)
		if !p.Strategy.Valid() {
			return nil, nil, errors.NewValidationError("imputation."+name, "unknown strategy", string(p.Strategy))
		}
		if p.Strategy != StrategyDrop {
			continue
		}
		missing := missingMask(f, name, kind)
		count := 0
		for i, m := range missing {
			if keep[i] && m {
				keep[i] = false
				count++
			}
		}
		if count > 0 {
			records = append(records, Imputation{Column: name, Strategy: StrategyDrop, Count: count})
		}
	}

	out, err := f.Filter(keep)
	if err != nil {
		return nil, nil, err
	}
	if out.Len() == 0 {
		return nil, nil, errors.NewModelError("SimpleImputer.Apply", "no rows left after dropping missing values", errors.ErrEmptyData)
	}

	for _, name := range out.Columns() {
		kind, _ := out.Kind(name)
		p := im.policy(name, kind)
		if name == im.Target || p.Strategy == StrategyDrop {
			continue
		}
		var rec Imputation
		if kind == dataset.Categorical {
			rec, err = fillCategorical(out, name, p)
		} else {
			rec, err = fillNumeric(out, name, p)
		}
		if err != nil {
			return nil, nil, err
		}
		if rec.Count > 0 {
			records = append(records, rec)
		}
	}

	for _, rec := range records {
		errors.Warn(errors.NewDataConversionWarning(rec.Column, string(rec.Strategy), rec.Count, "missing values"))
	}
	return out, records, nil
}

func missingMask(f *dataset.Frame, name string, kind dataset.Kind) []bool {
	mask := make([]bool, f.Len())
	if kind == dataset.Categorical {
		col, _ := f.Categorical(name)
		for i, v := range col {
			mask[i] = v == ""
		}
		return mask
	}
	col, _ := f.Numeric(name)
	for i, v := range col {
		mask[i] = math.IsNaN(v)
	}
	return mask
}

func fillNumeric(f *dataset.Frame, name string, p ColumnPolicy) (Imputation, error) {
	col, err := f.Numeric(name)
	if err != nil {
		return Imputation{}, err
	}
	present := make([]float64, 0, len(col))
	for _, v := range col {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	rec := Imputation{Column: name, Strategy: p.Strategy, Count: len(col) - len(present)}
	if rec.Count == 0 {
		return rec, nil
	}

	var fill float64
	switch p.Strategy {
	case StrategyConstant:
		fill, err = strconv.ParseFloat(p.Fill, 64)
		if err != nil {
			return rec, errors.NewValidationError("imputation."+name+".fill", "constant fill for a numeric column must be a number", p.Fill)
		}
	default:
		if len(present) == 0 {
			return rec, errors.NewColumnError(name, "all values are missing")
		}
		sort.Float64s(present)
		switch p.Strategy {
		case StrategyMean:
			fill = stat.Mean(present, nil)
		case StrategyMedian:
			fill = median(present)
		case StrategyMostFrequent:
			fill = modeSorted(present)
		}
	}

	for i, v := range col {
		if math.IsNaN(v) {
			col[i] = fill
		}
	}
	if err := f.AddNumeric(name, col); err != nil {
		return rec, err
	}
	rec.Value = strconv.FormatFloat(fill, 'g', -1, 64)
	return rec, nil
}

func fillCategorical(f *dataset.Frame, name string, p ColumnPolicy) (Imputation, error) {
	col, err := f.Categorical(name)
	if err != nil {
		return Imputation{}, err
	}
	counts := make(map[string]int)
	missing := 0
	for _, v := range col {
		if v == "" {
			missing++
			continue
		}
		counts[v]++
	}
	rec := Imputation{Column: name, Strategy: p.Strategy, Count: missing}
	if missing == 0 {
		return rec, nil
	}

	var fill string
	switch p.Strategy {
	case StrategyConstant:
		if p.Fill == "" {
			return rec, errors.NewValidationError("imputation."+name+".fill", "constant fill must not be empty", p.Fill)
		}
		fill = p.Fill
	case StrategyMostFrequent:
		if len(counts) == 0 {
			return rec, errors.NewColumnError(name, "all values are missing")
		}
		// 同数の場合は辞書順で最小の値
		best := -1
		for v, n := range counts {
			if n > best || (n == best && v < fill) {
				fill, best = v, n
			}
		}
	default:
		return rec, errors.NewValidationError("imputation."+name, "categorical columns accept most_frequent, constant, drop", string(p.Strategy))
	}

	for i, v := range col {
		if v == "" {
			col[i] = fill
		}
	}
	if err := f.AddCategorical(name, col); err != nil {
		return rec, err
	}
	rec.Value = fill
	return rec, nil
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// modeSorted は最頻値を返す。同数の場合は最小の値。
func modeSorted(sorted []float64) float64 {
	best, bestCount := sorted[0], 0
	for i := 0; i < len(sorted); {
		j := i
		for j < len(sorted) && sorted[j] == sorted[i] {
			j++
		}
		if j-i > bestCount {
			best, bestCount = sorted[i], j-i
		}
		i = j
	}
	return best
}
