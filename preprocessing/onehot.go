package preprocessing

import (
	"sort"
	"strings"

	"github.com/YuminosukeSato/co2bench/dataset"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// OneHotEncoder はカテゴリ列を値ごとの指示列 "<列名>_<値>" に展開する。
// 値は Category で正規化してから比較される。
// 学習時に見なかった値や欠損は全列0になる。
type OneHotEncoder struct {
	// Columns はエンコード対象の列。フレームに存在しない列は無視される。
	Columns []string

	// Categories は列ごとの昇順に並んだカテゴリ
	Categories map[string][]string

	fitted bool
}

// NewOneHotEncoder は新しいOneHotEncoderを作成する
func NewOneHotEncoder(columns ...string) *OneHotEncoder {
	return &OneHotEncoder{Columns: columns}
}

// Category は前後の空白を除いて大文字にしたカテゴリ値を返す。
// 学習時と推論時で同じ表記になるよう、指示列の名前はこの値から作る。
func Category(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// IndicatorName は指示列の名前を返す
func IndicatorName(column, value string) string {
	return column + "_" + value
}

// Fit は各列のカテゴリを収集する
func (e *OneHotEncoder) Fit(f *dataset.Frame) error {
	e.Categories = make(map[string][]string, len(e.Columns))
	for _, name := range e.Columns {
		if !f.HasColumn(name) {
			continue
		}
		col, err := f.Categorical(name)
		if err != nil {
			return err
		}
		seen := make(map[string]bool)
		var cats []string
		for _, v := range col {
			v = Category(v)
			if v != "" && !seen[v] {
				seen[v] = true
				cats = append(cats, v)
			}
		}
		sort.Strings(cats)
		e.Categories[name] = cats
	}
	e.fitted = true
	return nil
}

// Transform は指示列を追加し、元のカテゴリ列を削除した新しいフレームを返す
func (e *OneHotEncoder) Transform(f *dataset.Frame) (*dataset.Frame, error) {
	if !e.fitted {
		return nil, errors.NewNotFittedError("OneHotEncoder", "Transform")
	}
	out := f.Select(allRows(f.Len()))
	for _, name := range e.Columns {
		cats, ok := e.Categories[name]
		if !ok {
			continue
		}
		col, err := out.Categorical(name)
		if err != nil {
			return nil, err
		}
		for _, cat := range cats {
			ind := make([]float64, len(col))
			for i, v := range col {
				if Category(v) == cat {
					ind[i] = 1
				}
			}
			if err := out.AddNumeric(IndicatorName(name, cat), ind); err != nil {
				return nil, err
			}
		}
		out.Drop(name)
	}
	return out, nil
}

// FitTransform はFitとTransformを同時に実行する
func (e *OneHotEncoder) FitTransform(f *dataset.Frame) (*dataset.Frame, error) {
	if err := e.Fit(f); err != nil {
		return nil, err
	}
	return e.Transform(f)
}

// FeatureNames は生成される指示列の名前を列順に返す
func (e *OneHotEncoder) FeatureNames() []string {
	var names []string
	for _, name := range e.Columns {
		for _, cat := range e.Categories[name] {
			names = append(names, IndicatorName(name, cat))
		}
	}
	return names
}

func allRows(n int) []int {
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return rows
}
