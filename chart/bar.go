// Package chart はモデルごとの精度を棒グラフとして描画します。
package chart

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// DefaultFile はグラフのデフォルトの出力先
const DefaultFile = "algorithm_vs_accuracy.png"

// Bar は1本の棒
type Bar struct {
	Name     string
	Accuracy float64 // パーセント
}

var formats = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".svg": true,
	".pdf": true, ".eps": true, ".tif": true, ".tiff": true,
}

// AccuracyBar はモデルごとの精度の棒グラフを path に保存し、書き出したパスを返す。
// 形式は拡張子で決まり、拡張子がなければ .png を付ける。
func AccuracyBar(bars []Bar, path string) (string, error) {
	if len(bars) == 0 {
		return "", errors.NewValueError("chart.AccuracyBar", "no results to plot")
	}
	if path == "" {
		path = DefaultFile
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		path += ".png"
	} else if !formats[ext] {
		return "", errors.NewValidationError("plot", "unsupported image format", ext)
	}

	p := plot.New()
	p.Title.Text = "Algorithm vs Accuracy"
	p.X.Label.Text = "Algorithm"
	p.Y.Label.Text = "Accuracy (%)"

	values := make(plotter.Values, len(bars))
	names := make([]string, len(bars))
	labels := plotter.XYLabels{
		XYs:    make(plotter.XYs, len(bars)),
		Labels: make([]string, len(bars)),
	}
	lo, hi := 0.0, 100.0
	for i, b := range bars {
		values[i] = b.Accuracy
		names[i] = b.Name
		labels.XYs[i] = plotter.XY{X: float64(i), Y: b.Accuracy}
		labels.Labels[i] = fmt.Sprintf("%.2f%%", b.Accuracy)
		lo, hi = min(lo, b.Accuracy), max(hi, b.Accuracy)
	}

	bc, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return "", errors.Wrap(err, "chart: bar chart")
	}
	bc.Color = color.RGBA{R: 46, G: 134, B: 193, A: 255}
	bc.LineStyle.Width = vg.Length(0)
	p.Add(bc)

	lbl, err := plotter.NewLabels(labels)
	if err != nil {
		return "", errors.Wrap(err, "chart: labels")
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = -0.5
	}
	p.Add(lbl)

	p.NominalX(names...)
	p.Y.Min, p.Y.Max = lo, hi*1.05
	p.Add(plotter.NewGrid())

	width := vg.Length(max(6, 1.5*float64(len(bars)))) * vg.Inch
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return "", errors.Wrapf(err, "chart: save %s", path)
	}
	return path, nil
}
