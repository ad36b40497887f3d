// Package inference は保存済みの成果物を使い、車両の仕様からCO2排出量を予測します。
package inference

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/artifact"
	"github.com/YuminosukeSato/co2bench/dataset"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
	"github.com/YuminosukeSato/co2bench/pkg/log"
	"github.com/YuminosukeSato/co2bench/preprocessing"
)

// VehicleSpec は予測に使う車両の仕様
type VehicleSpec struct {
	EngineSize   float64 // 排気量 (L)
	Cylinders    int     // 気筒数
	FuelCity     float64 // 市街地燃費 (L/100 km)
	FuelHwy      float64 // 高速道路燃費 (L/100 km)
	FuelComb     float64 // 複合燃費 (L/100 km)
	FuelCombMPG  float64 // 複合燃費 (mpg)
	VehicleClass string  // 例: "COMPACT"
	FuelType     string  // 例: "X"
	Transmission string  // 例: "AS6"。空なら設定しない
}

// Validate は仕様の値を検証する
func (s VehicleSpec) Validate() error {
	switch {
	case s.EngineSize <= 0:
		return errors.NewValidationError("engine_size", "must be positive", s.EngineSize)
	case s.Cylinders <= 0:
		return errors.NewValidationError("cylinders", "must be positive", s.Cylinders)
	case s.FuelCity <= 0 || s.FuelHwy <= 0 || s.FuelComb <= 0:
		return errors.NewValidationError("fuel_consumption", "must be positive", [3]float64{s.FuelCity, s.FuelHwy, s.FuelComb})
	case s.FuelCombMPG <= 0:
		return errors.NewValidationError("fuel_comb_mpg", "must be positive", s.FuelCombMPG)
	}
	return nil
}

// Predictor は成果物を使って1台ずつ予測する
type Predictor struct {
	art    *artifact.Artifact
	index  map[string]int
	logger log.Logger
}

// NewPredictor は成果物から Predictor を作成する
func NewPredictor(a *artifact.Artifact) *Predictor {
	index := make(map[string]int, len(a.Columns))
	for i, c := range a.Columns {
		index[c] = i
	}
	return &Predictor{
		art:    a,
		index:  index,
		logger: log.GetLoggerWithName("inference").With(log.ModelNameKey, a.ModelName),
	}
}

// Load はディレクトリから成果物を読み込んで Predictor を作成する
func Load(dir string) (*Predictor, error) {
	a, err := artifact.Load(dir)
	if err != nil {
		return nil, err
	}
	return NewPredictor(a), nil
}

// Columns は特徴量の列順を返す
func (p *Predictor) Columns() []string {
	return p.art.Columns
}

// Features は仕様から特徴量の行を作る。成果物にない列は無視し、
// 未知のカテゴリは全ての指示列が0のままになる。
func (p *Predictor) Features(s VehicleSpec) []float64 {
	row := make([]float64, len(p.art.Columns))
	set := func(name string, v float64) {
		if i, ok := p.index[name]; ok {
			row[i] = v
		}
	}

	set(dataset.ColEngineSize, s.EngineSize)
	set(dataset.ColCylinders, float64(s.Cylinders))
	set(dataset.ColFuelCity, s.FuelCity)
	set(dataset.ColFuelHwy, s.FuelHwy)
	set(dataset.ColFuelComb, s.FuelComb)
	set(dataset.ColFuelCombMPG, s.FuelCombMPG)
	set(preprocessing.ColFuelWeighted, preprocessing.WeightedFuel(s.FuelCity, s.FuelHwy))
	set(preprocessing.ColFuelPerCylinder, s.FuelComb/float64(s.Cylinders))

	onehot := func(column, value string) {
		if value == "" {
			return
		}
		name := preprocessing.IndicatorName(column, preprocessing.Category(value))
		if _, ok := p.index[name]; !ok {
			p.logger.Debug("unknown category", log.ColumnKey, column, "value", value)
			return
		}
		set(name, 1)
	}
	onehot(dataset.ColVehicleClass, s.VehicleClass)
	onehot(dataset.ColFuelType, s.FuelType)
	if s.Transmission != "" {
		onehot(preprocessing.ColTransmissionType, preprocessing.TransmissionType(s.Transmission))
	}
	return row
}

// Predict は仕様からCO2排出量 (g/km) を小数点以下2桁に丸めて返す
func (p *Predictor) Predict(s VehicleSpec) (float64, error) {
	if err := s.Validate(); err != nil {
		return 0, err
	}
	X := mat.NewDense(1, len(p.art.Columns), p.Features(s))
	Xs, err := p.art.Scaler.Transform(X)
	if err != nil {
		return 0, err
	}
	pred, err := p.art.Model.Predict(Xs)
	if err != nil {
		return 0, err
	}
	v := pred.At(0, 0)
	if err := errors.CheckScalar("inference.Predict", v); err != nil {
		return 0, err
	}
	p.logger.Debug("predicted emissions", log.OperationKey, log.OperationPredict, log.PhaseKey, log.PhaseInference)
	return Round(v, 2), nil
}

// Round は v を小数点以下 digits 桁に丸める
func Round(v float64, digits int) float64 {
	scale := math.Pow(10, float64(digits))
	return math.Round(v*scale) / scale
}
