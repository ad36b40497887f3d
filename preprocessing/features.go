package preprocessing

import (
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/co2bench/dataset"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// 派生列の名前
const (
	ColFuelPerCylinder  = "fuel_per_cylinder"
	ColCO2PerLiter      = "co2_per_liter"
	ColFuelWeighted     = "fuel_weighted"
	ColTransmissionType = "transmission_type"
)

// 市街地と高速道路の燃費を合成する重み
const (
	CityWeight    = 0.55
	HighwayWeight = 0.45
)

// Engineer は派生特徴量をフレームに追加する。元になる列が存在しない特徴量は作らない。
type Engineer struct {
	// DropMerged が true の場合、fuel_weighted の作成後に市街地・高速道路の列を削除する
	DropMerged bool
}

// Apply は f に派生列を追加する
func (e Engineer) Apply(f *dataset.Frame) error {
	if f.HasColumn(dataset.ColFuelComb) && f.HasColumn(dataset.ColCylinders) {
		comb, err := f.Numeric(dataset.ColFuelComb)
		if err != nil {
			return err
		}
		cyl, err := f.Numeric(dataset.ColCylinders)
		if err != nil {
			return err
		}
		out := make([]float64, len(comb))
		for i := range comb {
			if cyl[i] <= 0 {
				return errors.NewCellError(dataset.ColCylinders, f.Row(i), formatFloat(cyl[i]), "cylinder count must be positive")
			}
			out[i] = comb[i] / cyl[i]
		}
		if err := f.AddNumeric(ColFuelPerCylinder, out); err != nil {
			return err
		}
	}

	if f.HasColumn(dataset.ColCO2) && f.HasColumn(dataset.ColEngineSize) {
		co2, err := f.Numeric(dataset.ColCO2)
		if err != nil {
			return err
		}
		eng, err := f.Numeric(dataset.ColEngineSize)
		if err != nil {
			return err
		}
		out := make([]float64, len(co2))
		for i := range co2 {
			out[i] = math.NaN()
			if eng[i] > 0 {
				out[i] = co2[i] / eng[i]
			}
		}
		if err := f.AddNumeric(ColCO2PerLiter, out); err != nil {
			return err
		}
	}

	if f.HasColumn(dataset.ColFuelCity) && f.HasColumn(dataset.ColFuelHwy) {
		city, err := f.Numeric(dataset.ColFuelCity)
		if err != nil {
			return err
		}
		hwy, err := f.Numeric(dataset.ColFuelHwy)
		if err != nil {
			return err
		}
		out := make([]float64, len(city))
		for i := range city {
			out[i] = WeightedFuel(city[i], hwy[i])
		}
		if err := f.AddNumeric(ColFuelWeighted, out); err != nil {
			return err
		}
		if e.DropMerged {
			f.Drop(dataset.ColFuelCity, dataset.ColFuelHwy)
		}
	}

	if f.HasColumn(dataset.ColTransmission) {
		tr, err := f.Categorical(dataset.ColTransmission)
		if err != nil {
			return err
		}
		out := make([]string, len(tr))
		for i, v := range tr {
			out[i] = TransmissionType(v)
		}
		if err := f.AddCategorical(ColTransmissionType, out); err != nil {
			return err
		}
		f.Drop(dataset.ColTransmission)
	}
	return nil
}

// WeightedFuel は 0.55·市街地 + 0.45·高速道路 を返す
func WeightedFuel(city, hwy float64) float64 {
	return CityWeight*city + HighwayWeight*hwy
}

// TransmissionType は変速段数を除いた変速機の種類を返す（例: "AS6" → "AS", "AV" → "AV"）
func TransmissionType(code string) string {
	return strings.TrimRight(strings.ToUpper(strings.TrimSpace(code)), "0123456789")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
