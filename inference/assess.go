package inference

import (
	"fmt"
	"io"
	"math"
	"sort"
)

// 環境影響の計算に使う定数
const (
	AverageEmissions   = 250.0   // 平均的な車両の排出量 (g/km)
	YearlyKilometers   = 15000.0 // 年間走行距離 (km)
	TreeAbsorptionKgYr = 21.0    // 樹木1本が1年に吸収するCO2 (kg)
)

// Assessment は予測値を平均と比較し、年間・月間・日間の排出量に換算したもの
type Assessment struct {
	Prediction    float64 `json:"prediction_g_per_km"`
	Average       float64 `json:"average_g_per_km"`
	Difference    float64 `json:"difference_g_per_km"`
	PercentDiff   float64 `json:"percent_difference"`
	YearlyKg      float64 `json:"yearly_kg"`
	YearlyTonnes  float64 `json:"yearly_tonnes"`
	MonthlyKg     float64 `json:"monthly_kg"`
	DailyKg       float64 `json:"daily_kg"`
	TreesToOffset float64 `json:"trees_to_offset"`
}

// AboveAverage は平均より多く排出するかどうかを返す
func (a Assessment) AboveAverage() bool {
	return a.Prediction > a.Average
}

// Assess は予測値 (g/km) から環境影響を計算する
func Assess(prediction float64) Assessment {
	yearly := prediction * YearlyKilometers / 1000
	diff := prediction - AverageEmissions
	return Assessment{
		Prediction:    prediction,
		Average:       AverageEmissions,
		Difference:    diff,
		PercentDiff:   diff / AverageEmissions * 100,
		YearlyKg:      yearly,
		YearlyTonnes:  yearly / 1000,
		MonthlyKg:     yearly / 12,
		DailyKg:       yearly / 365,
		TreesToOffset: yearly / TreeAbsorptionKgYr,
	}
}

// WriteText は評価結果を人が読む形式で書き出す
func (a Assessment) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w,
		"Predicted CO2 emissions: %.2f g/km\n"+
			"Average vehicle:         %.0f g/km\n"+
			"Difference:              %.1f g/km (%.1f%%)\n"+
			"Yearly CO2:              %.1f kg (%.2f tonnes)\n"+
			"Monthly CO2:             %.1f kg\n"+
			"Daily CO2:               %.2f kg\n"+
			"Trees to offset:         %.0f per year\n",
		a.Prediction, a.Average, a.Difference, a.PercentDiff,
		a.YearlyKg, a.YearlyTonnes, a.MonthlyKg, a.DailyKg, a.TreesToOffset)
	if err != nil {
		return err
	}
	if !a.AboveAverage() {
		_, err = fmt.Fprintf(w, "\nBelow average emissions. This vehicle emits %.1f%% less CO2 than average.\n",
			math.Abs(a.PercentDiff))
		return err
	}
	if _, err := fmt.Fprintf(w, "\nHigher than average emissions. This vehicle emits %.1f%% more CO2 than average.\nConsider:\n",
		a.PercentDiff); err != nil {
		return err
	}
	for _, r := range Recommendations() {
		if _, err := fmt.Fprintf(w, "  - %s\n", r); err != nil {
			return err
		}
	}
	return nil
}

// Recommendations は平均より多く排出する車両への提案を返す
func Recommendations() []string {
	return []string{
		"Carpooling or public transport",
		"Regular vehicle maintenance",
		"Eco-friendly driving habits",
		"Upgrading to a more efficient vehicle",
	}
}

// VehicleClasses は入力として案内する車両クラスを返す
func VehicleClasses() []string {
	return []string{"COMPACT", "SUV - SMALL", "MID-SIZE", "SUV - STANDARD", "FULL-SIZE"}
}

var fuelTypes = map[string]string{
	"X": "Regular gasoline",
	"Z": "Premium gasoline",
	"D": "Diesel",
	"E": "Ethanol (E85)",
	"N": "Natural gas",
}

// FuelTypes は燃料種別のコードと説明を返す
func FuelTypes() map[string]string {
	out := make(map[string]string, len(fuelTypes))
	for k, v := range fuelTypes {
		out[k] = v
	}
	return out
}

// FuelTypeCodes は燃料種別のコードを昇順で返す
func FuelTypeCodes() []string {
	codes := make([]string, 0, len(fuelTypes))
	for k := range fuelTypes {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}
