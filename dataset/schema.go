package dataset

import "strings"

// Canonical column keys of the fuel consumption dataset.
const (
	ColMake         = "make"
	ColModel        = "model"
	ColVehicleClass = "vehicle_class"
	ColEngineSize   = "engine_size"
	ColCylinders    = "cylinders"
	ColTransmission = "transmission"
	ColFuelType     = "fuel_type"
	ColFuelCity     = "fuel_city"
	ColFuelHwy      = "fuel_hwy"
	ColFuelComb     = "fuel_comb"
	ColFuelCombMPG  = "fuel_comb_mpg"
	ColCO2          = "co2"
)

// DefaultAliases maps the headers of the Canadian fuel consumption ratings
// export onto canonical keys.
var DefaultAliases = map[string]string{
	"Make":                             ColMake,
	"Model":                            ColModel,
	"Vehicle Class":                    ColVehicleClass,
	"Engine Size(L)":                   ColEngineSize,
	"Cylinders":                        ColCylinders,
	"Transmission":                     ColTransmission,
	"Fuel Type":                        ColFuelType,
	"Fuel Consumption City (L/100 km)": ColFuelCity,
	"Fuel Consumption Hwy (L/100 km)":  ColFuelHwy,
	"Fuel Consumption Comb (L/100 km)": ColFuelComb,
	"Fuel Consumption Comb (mpg)":      ColFuelCombMPG,
	"CO2 Emissions(g/km)":              ColCO2,
}

// DefaultKinds fixes the kind of the canonical columns. Columns not listed
// are inferred from their values.
var DefaultKinds = map[string]Kind{
	ColMake:         Categorical,
	ColModel:        Categorical,
	ColVehicleClass: Categorical,
	ColTransmission: Categorical,
	ColFuelType:     Categorical,
	ColEngineSize:   Numeric,
	ColCylinders:    Numeric,
	ColFuelCity:     Numeric,
	ColFuelHwy:      Numeric,
	ColFuelComb:     Numeric,
	ColFuelCombMPG:  Numeric,
	ColCO2:          Numeric,
}

// DefaultMissing lists cell values read as missing, compared case-insensitively.
var DefaultMissing = []string{"", "NA", "N/A", "NaN", "null"}

// canonicalName resolves a header through aliases, then by normalizing it to
// lower snake case.
func canonicalName(header string, aliases map[string]string) string {
	header = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	if key, ok := aliases[header]; ok {
		return key
	}
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(header) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
