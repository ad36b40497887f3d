package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/co2bench/inference"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict the CO2 emissions of a vehicle",
	Long: `Predict CO2 emissions (g/km) from vehicle specifications using a model
saved by 'co2bench train --artifact'.

Examples:
  co2bench predict --artifact model/ --engine-size 2.0 --cylinders 4 \
    --fuel-city 9.9 --fuel-hwy 6.7 --fuel-comb 8.5 --mpg 33 \
    --vehicle-class COMPACT --fuel-type X`,
	RunE: runPredict,
}

// Flags
var (
	predictArtifact string
	predictSpec     inference.VehicleSpec
)

func init() {
	rootCmd.AddCommand(predictCmd)

	f := predictCmd.Flags()
	f.StringVarP(&predictArtifact, "artifact", "a", "", "Directory of a saved model (required)")
	f.Float64Var(&predictSpec.EngineSize, "engine-size", 2.0, "Engine size (L)")
	f.IntVar(&predictSpec.Cylinders, "cylinders", 4, "Number of cylinders")
	f.Float64Var(&predictSpec.FuelCity, "fuel-city", 9.9, "City fuel consumption (L/100 km)")
	f.Float64Var(&predictSpec.FuelHwy, "fuel-hwy", 6.7, "Highway fuel consumption (L/100 km)")
	f.Float64Var(&predictSpec.FuelComb, "fuel-comb", 8.5, "Combined fuel consumption (L/100 km)")
	f.Float64Var(&predictSpec.FuelCombMPG, "mpg", 33, "Combined fuel consumption (mpg)")
	f.StringVar(&predictSpec.VehicleClass, "vehicle-class", "COMPACT",
		"Vehicle class: "+strings.Join(inference.VehicleClasses(), ", "))
	f.StringVar(&predictSpec.FuelType, "fuel-type", "X", "Fuel type code: "+fuelTypeHelp())
	f.StringVar(&predictSpec.Transmission, "transmission", "", "Transmission code, e.g. AS6")
	predictCmd.MarkFlagRequired("artifact")
}

func fuelTypeHelp() string {
	types := inference.FuelTypes()
	parts := make([]string, 0, len(types))
	for _, code := range inference.FuelTypeCodes() {
		parts = append(parts, code+" ("+types[code]+")")
	}
	return strings.Join(parts, ", ")
}

func runPredict(cmd *cobra.Command, args []string) error {
	p, err := inference.Load(predictArtifact)
	if err != nil {
		return err
	}
	pred, err := p.Predict(predictSpec)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Vehicle: %s, fuel type %s, %.1f L, %d cylinders\n\n",
		predictSpec.VehicleClass, predictSpec.FuelType, predictSpec.EngineSize, predictSpec.Cylinders)
	return inference.Assess(pred).WriteText(out)
}
