package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/co2bench/pipeline"
	"github.com/YuminosukeSato/co2bench/pkg/log"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit and compare the regression models",
	Long: `Fit every configured model on the training split and report its accuracy
on the test split.

Flags override values from the configuration file.

Examples:
  co2bench train --data "CO2 Emissions_Canada.csv"
  co2bench train --data fuel.csv --config co2bench.yaml --seed 7
  co2bench train --data fuel.csv --models linear_regression,random_forest --artifact model/`,
	RunE: runTrain,
}

// Flags
var (
	trainData     string
	trainConfig   string
	trainSeed     uint64
	trainTestSize float64
	trainPlot     string
	trainArtifact string
	trainReport   string
	trainModels   []string
	trainScaling  string
)

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().StringVarP(&trainData, "data", "d", "", "Path to the dataset CSV")
	trainCmd.Flags().StringVarP(&trainConfig, "config", "c", "", "Path to a YAML configuration file")
	trainCmd.Flags().Uint64Var(&trainSeed, "seed", 42, "Random seed for the split and the models")
	trainCmd.Flags().Float64Var(&trainTestSize, "test-size", 0.2, "Fraction of rows held out for testing")
	trainCmd.Flags().StringVar(&trainPlot, "plot", "algorithm_vs_accuracy.png", "Bar chart output path (empty to skip)")
	trainCmd.Flags().StringVar(&trainArtifact, "artifact", "", "Directory to save the best model in")
	trainCmd.Flags().StringVar(&trainReport, "report", "", "Path to write the JSON report to")
	trainCmd.Flags().StringSliceVar(&trainModels, "models", nil, "Models to run (default all)")
	trainCmd.Flags().StringVar(&trainScaling, "scaling", "standard", "Feature scaling: standard, minmax, none")
}

// trainConfigFromFlags は設定ファイルを読み込み、明示されたフラグで上書きする
func trainConfigFromFlags(cmd *cobra.Command) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	if trainConfig != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(trainConfig); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Path = trainData
	}
	if flags.Changed("seed") {
		cfg.Split.Seed = trainSeed
	}
	if flags.Changed("test-size") {
		cfg.Split.TestSize = trainTestSize
	}
	if flags.Changed("plot") {
		cfg.Output.Plot = trainPlot
	}
	if flags.Changed("artifact") {
		cfg.Output.Artifact = trainArtifact
	}
	if flags.Changed("report") {
		cfg.Output.Report = trainReport
	}
	if flags.Changed("models") {
		cfg.Models.Run = trainModels
	}
	if flags.Changed("scaling") {
		cfg.Scaling = trainScaling
	}
	return cfg, cfg.Validate()
}

func runTrain(cmd *cobra.Command, args []string) error {
	cfg, err := trainConfigFromFlags(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := log.GetLoggerWithName("cli")
	report, err := pipeline.Run(ctx, cfg, logger)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d rows (%d train / %d test), %d features\n\n",
		report.RunID, report.Rows, report.TrainSize, report.TestSize, len(report.Features))
	if err := report.Table(out); err != nil {
		return err
	}
	if report.PlotPath != "" {
		fmt.Fprintf(out, "Chart saved to %s\n", report.PlotPath)
	}
	if report.ArtifactDir != "" {
		fmt.Fprintf(out, "Model saved to %s\n", report.ArtifactDir)
	}
	return nil
}
