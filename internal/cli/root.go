package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
	"github.com/YuminosukeSato/co2bench/pkg/log"
)

var rootCmd = &cobra.Command{
	Use:   "co2bench",
	Short: "Benchmark regression models on vehicle CO2 emissions",
	Long: `co2bench fits five regression models (linear regression, decision tree,
random forest, k-nearest neighbors, gradient boosting) to a fuel consumption
dataset and compares their accuracy (R² as a percentage) on a held-out split.

The best model can be saved and used to predict the emissions of a vehicle.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// Flags
var (
	logLevel  string
	logFormat string
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console, json")
}

// Execute runs the root command and exits with status 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(cmd *cobra.Command, args []string) error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), logFormat, level)
	if err != nil {
		return err
	}
	log.SetLogger(logger)
	log.RouteWarnings(logger)
	return nil
}

func newLogger(w io.Writer, format string, level log.Level) (log.Logger, error) {
	switch format {
	case "console", "":
		return log.NewConsoleLogger(w, level), nil
	case "json":
		return log.NewZerologLogger(w, level), nil
	default:
		return nil, errors.NewValidationError("log-format", "must be console or json", format)
	}
}
