// Package co2bench compares regression models that predict vehicle CO2
// emissions (g/km) from engine and fuel-consumption attributes.
//
// The module loads a fuel-consumption CSV, cleans and encodes it, fits five
// regressors (linear regression, decision tree, random forest, k-nearest
// neighbors and gradient boosting) on an 80/20 seeded split, scores each by
// R² expressed as a percentage and renders a bar chart of the results.
//
// # Quick Start
//
//	cfg := pipeline.DefaultConfig()
//	cfg.Data.Path = "co2.csv"
//	report, err := pipeline.Run(ctx, cfg, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	report.Table(os.Stdout)
//
// The same flow is available from the command line:
//
//	co2bench train --data co2.csv --artifact model/
//	co2bench predict --artifact model/ --engine-size 2.0 --cylinders 4 \
//	    --fuel-city 9.9 --fuel-hwy 7.0 --fuel-comb 8.6 --mpg 33 \
//	    --vehicle-class COMPACT --fuel-type X --transmission AS6
//
// # Packages
//
//   - dataset: CSV loading, the column-oriented Frame and train/test splitting
//   - preprocessing: imputation, feature engineering, one-hot encoding, scaling
//   - linear, tree, ensemble, neighbors: the estimators
//   - metrics: R², MSE, RMSE, MAE and friends
//   - pipeline: configuration, the benchmark run and its Report
//   - chart: the accuracy bar chart
//   - artifact, inference: persisted models and single-vehicle prediction
//
// # Error Handling
//
// Errors carry stack traces from github.com/cockroachdb/errors and typed
// details (NotFittedError, DimensionError, ValidationError, ColumnError):
//
//	var ce *errors.ColumnError
//	if errors.As(err, &ce) {
//	    fmt.Println(ce.Column, ce.Row)
//	}
package co2bench
