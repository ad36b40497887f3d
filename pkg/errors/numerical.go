package errors

import (
	"math"
)

// CheckScalar rejects a NaN or infinite prediction.
func CheckScalar(operation string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return NewNumericalInstabilityError(operation, []float64{value}, 0)
	}
	return nil
}

// Matrix is the read-only view of a matrix that CheckMatrix scans.
type Matrix interface {
	Dims() (r, c int)
	At(i, j int) float64
}

// CheckMatrix checks all values in a matrix for NaN or Inf and reports the
// first offending row. Missing values must be imputed before a matrix is
// handed to an estimator, so any NaN here is a pipeline bug or bad input.
func CheckMatrix(operation string, matrix Matrix) error {
	rows, cols := matrix.Dims()
	for i := 0; i < rows; i++ {
		var unstableValues []float64
		for j := 0; j < cols; j++ {
			v := matrix.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				unstableValues = append(unstableValues, v)
				if len(unstableValues) >= 10 {
					break
				}
			}
		}
		if len(unstableValues) > 0 {
			return NewNumericalInstabilityError(operation, unstableValues, i)
		}
	}
	return nil
}
