package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

func vec(v ...float64) *mat.VecDense {
	return mat.NewVecDense(len(v), v)
}

func TestVectorMetrics(t *testing.T) {
	type metricFunc func(yTrue, yPred *mat.VecDense) (float64, error)

	tests := []struct {
		name         string
		fn           metricFunc
		yTrue, yPred *mat.VecDense
		want         float64
		wantErr      bool
	}{
		{"MSE perfect", MSE, vec(1, 2, 3, 4, 5), vec(1, 2, 3, 4, 5), 0, false},
		{"MSE simple", MSE, vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.25, false},
		{"MSE larger errors", MSE, vec(10, 20, 30), vec(12, 18, 33), 17.0 / 3.0, false},
		{"MSE dimension mismatch", MSE, vec(1, 2, 3), vec(1, 2), 0, true},
		{"MSE empty", MSE, &mat.VecDense{}, &mat.VecDense{}, 0, true},

		{"RMSE unit offset", RMSE, vec(0, 0, 0, 0), vec(1, 1, 1, 1), 1, false},
		{"RMSE dimension mismatch", RMSE, vec(1, 2, 3), vec(1, 2), 0, true},

		{"MAE simple", MAE, vec(1, 2, 3, 4), vec(1.5, 2.5, 2.5, 3.5), 0.5, false},
		{"MAE negative differences", MAE, vec(1, 2, 3, 4), vec(2, 1, 4, 3), 1, false},

		{"R2 perfect", R2Score, vec(1, 2, 3, 4, 5), vec(1, 2, 3, 4, 5), 1, false},
		{"R2 worse than mean", R2Score, vec(1, 2, 3, 4), vec(4, 3, 2, 1), -3, false},
		{"R2 no variance", R2Score, vec(3, 3, 3, 3, 3), vec(2, 3, 4, 3, 3), 0, true},

		{"MAPE simple", MAPE, vec(100, 200), vec(110, 180), 10, false},
		{"MAPE skips zero targets", MAPE, vec(0, 100), vec(5, 90), 10, false},
		{"MAPE all zero", MAPE, vec(0, 0), vec(1, 1), 0, true},

		{"EVS constant bias", ExplainedVarianceScore, vec(1, 2, 3, 4), vec(2, 3, 4, 5), 1, false},
		{"EVS no variance", ExplainedVarianceScore, vec(2, 2, 2), vec(1, 2, 3), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestR2ScoreNoVarianceIsSentinel(t *testing.T) {
	_, err := R2Score(vec(5, 5, 5), vec(4, 5, 6))
	if !errors.Is(err, errors.ErrNoVariance) {
		t.Errorf("expected ErrNoVariance, got %v", err)
	}
}

func TestMatrixMetrics(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	yPred := mat.NewDense(4, 1, []float64{1.5, 2.5, 2.5, 3.5})

	mse, err := MSEMatrix(yTrue, yPred)
	if err != nil || math.Abs(mse-0.25) > 1e-10 {
		t.Errorf("MSEMatrix = %v, %v", mse, err)
	}

	r2, err := R2Matrix(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	// RSS=1, TSS=5
	if math.Abs(r2-0.8) > 1e-10 {
		t.Errorf("R2Matrix = %v, want 0.8", r2)
	}

	wide := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if _, err := R2Matrix(wide, wide); err == nil {
		t.Error("expected error for multi-column input")
	}
	if _, err := MSEMatrix(yTrue, mat.NewDense(3, 1, nil)); err == nil {
		t.Error("expected error for row mismatch")
	}
}

func TestSummarize(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	yPred := mat.NewDense(4, 1, []float64{2, 1, 4, 3})

	s, err := Summarize(yTrue, yPred)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(s.RMSE-1) > 1e-10 || math.Abs(s.MAE-1) > 1e-10 {
		t.Errorf("Summary = %+v", s)
	}
	// RSS=4, TSS=5
	if math.Abs(s.R2-0.2) > 1e-10 {
		t.Errorf("R2 = %v, want 0.2", s.R2)
	}
	if got := Percent(s.R2); math.Abs(got-20) > 1e-9 {
		t.Errorf("Percent = %v, want 20", got)
	}
}

func BenchmarkR2Score(b *testing.B) {
	const size = 10000
	yTrue := mat.NewVecDense(size, nil)
	yPred := mat.NewVecDense(size, nil)
	for i := 0; i < size; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.5*math.Sin(float64(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = R2Score(yTrue, yPred)
	}
}
