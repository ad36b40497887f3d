package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
	"github.com/YuminosukeSato/co2bench/preprocessing"
)

// Result は1モデルのテストデータでの評価結果
type Result struct {
	Name        string        `json:"name"`
	DisplayName string        `json:"display_name"`
	Accuracy    float64       `json:"accuracy"` // R² × 100
	R2          float64       `json:"r2"`
	RMSE        float64       `json:"rmse"`
	MAE         float64       `json:"mae"`
	FitDuration time.Duration `json:"fit_duration_ns"`
}

// Report は1回の実行の結果。Results は設定されたモデルの順に並ぶ。
type Report struct {
	RunID       string                     `json:"run_id"`
	StartedAt   time.Time                  `json:"started_at"`
	Dataset     string                     `json:"dataset,omitempty"`
	Target      string                     `json:"target"`
	Seed        uint64                     `json:"seed"`
	Rows        int                        `json:"rows"`
	TrainSize   int                        `json:"train_size"`
	TestSize    int                        `json:"test_size"`
	Features    []string                   `json:"features"`
	Imputations []preprocessing.Imputation `json:"imputations,omitempty"`
	Results     []Result                   `json:"results"`
	Best        string                     `json:"best"`
	PlotPath    string                     `json:"plot_path,omitempty"`
	ArtifactDir string                     `json:"artifact_dir,omitempty"`
}

// best は精度が最大の結果を返す。同じ精度なら先に評価したものを選ぶ。
func (r *Report) best() Result {
	var best Result
	for i, res := range r.Results {
		if i == 0 || res.Accuracy > best.Accuracy {
			best = res
		}
	}
	return best
}

// Result は識別子に対応する結果を返す
func (r *Report) Result(name string) (Result, bool) {
	for _, res := range r.Results {
		if res.Name == name {
			return res, true
		}
	}
	return Result{}, false
}

// Table はモデルと精度の表を書き出す
func (r *Report) Table(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tACCURACY (%)\tR2\tRMSE\tMAE\tFIT TIME")
	fmt.Fprintln(tw, "-----\t------------\t--\t----\t---\t--------")
	for _, res := range r.Results {
		fmt.Fprintf(tw, "%s\t%.2f\t%.4f\t%.3f\t%.3f\t%s\n",
			res.DisplayName, res.Accuracy, res.R2, res.RMSE, res.MAE, res.FitDuration.Round(time.Millisecond))
	}
	if err := tw.Flush(); err != nil {
		return errors.WithStack(err)
	}
	if r.Best != "" {
		_, err := fmt.Fprintf(w, "\nBest model: %s (%.2f%%)\n", DisplayName(r.Best), r.best().Accuracy)
		return err
	}
	return nil
}

// WriteJSON はレポートをインデント付きJSONで書き出す
func (r *Report) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "pipeline: encode report")
	}
	return nil
}
