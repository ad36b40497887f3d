// Package artifact は学習済みモデルと推論に必要な列情報をディレクトリに保存・読み込みします。
//
// ディレクトリには gob 形式の model.gob と、特徴量の列順を data_columns として並べた
// columns.json が置かれます。
package artifact

import (
	"encoding/gob"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/co2bench/core/model"
	"github.com/YuminosukeSato/co2bench/ensemble"
	"github.com/YuminosukeSato/co2bench/linear"
	"github.com/YuminosukeSato/co2bench/neighbors"
	"github.com/YuminosukeSato/co2bench/pkg/errors"
	"github.com/YuminosukeSato/co2bench/preprocessing"
	"github.com/YuminosukeSato/co2bench/tree"
)

// ディレクトリ内のファイル名
const (
	ModelFile   = "model.gob"
	ColumnsFile = "columns.json"
)

func init() {
	gob.Register(&linear.LinearRegression{})
	gob.Register(&tree.DecisionTreeRegressor{})
	gob.Register(&ensemble.RandomForestRegressor{})
	gob.Register(&ensemble.GradientBoostingRegressor{})
	gob.Register(&neighbors.KNeighborsRegressor{})
	gob.Register(&preprocessing.StandardScaler{})
	gob.Register(&preprocessing.MinMaxScaler{})
	gob.Register(&preprocessing.IdentityScaler{})
}

// Artifact は学習済みモデルとその入力の形
type Artifact struct {
	RunID     string
	ModelName string // モデルの識別子（例: "random_forest"）
	Target    string
	Accuracy  float64 // テストデータでの R² × 100
	CreatedAt time.Time

	// Columns は特徴量の列順。one-hot列は "<列名>_<値>"。
	Columns []string
	Scaler  preprocessing.Scaler
	Model   model.Regressor
}

type columnsFile struct {
	DataColumns []string `json:"data_columns"`
}

// Save は dir に model.gob と columns.json を書き出す。dir がなければ作成する。
func (a *Artifact) Save(dir string) error {
	if a.Model == nil || a.Scaler == nil {
		return errors.NewValueError("artifact.Save", "model and scaler are required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "artifact: create %s", dir)
	}
	if err := model.SaveModel(a, filepath.Join(dir, ModelFile)); err != nil {
		return err
	}

	data, err := json.MarshalIndent(columnsFile{DataColumns: a.Columns}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "artifact: encode columns")
	}
	if err := os.WriteFile(filepath.Join(dir, ColumnsFile), data, 0o644); err != nil {
		return errors.Wrapf(err, "artifact: write %s", ColumnsFile)
	}
	return nil
}

// Load は dir から Artifact を読み込む。columns.json がある場合はその列順を使う。
func Load(dir string) (*Artifact, error) {
	var a Artifact
	if err := model.LoadModel(&a, filepath.Join(dir, ModelFile)); err != nil {
		return nil, err
	}
	if a.Model == nil || a.Scaler == nil {
		return nil, errors.NewValueError("artifact.Load", "model.gob has no model or scaler")
	}

	cols, err := LoadColumns(dir)
	switch {
	case err == nil:
		if len(cols) != len(a.Columns) {
			return nil, errors.NewDimensionError("artifact.Load", len(a.Columns), len(cols), 1)
		}
		a.Columns = cols
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}
	return &a, nil
}

// LoadColumns は columns.json の data_columns を読み込む
func LoadColumns(dir string) ([]string, error) {
	data, err := os.ReadFile(filepath.Join(dir, ColumnsFile))
	if err != nil {
		return nil, errors.Wrapf(err, "artifact: read %s", ColumnsFile)
	}
	var cf columnsFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, errors.Wrapf(err, "artifact: decode %s", ColumnsFile)
	}
	return cf.DataColumns, nil
}
