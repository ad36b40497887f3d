package model

import (
	"encoding/gob"
	"io"
	"os"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

// SaveModel はモデルをgob形式でファイルに保存する
//
// 使用例:
//
//	reg := linear.NewLinearRegression()
//	// ... モデルの学習 ...
//	err := model.SaveModel(reg, "model.gob")
func SaveModel(model interface{}, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", filename)
	}
	defer file.Close()

	if err := SaveModelToWriter(model, file); err != nil {
		return err
	}
	return errors.WithStack(file.Close())
}

// LoadModel はファイルからモデルを読み込む。model はポインタであること。
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", filename)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
