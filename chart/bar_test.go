package chart

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func sampleBars() []Bar {
	return []Bar{
		{"Linear Regression", 99.12},
		{"Decision Tree", 99.45},
		{"Random Forest", 99.67},
		{"KNN", 98.80},
		{"Gradient Boosting", 99.50},
	}
}

func TestAccuracyBarPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFile)
	got, err := AccuracyBar(sampleBars(), path)
	if err != nil {
		t.Fatalf("AccuracyBar failed: %v", err)
	}
	if got != path {
		t.Errorf("path = %q, want %q", got, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		t.Error("output is not a PNG")
	}
}

func TestAccuracyBarFormats(t *testing.T) {
	dir := t.TempDir()

	got, err := AccuracyBar(sampleBars(), filepath.Join(dir, "accuracy"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(got) != ".png" {
		t.Errorf("missing extension should default to .png, got %q", got)
	}

	svg, err := AccuracyBar(sampleBars(), filepath.Join(dir, "accuracy.svg"))
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(svg)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(data, []byte("<svg")) {
		t.Error("output is not an SVG")
	}

	if _, err := AccuracyBar(sampleBars(), filepath.Join(dir, "accuracy.bmp")); err == nil {
		t.Error("unsupported extension should fail")
	}
}

func TestAccuracyBarNegativeAccuracy(t *testing.T) {
	bars := []Bar{{"Baseline", -12.5}, {"Linear Regression", 95}}
	if _, err := AccuracyBar(bars, filepath.Join(t.TempDir(), "neg.png")); err != nil {
		t.Fatalf("negative accuracy should still render: %v", err)
	}
}

func TestAccuracyBarEmpty(t *testing.T) {
	if _, err := AccuracyBar(nil, filepath.Join(t.TempDir(), "empty.png")); err == nil {
		t.Error("empty results should fail")
	}
}
