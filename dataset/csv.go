package dataset

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/YuminosukeSato/co2bench/pkg/errors"
)

type readConfig struct {
	aliases map[string]string
	kinds   map[string]Kind
	markers []string
	comma   rune
}

// ReadOption configures ReadCSV.
type ReadOption func(*readConfig)

// WithAliases replaces the header alias table.
func WithAliases(aliases map[string]string) ReadOption {
	return func(c *readConfig) { c.aliases = aliases }
}

// WithKinds replaces the table of columns whose kind is fixed.
func WithKinds(kinds map[string]Kind) ReadOption {
	return func(c *readConfig) { c.kinds = kinds }
}

// WithMissing replaces the missing-value markers.
func WithMissing(markers ...string) ReadOption {
	return func(c *readConfig) { c.markers = markers }
}

// WithComma sets the field delimiter.
func WithComma(r rune) ReadOption {
	return func(c *readConfig) { c.comma = r }
}

func missingSet(markers []string) map[string]bool {
	m := make(map[string]bool, len(markers))
	for _, s := range markers {
		m[strings.ToLower(s)] = true
	}
	return m
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string, opts ...ReadOption) (*Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open dataset %s", path)
	}
	defer file.Close()

	return ReadCSV(bufio.NewReader(file), opts...)
}

// ReadCSV reads a header row followed by records. Headers are mapped to
// canonical keys. A column with a fixed numeric kind fails on the first
// value that is neither a number nor a missing marker; other columns are
// numeric when every present value parses. Missing markers match
// case-insensitively.
func ReadCSV(r io.Reader, opts ...ReadOption) (*Frame, error) {
	cfg := readConfig{
		aliases: DefaultAliases,
		kinds:   DefaultKinds,
		markers: DefaultMissing,
		comma:   ',',
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	missing := missingSet(cfg.markers)

	// every column is read as text so numeric cells can be validated strictly
	raw := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.WithDelimiter(cfg.comma),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(cfg.markers),
	)
	if raw.Err != nil {
		return nil, errors.Wrap(raw.Err, "failed to read CSV")
	}

	frame := NewFrame(raw.Nrow())
	seen := make(map[string]bool, raw.Ncol())
	for _, header := range raw.Names() {
		name := canonicalName(header, cfg.aliases)
		if name == "" {
			return nil, errors.NewColumnError(header, "header does not map to a column name")
		}
		if seen[name] {
			return nil, errors.NewColumnError(name, "duplicate column")
		}
		seen[name] = true

		col := raw.Col(header)
		values := col.Records()
		nan := col.IsNaN()
		for i, v := range values {
			v = strings.TrimSpace(v)
			if nan[i] || missing[strings.ToLower(v)] {
				v = ""
			}
			values[i] = v
		}

		kind, fixed := cfg.kinds[name]
		if !fixed {
			kind = inferKind(values)
		}
		if kind == Categorical {
			if err := frame.AddCategorical(name, values); err != nil {
				return nil, err
			}
			continue
		}
		nums, err := parseNumeric(name, values)
		if err != nil {
			return nil, err
		}
		if err := frame.AddNumeric(name, nums); err != nil {
			return nil, err
		}
	}
	return frame, nil
}

// inferKind treats "" as missing.
func inferKind(values []string) Kind {
	present := 0
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return Categorical
		}
		present++
	}
	if present == 0 {
		return Categorical
	}
	return Numeric
}

func parseNumeric(name string, values []string) ([]float64, error) {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == "" {
			out[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			// row numbers are 1-based data rows, excluding the header
			return nil, errors.NewCellError(name, i+1, v, "not a number")
		}
		out[i] = f
	}
	return out, nil
}
