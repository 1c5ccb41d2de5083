package etl

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/nfhs-dash/internal/dataset"
	"github.com/nfhs-dash/internal/source"
)

// Sources locates the files of one build. Districts and Boundaries are
// required; empty optional paths are skipped.
type Sources struct {
	Districts       string `yaml:"districts"`
	Boundaries      string `yaml:"boundaries"`
	NameProperty    string `yaml:"name_property"`
	Trend           string `yaml:"trend"`
	Factsheet       string `yaml:"factsheet"`
	Equity          string `yaml:"equity"`
	EquityHeaderRow int    `yaml:"equity_header_row"`
	EquitySheets    int    `yaml:"equity_sheets"`
}

// DefaultSources returns the file layout of the dashboard data directory
func DefaultSources() Sources {
	return Sources{
		Districts:       "data/districts.csv",
		Boundaries:      "data/boundaries.geojson",
		NameProperty:    source.DefaultNameProperty,
		Trend:           "data/nfhs345.xlsx",
		Factsheet:       "data/India.xlsx",
		Equity:          "data/equity.xlsx",
		EquityHeaderRow: 2,
		EquitySheets:    6,
	}
}

// Loader produces the raw inputs of a build
type Loader interface {
	Load(ctx context.Context) (Inputs, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context) (Inputs, error)

// Load calls f
func (f LoaderFunc) Load(ctx context.Context) (Inputs, error) {
	return f(ctx)
}

// FileLoader reads inputs from local CSV, XLSX and GeoJSON files
type FileLoader struct {
	Sources Sources
}

// NewFileLoader creates a loader for the given files
func NewFileLoader(src Sources) *FileLoader {
	return &FileLoader{Sources: src}
}

// Load reads every configured file. Failures of required files are
// returned; failures of optional files are collected in Inputs.Errors.
func (l *FileLoader) Load(ctx context.Context) (Inputs, error) {
	src := l.Sources
	in := Inputs{Errors: make(map[string]error)}

	if src.Districts == "" || src.Boundaries == "" {
		return in, &dataset.MalformedError{Source: "sources", Missing: []string{"districts", "boundaries"}}
	}

	var err error
	if in.Districts, err = readTable(src.Districts, source.SheetOptions{}); err != nil {
		return in, fmt.Errorf("failed to load districts: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return in, err
	}
	if in.Boundaries, err = source.ReadBoundaries(src.Boundaries, src.NameProperty); err != nil {
		return in, fmt.Errorf("failed to load boundaries: %w", err)
	}

	if src.Trend != "" {
		if in.Trend, err = readTable(src.Trend, source.SheetOptions{}); err != nil {
			in.Errors["trend"] = err
		}
	}
	if src.Factsheet != "" {
		if in.Factsheet, err = readTable(src.Factsheet, source.SheetOptions{}); err != nil {
			in.Errors["factsheet"] = err
		}
	}
	if src.Equity != "" {
		opts := source.SheetOptions{HeaderRow: src.EquityHeaderRow, MaxSheets: src.EquitySheets}
		if in.Equity, err = source.ReadWorkbook(src.Equity, opts); err != nil {
			in.Errors["equity"] = err
		}
	}
	return in, ctx.Err()
}

func readTable(path string, opts source.SheetOptions) (*dataset.Table, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return source.ReadXLSX(path, opts)
	case ".csv", ".txt":
		return source.ReadCSV(path)
	default:
		return nil, fmt.Errorf("unsupported table format %q", filepath.Ext(path))
	}
}
