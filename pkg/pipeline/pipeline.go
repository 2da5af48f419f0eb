// Package pipeline runs the mockup workflows shared by the CLI and the HTTP
// API.
//
// Three stages are exposed through a [Runner]:
//
//  1. Decode: turn a design file into a layer model. SVG files are built
//     in-process (extract, asset generation, normalization); raster
//     documents go through the external decoder. The model is validated and
//     persisted as <OutputDir>/psd_data.json.
//  2. Merge: pack exported designs onto print sheets per hashtag group.
//  3. Export: composite a session's export request into per-group images.
//
// Every stage result can be turned into the {success, message, data}
// [Reply] the front ends return:
//
//	runner := pipeline.NewRunner(pipeline.Options{OutputDir: "data/output"}, nil, logger)
//	res, err := runner.Decode(ctx, "shirt.svg")
//	reply := pipeline.DecodeReply(res, err)
package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/mockup/pkg/config"
	"github.com/matzehuels/mockup/pkg/decoder"
	"github.com/matzehuels/mockup/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultOutputDir receives decoded models and their images.
	DefaultOutputDir = config.DefaultOutputDir

	// DefaultExportDir receives merged sheets and composited exports.
	DefaultExportDir = config.DefaultExportDir

	// DefaultDownloadDir receives the standalone SVG download.
	DefaultDownloadDir = config.DefaultDownloadDir

	// DefaultFallbackSize is the canvas edge used when a document has no
	// background extent.
	DefaultFallbackSize = config.DefaultFallback
)

// Source formats accepted by Decode.
const (
	SourceSVG = "svg"
	SourcePSD = "psd"
)

// =============================================================================
// Options
// =============================================================================

// Options configures a Runner.
type Options struct {
	OutputDir   string
	ExportDir   string
	DownloadDir string

	// Fallback canvas size for documents without a background.
	FallbackWidth  float64
	FallbackHeight float64

	// Merge sheet geometry. Zero width or height means "fit the widest or
	// tallest element".
	SheetWidth  float64
	SheetHeight float64
	Gap         float64

	// Decoder configures the external raster decoder.
	Decoder decoder.Options
}

// SetDefaults fills zero fields.
func (o *Options) SetDefaults() {
	if o.OutputDir == "" {
		o.OutputDir = DefaultOutputDir
	}
	if o.ExportDir == "" {
		o.ExportDir = DefaultExportDir
	}
	if o.DownloadDir == "" {
		o.DownloadDir = DefaultDownloadDir
	}
	if o.FallbackWidth <= 0 {
		o.FallbackWidth = DefaultFallbackSize
	}
	if o.FallbackHeight <= 0 {
		o.FallbackHeight = DefaultFallbackSize
	}
}

// Validate checks the options.
func (o *Options) Validate() error {
	if o.Gap < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "gap must not be negative")
	}
	if o.SheetWidth < 0 || o.SheetHeight < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "sheet size must not be negative")
	}
	return nil
}

// FromConfig maps application configuration to runner options.
func FromConfig(c *config.Config) Options {
	return Options{
		OutputDir:      c.OutputDir,
		ExportDir:      c.ExportDir,
		DownloadDir:    c.DownloadDir,
		FallbackWidth:  c.Fallback.Width,
		FallbackHeight: c.Fallback.Height,
		SheetWidth:     c.Merge.Width,
		SheetHeight:    c.Merge.Height,
		Gap:            c.Merge.Gap,
		Decoder: decoder.Options{
			Command:  c.Decoder.Command,
			Args:     c.Decoder.Args,
			Dir:      c.Decoder.Dir,
			Archive:  c.Decoder.Archive,
			JSONFile: c.Decoder.JSONFile,
		},
	}
}

// SourceFormat returns the decode route for path.
func SourceFormat(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".svg":
		return SourceSVG, nil
	case ".psd", ".psb":
		return SourcePSD, nil
	default:
		return "", errors.New(errors.ErrCodeUnsupported, "unsupported design file %q", filepath.Base(path))
	}
}
