package asset

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/mockup/pkg/svgdoc"
)

// Kind selects how a request's image is produced.
type Kind string

const (
	// KindSwatch is a solid-fill color swatch.
	KindSwatch Kind = "swatch"
	// KindLabel is a white placeholder tile showing a size label.
	KindLabel Kind = "label"
	// KindRaster copies an embedded or linked raster image.
	KindRaster Kind = "raster"
	// KindVector writes a path as SVG and rasterizes it.
	KindVector Kind = "vector"
)

// Default generated image sizes.
const (
	SwatchSize = 100
	LabelSize  = 200
	ThumbSize  = 256
)

// Request describes the files to generate for one layer.
type Request struct {
	Kind Kind
	Dir  string // output images directory
	Name string // "<group>_<layer>"

	// Swatch
	Fill          string
	Width, Height int

	// Label
	Text string

	// Raster: data URI, http(s) URL or path relative to the source file.
	Href string

	// Vector
	PathData string
	Canvas   svgdoc.Rect // viewBox of the raw, uncropped SVG
	Bounds   svgdoc.Rect // viewBox of the cropped SVG
	Outline  bool
}

func (r Request) path(prefix, ext string) string {
	return filepath.Join(r.Dir, prefix+r.Name+ext)
}

// Ext returns the extension of the main image file.
func (r Request) Ext() string {
	if r.Kind != KindRaster {
		return ".png"
	}
	if strings.HasPrefix(r.Href, "data:") {
		mime, _, _ := strings.Cut(strings.TrimPrefix(r.Href, "data:"), ";")
		switch mime {
		case "image/jpeg", "image/jpg":
			return ".jpg"
		case "image/webp":
			return ".webp"
		case "image/gif":
			return ".gif"
		}
		return ".png"
	}
	switch ext := strings.ToLower(filepath.Ext(strings.SplitN(r.Href, "?", 2)[0])); ext {
	case ".jpg", ".jpeg":
		return ".jpg"
	case ".webp", ".gif":
		return ext
	}
	return ".png"
}

// ImagePath returns the path of the main image.
func (r Request) ImagePath() string { return r.path("", r.Ext()) }

// ThumbPath returns the path of the thumbnail.
func (r Request) ThumbPath() string { return r.path("thumb_", ".png") }

// CropPath returns the path of the trimmed image.
func (r Request) CropPath() string { return r.path("crop_", ".png") }

// RawSVGPath returns the path of the uncropped vector source.
func (r Request) RawSVGPath() string { return r.path("raw_", ".svg") }

// SVGPath returns the path of the cropped vector source.
func (r Request) SVGPath() string { return r.path("", ".svg") }
