// Package composite flattens placed images into export files.
//
// An export [Request] lists every visible element of a mockup with its
// absolute placement. [Route] splits the list into outputs:
//
//   - vector elements (an SVG path in a group named "vector") are combined
//     per hashtag into one SVG file
//   - the first raster of a background or color group is resized to its
//     own rect
//   - everything else is flattened per hashtag with [Flatten]; text
//     overlays are painted on every hashtag output
//
// Each output is produced independently. A failing output is reported in
// [Result.Errors] and does not stop the others.
package composite

import (
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
)

// ScreenshotFileName selects screenshot mode: the request carries a
// finished snapshot that is written as is.
const ScreenshotFileName = "export_image.png"

// Request is one export.
type Request struct {
	Images     []Image `json:"images"`
	FileName   string  `json:"fileName"`
	Scale      float64 `json:"scale"`
	Screenshot string  `json:"screenShot,omitempty"` // base64 PNG data URI
}

// Image is one placed element. ImagePath and SVGPath accept file paths,
// http(s) URLs and data URIs.
type Image struct {
	SVGPath   string  `json:"svgPath,omitempty"`
	GroupName string  `json:"groupName"`
	Hashtag   string  `json:"layerHashtag"`
	ImagePath string  `json:"imagePath,omitempty"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	ScaleX    float64 `json:"scaleX,omitempty"`
	ScaleY    float64 `json:"scaleY,omitempty"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`

	// Text overlays. When ImagePath is empty the text is rendered here.
	Text     string  `json:"text,omitempty"`
	Fill     string  `json:"fill,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
}

// Scales returns ScaleX and ScaleY with zero read as 1.
func (im Image) Scales() (float64, float64) {
	sx, sy := im.ScaleX, im.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return sx, sy
}

func (im Image) isVector() bool {
	return im.SVGPath != "" && strings.Contains(strings.ToLower(im.GroupName), "vector")
}

func (im Image) isBackground() bool {
	g := strings.ToLower(im.GroupName)
	return im.ImagePath != "" && (strings.Contains(g, "background") || strings.Contains(g, "color"))
}

// Plan is a routed request.
type Plan struct {
	Background *Image
	Vectors    map[string][]Image
	Images     map[string][]Image
}

// Route assigns each image to its output. Input order is kept within every
// output, so later images paint over earlier ones.
//
// Text overlays are not tied to a hashtag: each one is painted on top of
// every hashtag image output. Only when a request has no image output at
// all do the texts form outputs of their own.
func Route(images []Image) Plan {
	p := Plan{Vectors: map[string][]Image{}, Images: map[string][]Image{}}
	var texts []Image
	for _, im := range images {
		switch {
		case im.isVector():
			p.Vectors[im.Hashtag] = append(p.Vectors[im.Hashtag], im)
		case im.isBackground():
			if p.Background == nil {
				bg := im
				p.Background = &bg
			}
		case im.Text != "":
			texts = append(texts, im)
		case im.ImagePath != "":
			p.Images[im.Hashtag] = append(p.Images[im.Hashtag], im)
		}
	}
	if len(p.Images) == 0 {
		for _, im := range texts {
			p.Images[im.Hashtag] = append(p.Images[im.Hashtag], im)
		}
		return p
	}
	for key, ims := range p.Images {
		p.Images[key] = append(ims, texts...)
	}
	return p
}

// Element is one image placed for [Flatten]. Width and Height are the
// target size; the image is resized when it differs.
type Element struct {
	Image  image.Image
	X, Y   float64
	Width  float64
	Height float64
}

func (e Element) rect() image.Rectangle {
	x, y := int(math.Round(e.X)), int(math.Round(e.Y))
	return image.Rect(x, y, x+int(math.Round(e.Width)), y+int(math.Round(e.Height)))
}

// Bounds returns the bounding box of elems in rounded pixel space.
func Bounds(elems []Element) image.Rectangle {
	var r image.Rectangle
	for i, e := range elems {
		if i == 0 {
			r = e.rect()
			continue
		}
		r = r.Union(e.rect())
	}
	return r
}

// Flatten paints elems in order onto a transparent canvas sized to their
// bounding box. Element positions are shifted by the box origin, which is
// returned alongside the canvas.
func Flatten(elems []Element) (*image.NRGBA, image.Point) {
	box := Bounds(elems)
	canvas := imaging.New(box.Dx(), box.Dy(), color.NRGBA{})
	for _, e := range elems {
		r := e.rect()
		if r.Empty() || e.Image == nil {
			continue
		}
		img := e.Image
		if b := img.Bounds(); b.Dx() != r.Dx() || b.Dy() != r.Dy() {
			img = imaging.Resize(img, r.Dx(), r.Dy(), imaging.Lanczos)
		}
		canvas = imaging.Overlay(canvas, img, r.Min.Sub(box.Min), 1.0)
	}
	return canvas, box.Min
}
