// Package normalize post-processes a freshly built layer forest so that all
// geometry is non-negative and the document size is known.
//
// Both passes are idempotent: applying them to an already normalized
// document changes nothing.
package normalize

import (
	"math"

	"github.com/matzehuels/mockup/pkg/layer"
)

// Display names of the layers that define the document extent.
const (
	BackgroundName  = "Background"
	ColorSwatchName = "Choose Color"
)

// Apply runs Translate and then FitBackground on doc.
func Apply(doc *layer.Document) {
	Translate(doc.Layers)
	FitBackground(doc)
}

// Translate shifts the children of every top-level layer by one
// document-wide offset so that no child has a negative x or y. It returns
// the offset that was added (zero when nothing was negative).
func Translate(layers []*layer.Layer) (dx, dy float64) {
	minX, minY := 0.0, 0.0
	for _, top := range layers {
		if top == nil {
			continue
		}
		for _, c := range top.Children {
			minX = math.Min(minX, c.X)
			minY = math.Min(minY, c.Y)
		}
	}
	if minX >= 0 && minY >= 0 {
		return 0, 0
	}

	dx, dy = -minX, -minY
	for _, top := range layers {
		if top == nil {
			continue
		}
		for _, c := range top.Children {
			c.X += dx
			c.Y += dy
		}
	}
	return dx, dy
}

// FitBackground sets the document size to the scaled extent of the
// Background layer's children and stretches every Choose Color swatch to
// cover exactly that extent. Documents without a Background layer keep a
// zero size; callers substitute a fallback at export time.
func FitBackground(doc *layer.Document) {
	bg := doc.Find(BackgroundName)
	if bg == nil || len(bg.Children) == 0 {
		return
	}

	var maxW, maxH float64
	minX, minY := math.Inf(1), math.Inf(1)
	for _, c := range bg.Children {
		maxW = math.Max(maxW, c.Width*scale(c.Transform.ScaleX))
		maxH = math.Max(maxH, c.Height*scale(c.Transform.ScaleY))
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
	}

	if swatches := doc.Find(ColorSwatchName); swatches != nil {
		for _, c := range swatches.Children {
			c.X, c.Y = minX, minY
			if c.Width > 0 {
				c.Transform.ScaleX = maxW / c.Width
			}
			if c.Height > 0 {
				c.Transform.ScaleY = maxH / c.Height
			}
		}
	}

	doc.Width, doc.Height = maxW, maxH
}

// scale treats a missing (zero) scale as 1.
func scale(s float64) float64 {
	if s == 0 {
		return 1
	}
	return s
}

// Size returns the document size, or the fallback when the document has
// no Background-derived extent.
func Size(doc *layer.Document, fallbackW, fallbackH float64) (w, h float64) {
	if doc.Width > 0 && doc.Height > 0 {
		return doc.Width, doc.Height
	}
	return fallbackW, fallbackH
}
