package asset

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/fonts"
)

// LabelFontSize is the point size of size-label text.
const LabelFontSize = 28

// Swatch returns a w x h image filled with fill.
func Swatch(fill string, w, h int) (*image.NRGBA, error) {
	c, err := ParseColor(fill)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "swatch fill")
	}
	return imaging.New(w, h, c), nil
}

// Label returns a white LabelSize tile with text centered in italics.
func Label(text string) (image.Image, error) {
	face, err := fonts.Face(fonts.Italic, LabelFontSize)
	if err != nil {
		return nil, err
	}
	dc := gg.NewContext(LabelSize, LabelSize)
	dc.SetColor(color.White)
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetColor(color.Black)
	dc.DrawStringWrapped(text, LabelSize/2, LabelSize/2, 0.5, 0.5, LabelSize*0.9, 1.2, gg.AlignCenter)
	return dc.Image(), nil
}

// Rasterize renders SVG markup to a w x h image. A zero size uses the
// document viewBox.
func Rasterize(svg []byte, w, h int) (*image.NRGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svg), oksvg.IgnoreErrorMode)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse svg")
	}
	if w <= 0 || h <= 0 {
		w, h = int(math.Ceil(icon.ViewBox.W)), int(math.Ceil(icon.ViewBox.H))
	}
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "svg has an empty viewBox")
	}
	icon.SetTarget(0, 0, float64(w), float64(h))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	drawer := rasterx.NewDasher(w, h, rasterx.NewScannerGV(w, h, img, img.Bounds()))
	icon.Draw(drawer, 1)
	return imaging.Clone(img), nil
}

// Trim crops away uniform borders matching the top-left pixel. Images with
// no differing pixel are returned unchanged.
func Trim(img image.Image) image.Image {
	b := img.Bounds()
	if b.Empty() {
		return img
	}
	ref := color.NRGBAModel.Convert(img.At(b.Min.X, b.Min.Y))
	minX, minY, maxX, maxY := b.Max.X, b.Max.Y, b.Min.X-1, b.Min.Y-1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if color.NRGBAModel.Convert(img.At(x, y)) == ref {
				continue
			}
			minX, maxX = min(minX, x), max(maxX, x)
			minY, maxY = min(minY, y), max(maxY, y)
		}
	}
	if maxX < minX {
		return img
	}
	return imaging.Crop(img, image.Rect(minX, minY, maxX+1, maxY+1))
}

// Thumbnail scales img to fit within ThumbSize, never enlarging.
func Thumbnail(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= ThumbSize && b.Dy() <= ThumbSize {
		return img
	}
	return imaging.Fit(img, ThumbSize, ThumbSize, imaging.Lanczos)
}

// Decode decodes PNG, JPEG, GIF or WebP data, or rasterizes SVG markup.
func Decode(data []byte) (image.Image, error) {
	if isSVG(data) {
		return Rasterize(data, 0, 0)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode image")
	}
	return img, nil
}

func isSVG(data []byte) bool {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	return bytes.Contains(head, []byte("<svg"))
}

// Save writes img to path, creating parent directories. The format follows
// the extension; unknown extensions fall back to PNG.
func Save(img image.Image, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if _, err := imaging.FormatFromFilename(path); err != nil {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := imaging.Encode(f, img, imaging.PNG); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	return imaging.Save(img, path)
}
