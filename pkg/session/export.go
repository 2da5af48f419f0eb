package session

import (
	"math"
	"strings"

	"github.com/matzehuels/mockup/pkg/composite"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/naming"
)

// TextLift is the distance, in font sizes, between a text layer's anchor
// and the top of its box.
const TextLift = 1.2

// TextOrigin returns the top-left corner of a text layer's box. The anchor
// is moved up by TextLift font sizes along the text's rotation.
func TextOrigin(l *layer.Layer) (float64, float64) {
	if l.Text == nil {
		return l.X, l.Y
	}
	r := l.Transform.Rotation() * math.Pi / 180
	fs := l.Text.FontSize
	dx := math.Round(math.Sin(r)*TextLift*fs*100) / 100
	dy := math.Round(math.Cos(r)*TextLift*fs*100) / 100
	return l.X + dx, l.Y - dy
}

// ExportRequest returns the compositor input for the visible items. A
// scale of zero uses the scale of the selected size item. When the
// document has a copy offset, every visible item except backgrounds is
// duplicated at that offset ahead of the originals.
func (s *State) ExportRequest(fileName string, scale float64) (composite.Request, error) {
	if scale <= 0 {
		scale = s.Scale
	}
	visible := s.Visible()
	images := 0
	for _, it := range visible {
		if !it.IsText() {
			images++
		}
	}
	if images == 0 {
		return composite.Request{}, errors.New(errors.ErrCodeInvalidInput, "no selected items")
	}

	req := composite.Request{FileName: fileName, Scale: scale}
	if off := s.CopyOffset; off != nil && off.X != 0 {
		for _, it := range visible {
			if !it.IsText() && naming.Has(it.Group, naming.RoleBackground) {
				continue
			}
			req.Images = append(req.Images, exportImage(it, off.X, off.Y))
		}
	}
	for _, it := range visible {
		req.Images = append(req.Images, exportImage(it, 0, 0))
	}
	return req, nil
}

func exportImage(it *Item, dx, dy float64) composite.Image {
	l := it.Layer
	im := composite.Image{
		GroupName: it.Group,
		Hashtag:   it.Hashtag,
		Width:     l.Width,
		Height:    l.Height,
		ScaleX:    l.Transform.ScaleX,
		ScaleY:    l.Transform.ScaleY,
		X:         l.X + dx,
		Y:         l.Y + dy,
	}
	if it.IsText() {
		x, y := TextOrigin(l)
		im.X, im.Y = x+dx, y+dy
		im.Text = it.Text
		im.Fill = l.Text.FillColor
		im.FontSize = l.Text.FontSize
		return im
	}
	im.ImagePath = it.ImagePath
	if l.Pixel != nil && strings.TrimSpace(l.Pixel.SVGPath) != "" {
		im.SVGPath = l.Pixel.SVGPath
	}
	return im
}
