// Package svgexport writes a layer document back out as a standalone SVG.
//
// Every top-level group becomes a <g> carrying the group name as id. Text
// leaves become <text> elements with their font, pixel leaves become
// <image> elements referencing "<name>.png" next to the SVG. Color swatch
// groups keep a stroked outline and their fill so they read as swatches in
// an editor.
package svgexport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mockup/pkg/asset"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/svgdoc"
	"github.com/matzehuels/mockup/pkg/transform"
)

// FileName is the name of the written SVG.
const FileName = "download.svg"

const swatchStyle = "stroke:#000;stroke-miterlimit:10;stroke-width:5px;fill:%s"

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	imageExt string
	viewBox  bool
}

// WithImageExt sets the extension of referenced image files (default
// ".png").
func WithImageExt(ext string) Option { return func(r *renderer) { r.imageExt = ext } }

// WithViewBox writes a viewBox from the document size.
func WithViewBox() Option { return func(r *renderer) { r.viewBox = true } }

// Render returns the SVG markup of doc.
func Render(doc *layer.Document, opts ...Option) []byte {
	r := renderer{imageExt: ".png"}
	for _, opt := range opts {
		opt(&r)
	}

	vb := ""
	if r.viewBox && doc.Width > 0 && doc.Height > 0 {
		vb = svgdoc.Rect{W: doc.Width, H: doc.Height}.String()
	}
	root := svgdoc.NewSVG(vb)
	for _, g := range doc.Layers {
		if g == nil || !g.IsGroup() {
			continue
		}
		root.Append(r.group(g))
	}
	return root.Markup()
}

func (r renderer) group(g *layer.Layer) *svgdoc.Node {
	out := svgdoc.NewElement("g", svgdoc.Attr{Name: "id", Value: g.Name})
	swatch := isSwatchGroup(g.Name)
	for _, c := range g.Children {
		if c == nil {
			continue
		}
		switch {
		case c.Kind == layer.KindType && c.Text != nil:
			out.Append(text(c))
		case c.Kind == layer.KindPixel:
			out.Append(r.image(c, swatch))
		}
	}
	return out
}

func isSwatchGroup(name string) bool {
	n := strings.ToLower(name)
	return n == "choose color" || n == "color"
}

// placement returns the transform written for a leaf: its scale followed by
// its translation, falling back to x/y when no translation is set.
func placement(l *layer.Layer, rotate float64) string {
	t := transform.Identity()
	t.ScaleX, t.ScaleY = orOne(l.Transform.ScaleX), orOne(l.Transform.ScaleY)
	t.TranslateX = firstNonZero(l.Transform.TranslateX, l.X)
	t.TranslateY = firstNonZero(l.Transform.TranslateY, l.Y)
	t.Rotate = rotate
	return t.String()
}

func text(l *layer.Layer) *svgdoc.Node {
	font := strings.ReplaceAll(l.Text.FontName, `"`, `'`)
	style := fmt.Sprintf("font-family:%s;font-size:%spx", font, num(l.Text.FontSize))
	return svgdoc.NewElement("text",
		svgdoc.Attr{Name: "style", Value: style},
		svgdoc.Attr{Name: "data-name", Value: l.Name},
		svgdoc.Attr{Name: "transform", Value: placement(l, l.Transform.Rotation())},
	).AppendText(l.Text.Text)
}

func (r renderer) image(l *layer.Layer, swatch bool) *svgdoc.Node {
	style := "overflow:visible"
	if swatch {
		fill := ""
		if l.Pixel != nil {
			fill = l.Pixel.FillColor
		}
		style = fmt.Sprintf(swatchStyle, fill)
	}
	return svgdoc.NewElement("image",
		svgdoc.Attr{Name: "id", Value: l.Name},
		svgdoc.Attr{Name: "xlink:href", Value: l.Name + r.imageExt},
		svgdoc.Attr{Name: "width", Value: num(l.Width)},
		svgdoc.Attr{Name: "height", Value: num(l.Height)},
		svgdoc.Attr{Name: "style", Value: style},
		svgdoc.Attr{Name: "data-name", Value: l.Name},
		svgdoc.Attr{Name: "transform", Value: placement(l, 0)},
	)
}

func orOne(f float64) float64 {
	if f == 0 {
		return 1
	}
	return f
}

func firstNonZero(a, b float64) float64 {
	if a != 0 {
		return a
	}
	return b
}

func num(f float64) string { return transform.Format(f) }

// Failure is an image that could not be copied next to the SVG.
type Failure struct {
	Name string
	Err  error
}

// Download writes doc as dir/download.svg and copies every referenced
// image to dir/<name>.png. Existing files in dir are removed first. Images
// that cannot be fetched are logged and returned; the SVG is written
// regardless.
func Download(ctx context.Context, doc *layer.Document, dir string, f *asset.Fetcher, logger *log.Logger) (string, []Failure, error) {
	if f == nil {
		f = asset.NewFetcher(nil, "")
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	if err := os.RemoveAll(dir); err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "clear %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "create %s", dir)
	}

	var mu sync.Mutex
	var failed []Failure
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(asset.DefaultLimit)
	for _, g := range doc.Layers {
		if g == nil || !g.IsGroup() {
			continue
		}
		for _, c := range g.Children {
			if c == nil || c.Kind != layer.KindPixel || c.ImagePath() == "" {
				continue
			}
			c := c
			eg.Go(func() error {
				err := copyImage(gctx, f, c.ImagePath(), filepath.Join(dir, c.Name+".png"))
				if err != nil {
					logger.Warn("image not copied", "layer", c.Name, "error", err)
					mu.Lock()
					failed = append(failed, Failure{Name: c.Name, Err: err})
					mu.Unlock()
				}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return "", failed, err
	}

	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, Render(doc, WithViewBox()), 0o644); err != nil {
		return "", failed, errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	logger.Info("wrote svg", "path", path, "images_failed", len(failed))
	return path, failed, nil
}

func copyImage(ctx context.Context, f *asset.Fetcher, ref, dst string) error {
	data, err := f.Fetch(ctx, ref)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
