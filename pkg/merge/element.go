package merge

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/matzehuels/mockup/pkg/asset"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/pack"
	"github.com/matzehuels/mockup/pkg/svgdoc"
	"github.com/matzehuels/mockup/pkg/transform"
)

// element is one loaded merge input.
type element struct {
	path          string
	width, height float64
	scale         float64

	path0  *svgdoc.Node // root path of an SVG input
	bounds svgdoc.Rect

	img image.Image // decoded raster input
}

func (e *element) item() pack.Item {
	return pack.Item{Ref: e.path, Width: e.width, Height: e.height, Scale: e.scale}
}

// load reads every file of a group. Unreadable files are logged and
// returned as skipped.
func load(format Format, files []string, logger *log.Logger) ([]*element, []string) {
	var elems []*element
	var skipped []string
	for _, f := range files {
		var e *element
		var err error
		if format == FormatSVG {
			e, err = loadSVG(f)
		} else {
			e, err = loadRaster(f)
		}
		if err != nil {
			logger.Warn("skipping merge input", "file", f, "error", err)
			skipped = append(skipped, f)
			continue
		}
		elems = append(elems, e)
	}
	return elems, skipped
}

func loadSVG(path string) (*element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	doc, err := svgdoc.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	p := doc.Root.Find("path")
	if p == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s has no path", filepath.Base(path))
	}
	bounds, ok := p.DocumentBounds()
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "%s has an empty path", filepath.Base(path))
	}
	scale := 1.0
	if p.HasAttr("transform") {
		if s := transform.Parse(p.Attr("transform")).ScaleX; s != 0 {
			scale = s
		}
	}
	// The copy is placed at the sheet root, so ancestor transforms move
	// onto the path itself to keep its geometry inside bounds.
	path0 := svgdoc.NewElement("path", append([]svgdoc.Attr(nil), p.Attrs...)...)
	if ctm := p.CTM(); !ctm.IsIdentity() {
		path0.SetAttr("transform", ctm.String())
	}
	return &element{
		path:   path,
		width:  bounds.W,
		height: bounds.H,
		scale:  scale,
		path0:  path0,
		bounds: bounds,
	}, nil
}

func loadRaster(path string) (*element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
	}
	img, err := asset.Decode(data)
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	return &element{path: path, width: float64(b.Dx()), height: float64(b.Dy()), img: img}, nil
}

func elementAt(elems []*element, ref string) (*element, error) {
	for _, e := range elems {
		if e.path == ref {
			return e, nil
		}
	}
	return nil, errors.New(errors.ErrCodeInternal, "unknown placement %q", ref)
}

func num(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func renderSVG(path string, sheet pack.Sheet, elems []*element, opts Options) error {
	root := svgdoc.NewSVG(svgdoc.Rect{W: sheet.Width, H: sheet.Height}.String())
	for _, p := range sheet.Placements {
		e, err := elementAt(elems, p.Ref)
		if err != nil {
			return err
		}
		id := strings.TrimSuffix(filepath.Base(e.path), filepath.Ext(e.path))
		g := svgdoc.NewElement("g",
			svgdoc.Attr{Name: "id", Value: id},
			svgdoc.Attr{Name: "transform", Value: fmt.Sprintf("translate(%s %s)", num(p.Left-e.bounds.X), num(p.Top-e.bounds.Y))},
		)
		root.Append(g.Append(svgdoc.NewElement("path", e.path0.Attrs...)))
	}
	for _, l := range pack.Guides(opts.packOptions()) {
		root.Append(svgdoc.NewElement("line",
			svgdoc.Attr{Name: "x1", Value: num(l.X1)},
			svgdoc.Attr{Name: "y1", Value: num(l.Y1)},
			svgdoc.Attr{Name: "x2", Value: num(l.X2)},
			svgdoc.Attr{Name: "y2", Value: num(l.Y2)},
			svgdoc.Attr{Name: "stroke", Value: pack.GuideColor},
			svgdoc.Attr{Name: "stroke-width", Value: strconv.Itoa(pack.GuideWidth)},
		))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", path)
	}
	if err := root.Encode(f); err != nil {
		f.Close()
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return f.Close()
}

func renderPNG(path string, sheet pack.Sheet, elems []*element, opts Options) error {
	w, h := int(math.Round(sheet.Width)), int(math.Round(sheet.Height))
	canvas := imaging.New(w, h, color.NRGBA{})
	for _, p := range sheet.Placements {
		e, err := elementAt(elems, p.Ref)
		if err != nil {
			return err
		}
		pt := image.Pt(int(math.Round(p.Left)), int(math.Round(p.Top)))
		canvas = imaging.Overlay(canvas, e.img, pt, 1.0)
	}

	dc := gg.NewContextForImage(canvas)
	dc.SetColor(color.NRGBA{R: 255, A: 255})
	dc.SetLineWidth(pack.GuideWidth)
	for _, l := range pack.Guides(opts.packOptions()) {
		dc.DrawLine(l.X1, l.Y1, l.X2, l.Y2)
		dc.Stroke()
	}
	if err := asset.Save(dc.Image(), path); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
