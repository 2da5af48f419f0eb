package composite

import (
	"context"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mockup/pkg/asset"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/fonts"
	"github.com/matzehuels/mockup/pkg/observability"
	"github.com/matzehuels/mockup/pkg/svgdoc"
)

// Output kinds.
const (
	KindBackground = "background"
	KindVector     = "vector"
	KindImage      = "image"
	KindScreenshot = "screenshot"
)

// Options configures an export.
type Options struct {
	ExportDir string
	OutputDir string // screenshot destination
	Fetcher   *asset.Fetcher
	Logger    *log.Logger
}

// SetDefaults fills in unset fields.
func (o *Options) SetDefaults() {
	if o.Fetcher == nil {
		o.Fetcher = asset.NewFetcher(nil, "")
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Output is one written file.
type Output struct {
	Kind string
	Key  string
	Path string
}

// Result is the outcome of an export.
type Result struct {
	Outputs []Output
	Errors  errors.GroupErrors
}

// Err returns the failed outputs as an error, or nil.
func (r *Result) Err() error { return r.Errors.OrNil() }

// Paths returns the written files in output order.
func (r *Result) Paths() []string {
	out := make([]string, len(r.Outputs))
	for i, o := range r.Outputs {
		out[i] = o.Path
	}
	return out
}

// BaseName returns the file name prefix of a request's outputs.
func BaseName(fileName string) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if base == "" || base == "." {
		return "export"
	}
	return base
}

func outputPath(dir, base, key, fallback, ext string) string {
	if key == "" {
		key = fallback
	}
	return filepath.Join(dir, base+"-#"+key+ext)
}

type task struct {
	kind, key, path string
	run             func(ctx context.Context, path string) error
}

// Export writes every output of req. The returned error is non-nil for
// invalid options, a failed screenshot or a cancelled context; failures of
// individual outputs are collected in the result.
func Export(ctx context.Context, req Request, opts Options) (*Result, error) {
	opts.SetDefaults()
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnExportStart(ctx, len(req.Images))

	res, err := export(ctx, req, opts)
	if err != nil {
		hooks.OnExportComplete(ctx, 0, time.Since(start), err)
		return nil, err
	}
	hooks.OnExportComplete(ctx, len(res.Outputs), time.Since(start), res.Err())
	opts.Logger.Info("exported", "file", req.FileName, "outputs", len(res.Outputs),
		"failed", len(res.Errors), "duration", time.Since(start))
	return res, nil
}

func export(ctx context.Context, req Request, opts Options) (*Result, error) {
	if req.FileName == ScreenshotFileName {
		return screenshot(req, opts)
	}
	if opts.ExportDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "export directory is required")
	}
	if req.FileName != "" {
		if err := errors.ValidateFileName(req.FileName); err != nil {
			return nil, err
		}
	}

	scale := normScale(req.Scale)
	base := BaseName(req.FileName)
	plan := Route(req.Images)
	tasks := plan.tasks(opts, base, scale)

	res := &Result{}
	var mu sync.Mutex
	var done int
	eg, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := t.run(gctx, t.path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				group := t.kind + " #" + t.key
				opts.Logger.Error("export output failed", "group", group, "error", err)
				res.Errors = append(res.Errors, errors.GroupError{Group: group, Err: err})
			} else {
				res.Outputs = append(res.Outputs, Output{Kind: t.kind, Key: t.key, Path: t.path})
			}
			done++
			observability.Progress().OnProgress(gctx, observability.StageExport, done, len(tasks))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(res.Outputs, func(i, j int) bool { return res.Outputs[i].Path < res.Outputs[j].Path })
	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].Group < res.Errors[j].Group })
	return res, nil
}

// normScale reads zero as 1 and rounds to two decimals.
func normScale(s float64) float64 {
	if s <= 0 {
		return 1
	}
	return math.Round(s*100) / 100
}

func (p Plan) tasks(opts Options, base string, scale float64) []task {
	var tasks []task
	for _, key := range sortedKeys(p.Vectors) {
		ims := p.Vectors[key]
		tasks = append(tasks, task{
			kind: KindVector, key: key,
			path: outputPath(opts.ExportDir, base, key, "image", ".svg"),
			run: func(ctx context.Context, path string) error {
				return writeVectors(ctx, opts.Fetcher, path, ims, scale)
			},
		})
	}
	for _, key := range sortedKeys(p.Images) {
		ims := p.Images[key]
		tasks = append(tasks, task{
			kind: KindImage, key: key,
			path: outputPath(opts.ExportDir, base, key, "image", ".png"),
			run: func(ctx context.Context, path string) error {
				return writeImages(ctx, opts.Fetcher, path, ims, scale)
			},
		})
	}
	if bg := p.Background; bg != nil {
		path := outputPath(opts.ExportDir, base, bg.Hashtag, "1", ".png")
		for _, t := range tasks {
			if t.path == path {
				path = strings.TrimSuffix(path, ".png") + "-" + KindBackground + ".png"
				break
			}
		}
		tasks = append(tasks, task{
			kind: KindBackground, key: bg.Hashtag, path: path,
			run: func(ctx context.Context, path string) error {
				return writeBackground(ctx, opts.Fetcher, path, *bg, scale)
			},
		})
	}
	return tasks
}

func sortedKeys(m map[string][]Image) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fetchImage(ctx context.Context, f *asset.Fetcher, ref string) (image.Image, error) {
	data, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, err := asset.Decode(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssetUnavailable, err, "decode %s", shortRef(ref))
	}
	return img, nil
}

func shortRef(ref string) string {
	if strings.HasPrefix(ref, "data:") && len(ref) > 32 {
		return ref[:32] + "..."
	}
	return ref
}

// writeBackground resizes the background to its target rect, distorting
// the aspect ratio when needed.
func writeBackground(ctx context.Context, f *asset.Fetcher, path string, bg Image, scale float64) error {
	img, err := fetchImage(ctx, f, bg.ImagePath)
	if err != nil {
		return err
	}
	sx, sy := bg.Scales()
	w := int(math.Round(sx * bg.Width * scale))
	h := int(math.Round(sy * bg.Height * scale))
	if w <= 0 || h <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "background has no size")
	}
	return asset.Save(imaging.Resize(img, w, h, imaging.Lanczos), path)
}

// writeImages flattens one hashtag group. Any missing image fails the
// whole group.
func writeImages(ctx context.Context, f *asset.Fetcher, path string, ims []Image, scale float64) error {
	elems := make([]Element, 0, len(ims))
	for _, im := range ims {
		sx, sy := im.Scales()
		e := Element{
			X:      im.X * scale,
			Y:      im.Y * scale,
			Width:  im.Width * sx * scale,
			Height: im.Height * sy * scale,
		}
		var err error
		if im.ImagePath != "" {
			e.Image, err = fetchImage(ctx, f, im.ImagePath)
		} else {
			e.Image, err = renderText(im, e.Width, e.Height)
		}
		if err != nil {
			return err
		}
		elems = append(elems, e)
	}
	canvas, _ := Flatten(elems)
	if canvas.Bounds().Empty() {
		return errors.New(errors.ErrCodeInvalidInput, "group has nothing to draw")
	}
	return asset.Save(canvas, path)
}

// TextLineHeight is the line spacing of rendered text overlays.
const TextLineHeight = 1.5

func renderText(im Image, w, h float64) (image.Image, error) {
	iw, ih := int(math.Round(w)), int(math.Round(h))
	if iw <= 0 || ih <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "text %q has no size", im.Text)
	}
	size := im.FontSize
	if size <= 0 {
		size = h / TextLineHeight
	}
	face, err := fonts.Face(fonts.Regular, size)
	if err != nil {
		return nil, err
	}
	fill := color.NRGBA{A: 255}
	if im.Fill != "" {
		if c, err := asset.ParseColor(im.Fill); err == nil {
			fill = c
		}
	}
	dc := gg.NewContext(iw, ih)
	dc.SetFontFace(face)
	dc.SetColor(fill)
	dc.DrawStringWrapped(im.Text, 0, 0, 0, 0, w, TextLineHeight, gg.AlignLeft)
	return dc.Image(), nil
}

// writeVectors combines the root path of every SVG into one document.
func writeVectors(ctx context.Context, f *asset.Fetcher, path string, ims []Image, scale float64) error {
	var viewBox svgdoc.Rect
	var paths []*svgdoc.Node
	for _, im := range ims {
		data, err := f.Fetch(ctx, im.SVGPath)
		if err != nil {
			return err
		}
		doc, err := svgdoc.ParseBytes(data)
		if err != nil {
			return err
		}
		p := doc.Root.Find("path")
		if p == nil {
			return errors.New(errors.ErrCodeInvalidFormat, "%s has no path", shortRef(im.SVGPath))
		}
		if vb, ok := svgdoc.ParseViewBox(doc.ViewBox()); ok {
			viewBox = vb
		}
		p = svgdoc.NewElement("path", p.Attrs...)
		if scale != 1 {
			t := strings.TrimSpace(p.Attr("transform") + " scale(" + strconv.FormatFloat(scale, 'f', -1, 64) + ")")
			p.SetAttr("transform", t)
		}
		paths = append(paths, p)
	}
	viewBox.W *= scale
	viewBox.H *= scale

	root := svgdoc.NewSVG(viewBox.String()).Append(paths...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, root.Markup(), 0o644)
}

func screenshot(req Request, opts Options) (*Result, error) {
	res := &Result{}
	if req.Screenshot == "" {
		return res, nil
	}
	if opts.OutputDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "output directory is required")
	}
	_, data, err := asset.ParseDataURI(req.Screenshot)
	if err != nil {
		return nil, err
	}
	img, err := asset.Decode(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode screenshot")
	}
	path := filepath.Join(opts.OutputDir, ScreenshotFileName)
	if err := asset.Save(img, path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write screenshot")
	}
	res.Outputs = append(res.Outputs, Output{Kind: KindScreenshot, Path: path})
	return res, nil
}
