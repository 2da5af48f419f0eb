package asset

import (
	"context"
	"image"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/observability"
	"github.com/matzehuels/mockup/pkg/svgdoc"
)

// DefaultLimit is the number of requests generated concurrently.
const DefaultLimit = 8

// Runner executes asset requests.
type Runner struct {
	Fetcher *Fetcher
	Logger  *log.Logger
	Limit   int
}

// NewRunner returns a Runner reading sources through f.
// If f is nil, a Fetcher without cache resolving against the working
// directory is used.
func NewRunner(f *Fetcher, logger *log.Logger) *Runner {
	if f == nil {
		f = NewFetcher(nil, "")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Fetcher: f, Logger: logger, Limit: DefaultLimit}
}

// Failure records one request that could not be generated.
type Failure struct {
	Name string
	Err  error
}

// Report summarizes a Run.
type Report struct {
	Written int
	Failed  []Failure
}

// Run generates every request concurrently and returns once all have
// finished. A failing request is logged and reported without stopping the
// others; the returned error is non-nil only when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, reqs []Request) (Report, error) {
	var (
		report Report
		mu     sync.Mutex
		done   atomic.Int64
	)
	g, gctx := errgroup.WithContext(ctx)
	limit := r.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	g.SetLimit(limit)

	total := len(reqs)
	for _, req := range reqs {
		req := req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			err := r.Generate(gctx, req)

			mu.Lock()
			if err != nil {
				report.Failed = append(report.Failed, Failure{Name: req.Name, Err: err})
			} else {
				report.Written++
			}
			mu.Unlock()

			if err != nil {
				r.Logger.Warn("asset generation failed", "name", req.Name, "kind", req.Kind, "error", err)
			}
			observability.Progress().OnProgress(gctx, observability.StageAssets, int(done.Add(1)), total)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, err
	}
	r.Logger.Debug("generated assets", "written", report.Written, "failed", len(report.Failed))
	return report, nil
}

// Generate writes the files for a single request.
func (r *Runner) Generate(ctx context.Context, req Request) error {
	if err := os.MkdirAll(req.Dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create %s", req.Dir)
	}

	switch req.Kind {
	case KindSwatch:
		w, h := req.Width, req.Height
		if w <= 0 || h <= 0 {
			w, h = SwatchSize, SwatchSize
		}
		img, err := Swatch(req.Fill, w, h)
		if err != nil {
			return err
		}
		return saveAll(img, req.ImagePath(), req.ThumbPath())

	case KindLabel:
		img, err := Label(req.Text)
		if err != nil {
			return err
		}
		if err := saveAll(img, req.ImagePath(), req.ThumbPath()); err != nil {
			return err
		}
		return Save(Trim(img), req.CropPath())

	case KindRaster:
		data, err := r.Fetcher.Fetch(ctx, req.Href)
		if err != nil {
			return err
		}
		img, err := Decode(data)
		if err != nil {
			return err
		}
		if isSVG(data) {
			err = Save(img, req.ImagePath())
		} else {
			err = os.WriteFile(req.ImagePath(), data, 0o644)
		}
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", filepath.Base(req.ImagePath()))
		}
		if err := Save(Thumbnail(img), req.ThumbPath()); err != nil {
			return err
		}
		return Save(Trim(img), req.CropPath())

	case KindVector:
		if err := os.WriteFile(req.RawSVGPath(), svgdoc.PathSVG(req.PathData, req.Canvas, req.Outline), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write raw svg")
		}
		cropped := svgdoc.PathSVG(req.PathData, req.Bounds, req.Outline)
		if err := os.WriteFile(req.SVGPath(), cropped, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write svg")
		}
		w := max(1, int(math.Ceil(req.Bounds.W)))
		h := max(1, int(math.Ceil(req.Bounds.H)))
		img, err := Rasterize(cropped, w, h)
		if err != nil {
			return err
		}
		if err := saveAll(img, req.ImagePath(), req.ThumbPath()); err != nil {
			return err
		}
		return Save(Trim(img), req.CropPath())
	}
	return errors.New(errors.ErrCodeUnsupported, "unknown asset kind %q", req.Kind)
}

func saveAll(img image.Image, paths ...string) error {
	for _, p := range paths {
		if err := Save(img, p); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "write %s", filepath.Base(p))
		}
	}
	return nil
}
