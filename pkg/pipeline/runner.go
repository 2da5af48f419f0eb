package pipeline

import (
	"context"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mockup/pkg/asset"
	"github.com/matzehuels/mockup/pkg/cache"
	"github.com/matzehuels/mockup/pkg/composite"
	"github.com/matzehuels/mockup/pkg/decoder"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/extract"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/merge"
	"github.com/matzehuels/mockup/pkg/normalize"
	"github.com/matzehuels/mockup/pkg/observability"
	"github.com/matzehuels/mockup/pkg/svgexport"
)

// Runner executes pipeline stages. Both CLI and API use it so that caching
// and output layout stay identical.
//
// The Runner holds no per-request state; multiple goroutines can use the
// same Runner. Concurrent decodes through the external decoder share its
// archive path, so callers that need parallel raster decodes should give
// each its own Runner.
type Runner struct {
	Cache   cache.Cache
	Fetcher *asset.Fetcher
	Decoder *decoder.Runner
	Logger  *log.Logger
	opts    Options
}

// NewRunner creates a runner. A nil cache disables caching of remote
// assets; a nil logger uses log.Default().
func NewRunner(opts Options, c cache.Cache, logger *log.Logger) *Runner {
	opts.SetDefaults()
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	dopts := opts.Decoder
	if dopts.Logger == nil {
		dopts.Logger = logger
	}
	return &Runner{
		Cache:   c,
		Fetcher: asset.NewFetcher(c, ""),
		Decoder: decoder.New(dopts),
		Logger:  logger,
		opts:    opts,
	}
}

// Options returns the effective options.
func (r *Runner) Options() Options { return r.opts }

// ModelPath returns where Decode persists the layer model.
func (r *Runner) ModelPath() string {
	return filepath.Join(r.opts.OutputDir, layer.FileName)
}

// =============================================================================
// Decode
// =============================================================================

// DecodeResult is the outcome of Decode.
type DecodeResult struct {
	Document *layer.Document
	Path     string // persisted model
	Assets   asset.Report
	Duration time.Duration
}

// Decode builds, validates and persists the layer model of the design file
// at path.
func (r *Runner) Decode(ctx context.Context, path string) (*DecodeResult, error) {
	if err := r.opts.Validate(); err != nil {
		return nil, err
	}
	format, err := SourceFormat(path)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res := &DecodeResult{}
	switch format {
	case SourceSVG:
		res.Document, res.Assets, err = r.decodeSVG(ctx, path)
	default:
		res.Document, err = r.Decoder.Run(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	if format != SourceSVG {
		if err := layer.Validate(res.Document); err != nil {
			return nil, err
		}
	}

	res.Path = r.ModelPath()
	if err := res.Document.WriteFile(res.Path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "write %s", res.Path)
	}
	res.Duration = time.Since(start)
	r.Logger.Info("decoded document",
		"file", filepath.Base(path),
		"layers", layer.Count(res.Document.Layers),
		"assets_failed", len(res.Assets.Failed),
		"duration", res.Duration)
	return res, nil
}

func (r *Runner) decodeSVG(ctx context.Context, path string) (doc *layer.Document, report asset.Report, err error) {
	hooks := observability.Pipeline()
	hooks.OnDecodeStart(ctx, path)
	start := time.Now()
	defer func() {
		n := 0
		if doc != nil {
			n = layer.Count(doc.Layers)
		}
		hooks.OnDecodeComplete(ctx, path, n, time.Since(start), err)
	}()

	built, err := extract.BuildFile(path, extract.Options{OutputDir: r.opts.OutputDir})
	if err != nil {
		return nil, report, err
	}
	r.Logger.Debug("built layer tree", "layers", layer.Count(built.Document.Layers), "requests", len(built.Requests))

	report, err = r.writeAssets(ctx, built, filepath.Dir(path))
	if err != nil {
		return nil, report, err
	}

	doc = built.Document
	normalize.Apply(doc)
	doc.Width, doc.Height = normalize.Size(doc, r.opts.FallbackWidth, r.opts.FallbackHeight)
	return doc, report, nil
}

// writeAssets validates the built model and only then generates its asset
// files, so a rejected model leaves nothing behind.
func (r *Runner) writeAssets(ctx context.Context, built *extract.Result, baseDir string) (asset.Report, error) {
	if err := layer.Validate(built.Document); err != nil {
		return asset.Report{}, err
	}
	return asset.NewRunner(r.Fetcher.WithBaseDir(baseDir), r.Logger).Run(ctx, built.Requests)
}

// =============================================================================
// Merge, Export, Download
// =============================================================================

// Merge packs files onto sheets under the export directory.
func (r *Runner) Merge(ctx context.Context, files []string, baseName string) (*merge.Result, error) {
	if len(files) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no files to merge")
	}
	return merge.Merge(ctx, files, merge.Options{
		ExportDir: r.opts.ExportDir,
		BaseName:  baseName,
		Width:     r.opts.SheetWidth,
		Height:    r.opts.SheetHeight,
		Gap:       r.opts.Gap,
		Logger:    r.Logger,
	})
}

// Export composites req into the export directory. Screenshot requests are
// written to the output directory.
func (r *Runner) Export(ctx context.Context, req composite.Request) (*composite.Result, error) {
	return composite.Export(ctx, req, composite.Options{
		ExportDir: r.opts.ExportDir,
		OutputDir: r.opts.OutputDir,
		Fetcher:   r.Fetcher,
		Logger:    r.Logger,
	})
}

// DownloadSVG writes doc as a standalone SVG with its images into the
// download directory.
func (r *Runner) DownloadSVG(ctx context.Context, doc *layer.Document) (string, []svgexport.Failure, error) {
	if doc == nil {
		return "", nil, errors.New(errors.ErrCodeInvalidInput, "no document")
	}
	return svgexport.Download(ctx, doc, r.opts.DownloadDir, r.Fetcher, r.Logger)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
