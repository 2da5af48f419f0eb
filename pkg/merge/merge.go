// Package merge lays out many exported designs on shared print sheets.
//
// Input files are split by format (SVG or raster) and grouped by the
// hashtag key in their file name (see [naming.FileHashtag]). Each group is
// packed independently with [pack.Pack] and rendered to
//
//	<ExportDir>/<BaseName>-#<key>[-<sheet>].svg|.png
//
// where the sheet suffix is only added when a group needs more than one
// sheet. A group that fails (an oversized element, an unwritable output)
// is reported in [Result.Errors] without affecting the other groups.
package merge

import (
	"context"
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/naming"
	"github.com/matzehuels/mockup/pkg/observability"
	"github.com/matzehuels/mockup/pkg/pack"
)

// DefaultBaseName prefixes every merged output file.
const DefaultBaseName = "merged"

// DefaultGap is the guide gap in pixels.
const DefaultGap = 10

// Options configures a merge.
type Options struct {
	ExportDir string
	BaseName  string
	Width     float64
	Height    float64
	Gap       float64
	Logger    *log.Logger
}

// SetDefaults fills in unset fields.
func (o *Options) SetDefaults() {
	if o.BaseName == "" {
		o.BaseName = DefaultBaseName
	}
	if o.Gap == 0 {
		o.Gap = DefaultGap
	}
	if o.Logger == nil {
		o.Logger = log.New(io.Discard)
	}
}

// Validate checks that the options can produce output.
func (o Options) Validate() error {
	if o.ExportDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "export directory is required")
	}
	if o.Gap < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "gap must not be negative")
	}
	if o.BaseName != "" {
		if err := errors.ValidateFileName(o.BaseName); err != nil {
			return err
		}
	}
	return nil
}

func (o Options) packOptions() pack.Options {
	return pack.Options{Width: o.Width, Height: o.Height, Gap: o.Gap}
}

// Format is the output format of a group.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// Output lists the sheets written for one group.
type Output struct {
	Key    string
	Format Format
	Paths  []string
}

// Result is the outcome of a merge.
type Result struct {
	Outputs []Output
	Errors  errors.GroupErrors
	Skipped []string // inputs that could not be read
}

// Sheets returns the total number of sheets written.
func (r *Result) Sheets() int {
	n := 0
	for _, o := range r.Outputs {
		n += len(o.Paths)
	}
	return n
}

// Err returns the group failures as an error, or nil.
func (r *Result) Err() error { return r.Errors.OrNil() }

type groupKey struct {
	format Format
	key    string
}

// group splits files by format and hashtag key. Files of other formats
// are returned separately.
func group(files []string) (map[groupKey][]string, []string) {
	groups := map[groupKey][]string{}
	var other []string
	for _, f := range files {
		format, ok := formatOf(f)
		if !ok {
			other = append(other, f)
			continue
		}
		k := groupKey{format: format, key: naming.FileHashtag(f)}
		groups[k] = append(groups[k], f)
	}
	return groups, other
}

func formatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		return FormatSVG, true
	case ".png", ".jpg", ".jpeg", ".webp":
		return FormatPNG, true
	}
	return "", false
}

// Merge packs and renders files. Groups run concurrently and fail
// independently; the returned error is non-nil only for invalid options or
// a cancelled context.
func Merge(ctx context.Context, files []string, opts Options) (*Result, error) {
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnMergeStart(ctx, len(files))

	groups, other := group(files)
	res := &Result{Skipped: other}
	for _, f := range other {
		opts.Logger.Warn("unsupported merge input", "file", f)
	}

	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].format != keys[j].format {
			return keys[i].format < keys[j].format
		}
		return keys[i].key < keys[j].key
	})

	var mu sync.Mutex
	var done int
	eg, gctx := errgroup.WithContext(ctx)
	for _, k := range keys {
		k := k
		eg.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, skipped, err := mergeGroup(gctx, k, groups[k], opts)

			mu.Lock()
			defer mu.Unlock()
			res.Skipped = append(res.Skipped, skipped...)
			if err != nil {
				opts.Logger.Error("merge group failed", "group", "#"+k.key, "format", k.format, "error", err)
				res.Errors = append(res.Errors, errors.GroupError{Group: "#" + k.key, Err: err})
			} else if len(out.Paths) > 0 {
				res.Outputs = append(res.Outputs, out)
			}
			done++
			observability.Progress().OnProgress(gctx, observability.StageMerge, done, len(keys))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		hooks.OnMergeComplete(ctx, res.Sheets(), time.Since(start), err)
		return nil, err
	}

	sort.Slice(res.Outputs, func(i, j int) bool {
		if res.Outputs[i].Format != res.Outputs[j].Format {
			return res.Outputs[i].Format < res.Outputs[j].Format
		}
		return res.Outputs[i].Key < res.Outputs[j].Key
	})
	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].Group < res.Errors[j].Group })

	hooks.OnMergeComplete(ctx, res.Sheets(), time.Since(start), res.Err())
	opts.Logger.Info("merged files", "groups", len(keys), "sheets", res.Sheets(),
		"failed", len(res.Errors), "duration", time.Since(start))
	return res, nil
}

func mergeGroup(ctx context.Context, k groupKey, files []string, opts Options) (Output, []string, error) {
	out := Output{Key: k.key, Format: k.format}
	elems, skipped := load(k.format, files, opts.Logger)
	if len(elems) == 0 {
		return out, skipped, nil
	}

	items := make([]pack.Item, len(elems))
	for i, e := range elems {
		items[i] = e.item()
	}
	sheets, err := pack.Pack(items, opts.packOptions())
	if err != nil {
		return out, skipped, err
	}

	for i, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return out, skipped, err
		}
		path := OutputPath(opts.ExportDir, opts.BaseName, k.key, i, len(sheets), string(k.format))
		var err error
		switch k.format {
		case FormatSVG:
			err = renderSVG(path, sheet, elems, opts)
		default:
			err = renderPNG(path, sheet, elems, opts)
		}
		if err != nil {
			return out, skipped, err
		}
		out.Paths = append(out.Paths, path)
	}
	return out, skipped, nil
}

// OutputPath returns the file written for sheet index of count sheets.
func OutputPath(dir, base, key string, index, count int, ext string) string {
	name := base + "-#" + key
	if count > 1 {
		name += "-" + strconv.Itoa(index)
	}
	return filepath.Join(dir, name+"."+ext)
}
