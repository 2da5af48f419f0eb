// Package cli implements the mockup command-line interface.
//
// The commands wrap pkg/pipeline: decoding design files into layer models,
// merging files onto sheets, exporting composites, and inspecting or
// serving the results. The CLI is built using cobra and logs through
// charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - decode: build the layer model of an SVG or PSD file
//   - merge: pack files onto shared sheets per hashtag
//   - export: composite an export request into output images
//   - validate, inspect: check and explore a layer model
//   - download-svg: write a layer model as a standalone SVG
//   - watch: re-decode an SVG whenever it changes
//   - serve: run the HTTP API
//   - templates: browse the template catalog
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/mockup/pkg/observability"
)

// newLogger creates a new logger with timestamp formatting.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress tracks the start time of an operation and logs completion with elapsed duration.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg along with the elapsed time since progress was created.
// Example output: "Decoded 42 layers (1.234s)"
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

// stageHooks forwards pipeline progress to a spinner.
type stageHooks struct {
	observability.NoopProgressHooks
	spinner *Spinner
}

// OnProgress implements observability.ProgressHooks.
func (h stageHooks) OnProgress(_ context.Context, stage string, done, total int) {
	h.spinner.SetMessage(stageMessage(stage, done, total))
}

func stageMessage(stage string, done, total int) string {
	verb := map[string]string{
		observability.StageDecode: "Decoding",
		observability.StageAssets: "Writing assets",
		observability.StageMerge:  "Merging",
		observability.StageExport: "Exporting",
	}[stage]
	if verb == "" {
		verb = stage
	}
	if total <= 0 {
		return verb + "..."
	}
	return fmt.Sprintf("%s %d/%d", verb, done, total)
}

// withSpinner runs fn while a spinner shows msg and follows progress
// reported through observability hooks.
func withSpinner[T any](ctx context.Context, msg string, fn func(context.Context) (T, error)) (T, error) {
	s := newSpinnerWithContext(ctx, msg)
	observability.SetProgressHooks(stageHooks{spinner: s})
	defer observability.SetProgressHooks(observability.NoopProgressHooks{})
	s.Start()
	defer s.Stop()
	return fn(ctx)
}
