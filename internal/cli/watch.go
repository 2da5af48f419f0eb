package cli

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/pipeline"
)

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 200 * time.Millisecond

// watchCommand creates the watch command.
func (c *CLI) watchCommand() *cobra.Command {
	var flags decodeFlags

	cmd := &cobra.Command{
		Use:   "watch <file.svg>",
		Short: "Re-decode an SVG whenever it changes",
		Long: `Watch decodes an SVG once and again every time it is saved, until
interrupted. Failed decodes are reported and watching continues.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runWatch(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the remote asset cache")

	return cmd
}

func (c *CLI) runWatch(ctx context.Context, path string, flags decodeFlags) error {
	if format, err := pipeline.SourceFormat(path); err != nil {
		return err
	} else if format != pipeline.SourceSVG {
		return errors.New(errors.ErrCodeUnsupported, "watch supports SVG files only")
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if flags.output != "" {
		cfg.OutputDir = flags.output
	}
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	decode := func() {
		res, err := runner.Decode(ctx, path)
		if err != nil {
			printError("%s: %s", filepath.Base(path), errors.UserMessage(err))
			return
		}
		printSuccess("Decoded %s (%d layers, %s)", filepath.Base(path),
			layer.Count(res.Document.Layers), res.Duration.Round(time.Millisecond))
	}

	decode()
	printInfo("Watching %s", path)
	err = watchFile(ctx, path, watchDebounce, decode)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// watchFile calls onChange after path is written, created or replaced, at
// most once per debounce window. It watches the parent directory so that
// editors saving through a rename are seen. It returns when ctx is done.
func watchFile(ctx context.Context, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "resolve %s", path)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "create watcher")
	}
	defer w.Close()
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "watch %s", filepath.Dir(abs))
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			onChange()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return errors.Wrap(errors.ErrCodeInternal, err, "watch %s", path)
		}
	}
}
