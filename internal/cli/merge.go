package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/merge"
)

type mergeFlags struct {
	name   string
	output string
	width  float64
	height float64
	gap    float64
}

// mergeCommand creates the merge command.
func (c *CLI) mergeCommand() *cobra.Command {
	var flags mergeFlags

	cmd := &cobra.Command{
		Use:   "merge <files...>",
		Short: "Pack files onto shared sheets per hashtag",
		Long: `Merge PNG and SVG files onto sheets.

Files are grouped by the hashtag in their name ("front" in "a#front.png")
and by format. Every group is packed left to right in rows and written to
<export>/<name>-#<hashtag>.png or .svg. A group that fails to pack is
reported without affecting the others.`,
		Example: `  mockup merge out/*.png --width 2000 --height 1000
  mockup merge a#front.svg b#front.svg --gap 20 --name sheet`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMerge(cmd.Context(), args, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.name, "name", "n", merge.DefaultBaseName, "base name of the output files")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "export directory (default from config)")
	cmd.Flags().Float64Var(&flags.width, "width", 0, "sheet width (default from config)")
	cmd.Flags().Float64Var(&flags.height, "height", 0, "sheet height (default from config)")
	cmd.Flags().Float64Var(&flags.gap, "gap", 0, "gap between elements (default from config)")

	return cmd
}

func (c *CLI) runMerge(ctx context.Context, files []string, flags mergeFlags) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if flags.output != "" {
		cfg.ExportDir = flags.output
	}
	if flags.width > 0 {
		cfg.Merge.Width = flags.width
	}
	if flags.height > 0 {
		cfg.Merge.Height = flags.height
	}
	if flags.gap > 0 {
		cfg.Merge.Gap = flags.gap
	}
	if cfg.Merge.Width <= 0 || cfg.Merge.Height <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "sheet size is required: pass --width and --height or set merge.width and merge.height")
	}
	runner, err := c.newRunner(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := withSpinner(ctx, "Merging...", func(ctx context.Context) (*merge.Result, error) {
		return runner.Merge(ctx, files, flags.name)
	})
	if err != nil {
		return err
	}
	prog.done("Merge finished")

	printStats(
		statCount{res.Sheets(), "sheets"},
		statCount{len(res.Errors), "failed groups"},
		statCount{len(res.Skipped), "skipped"},
	)
	for _, o := range res.Outputs {
		for _, p := range o.Paths {
			printFile(p)
		}
	}
	for _, s := range res.Skipped {
		printDetail("skipped %s", s)
	}
	if gerr := res.Err(); gerr != nil {
		printError("%s", errors.UserMessage(gerr))
		return gerr
	}
	printSuccess("Merged %d files", len(files))
	return nil
}
