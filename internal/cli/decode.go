package cli

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/pipeline"
)

type decodeFlags struct {
	output  string
	noCache bool
}

// decodeCommand creates the decode command.
func (c *CLI) decodeCommand() *cobra.Command {
	var flags decodeFlags

	cmd := &cobra.Command{
		Use:   "decode <file.svg|file.psd>",
		Short: "Build the layer model of a design file",
		Long: `Decode a layered design into a mockup layer model.

SVG files are parsed directly. PSD and PSB files are handed to the
configured external decoder. The model is written to psd_data.json in the
output directory together with every generated image.`,
		Example: `  mockup decode designs/shirt.svg
  mockup decode designs/mug.psd --output data/mug`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDecode(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output directory (default from config)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the remote asset cache")

	return cmd
}

func (c *CLI) runDecode(ctx context.Context, path string, flags decodeFlags) error {
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

	res, err := withSpinner(ctx, "Decoding "+filepath.Base(path)+"...", func(ctx context.Context) (*pipeline.DecodeResult, error) {
		return runner.Decode(ctx, path)
	})
	if err != nil {
		return err
	}

	printSuccess("Decoded %s", filepath.Base(path))
	printStats(
		statCount{layer.Count(res.Document.Layers), "layers"},
		statCount{res.Assets.Written, "assets"},
		statCount{len(res.Assets.Failed), "failed"},
	)
	for _, f := range res.Assets.Failed {
		printWarning("%s: %v", f.Name, f.Err)
	}
	printFile(res.Path)
	printNextStep("Explore the model", "mockup inspect "+res.Path)
	return nil
}
