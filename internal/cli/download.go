package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/layer"
)

// downloadCommand creates the download-svg command.
func (c *CLI) downloadCommand() *cobra.Command {
	var output string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "download-svg <psd_data.json>",
		Short: "Write a layer model as a standalone SVG",
		Long: `Download-svg renders the groups of a layer model into download.svg and
copies every referenced image next to it as <layer name>.png.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDownload(cmd.Context(), args[0], output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "download directory (default from config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the remote asset cache")

	return cmd
}

func (c *CLI) runDownload(ctx context.Context, path, output string, noCache bool) error {
	doc, err := layer.ReadDocument(path)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if output != "" {
		cfg.DownloadDir = output
	}
	runner, err := c.newRunner(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	svgPath, failed, err := runner.DownloadSVG(ctx, doc)
	if err != nil {
		return err
	}
	for _, f := range failed {
		printWarning("%s: %v", f.Name, f.Err)
	}
	printSuccess("Wrote %s", doc.Name)
	printFile(svgPath)
	return nil
}
