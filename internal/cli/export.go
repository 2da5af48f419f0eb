package cli

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/composite"
	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/session"
)

type exportFlags struct {
	output  string
	option  string
	name    string
	scale   float64
	noCache bool
}

// exportCommand creates the export command.
func (c *CLI) exportCommand() *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export <request.json|psd_data.json>",
		Short: "Composite a mockup into output images",
		Long: `Export composites placed images, text and vector groups into one
output file per hashtag.

The input is either an export request ({"images": [...], "fileName": ...})
or a layer model, in which case the default selection of the model (or of
--option) is exported.`,
		Example: `  mockup export request.json
  mockup export data/output/psd_data.json --option "*Sleeve" --name shirt.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "export directory (default from config)")
	cmd.Flags().StringVar(&flags.option, "option", "", "option group to select when exporting a layer model")
	cmd.Flags().StringVarP(&flags.name, "name", "n", "", "output file name when exporting a layer model (default: model name)")
	cmd.Flags().Float64Var(&flags.scale, "scale", 0, "export scale (default: selected size)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable the remote asset cache")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, path string, flags exportFlags) error {
	req, err := readExportRequest(path, flags)
	if err != nil {
		return err
	}
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if flags.output != "" {
		cfg.ExportDir = flags.output
	}
	runner, err := c.newRunner(ctx, cfg, flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	res, err := withSpinner(ctx, "Exporting...", func(ctx context.Context) (*composite.Result, error) {
		return runner.Export(ctx, req)
	})
	if err != nil {
		return err
	}
	for _, p := range res.Paths() {
		printFile(p)
	}
	if gerr := res.Err(); gerr != nil {
		printError("%s", errors.UserMessage(gerr))
		return gerr
	}
	printSuccess("Exported %d files", len(res.Paths()))
	return nil
}

// readExportRequest reads path as an export request, or builds one from
// the default session of a layer model.
func readExportRequest(path string, flags exportFlags) (composite.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return composite.Request{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "%s not found", path)
		}
		return composite.Request{}, errors.Wrap(errors.ErrCodeInternal, err, "read %s", path)
	}

	var probe struct {
		Images json.RawMessage `json:"images"`
		Layers json.RawMessage `json:"layers"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return composite.Request{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
	}

	if probe.Layers == nil {
		var req composite.Request
		if err := json.Unmarshal(data, &req); err != nil {
			return composite.Request{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse %s", path)
		}
		if flags.scale > 0 {
			req.Scale = flags.scale
		}
		return req, nil
	}

	doc, err := layer.Decode(data)
	if err != nil {
		return composite.Request{}, err
	}
	st, err := session.New(doc, session.Options{Option: flags.option, ShowText: true})
	if err != nil {
		return composite.Request{}, err
	}
	name := flags.name
	if name == "" {
		name = doc.Name + ".png"
	}
	scale := flags.scale
	if scale <= 0 {
		scale = st.Scale
	}
	return st.ExportRequest(name, scale)
}
