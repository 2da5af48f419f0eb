package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/templates"
)

// templatesCommand creates the templates command.
func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "Browse the template catalog",
		Long: `Browse the configured template catalog: the HTTP API named by
templates.url (or MOCKUP_TEMPLATES_URL), or the MongoDB collection named by
templates.mongo_uri.`,
	}

	cmd.AddCommand(c.templatesListCommand())
	cmd.AddCommand(c.templatesGetCommand())

	return cmd
}

func (c *CLI) templatesListCommand() *cobra.Command {
	var noCache bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List available templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withTemplates(cmd.Context(), noCache, func(ctx context.Context, s templates.Store) error {
				list, err := s.List(ctx)
				if err != nil {
					return err
				}
				if len(list) == 0 {
					printInfo("No templates")
					return nil
				}
				fmt.Println(renderTemplateTable(list))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the template cache")
	return cmd
}

func (c *CLI) templatesGetCommand() *cobra.Command {
	var output string
	var noCache bool
	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a template and write its layer model",
		Long: `Get fetches one template and writes its layer model, ready for
inspect, export or download-svg.`,
		Example: `  mockup templates get 64b7f0c2a1b2c3d4e5f60718 -o shirt.json`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withTemplates(cmd.Context(), noCache, func(ctx context.Context, s templates.Store) error {
				t, err := s.Get(ctx, args[0])
				if err != nil {
					return err
				}
				doc, err := t.Document()
				if err != nil {
					return err
				}
				path := output
				if path == "" {
					path = layer.FileName
				}
				if err := doc.WriteFile(path); err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
				}
				printSuccess("Fetched %s", t.Name)
				printStats(statCount{layer.Count(doc.Layers), "layers"})
				printFile(path)
				printNextStep("Explore the model", "mockup inspect "+path)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: ./psd_data.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the template cache")
	return cmd
}

// withTemplates opens the configured catalog, runs fn and closes it.
func (c *CLI) withTemplates(ctx context.Context, noCache bool, fn func(context.Context, templates.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ch, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return err
	}
	defer ch.Close()

	store, err := newTemplateStore(ctx, cfg, ch)
	if err != nil {
		return err
	}
	if store == nil {
		fmt.Fprintln(os.Stderr, "set templates.url or templates.mongo_uri in the config, or MOCKUP_TEMPLATES_URL")
		return errors.New(errors.ErrCodeUnsupported, "no template catalog configured")
	}
	defer store.Close()
	return fn(ctx, store)
}
