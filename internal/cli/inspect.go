package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mockup/pkg/errors"
	"github.com/matzehuels/mockup/pkg/layer"
	"github.com/matzehuels/mockup/pkg/session"
)

// validateCommand creates the validate command.
func (c *CLI) validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <psd_data.json>",
		Short: "Check the structure of a layer model",
		Long: `Validate checks that no "#" group contains another "#" group and
reports leaves with blank names.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := layer.ReadDocument(args[0])
			if err != nil {
				return err
			}
			if err := layer.Validate(doc); err != nil {
				printError("%s", errors.UserMessage(err))
				return err
			}
			printSuccess("%s is valid", args[0])
			printStats(
				statCount{len(doc.Layers), "top-level layers"},
				statCount{layer.Count(doc.Layers), "layers"},
				statCount{len(layer.Leaves(doc.Layers)), "leaves"},
			)
			return nil
		},
	}
}

type inspectFlags struct {
	option      string
	interactive bool
	toggle      []string
	text        []string
	tree        bool
	reset       bool
}

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var flags inspectFlags

	cmd := &cobra.Command{
		Use:   "inspect <psd_data.json>",
		Short: "Explore and edit the session of a layer model",
		Long: `Inspect builds the editing session of a layer model and prints its
visible items, relations and size scales.

Selections are saved per document and restored on the next run, so
--toggle, --text and --option accumulate across invocations. Use --reset
to start from the default selection.`,
		Example: `  mockup inspect data/output/psd_data.json --tree
  mockup inspect psd_data.json -i
  mockup inspect psd_data.json --toggle "Choose Color/Red" --text "Text/Name=Ada"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd.Context(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.option, "option", "", "option group to select")
	cmd.Flags().BoolVarP(&flags.interactive, "interactive", "i", false, "pick the option group interactively")
	cmd.Flags().StringArrayVar(&flags.toggle, "toggle", nil, "toggle the item with this key (repeatable)")
	cmd.Flags().StringArrayVar(&flags.text, "text", nil, "set text as key=value (repeatable)")
	cmd.Flags().BoolVar(&flags.tree, "tree", false, "print the layer tree")
	cmd.Flags().BoolVar(&flags.reset, "reset", false, "discard the saved selection")

	return cmd
}

func (c *CLI) runInspect(ctx context.Context, path string, flags inspectFlags) error {
	doc, err := layer.ReadDocument(path)
	if err != nil {
		return err
	}
	st, err := session.New(doc, session.Options{})
	if err != nil {
		return err
	}

	store, err := session.NewFileStore(sessionDir())
	if err != nil {
		return err
	}
	id := doc.Name
	if flags.reset {
		if err := store.Delete(ctx, id); err != nil {
			return err
		}
	} else if snap, err := store.Get(ctx, id); err != nil {
		c.Logger.Warn("ignoring saved session", "id", id, "error", err)
	} else if snap != nil {
		if err := st.Restore(snap); err != nil {
			return err
		}
		c.Logger.Debug("restored session", "id", id, "created", snap.CreatedAt)
	}

	option := flags.option
	if flags.interactive && option == "" && len(st.Options()) > 0 {
		option, err = pickOption(st.Options(), st.Option)
		if err != nil {
			return err
		}
	}
	if option != "" {
		if err := st.SelectOption(option); err != nil {
			return err
		}
	}
	if err := applyEdits(st, flags); err != nil {
		return err
	}

	if err := store.Set(ctx, st.Snapshot(id, session.DefaultTTL)); err != nil {
		return err
	}
	c.pruneSessions(ctx, store)

	if flags.tree {
		fmt.Print(renderTree(st.Doc.Layers))
		fmt.Println()
	}
	printSession(st)
	return nil
}

// applyEdits applies --toggle and --text to st.
func applyEdits(st *session.State, flags inspectFlags) error {
	for _, key := range flags.toggle {
		it := st.Find(key)
		if it == nil {
			return errors.New(errors.ErrCodeNotFound, "no item %q", key)
		}
		if err := st.Toggle(it.ID); err != nil {
			return err
		}
	}
	for _, kv := range flags.text {
		key, text, ok := strings.Cut(kv, "=")
		if !ok {
			return errors.New(errors.ErrCodeInvalidInput, "--text wants key=value, got %q", kv)
		}
		it := st.Find(key)
		if it == nil {
			return errors.New(errors.ErrCodeNotFound, "no item %q", key)
		}
		if err := st.SetText(it.ID, text); err != nil {
			return err
		}
	}
	return nil
}

func pickOption(options []string, current string) (string, error) {
	final, err := tea.NewProgram(NewOptionListModel(options, current)).Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(OptionListModel)
	if !ok || m.Selected == "" {
		return "", errors.New(errors.ErrCodeInvalidInput, "no option selected")
	}
	return m.Selected, nil
}

func printSession(st *session.State) {
	printKeyValue("Document", st.Doc.Name)
	printKeyValue("Size", fmt.Sprintf("%g × %g", st.Doc.Width, st.Doc.Height))
	if st.Option != "" {
		printKeyValue("Option", st.Option)
	}
	printKeyValue("Scale", fmt.Sprintf("%g", st.Scale))
	if st.CopyOffset != nil {
		printKeyValue("Copy offset", fmt.Sprintf("%g, %g", st.CopyOffset.X, st.CopyOffset.Y))
	}

	visible := st.Visible()
	fmt.Println()
	printInfo("%s", StyleTitle.Render(fmt.Sprintf("Visible items (%d)", len(visible))))
	for _, it := range visible {
		label := it.Key
		if it.IsText() {
			label += StyleDim.Render(fmt.Sprintf("  %q", it.Text))
		}
		if it.Hashtag != "" {
			label += StyleHighlight.Render("  #" + it.Hashtag)
		}
		printDetail("%s", label)
	}

	if len(st.Relations) > 0 {
		fmt.Println()
		printInfo("%s", StyleTitle.Render("Relations"))
		keys := make([]string, 0, len(st.Relations))
		for k := range st.Relations {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			printDetail("%s  %d items", k, len(st.Relations[k]))
		}
	}

	if len(st.SizeScales) > 0 {
		fmt.Println()
		printInfo("%s", StyleTitle.Render("Size scales"))
		names := make(map[string]string, len(st.SizeScales))
		ids := make([]string, 0, len(st.SizeScales))
		for id := range st.SizeScales {
			if it := st.Item(id); it != nil {
				names[id] = it.Key
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return names[ids[i]] < names[ids[j]] })
		for _, id := range ids {
			printDetail("%s  %g", names[id], st.SizeScales[id])
		}
	}
}

// pruneSessions drops expired snapshots. A failure only costs disk space, so
// it is logged and the command goes on.
func (c *CLI) pruneSessions(ctx context.Context, store *session.FileStore) {
	if err := store.Cleanup(ctx); err != nil {
		c.Logger.Warn("pruning expired sessions failed", "dir", store.Path(), "error", err)
	}
}
