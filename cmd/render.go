package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pastemark/internal/site"
)

var (
	renderHighlight string
	renderOutput    string
)

var renderCmd = &cobra.Command{
	Use:   "render <paste-id>",
	Short: "Export a paste as a standalone HTML page",
	Long: `Renders a stored paste into a single HTML file with inline styles. The
--highlight fragment (for example "1L2-L4,2L5") is applied the same way a
browser applies it on load, so the exported page shows those lines marked.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&renderHighlight, "highlight", "", "line highlight fragment to bake in")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (defaults to stdout)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	p, err := store.Get(context.Background(), args[0])
	if err != nil {
		return fmt.Errorf("loading paste %s: %w", args[0], err)
	}

	pages, err := site.New(store, newRenderer(cfg), 1)
	if err != nil {
		return fmt.Errorf("creating site: %w", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if renderOutput != "" {
		f, err := os.Create(renderOutput)
		if err != nil {
			return fmt.Errorf("creating %s: %w", renderOutput, err)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	if err := pages.Export(w, p, renderHighlight); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing page: %w", err)
	}
	if renderOutput != "" {
		fmt.Fprintf(os.Stderr, "Wrote %s\n", renderOutput)
	}
	return nil
}
