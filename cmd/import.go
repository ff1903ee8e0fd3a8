package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pastemark/internal/paste"
	"github.com/ziadkadry99/pastemark/internal/progress"
	"github.com/ziadkadry99/pastemark/internal/walker"
)

var (
	importLexer    string
	importFilename string
	importExpiry   string
)

var importCmd = &cobra.Command{
	Use:   "import [paths...]",
	Short: "Store local files as one paste",
	Long: `Collects the given files and directories and stores them as a single
multi-file paste, one file table per file. Directories are walked with the
include/exclude patterns from the config. Use "-" to read one file from stdin.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importLexer, "lexer", "", "lexer for every file (defaults to the config default_lexer)")
	importCmd.Flags().StringVar(&importFilename, "filename", "", "filename for content read from stdin")
	importCmd.Flags().StringVar(&importExpiry, "expiry", "", "how long the paste lives: "+strings.Join(paste.ExpiryNames(), ", ")+" (defaults to the config default_expiry)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	lexer := importLexer
	if lexer == "" {
		lexer = cfg.DefaultLexer
	}
	expiryName := importExpiry
	if expiryName == "" {
		expiryName = cfg.DefaultExpiry
	}
	expiry, err := paste.ParseExpiry(expiryName)
	if err != nil {
		return err
	}

	var (
		files []walker.File
		paths []string
	)
	for _, a := range args {
		if a != "-" {
			paths = append(paths, a)
			continue
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		files = append(files, walker.File{RelPath: importFilename, Content: string(data), Size: int64(len(data))})
	}

	if len(paths) > 0 {
		remaining, err := remainingFiles(cfg.MaxFiles, len(files))
		if err != nil {
			return err
		}
		res, err := walker.Collect(walker.Config{
			Include:     cfg.Include,
			Exclude:     cfg.Exclude,
			MaxFileSize: cfg.MaxFileSize,
			MaxFiles:    remaining,
		}, paths...)
		if err != nil {
			return fmt.Errorf("collecting files: %w", err)
		}
		for _, s := range res.Skipped {
			if verbose {
				fmt.Fprintf(os.Stderr, "  skipped %s (%s)\n", s.RelPath, s.Reason)
			}
		}
		if len(res.Skipped) > 0 && !verbose {
			fmt.Fprintf(os.Stderr, "Skipped %d files (use -v to list them)\n", len(res.Skipped))
		}
		files = append(files, res.Files...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files to import")
	}

	p := &paste.Paste{Source: paste.SourceCLI, Expiry: expiry}
	reporter := progress.NewReporter("Importing files", os.Stderr)
	reporter.Start(len(files))
	for i, f := range files {
		p.Files = append(p.Files, paste.File{Filename: f.RelPath, Lexer: lexer, Content: f.Content})
		reporter.Update(i+1, f.RelPath)
	}
	reporter.Finish()

	database, store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := store.Create(context.Background(), p); err != nil {
		return fmt.Errorf("storing paste: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Stored %d files as paste %s\n", len(p.Files), p.ID)
	if p.ExpiresAt != nil {
		fmt.Fprintf(os.Stderr, "  Expires: %s\n", p.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(os.Stderr, "  Removal token: %s (pass it to `pastemark delete`)\n", p.RemovalToken)
	fmt.Fprintf(cmd.OutOrStdout(), "/p/%s\n", p.ID)
	return nil
}

// remainingFiles returns how many files a directory walk may still collect
// once used files are taken. The walker reads zero as no limit, so a
// spent budget is an error rather than zero.
func remainingFiles(max, used int) (int, error) {
	left := max - used
	if left <= 0 {
		return 0, fmt.Errorf("paste already has %d files from stdin, limit is %d", used, max)
	}
	return left, nil
}
