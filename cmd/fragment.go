package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pastemark/internal/address"
)

var fragmentJSON bool

var fragmentCmd = &cobra.Command{
	Use:   "fragment",
	Short: "Decode or build line highlight fragments",
}

var fragmentDecodeCmd = &cobra.Command{
	Use:   "decode <fragment>",
	Short: "Show the lines a fragment selects",
	Long:  `Decodes a fragment such as "1L2-L4,2L5" and prints the selected lines per file, 1-based. Malformed parts are dropped the way the page drops them.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := address.Decode(strings.TrimPrefix(args[0], "#"))
		out := cmd.OutOrStdout()

		if fragmentJSON {
			type entry struct {
				File  int `json:"file"`
				Start int `json:"start"`
				End   int `json:"end"`
			}
			entries := []entry{}
			for _, f := range spec.Files() {
				r := spec[f]
				entries = append(entries, entry{File: f + 1, Start: r.Start + 1, End: r.End + 1})
			}
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		if spec.Empty() {
			fmt.Fprintln(out, "no lines selected")
			return nil
		}
		for _, f := range spec.Files() {
			r := spec[f]
			if r.Start == r.End {
				fmt.Fprintf(out, "file %d: line %d\n", f+1, r.Start+1)
			} else {
				fmt.Fprintf(out, "file %d: lines %d-%d\n", f+1, r.Start+1, r.End+1)
			}
		}
		return nil
	},
}

var fragmentEncodeCmd = &cobra.Command{
	Use:   "encode <file:start[-end]>...",
	Short: "Build a fragment from 1-based selections",
	Long:  `Builds the canonical fragment for the given selections, for example "1:2-4 2:5" gives "1L2-L4,2L5-L5". A later selection for the same file replaces an earlier one.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := address.Spec{}
		for _, a := range args {
			file, r, err := parseSelection(a)
			if err != nil {
				return err
			}
			spec[file] = r
		}
		fragment, err := address.Encode(spec)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), fragment)
		return nil
	},
}

// parseSelection parses "file:start" or "file:start-end", all 1-based,
// into a zero-based file index and range.
func parseSelection(s string) (int, address.Range, error) {
	fileStr, lines, ok := strings.Cut(s, ":")
	if !ok {
		return 0, address.Range{}, fmt.Errorf("invalid selection %q: want file:start[-end]", s)
	}
	file, err := positive(fileStr)
	if err != nil {
		return 0, address.Range{}, fmt.Errorf("invalid selection %q: file %w", s, err)
	}

	startStr, endStr, hasEnd := strings.Cut(lines, "-")
	start, err := positive(startStr)
	if err != nil {
		return 0, address.Range{}, fmt.Errorf("invalid selection %q: start %w", s, err)
	}
	end := start
	if hasEnd {
		if end, err = positive(endStr); err != nil {
			return 0, address.Range{}, fmt.Errorf("invalid selection %q: end %w", s, err)
		}
	}
	if end < start {
		start, end = end, start
	}
	return file - 1, address.Range{Start: start - 1, End: end - 1}, nil
}

func positive(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("must be a positive number, got %q", s)
	}
	return n, nil
}

func init() {
	fragmentDecodeCmd.Flags().BoolVar(&fragmentJSON, "json", false, "print JSON")
	fragmentCmd.AddCommand(fragmentDecodeCmd, fragmentEncodeCmd)
	rootCmd.AddCommand(fragmentCmd)
}
