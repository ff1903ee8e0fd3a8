package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pastemark/internal/paste"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored pastes, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		pastes, err := store.List(context.Background(), listLimit)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSOURCE\tFILES\tCREATED\tEXPIRES")
		for _, p := range pastes {
			expires := "never"
			if p.ExpiresAt != nil {
				expires = p.ExpiresAt.Local().Format("2006-01-02 15:04")
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", p.ID, p.Source, p.FileCount, p.CreatedAt.Local().Format("2006-01-02 15:04"), expires)
		}
		return tw.Flush()
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <removal-token>",
	Short: "Remove a paste using the token printed when it was stored",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		id, err := store.Remove(context.Background(), args[0])
		if errors.Is(err, paste.ErrNotFound) {
			return fmt.Errorf("no paste has that removal token")
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted paste %s\n", id)
		return nil
	},
}

var reapCmd = &cobra.Command{
	Use:   "reap",
	Short: "Delete every expired paste",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ids, err := store.Reap(context.Background())
		if err != nil {
			return err
		}
		if verbose {
			for _, id := range ids {
				fmt.Fprintf(os.Stderr, "  reaped %s\n", id)
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reaped %d expired pastes\n", len(ids))
		return nil
	},
}

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "maximum number of pastes to show")
	rootCmd.AddCommand(listCmd, deleteCmd, reapCmd)
}
