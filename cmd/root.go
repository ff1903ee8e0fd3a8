package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/pastemark/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "pastemark",
	Short: "Paste server with shareable line highlights",
	Long: `pastemark stores multi-file pastes and serves them as syntax highlighted
line tables. Line selections live in the URL fragment ("1L2-L4,2L5"), so a
link can point at exact lines across every file of a paste.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// A .env file in the working directory may carry PASTEMARK_* overrides.
		loadDotEnv(os.Stderr, ".env")
	},
}

// loadDotEnv applies env files that exist. Files that fail to parse are
// reported on w and otherwise ignored.
func loadDotEnv(w io.Writer, filenames ...string) {
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(w, "Warning: loading %s: %v\n", name, err)
		}
	}
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
