package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var renameCmd = &cobra.Command{
	Use:   "rename <folder>",
	Short: "Materialize identified files under the library path",
	Long: `Renders the target path for every identified file from the
configured pattern and applies the placement strategy (symlink by
default; copy, move, keeplink and exec templates are available via the
rename_strategy setting).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(args[0])
		if err != nil {
			return err
		}

		summary, err := lib.Rename(func(done, total int) {
			fmt.Fprintf(cmd.OutOrStdout(), "\r%d/%d", done, total)
		})
		fmt.Fprintln(cmd.OutOrStdout())
		if err := finishBatch(lib, err); err != nil {
			return err
		}

		if err := lib.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(renameCmd)
}
