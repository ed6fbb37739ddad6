package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan <folder>",
	Short: "Discover and fingerprint video files",
	Long: `Walks the folder, records every file with a recognized video
extension, computes its content fingerprint, and writes a sidecar file
next to it for the other commands to pick up.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := newLibrary()
		if err != nil {
			return err
		}

		if err := lib.ScanFolder(args[0]); err != nil {
			return err
		}
		if err := lib.Fingerprint(); err != nil {
			return err
		}
		if err := lib.Save(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Scanned %d files\n", len(lib.Records))
		return nil
	},
}

func init() {
	RootCmd.AddCommand(scanCmd)
}
