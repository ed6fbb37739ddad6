package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info <folder>",
	Short: "Read technical metadata from the files themselves",
	Long: `Probes every file with ffprobe and records codecs, resolution,
duration and frame rate in the sidecars, where path templates can use
them.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(args[0])
		if err != nil {
			return err
		}

		summary, err := lib.ReadInfo(context.Background(), progressPrinter(cmd.OutOrStdout()))
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

var metadataCmd = &cobra.Command{
	Use:   "metadata <folder>",
	Short: "Fetch secondary metadata for identified files",
	Long: `Looks identified files up in the title suggestion service and
records cast and popularity attributes in the sidecars.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(args[0])
		if err != nil {
			return err
		}

		summary, err := lib.FetchMetadata(context.Background(), progressPrinter(cmd.OutOrStdout()))
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
	RootCmd.AddCommand(infoCmd)
	RootCmd.AddCommand(metadataCmd)
}
