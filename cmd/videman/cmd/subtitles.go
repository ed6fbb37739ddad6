package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var subtitlesDownload bool

var subtitlesCmd = &cobra.Command{
	Use:   "subtitles <folder>",
	Short: "Find subtitle candidates for identified files",
	Long: `Searches the remote catalog for subtitles in each configured
language, keeps the best candidates per file, and records them in the
sidecars. With --download, the subtitle files are fetched as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(args[0])
		if err != nil {
			return err
		}

		summary, err := lib.FindSubtitles(progressPrinter(cmd.OutOrStdout()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err := finishBatch(lib, err); err != nil {
			return err
		}

		if subtitlesDownload {
			_, err := lib.DownloadSubtitles(progressPrinter(cmd.OutOrStdout()))
			fmt.Fprintln(cmd.OutOrStdout())
			if err := finishBatch(lib, err); err != nil {
				return err
			}
		}

		if err := lib.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(subtitlesCmd)
	subtitlesCmd.Flags().BoolVar(&subtitlesDownload, "download", false,
		"also download the selected subtitles")
}
