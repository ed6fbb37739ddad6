package cmd

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/mkrastev/videman/pkg/core/record"
)

var listCmd = &cobra.Command{
	Use:   "list <folder>",
	Short: "Show the tracked files and what is known about them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(args[0])
		if err != nil {
			return err
		}

		tw := table.NewWriter()
		tw.SetOutputMirror(cmd.OutOrStdout())
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"Title", "Kind", "Year", "Catalog ID", "Subs", "File"})

		for _, rec := range lib.Records {
			tw.AppendRow(table.Row{
				displayTitle(rec),
				string(rec.Kind),
				yearOrBlank(rec.Year),
				rec.CatalogID,
				strconv.Itoa(len(rec.Subtitles)),
				rec.Filename,
			})
		}
		tw.Render()
		return nil
	},
}

func displayTitle(rec record.Record) string {
	if !rec.Identified() {
		return "?"
	}
	if rec.Kind == record.KindEpisode {
		return fmt.Sprintf("%s S%02dE%02d %s",
			rec.SeriesTitle, rec.SeasonNumber, rec.EpisodeNumber, rec.EpisodeTitle)
	}
	return rec.Title
}

func yearOrBlank(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}

func init() {
	RootCmd.AddCommand(listCmd)
}
