package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkrastev/videman/pkg/core/imdb"
	"github.com/mkrastev/videman/pkg/core/pipeline"
	"github.com/mkrastev/videman/pkg/core/record"
)

var identifyManual bool

var identifyCmd = &cobra.Command{
	Use:   "identify <folder>",
	Short: "Identify scanned files against the remote catalog",
	Long: `Looks every fingerprinted file up in the remote catalog by its
content fingerprint and fills in title, kind, year and catalog id.
With --manual, files the catalog does not recognize are offered as an
interactive title search instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lib, err := loadLibrary(args[0])
		if err != nil {
			return err
		}

		summary, err := lib.Identify(progressPrinter(cmd.OutOrStdout()))
		fmt.Fprintln(cmd.OutOrStdout())
		if err := finishBatch(lib, err); err != nil {
			return err
		}

		if identifyManual {
			prompter := &stdinPrompter{
				in:  cmd.InOrStdin(),
				out: cmd.OutOrStdout(),
			}
			manual, err := lib.IdentifyManually(context.Background(), prompter)
			if err != nil {
				saveQuietly(lib)
				return err
			}
			summary.Processed += manual.Processed
			summary.Errored += manual.Errored
		}

		if err := lib.Save(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	RootCmd.AddCommand(identifyCmd)
	identifyCmd.Flags().BoolVar(&identifyManual, "manual", false,
		"interactively identify files the catalog does not recognize")
}

// progressPrinter renders pipeline snapshots as an in-place counter.
func progressPrinter(out io.Writer) func(pipeline.Snapshot) {
	return func(snap pipeline.Snapshot) {
		fmt.Fprintf(out, "\r%d/%d", snap.Finished(), len(snap))
	}
}

// stdinPrompter implements library.Prompter over a line-based reader.
type stdinPrompter struct {
	in  io.Reader
	out io.Writer

	reader *bufio.Reader
}

func (p *stdinPrompter) ChooseSuggestion(rec record.Record, suggestions []imdb.Suggestion) (imdb.Suggestion, bool) {
	if len(suggestions) == 0 {
		fmt.Fprintf(p.out, "No candidates for %s\n", rec.Filename)
		return imdb.Suggestion{}, false
	}

	fmt.Fprintf(p.out, "\n%s:\n", rec.Filename)
	for i, s := range suggestions {
		fmt.Fprintf(p.out, "  [%d] %s (%d) %s\n", i+1, s.Title, s.Year, s.ID)
	}
	fmt.Fprint(p.out, "Pick a number, or enter to skip: ")

	if p.reader == nil {
		p.reader = bufio.NewReader(p.in)
	}
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" {
		return imdb.Suggestion{}, false
	}
	choice, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || choice < 1 || choice > len(suggestions) {
		return imdb.Suggestion{}, false
	}
	return suggestions[choice-1], true
}
