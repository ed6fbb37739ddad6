package library

import (
	"context"

	"github.com/mkrastev/videman/pkg/core/imdb"
	"github.com/mkrastev/videman/pkg/core/record"
)

// Prompter chooses among title suggestions for one record. The CLI
// implements it over stdin; tests script it.
type Prompter interface {
	ChooseSuggestion(rec record.Record, suggestions []imdb.Suggestion) (imdb.Suggestion, bool)
}

// Suggest queries title candidates for one record, seeding the query
// from whatever the record already knows about itself.
func (l *Library) Suggest(ctx context.Context, rec record.Record) ([]imdb.Suggestion, error) {
	query := rec.Title
	if query == "" {
		query = rec.Extra["title_guess"]
	}
	if query == "" {
		query = rec.Basename()
	}
	return l.suggestions().Search(ctx, query)
}

// IdentifyManually walks every unidentified record, offers the prompter
// the title candidates, and applies whichever suggestion it picks.
// Records the prompter declines stay unidentified.
func (l *Library) IdentifyManually(ctx context.Context, prompter Prompter) (Summary, error) {
	before := l.Records
	out := make([]record.Record, len(before))

	var summary Summary
	for i, rec := range before {
		out[i] = rec.Clone()
		if rec.Identified() {
			summary.Unchanged++
			continue
		}

		suggestions, err := l.Suggest(ctx, rec)
		if err != nil {
			l.logger.Warnf("library: suggest %s: %v", rec.Filename, err)
			summary.Errored++
			continue
		}
		choice, ok := prompter.ChooseSuggestion(rec, suggestions)
		if !ok {
			summary.Unchanged++
			continue
		}

		out[i] = applySuggestion(rec, choice)
		summary.Processed++
	}
	l.Records = out
	return summary, nil
}

// applySuggestion maps a chosen suggestion onto the record. Series
// suggestions only pin the series identity; episode numbers still come
// from hash identification.
func applySuggestion(rec record.Record, choice imdb.Suggestion) record.Record {
	out := rec.Clone()
	out.Title = choice.Title
	out.Year = choice.Year
	out.CatalogID = catalogIDFromSuggestion(choice.ID)
	out.Kind = record.KindMovie
	if choice.Starring != "" {
		out = out.WithExtra("starring", choice.Starring)
	}
	return out
}

// suggestions digs the suggestion client back out of the enricher.
func (l *Library) suggestions() *imdb.Client {
	return l.enricher.SuggestionClient()
}
