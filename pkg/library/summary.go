package library

import (
	"fmt"
	"reflect"

	"github.com/mkrastev/videman/pkg/core/pipeline"
	"github.com/mkrastev/videman/pkg/core/record"
)

// Summary classifies the outcome of one batch operation per record:
// changed successfully, passed through untouched, or failed.
type Summary struct {
	Processed int
	Unchanged int
	Errored   int
}

// String renders the summary as a one-line report.
func (s Summary) String() string {
	return fmt.Sprintf("%d processed, %d unchanged, %d errored",
		s.Processed, s.Unchanged, s.Errored)
}

// Total is the number of records the operation saw.
func (s Summary) Total() int {
	return s.Processed + s.Unchanged + s.Errored
}

// summarize classifies each index by comparing the record before and
// after the stage and consulting the batch error's failed indexes.
func summarize(before, after []record.Record, batchErr *pipeline.BatchError) Summary {
	var s Summary
	for i := range before {
		if batchErr != nil {
			if _, failed := batchErr.Errs[i]; failed {
				s.Errored++
				continue
			}
		}
		if i < len(after) && !reflect.DeepEqual(before[i], after[i]) {
			s.Processed++
		} else {
			s.Unchanged++
		}
	}
	return s
}
