// Package pipeline runs a per-item enrichment function over an ordered
// collection with bounded concurrency, reporting progress as full
// state snapshots. Output order always matches input order, whatever
// the completion order was.
package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// State is the lifecycle position of one item during a run. An item
// only ever moves forward: Pending, then Processing, then Finished.
type State int

const (
	StatePending State = iota
	StateProcessing
	StateFinished
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateProcessing:
		return "processing"
	case StateFinished:
		return "finished"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshot is a full copy of every item's state, in input order. Each
// progress callback receives a fresh snapshot, never a shared slice.
type Snapshot []State

// Done reports whether every item has finished.
func (s Snapshot) Done() bool {
	for _, state := range s {
		if state != StateFinished {
			return false
		}
	}
	return true
}

// Finished counts the items that are done.
func (s Snapshot) Finished() int {
	n := 0
	for _, state := range s {
		if state == StateFinished {
			n++
		}
	}
	return n
}

// BatchError collects the failures of individual items. The run itself
// still completes: failed items pass through unmodified.
type BatchError struct {
	Errs map[int]error
}

func (e *BatchError) Error() string {
	indexes := make([]int, 0, len(e.Errs))
	for i := range e.Errs {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	return fmt.Sprintf("pipeline: %d item(s) failed (first: item %d: %v)",
		len(e.Errs), indexes[0], e.Errs[indexes[0]])
}

// AllFailed reports whether no item at all was processed successfully.
func (e *BatchError) AllFailed(total int) bool {
	return total > 0 && len(e.Errs) == total
}

type update[T any] struct {
	index  int
	state  State
	result T
	err    error
}

// Run applies fn to every item, with at most concurrency invocations in
// flight; concurrency 1 degenerates to strictly sequential execution.
// output[i] is always the transform of items[i]. A failing (or
// panicking) fn does not abort sibling work: the item passes through
// unchanged and the failure is reported in the returned *BatchError,
// which is nil when everything succeeded.
//
// When onProgress is non-nil it is called with an all-pending snapshot
// before any work, after every single state change, and therefore
// finally with an all-finished snapshot. Emission is serialized; no two
// callbacks run concurrently.
func Run[T any](items []T, concurrency int, fn func(T) (T, error), onProgress func(Snapshot)) ([]T, *BatchError) {
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	out := make([]T, len(items))
	copy(out, items)
	states := make(Snapshot, len(items))

	emit := func() {
		if onProgress == nil {
			return
		}
		snap := make(Snapshot, len(states))
		copy(snap, states)
		onProgress(snap)
	}
	emit() // all pending

	if len(items) == 0 {
		return out, nil
	}

	jobs := make(chan int)
	updates := make(chan update[T])

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for w := 0; w < concurrency; w++ {
		go func() {
			defer wg.Done()
			for index := range jobs {
				updates <- update[T]{index: index, state: StateProcessing}
				result, err := runItem(fn, items[index])
				updates <- update[T]{index: index, state: StateFinished, result: result, err: err}
			}
		}()
	}

	go func() {
		for i := range items {
			jobs <- i
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(updates)
	}()

	// The aggregation loop runs on the calling goroutine and owns the
	// state array, so snapshot emission needs no further locking.
	errs := make(map[int]error)
	for u := range updates {
		states[u.index] = u.state
		if u.state == StateFinished {
			out[u.index] = u.result
			if u.err != nil {
				errs[u.index] = u.err
			}
		}
		emit()
	}

	if len(errs) > 0 {
		return out, &BatchError{Errs: errs}
	}
	return out, nil
}

// runItem isolates one fn invocation. On error or panic the original
// item is handed back so downstream stages degrade instead of losing
// the whole batch.
func runItem[T any](fn func(T) (T, error), item T) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = item
			err = fmt.Errorf("pipeline: item panicked: %v", r)
		}
	}()

	result, err = fn(item)
	if err != nil {
		return item, err
	}
	return result, nil
}
