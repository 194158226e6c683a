// Package merge unions normalized events into the final canonical set
// for a run.
package merge

import (
	"time"

	"github.com/google/uuid"

	"github.com/gmodebadze/eventscout/internal/domain"
)

// Engine keys canonical events by id. A second record with the same id
// (a same-source refetch) overwrites the first in place: last write wins.
// Cross-source records are never merged; id prefixes keep the id spaces
// disjoint. Add order does not affect the resulting set beyond first-seen
// ordering, so completion order from the scheduler is irrelevant.
type Engine struct {
	byID  map[string]int
	order []domain.CanonicalEvent
}

// NewEngine creates an empty merge engine.
func NewEngine() *Engine {
	return &Engine{byID: make(map[string]int)}
}

// Add unions one event into the set. Returns false when the id was
// already present and the entry was overwritten.
func (e *Engine) Add(event domain.CanonicalEvent) bool {
	if idx, dup := e.byID[event.ID]; dup {
		e.order[idx] = event
		return false
	}
	e.byID[event.ID] = len(e.order)
	e.order = append(e.order, event)
	return true
}

// Len returns the number of distinct events merged so far.
func (e *Engine) Len() int {
	return len(e.order)
}

// Snapshot materializes the output document with per-source counts.
func (e *Engine) Snapshot(location string, scrapedAt time.Time) domain.Snapshot {
	counts := make(map[domain.SourceID]int)
	events := make([]domain.CanonicalEvent, len(e.order))
	for i, event := range e.order {
		events[i] = event
		counts[event.Source]++
	}

	return domain.Snapshot{
		RunID:       uuid.NewString(),
		ScrapedAt:   scrapedAt,
		Location:    location,
		Sources:     counts,
		TotalEvents: len(events),
		Events:      events,
	}
}
