// Package domain defines the core types shared across the pipeline:
// source identifiers, candidate references, raw extraction records, and
// the canonical event schema emitted in run snapshots.
package domain

import "time"

// SourceID identifies one external event source.
type SourceID string

// Known sources.
const (
	SourceRA          SourceID = "ra"
	SourceTKT         SourceID = "tkt"
	SourceBandsintown SourceID = "bandsintown"
)

// Prefix returns the canonical id prefix for the source, e.g. "ra-".
func (s SourceID) Prefix() string {
	return string(s) + "-"
}

// Valid reports whether the source id is one of the known sources.
func (s SourceID) Valid() bool {
	switch s {
	case SourceRA, SourceTKT, SourceBandsintown:
		return true
	default:
		return false
	}
}

// CandidateRef identifies one unfetched event within one source.
// It is produced by the listing crawler and consumed once by the
// fetch scheduler.
type CandidateRef struct {
	Source     SourceID `json:"source"`
	ExternalID string   `json:"externalId"`
	DetailURL  string   `json:"detailUrl"`
}

// CanonicalID returns the globally unique event id for the candidate,
// formed as <sourcePrefix><externalId>. Fetching the same candidate twice
// always yields the same id.
func (r CandidateRef) CanonicalID() string {
	return r.Source.Prefix() + r.ExternalID
}

// Strategy names the extraction technique that produced a raw record.
type Strategy string

// Extraction strategies, in cascade order.
const (
	StrategyAPIQuery       Strategy = "api_query"
	StrategyEmbeddedMarkup Strategy = "embedded_markup"
	StrategyHeuristicParse Strategy = "heuristic_parse"
)

// RawRecord is the source-shaped result of one successful extraction.
// It is short-lived: the normalizer consumes it immediately.
type RawRecord struct {
	Source   SourceID
	Strategy Strategy
	Fields   map[string]any
}

// CanonicalEvent is the validated, normalized event record. Nullable
// scalars are pointers so the serialized snapshot carries explicit nulls;
// Artists is always non-nil so it serializes as [] rather than null.
type CanonicalEvent struct {
	ID          string   `json:"id"`
	Title       *string  `json:"title"`
	Date        *string  `json:"date"`      // ISO YYYY-MM-DD
	StartTime   *string  `json:"startTime"` // HH:mm
	EndTime     *string  `json:"endTime"`   // HH:mm
	Venue       *string  `json:"venue"`
	City        *string  `json:"city"`
	Country     *string  `json:"country"`
	Artists     []string `json:"artists"`
	Image       *string  `json:"image"`
	SourceURL   string   `json:"sourceUrl"`
	TicketURL   *string  `json:"ticketUrl"`
	Description *string  `json:"description"`
	Source      SourceID `json:"source"`
}

// Snapshot is the sole artifact a run produces for external collaborators.
type Snapshot struct {
	RunID       string           `json:"runId"`
	ScrapedAt   time.Time        `json:"scrapedAt"`
	Location    string           `json:"location,omitempty"`
	Sources     map[SourceID]int `json:"sources"`
	TotalEvents int              `json:"totalEvents"`
	Events      []CanonicalEvent `json:"events"`
}
