// Package normalize converts raw source-shaped records into canonical
// events. Each source has a static field mapping; records missing a
// mandatory field are dropped, never passed through half-formed.
package normalize

import (
	"fmt"

	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/logger"
)

// Location is the city/country context stamped onto canonical events.
type Location struct {
	City    string
	Country string
}

// Normalizer validates and maps raw records.
type Normalizer struct {
	log logger.Interface
}

// New creates a normalizer.
func New(log logger.Interface) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize converts one raw record into one canonical event. The id and
// source URL derive from the candidate reference, so refetching the same
// candidate always yields the same id. Returns an error wrapping
// domain.ErrSchemaViolation when a mandatory field is missing.
func (n *Normalizer) Normalize(
	ref domain.CandidateRef,
	raw domain.RawRecord,
	loc Location,
) (domain.CanonicalEvent, error) {
	event := domain.CanonicalEvent{
		ID:        ref.CanonicalID(),
		SourceURL: ref.DetailURL,
		Source:    ref.Source,
		City:      strPtr(loc.City),
		Country:   strPtr(loc.Country),
		Artists:   []string{},
	}

	if err := n.applyMapping(&event, ref, raw); err != nil {
		return domain.CanonicalEvent{}, err
	}

	if ref.ExternalID == "" || event.SourceURL == "" {
		n.log.Warn("dropping record missing mandatory field",
			"source", ref.Source,
			"event_id", ref.ExternalID,
			"strategy", raw.Strategy,
		)
		return domain.CanonicalEvent{}, fmt.Errorf(
			"record %s/%s: %w", ref.Source, ref.ExternalID, domain.ErrSchemaViolation)
	}

	return event, nil
}

// applyMapping selects the field-mapping table for the record's source
// and strategy. API payloads keep their source shape; page payloads share
// one flat shape regardless of source.
func (n *Normalizer) applyMapping(
	event *domain.CanonicalEvent,
	ref domain.CandidateRef,
	raw domain.RawRecord,
) error {
	if raw.Strategy != domain.StrategyAPIQuery {
		return applyPage(event, raw.Fields)
	}

	switch ref.Source {
	case domain.SourceRA:
		return applyRA(event, raw.Fields)
	case domain.SourceTKT:
		return applyTKT(event, raw.Fields)
	default:
		return fmt.Errorf("no api field mapping for source %q", ref.Source)
	}
}
