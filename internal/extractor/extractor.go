// Package extractor resolves candidate references into raw records by
// trying progressively less reliable strategies: the source's structured
// query API, embedded schema.org markup, then conservative heuristics
// against the rendered page.
package extractor

import (
	"context"
	"fmt"

	"github.com/gmodebadze/eventscout/internal/config"
	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/logger"
	"github.com/gmodebadze/eventscout/internal/source"
)

// identityKeys are the raw field names that can establish a record's
// primary identity across the different source payload shapes.
var identityKeys = []string{"title", "name", "date", "startDate", "fromDate"}

// Extractor runs the strategy cascade for single candidates. Safe for
// concurrent use across scheduler workers.
type Extractor struct {
	fetcher *pageFetcher
	log     logger.Interface
}

// New creates an extractor.
func New(cfg config.CrawlerConfig, log logger.Interface) *Extractor {
	return &Extractor{
		fetcher: newPageFetcher(cfg.UserAgent, cfg.RequestTimeout),
		log:     log,
	}
}

// Extract resolves one candidate into a raw record. Strategies are
// attempted strictly in order; the cascade stops at the first strategy
// that yields a usable identity (a title or a date). When even the
// heuristic pass finds nothing usable the candidate fails with
// domain.ErrExtractionFailed, which is non-fatal to the run.
func (e *Extractor) Extract(
	ctx context.Context,
	adapter source.Adapter,
	ref domain.CandidateRef,
) (domain.RawRecord, error) {
	log := e.log.With("source", ref.Source, "event_id", ref.ExternalID)

	if querier, ok := adapter.(source.APIQuerier); ok {
		fields, err := querier.QueryByID(ctx, ref.ExternalID)
		if err == nil && hasIdentity(fields) {
			return domain.RawRecord{
				Source:   ref.Source,
				Strategy: domain.StrategyAPIQuery,
				Fields:   fields,
			}, nil
		}
		if err != nil {
			log.Debug("api query strategy failed, falling through", "error", err.Error())
		}
	}

	// The rendered page is fetched at most once and shared by the
	// embedded-markup and heuristic strategies.
	page := newDetailPage(ref.DetailURL)

	fields, err := e.extractEmbeddedMarkup(ctx, page)
	if err == nil && hasIdentity(fields) {
		return domain.RawRecord{
			Source:   ref.Source,
			Strategy: domain.StrategyEmbeddedMarkup,
			Fields:   fields,
		}, nil
	}
	if err != nil {
		log.Debug("embedded markup strategy failed, falling through", "error", err.Error())
	}

	fields = e.extractHeuristic(ctx, page)
	if hasIdentity(fields) {
		return domain.RawRecord{
			Source:   ref.Source,
			Strategy: domain.StrategyHeuristicParse,
			Fields:   fields,
		}, nil
	}

	return domain.RawRecord{}, fmt.Errorf("candidate %s: %w", ref.CanonicalID(), domain.ErrExtractionFailed)
}

// hasIdentity reports whether the raw fields carry a non-empty primary
// identity under any of the known payload shapes.
func hasIdentity(fields map[string]any) bool {
	if len(fields) == 0 {
		return false
	}
	for _, key := range identityKeys {
		if s, ok := fields[key].(string); ok && s != "" {
			return true
		}
	}
	return false
}
