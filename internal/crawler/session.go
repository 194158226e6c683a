package crawler

import (
	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/source"
)

// CrawlSession is the per-source, per-run listing state. It lives for the
// duration of one source's listing phase and dedupes candidate ids across
// every listing view processed in that phase.
type CrawlSession struct {
	Source       domain.SourceID
	PagesVisited int
	StableStreak int
	BotWall      bool

	seen  map[string]struct{}
	order []string
}

// NewSession creates an empty session for one source.
func NewSession(src domain.SourceID) *CrawlSession {
	return &CrawlSession{
		Source: src,
		seen:   make(map[string]struct{}),
	}
}

// Add records a discovered external id. Returns false if it was already
// seen in this session.
func (s *CrawlSession) Add(externalID string) bool {
	if _, dup := s.seen[externalID]; dup {
		return false
	}
	s.seen[externalID] = struct{}{}
	s.order = append(s.order, externalID)
	return true
}

// Count returns the number of distinct candidates discovered so far.
func (s *CrawlSession) Count() int {
	return len(s.seen)
}

// Candidates materializes the deduplicated candidate set in discovery order.
func (s *CrawlSession) Candidates(adapter source.Adapter) []domain.CandidateRef {
	refs := make([]domain.CandidateRef, 0, len(s.order))
	for _, id := range s.order {
		refs = append(refs, domain.CandidateRef{
			Source:     s.Source,
			ExternalID: id,
			DetailURL:  adapter.DetailURL(id),
		})
	}
	return refs
}
