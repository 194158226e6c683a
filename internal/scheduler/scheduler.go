// Package scheduler runs detail extraction over a batch of candidates
// under a bounded-concurrency, semaphore discipline.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gmodebadze/eventscout/internal/config"
	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/logger"
)

// ExtractFunc resolves one candidate into a raw record.
type ExtractFunc func(ctx context.Context, ref domain.CandidateRef) (domain.RawRecord, error)

// Outcome is the result of one candidate's extraction. Exactly one
// Outcome is produced per submitted candidate.
type Outcome struct {
	Ref domain.CandidateRef
	Raw domain.RawRecord
	Err error
}

// Scheduler bounds in-flight extractions to the configured concurrency
// ceiling. When the ceiling is 1, an optional fixed delay is inserted
// between requests for sources with strict rate limits.
type Scheduler struct {
	concurrency int
	delay       time.Duration
	log         logger.Interface
}

// New creates a scheduler. Concurrency is validated at config load, so a
// non-positive value here is a programming error and treated as 1.
func New(cfg config.SchedulerConfig, log logger.Interface) *Scheduler {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		concurrency: concurrency,
		delay:       cfg.InterRequestDelay,
		log:         log,
	}
}

// Run extracts every candidate and returns exactly len(refs) outcomes,
// in submission order. At most the configured ceiling of extractions is
// in flight at any instant. One candidate's failure or panic never
// cancels another's in-flight work; a cancelled context marks the
// remaining candidates failed without starting them.
func (s *Scheduler) Run(
	ctx context.Context,
	refs []domain.CandidateRef,
	extract ExtractFunc,
) []Outcome {
	outcomes := make([]Outcome, len(refs))
	sem := make(chan struct{}, s.concurrency)

	var wg sync.WaitGroup
	for i, ref := range refs {
		outcomes[i].Ref = ref

		if s.concurrency == 1 && s.delay > 0 && i > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.delay):
			}
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			outcomes[i].Err = ctx.Err()
			continue
		}

		wg.Add(1)
		go func(i int, ref domain.CandidateRef) {
			defer func() {
				if r := recover(); r != nil {
					outcomes[i].Err = fmt.Errorf("extraction panic for %s: %v", ref.CanonicalID(), r)
					s.log.Error("extraction panicked",
						"source", ref.Source,
						"event_id", ref.ExternalID,
						"panic", fmt.Sprint(r),
					)
				}
				<-sem
				wg.Done()
			}()

			raw, err := extract(ctx, ref)
			outcomes[i].Raw = raw
			outcomes[i].Err = err
		}(i, ref)
	}

	wg.Wait()
	return outcomes
}
