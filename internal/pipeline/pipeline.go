// Package pipeline orchestrates a full run: listing, scheduled detail
// extraction, normalization, and the dedup/merge of the final snapshot.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gmodebadze/eventscout/internal/config"
	"github.com/gmodebadze/eventscout/internal/crawler"
	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/extractor"
	"github.com/gmodebadze/eventscout/internal/logger"
	"github.com/gmodebadze/eventscout/internal/merge"
	"github.com/gmodebadze/eventscout/internal/normalize"
	"github.com/gmodebadze/eventscout/internal/scheduler"
	"github.com/gmodebadze/eventscout/internal/source"
)

// ErrAllSourcesFailed is returned when no source completed its listing
// phase; with nothing listed the run as a whole has failed.
var ErrAllSourcesFailed = errors.New("all sources failed before extraction")

// AdapterFactory builds the adapter for one configured source.
type AdapterFactory func(cfg config.SourceConfig) (source.Adapter, error)

// SourceResult summarizes one source's contribution to a run.
type SourceResult struct {
	Source     domain.SourceID
	Candidates int
	Events     int
	Failed     int
	Dropped    int
	Err        error
	Duration   time.Duration
}

// Result is the outcome of one pipeline run.
type Result struct {
	Snapshot domain.Snapshot
	Sources  []SourceResult
	Duration time.Duration
}

// Pipeline wires the stages together. Sources run concurrently; within a
// source the listing phase is sequential and detail extraction is
// bounded by the scheduler.
type Pipeline struct {
	cfg        *config.Config
	log        logger.Interface
	crawl      *crawler.Crawler
	extract    *extractor.Extractor
	sched      *scheduler.Scheduler
	normalizer *normalize.Normalizer

	// Adapters overrides adapter construction. Tests inject fakes here.
	Adapters AdapterFactory
}

// New creates a pipeline from validated configuration.
func New(cfg *config.Config, log logger.Interface) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		log:        log,
		crawl:      crawler.New(cfg.Crawler, log),
		extract:    extractor.New(cfg.Crawler, log),
		sched:      scheduler.New(cfg.Scheduler, log),
		normalizer: normalize.New(log),
		Adapters: func(srcCfg config.SourceConfig) (source.Adapter, error) {
			return source.Build(srcCfg.ID, source.Options{
				City:      srcCfg.City,
				Country:   srcCfg.Country,
				UserAgent: cfg.Crawler.UserAgent,
			})
		},
	}
}

// Run executes the pipeline over every enabled source and produces the
// merged snapshot. A bot-wall abort on one source leaves the others
// untouched; the run fails only when every source failed to list.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	sources := p.cfg.EnabledSources()

	type sourceOutput struct {
		events []domain.CanonicalEvent
		result SourceResult
	}
	outputs := make([]sourceOutput, len(sources))

	var wg sync.WaitGroup
	for i, srcCfg := range sources {
		wg.Add(1)
		go func(i int, srcCfg config.SourceConfig) {
			defer wg.Done()
			events, result := p.runSource(ctx, srcCfg)
			outputs[i] = sourceOutput{events: events, result: result}
		}(i, srcCfg)
	}
	wg.Wait()

	engine := merge.NewEngine()
	results := make([]SourceResult, 0, len(sources))
	listed := false
	for _, out := range outputs {
		results = append(results, out.result)
		if out.result.Err == nil {
			listed = true
		}
		for _, event := range out.events {
			engine.Add(event)
		}
	}

	if !listed {
		return &Result{Sources: results, Duration: time.Since(start)}, ErrAllSourcesFailed
	}

	snap := engine.Snapshot(p.cfg.Output.Location, time.Now().UTC())
	p.log.Info("run complete",
		"run_id", snap.RunID,
		"total_events", snap.TotalEvents,
		"duration", time.Since(start),
	)

	return &Result{
		Snapshot: snap,
		Sources:  results,
		Duration: time.Since(start),
	}, nil
}

// runSource executes listing, extraction, and normalization for one
// source. All per-candidate failures are recovered and counted here.
func (p *Pipeline) runSource(
	ctx context.Context,
	srcCfg config.SourceConfig,
) ([]domain.CanonicalEvent, SourceResult) {
	start := time.Now()
	result := SourceResult{Source: srcCfg.ID}
	log := p.log.With("source", srcCfg.ID)

	adapter, err := p.Adapters(srcCfg)
	if err != nil {
		result.Err = fmt.Errorf("build adapter: %w", err)
		result.Duration = time.Since(start)
		return nil, result
	}

	refs, err := p.crawl.Crawl(ctx, adapter, srcCfg.MaxCandidates)
	if err != nil {
		if errors.Is(err, domain.ErrBotWall) {
			log.Error("listing aborted by bot wall", "error", err.Error())
		} else {
			log.Error("listing failed", "error", err.Error())
		}
		result.Err = err
		result.Duration = time.Since(start)
		return nil, result
	}
	result.Candidates = len(refs)

	outcomes := p.sched.Run(ctx, refs, func(ctx context.Context, ref domain.CandidateRef) (domain.RawRecord, error) {
		return p.extract.Extract(ctx, adapter, ref)
	})

	city, country := adapter.Location()
	loc := normalize.Location{City: city, Country: country}

	events := make([]domain.CanonicalEvent, 0, len(outcomes))
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			result.Failed++
			log.Warn("candidate failed",
				"event_id", outcome.Ref.ExternalID,
				"error", outcome.Err.Error(),
			)
			continue
		}

		event, normErr := p.normalizer.Normalize(outcome.Ref, outcome.Raw, loc)
		if normErr != nil {
			result.Dropped++
			continue
		}
		events = append(events, event)
	}

	result.Events = len(events)
	result.Duration = time.Since(start)
	log.Info("source complete",
		"candidates", result.Candidates,
		"events", result.Events,
		"failed", result.Failed,
		"dropped", result.Dropped,
		"duration", result.Duration,
	)
	return events, result
}
