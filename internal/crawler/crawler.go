// Package crawler implements the listing phase: it drives a source
// adapter's listing views, detects bot walls, and produces the
// deduplicated candidate set for a source.
package crawler

import (
	"context"
	"fmt"
	"time"

	colly "github.com/gocolly/colly/v2"

	"github.com/gmodebadze/eventscout/internal/config"
	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/logger"
	"github.com/gmodebadze/eventscout/internal/source"
)

// Crawler discovers candidate event references for one source at a time.
// The underlying collector is used sequentially within a source; run one
// Crawl call per source.
type Crawler struct {
	cfg config.CrawlerConfig
	log logger.Interface
}

// New creates a listing crawler.
func New(cfg config.CrawlerConfig, log logger.Interface) *Crawler {
	return &Crawler{cfg: cfg, log: log}
}

// Crawl runs the scroll-stabilization loop for one source and returns its
// deduplicated candidate set. A persistent bot wall aborts the source with
// an error wrapping domain.ErrBotWall; other sources are unaffected.
//
// Each iteration loads the next listing view and counts the distinct
// candidate ids discovered so far. The loop stops when the count has been
// stable for StabilityThreshold consecutive iterations, or after
// MaxScrollIterations, whichever comes first.
func (c *Crawler) Crawl(
	ctx context.Context,
	adapter source.Adapter,
	maxCandidates int,
) ([]domain.CandidateRef, error) {
	session := NewSession(adapter.ID())
	fetcher := c.newListingFetcher(ctx)
	log := c.log.With("source", adapter.ID())

	pattern := adapter.CandidatePattern()
	prevCount := 0

	for i := 1; i <= c.cfg.MaxScrollIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		viewURL := adapter.ListingURL(i)
		body, err := fetcher.fetch(viewURL)
		if err != nil {
			log.Warn("listing view fetch failed",
				"url", viewURL,
				"iteration", i,
				"error", err.Error(),
			)
		} else {
			body, err = c.passBotWall(ctx, session, fetcher, viewURL, body)
			if err != nil {
				return nil, err
			}
			session.PagesVisited++

			added := 0
			for _, match := range pattern.FindAllSubmatch(body, -1) {
				if len(match) > 1 && session.Add(string(match[1])) {
					added++
				}
			}
			log.Debug("listing view processed",
				"url", viewURL,
				"iteration", i,
				"new_candidates", added,
				"total_candidates", session.Count(),
			)
		}

		cur := session.Count()
		if cur == prevCount {
			session.StableStreak++
			if session.StableStreak >= c.cfg.StabilityThreshold {
				log.Debug("candidate count stabilized",
					"iterations", i,
					"candidates", cur,
				)
				break
			}
		} else {
			session.StableStreak = 0
		}
		prevCount = cur
	}

	refs := session.Candidates(adapter)
	if maxCandidates > 0 && len(refs) > maxCandidates {
		refs = refs[:maxCandidates]
	}

	log.Info("listing phase complete",
		"pages_visited", session.PagesVisited,
		"candidates", len(refs),
	)
	return refs, nil
}

// passBotWall inspects a listing body for challenge markers. On a hit it
// waits the configured backoff once and re-checks; a second hit is fatal
// for the source.
func (c *Crawler) passBotWall(
	ctx context.Context,
	session *CrawlSession,
	fetcher *listingFetcher,
	viewURL string,
	body []byte,
) ([]byte, error) {
	if !IsBotWall(body) {
		return body, nil
	}

	session.BotWall = true
	c.log.Warn("bot wall challenge detected, backing off",
		"source", session.Source,
		"url", viewURL,
		"backoff", c.cfg.BotWallBackoff,
	)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(c.cfg.BotWallBackoff):
	}

	body, err := fetcher.fetch(viewURL)
	if err != nil {
		return nil, fmt.Errorf("re-check after bot wall backoff: %w", err)
	}
	if IsBotWall(body) {
		return nil, &domain.BotWallError{Source: session.Source, URL: viewURL}
	}

	session.BotWall = false
	return body, nil
}

// listingFetcher wraps a colly collector for sequential listing loads.
// Revisits are allowed so the bot-wall re-check can hit the same URL.
type listingFetcher struct {
	col  *colly.Collector
	body []byte
	err  error
}

func (c *Crawler) newListingFetcher(ctx context.Context) *listingFetcher {
	col := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(c.cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)
	col.SetRequestTimeout(c.cfg.RequestTimeout)

	f := &listingFetcher{col: col}
	col.OnResponse(func(r *colly.Response) {
		f.body = r.Body
	})
	col.OnError(func(_ *colly.Response, visitErr error) {
		f.err = visitErr
	})
	return f
}

// fetch loads one listing view and returns the rendered body.
func (f *listingFetcher) fetch(viewURL string) ([]byte, error) {
	f.body, f.err = nil, nil

	if err := f.col.Visit(viewURL); err != nil {
		return nil, fmt.Errorf("visit %s: %w", viewURL, err)
	}
	f.col.Wait()

	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}
