package pipeline_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gmodebadze/eventscout/internal/config"
	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/logger"
	"github.com/gmodebadze/eventscout/internal/pipeline"
	"github.com/gmodebadze/eventscout/internal/source"
)

// fakeAdapter serves listings from a local test server and answers detail
// queries from a canned event table.
type fakeAdapter struct {
	id         domain.SourceID
	listingURL string
	detailBase string
	events     map[string]map[string]any
}

func (f *fakeAdapter) ID() domain.SourceID { return f.id }

func (f *fakeAdapter) ListingURL(int) string { return f.listingURL }

func (f *fakeAdapter) CandidatePattern() *regexp.Regexp {
	return regexp.MustCompile(`/events/(\d+)`)
}

func (f *fakeAdapter) DetailURL(externalID string) string {
	return f.detailBase + "/events/" + externalID
}

func (f *fakeAdapter) Location() (string, string) { return "Tbilisi", "GE" }

func (f *fakeAdapter) QueryByID(_ context.Context, externalID string) (map[string]any, error) {
	fields, ok := f.events[externalID]
	if !ok {
		return nil, fmt.Errorf("event %s not found", externalID)
	}
	return fields, nil
}

func testConfig(sources ...config.SourceConfig) *config.Config {
	return &config.Config{
		Crawler: config.CrawlerConfig{
			MaxScrollIterations: 5,
			StabilityThreshold:  2,
			BotWallBackoff:      time.Millisecond,
			RequestTimeout:      5 * time.Second,
			UserAgent:           "eventscout-test",
		},
		Scheduler: config.SchedulerConfig{Concurrency: 2},
		Sources:   sources,
		Output:    config.OutputConfig{Location: "Tbilisi, Georgia"},
	}
}

func TestRunMergesAcrossSourcesAndIsolatesFailures(t *testing.T) {
	t.Parallel()

	// Three candidates on the listing; the third has no api record and an
	// unreachable detail page, so extraction fails for it alone.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/listing" {
			fmt.Fprint(w, `<a href="/events/1">a</a> <a href="/events/2">b</a> <a href="/events/3">c</a>`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	adapter := &fakeAdapter{
		id:         domain.SourceRA,
		listingURL: srv.URL + "/listing",
		detailBase: srv.URL,
		events: map[string]map[string]any{
			"1": {"title": "First Night", "date": "2026-09-12"},
			"2": {"title": "Second Night", "date": "2026-09-13"},
		},
	}

	cfg := testConfig(config.SourceConfig{ID: domain.SourceRA, Enabled: true})
	p := pipeline.New(cfg, logger.NewNoop())
	p.Adapters = func(config.SourceConfig) (source.Adapter, error) {
		return adapter, nil
	}

	result, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, result.Sources, 1)

	src := result.Sources[0]
	require.NoError(t, src.Err)
	require.Equal(t, 3, src.Candidates)
	require.Equal(t, 2, src.Events)
	require.Equal(t, 1, src.Failed)
	require.Zero(t, src.Dropped)

	snap := result.Snapshot
	require.NotEmpty(t, snap.RunID)
	require.Equal(t, "Tbilisi, Georgia", snap.Location)
	require.Equal(t, 2, snap.TotalEvents)
	require.Equal(t, map[domain.SourceID]int{domain.SourceRA: 2}, snap.Sources)

	require.Equal(t, "ra-1", snap.Events[0].ID)
	require.Equal(t, "ra-2", snap.Events[1].ID)
	require.Equal(t, "First Night", *snap.Events[0].Title)
	require.Equal(t, "2026-09-12", *snap.Events[0].Date)
	require.Equal(t, "Tbilisi", *snap.Events[0].City)
	require.Equal(t, srv.URL+"/events/1", snap.Events[0].SourceURL)
}

func TestRunBotWalledSourceLeavesOthersUntouched(t *testing.T) {
	t.Parallel()

	walled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><body>DataDome protection</body></html>`)
	}))
	defer walled.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<a href="/events/9">show</a>`)
	}))
	defer healthy.Close()

	adapters := map[domain.SourceID]*fakeAdapter{
		domain.SourceRA: {
			id:         domain.SourceRA,
			listingURL: walled.URL,
			detailBase: walled.URL,
		},
		domain.SourceTKT: {
			id:         domain.SourceTKT,
			listingURL: healthy.URL,
			detailBase: healthy.URL,
			events: map[string]map[string]any{
				"9": {"title": "Resilient Show"},
			},
		},
	}

	cfg := testConfig(
		config.SourceConfig{ID: domain.SourceRA, Enabled: true},
		config.SourceConfig{ID: domain.SourceTKT, Enabled: true},
	)
	p := pipeline.New(cfg, logger.NewNoop())
	p.Adapters = func(srcCfg config.SourceConfig) (source.Adapter, error) {
		return adapters[srcCfg.ID], nil
	}

	result, err := p.Run(context.Background())
	require.NoError(t, err, "one bot-walled source must not fail the run")

	byID := map[domain.SourceID]pipeline.SourceResult{}
	for _, src := range result.Sources {
		byID[src.Source] = src
	}
	require.ErrorIs(t, byID[domain.SourceRA].Err, domain.ErrBotWall)
	require.NoError(t, byID[domain.SourceTKT].Err)

	require.Equal(t, 1, result.Snapshot.TotalEvents)
	require.Equal(t, "tkt-9", result.Snapshot.Events[0].ID)
}

func TestRunFailsWhenEverySourceFails(t *testing.T) {
	t.Parallel()

	walled := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<title>Just a moment...</title>`)
	}))
	defer walled.Close()

	cfg := testConfig(config.SourceConfig{ID: domain.SourceRA, Enabled: true})
	p := pipeline.New(cfg, logger.NewNoop())
	p.Adapters = func(config.SourceConfig) (source.Adapter, error) {
		return &fakeAdapter{
			id:         domain.SourceRA,
			listingURL: walled.URL,
			detailBase: walled.URL,
		}, nil
	}

	result, err := p.Run(context.Background())
	require.ErrorIs(t, err, pipeline.ErrAllSourcesFailed)
	require.NotNil(t, result)
	require.Len(t, result.Sources, 1)
	require.ErrorIs(t, result.Sources[0].Err, domain.ErrBotWall)
}

func TestRunRefetchKeepsIDsStable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<a href="/events/5">gig</a>`)
	}))
	defer srv.Close()

	adapter := &fakeAdapter{
		id:         domain.SourceRA,
		listingURL: srv.URL,
		detailBase: srv.URL,
		events:     map[string]map[string]any{"5": {"title": "Same Gig"}},
	}

	cfg := testConfig(config.SourceConfig{ID: domain.SourceRA, Enabled: true})
	p := pipeline.New(cfg, logger.NewNoop())
	p.Adapters = func(config.SourceConfig) (source.Adapter, error) {
		return adapter, nil
	}

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, first.Snapshot.Events[0].ID, second.Snapshot.Events[0].ID)
	require.NotEqual(t, first.Snapshot.RunID, second.Snapshot.RunID)
}
