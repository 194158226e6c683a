package serve_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/gmodebadze/eventscout/cmd/common"
	"github.com/gmodebadze/eventscout/cmd/serve"
	"github.com/gmodebadze/eventscout/internal/config"
	"github.com/gmodebadze/eventscout/internal/domain"
	"github.com/gmodebadze/eventscout/internal/logger"
	"github.com/gmodebadze/eventscout/internal/snapshot"
)

func testDeps(t *testing.T) *common.Deps {
	t.Helper()
	return &common.Deps{
		Config: &config.Config{
			Output: config.OutputConfig{
				Dir:            t.TempDir(),
				FilenamePrefix: "events",
			},
		},
		Logger: logger.NewNoop(),
	}
}

func writeTestSnapshot(t *testing.T, deps *common.Deps) {
	t.Helper()

	title := "Horoom Nights"
	snap := domain.Snapshot{
		RunID:     "run-1",
		ScrapedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Sources:   map[domain.SourceID]int{domain.SourceRA: 1, domain.SourceTKT: 1},
		Events: []domain.CanonicalEvent{
			{ID: "ra-1", Title: &title, SourceURL: "https://ra.co/events/1", Source: domain.SourceRA, Artists: []string{}},
			{ID: "tkt-2", SourceURL: "https://tkt.ge/event/2", Source: domain.SourceTKT, Artists: []string{}},
		},
		TotalEvents: 2,
	}

	_, err := snapshot.NewWriter(deps.Config.Output).Write(snap)
	require.NoError(t, err)
}

func doRequest(router *gin.Engine, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rec
}

func TestHealthz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := serve.NewRouter(testDeps(t))
	rec := doRequest(router, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSnapshotEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)

	deps := testDeps(t)
	writeTestSnapshot(t, deps)

	router := serve.NewRouter(deps)
	rec := doRequest(router, "/api/v1/snapshot")

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Snapshot-File"))

	var snap domain.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Equal(t, 2, snap.TotalEvents)
	require.Len(t, snap.Events, 2)
}

func TestSnapshotEndpointWithoutRuns(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := serve.NewRouter(testDeps(t))
	rec := doRequest(router, "/api/v1/snapshot")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEventsEndpointFiltersBySource(t *testing.T) {
	gin.SetMode(gin.TestMode)

	deps := testDeps(t)
	writeTestSnapshot(t, deps)
	router := serve.NewRouter(deps)

	rec := doRequest(router, "/api/v1/events?source=ra")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total  int                      `json:"total"`
		Events []domain.CanonicalEvent `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	require.Equal(t, "ra-1", resp.Events[0].ID)

	rec = doRequest(router, "/api/v1/events")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Total)
}
