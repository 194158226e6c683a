// Package serve implements the serve command: a read-only HTTP API over
// the most recently written snapshot.
package serve

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/gmodebadze/eventscout/cmd/common"
	"github.com/gmodebadze/eventscout/internal/snapshot"
)

// Command returns the serve command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the latest snapshot over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.BuildFromFlags(cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			if !deps.Config.App.Debug {
				gin.SetMode(gin.ReleaseMode)
			}

			router := NewRouter(deps)
			addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
			deps.Logger.Info("snapshot server listening", "addr", addr)
			return router.Run(addr)
		},
	}
}

// NewRouter builds the HTTP routes. Every response is read from the
// snapshot directory on demand; the server holds no state of its own.
func NewRouter(deps *common.Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/v1/snapshot", func(c *gin.Context) {
		snap, path, err := snapshot.Latest(deps.Config.Output)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, os.ErrNotExist) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}
		c.Header("X-Snapshot-File", path)
		c.JSON(http.StatusOK, snap)
	})

	router.GET("/api/v1/events", func(c *gin.Context) {
		snap, _, err := snapshot.Latest(deps.Config.Output)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, os.ErrNotExist) {
				status = http.StatusNotFound
			}
			c.JSON(status, gin.H{"error": err.Error()})
			return
		}

		events := snap.Events
		if src := c.Query("source"); src != "" {
			filtered := events[:0:0]
			for _, event := range events {
				if string(event.Source) == src {
					filtered = append(filtered, event)
				}
			}
			events = filtered
		}
		c.JSON(http.StatusOK, gin.H{"total": len(events), "events": events})
	})

	return router
}
