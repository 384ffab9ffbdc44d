package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/metrics"
	"github.com/persistorai/conceptmap/internal/models"
)

// StatsReader reports aggregate graph counts.
type StatsReader interface {
	GraphStats(ctx context.Context) (*models.GraphStats, error)
}

// StatsHandler serves the knowledge graph statistics endpoint.
type StatsHandler struct {
	stats StatsReader
	log   *logrus.Logger
}

// NewStatsHandler creates a StatsHandler with the given dependencies.
func NewStatsHandler(stats StatsReader, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, log: log}
}

// GetStats handles GET /api/v1/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	st, err := h.stats.GraphStats(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.log, err, "stats.get")

		return
	}

	metrics.GraphSize.WithLabelValues("article").Set(float64(st.Articles))
	metrics.GraphSize.WithLabelValues("concept").Set(float64(st.Concepts))
	metrics.GraphSize.WithLabelValues("field").Set(float64(st.Fields))
	metrics.GraphSize.WithLabelValues("relationship").Set(float64(st.Relationships))

	c.JSON(http.StatusOK, st)
}
