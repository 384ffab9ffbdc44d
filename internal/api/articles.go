package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/domain"
	"github.com/persistorai/conceptmap/internal/middleware"
)

// ArticleHandler serves article records and concept maps. Both routes ingest
// the article on first request.
type ArticleHandler struct {
	svc domain.ArticleService
	log *logrus.Logger
}

// NewArticleHandler creates an ArticleHandler with the given service and logger.
func NewArticleHandler(svc domain.ArticleService, log *logrus.Logger) *ArticleHandler {
	return &ArticleHandler{svc: svc, log: log}
}

// conceptMapResponse carries the diagram under its current name and under the
// key older frontends read.
type conceptMapResponse struct {
	DiagramSource    string `json:"diagramSource"`
	MermaidFlowchart string `json:"mermaid_flowchart"`
}

// Get handles GET /api/v1/articles/:id.
func (h *ArticleHandler) Get(c *gin.Context) {
	articleID := c.Param("id")

	rec, err := h.svc.GetArticleRecord(c.Request.Context(), articleID)
	if err != nil {
		respondServiceError(c, h.log, err, "article.get")

		return
	}

	middleware.Logger(c, h.log).WithFields(logrus.Fields{
		"action":     "article.get",
		"article_id": articleID,
		"concepts":   len(rec.Concepts),
		"fields":     len(rec.FieldsOfStudy),
	}).Debug("served article")

	c.JSON(http.StatusOK, rec)
}

// ConceptMap handles GET /api/v1/articles/:id/concept-map.
func (h *ArticleHandler) ConceptMap(c *gin.Context) {
	articleID := c.Param("id")

	cm, err := h.svc.GetConceptMap(c.Request.Context(), articleID)
	if err != nil {
		respondServiceError(c, h.log, err, "article.concept_map")

		return
	}

	c.JSON(http.StatusOK, conceptMapResponse{
		DiagramSource:    cm.DiagramSource,
		MermaidFlowchart: cm.DiagramSource,
	})
}
