package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/conceptmap/internal/domain"
	"github.com/persistorai/conceptmap/internal/models"
)

// EntityHandler serves search, lookup and article listing for one kind of
// graph entity. Concepts and fields of study share the same route shapes.
type EntityHandler struct {
	kind     string
	search   func(ctx context.Context, name string, mode models.SearchMode, limit int) ([]models.NamedRef, error)
	get      func(ctx context.Context, id int64) (*models.NamedRef, error)
	articles func(ctx context.Context, id int64, limit int) ([]string, error)
	log      *logrus.Logger
}

// NewConceptHandler creates an EntityHandler over concepts.
func NewConceptHandler(svc domain.ConceptService, log *logrus.Logger) *EntityHandler {
	return &EntityHandler{
		kind:     "concept",
		search:   svc.SearchConcepts,
		get:      svc.GetConcept,
		articles: svc.ArticlesByConcept,
		log:      log,
	}
}

// NewFieldHandler creates an EntityHandler over fields of study.
func NewFieldHandler(svc domain.ConceptService, log *logrus.Logger) *EntityHandler {
	return &EntityHandler{
		kind:     "field",
		search:   svc.SearchFields,
		get:      svc.GetField,
		articles: svc.ArticlesByField,
		log:      log,
	}
}

// Search handles GET /api/v1/{concepts,fields}/search/:name?mode=exact|similar&limit=N.
func (h *EntityHandler) Search(c *gin.Context) {
	mode, err := models.ParseSearchMode(c.Query("mode"))
	if err != nil {
		respondServiceError(c, h.log, err, h.kind+".search")

		return
	}

	refs, err := h.search(c.Request.Context(), c.Param("name"), mode, parseLimit(c.Query("limit")))
	if err != nil {
		respondServiceError(c, h.log, err, h.kind+".search")

		return
	}

	if refs == nil {
		refs = []models.NamedRef{}
	}

	c.JSON(http.StatusOK, refs)
}

// Get handles GET /api/v1/{concepts,fields}/:id.
func (h *EntityHandler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err, h.kind+".get")

		return
	}

	ref, err := h.get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.log, err, h.kind+".get")

		return
	}

	c.JSON(http.StatusOK, ref)
}

// Articles handles GET /api/v1/{concepts,fields}/:id/articles.
func (h *EntityHandler) Articles(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		respondServiceError(c, h.log, err, h.kind+".articles")

		return
	}

	ids, err := h.articles(c.Request.Context(), id, parseLimit(c.Query("limit")))
	if err != nil {
		respondServiceError(c, h.log, err, h.kind+".articles")

		return
	}

	if ids == nil {
		ids = []string{}
	}

	c.JSON(http.StatusOK, ids)
}
