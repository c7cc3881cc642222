package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"estateflow/internal/collection"
	"estateflow/internal/model"
	"estateflow/internal/service"
)

// RejectionObserver counts comparison adds refused at capacity.
type RejectionObserver interface {
	ObserveComparisonRejected()
}

// ComparisonHandler handles the bounded comparison set
type ComparisonHandler struct {
	comparison *collection.Comparison
	catalog    *service.Catalog
	observer   RejectionObserver
}

// NewComparisonHandler creates a new comparison handler. observer may be nil.
func NewComparisonHandler(comparison *collection.Comparison, catalog *service.Catalog, observer RejectionObserver) *ComparisonHandler {
	return &ComparisonHandler{comparison: comparison, catalog: catalog, observer: observer}
}

// List handles GET /api/v1/comparison
func (h *ComparisonHandler) List(c *gin.Context) {
	items := h.comparison.Items()
	c.JSON(http.StatusOK, model.CollectionResponse{Items: items, Count: len(items), Max: h.comparison.Max()})
}

// Add handles POST /api/v1/comparison/:id. A full set answers 409 with the
// notification text for the user.
func (h *ComparisonHandler) Add(c *gin.Context) {
	p, ok := lookupProperty(c, h.catalog)
	if !ok {
		return
	}
	if !h.comparison.Add(detach(c), p) {
		h.reject(c, p.ID)
		return
	}
	c.JSON(http.StatusOK, h.membership(p.ID, ""))
}

// Toggle handles POST /api/v1/comparison/:id/toggle
func (h *ComparisonHandler) Toggle(c *gin.Context) {
	p, ok := lookupProperty(c, h.catalog)
	if !ok {
		return
	}
	if h.comparison.Flip(detach(c), p) == collection.ToggleRejected {
		h.reject(c, p.ID)
		return
	}
	c.JSON(http.StatusOK, h.membership(p.ID, ""))
}

// Remove handles DELETE /api/v1/comparison/:id
func (h *ComparisonHandler) Remove(c *gin.Context) {
	id := c.Param("id")
	h.comparison.Remove(detach(c), id)
	c.JSON(http.StatusOK, h.membership(id, ""))
}

// Clear handles DELETE /api/v1/comparison
func (h *ComparisonHandler) Clear(c *gin.Context) {
	h.comparison.Clear(detach(c))
	c.JSON(http.StatusOK, model.CollectionResponse{Items: []model.Property{}, Count: 0, Max: h.comparison.Max()})
}

// Table handles GET /api/v1/comparison/table
func (h *ComparisonHandler) Table(c *gin.Context) {
	c.JSON(http.StatusOK, service.BuildComparisonTable(h.comparison.Items()))
}

func (h *ComparisonHandler) reject(c *gin.Context, id string) {
	if h.observer != nil {
		h.observer.ObserveComparisonRejected()
	}
	msg := fmt.Sprintf("You can only compare up to %d properties", h.comparison.Max())
	c.JSON(http.StatusConflict, h.membership(id, msg))
}

func (h *ComparisonHandler) membership(id, msg string) model.ToggleResponse {
	return model.ToggleResponse{
		ID:      id,
		Present: h.comparison.Contains(id),
		Count:   h.comparison.Count(),
		Message: msg,
	}
}
