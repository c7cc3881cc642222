package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"estateflow/internal/collection"
	"estateflow/internal/model"
	"estateflow/internal/service"
)

// FavoritesHandler handles the saved-properties set
type FavoritesHandler struct {
	favorites *collection.Favorites
	catalog   *service.Catalog
}

// NewFavoritesHandler creates a new favorites handler
func NewFavoritesHandler(favorites *collection.Favorites, catalog *service.Catalog) *FavoritesHandler {
	return &FavoritesHandler{favorites: favorites, catalog: catalog}
}

// List handles GET /api/v1/favorites
func (h *FavoritesHandler) List(c *gin.Context) {
	items := h.favorites.Items()
	c.JSON(http.StatusOK, model.CollectionResponse{Items: items, Count: len(items)})
}

// Add handles POST /api/v1/favorites/:id
func (h *FavoritesHandler) Add(c *gin.Context) {
	p, ok := lookupProperty(c, h.catalog)
	if !ok {
		return
	}
	h.favorites.Add(detach(c), p)
	c.JSON(http.StatusOK, h.membership(p.ID))
}

// Toggle handles POST /api/v1/favorites/:id/toggle
func (h *FavoritesHandler) Toggle(c *gin.Context) {
	p, ok := lookupProperty(c, h.catalog)
	if !ok {
		return
	}
	h.favorites.Toggle(detach(c), p)
	c.JSON(http.StatusOK, h.membership(p.ID))
}

// Remove handles DELETE /api/v1/favorites/:id. Removing works for ids that
// have since left the catalog.
func (h *FavoritesHandler) Remove(c *gin.Context) {
	id := c.Param("id")
	h.favorites.Remove(detach(c), id)
	c.JSON(http.StatusOK, h.membership(id))
}

func (h *FavoritesHandler) membership(id string) model.ToggleResponse {
	return model.ToggleResponse{
		ID:      id,
		Present: h.favorites.Contains(id),
		Count:   h.favorites.Count(),
	}
}

// detach returns the request context without its cancellation, so a client
// that disconnects mid-request cannot abort a collection write.
func detach(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// lookupProperty resolves the :id path parameter against the catalog and
// writes a 404 when it is unknown.
func lookupProperty(c *gin.Context, catalog *service.Catalog) (model.Property, bool) {
	p, ok := catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		return model.Property{}, false
	}
	return p, true
}
