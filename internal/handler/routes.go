package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"estateflow/internal/ratelimit"
)

// BuildInfo is reported by /health and /version.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// Handlers groups everything RegisterRoutes mounts. Metrics and ChatLimiter
// may be nil.
type Handlers struct {
	Listings    *ListingHandler
	Favorites   *FavoritesHandler
	Comparison  *ComparisonHandler
	Chat        *ChatHandler
	ChatLimiter *ratelimit.Limiter
	Metrics     http.Handler
	Build       BuildInfo
}

// RegisterRoutes mounts the API on router.
func RegisterRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":     "healthy",
			"service":    "estateflow",
			"version":    h.Build.Version,
			"build_time": h.Build.BuildTime,
			"git_commit": h.Build.GitCommit,
		})
	})

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":    h.Build.Version,
			"build_time": h.Build.BuildTime,
			"git_commit": h.Build.GitCommit,
		})
	})

	if h.Metrics != nil {
		router.GET("/metrics", gin.WrapH(h.Metrics))
	}

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/listings", h.Listings.List)
		apiV1.POST("/listings/search", h.Listings.Search)
		apiV1.GET("/listings/:id", h.Listings.GetListing)
		apiV1.GET("/stats", h.Listings.Stats)

		apiV1.GET("/favorites", h.Favorites.List)
		apiV1.POST("/favorites/:id", h.Favorites.Add)
		apiV1.POST("/favorites/:id/toggle", h.Favorites.Toggle)
		apiV1.DELETE("/favorites/:id", h.Favorites.Remove)

		apiV1.GET("/comparison", h.Comparison.List)
		apiV1.GET("/comparison/table", h.Comparison.Table)
		apiV1.POST("/comparison/:id", h.Comparison.Add)
		apiV1.POST("/comparison/:id/toggle", h.Comparison.Toggle)
		apiV1.DELETE("/comparison/:id", h.Comparison.Remove)
		apiV1.DELETE("/comparison", h.Comparison.Clear)

		apiV1.GET("/chat", h.Chat.Get)
		apiV1.POST("/chat/messages", RateLimit(h.ChatLimiter), h.Chat.Send)
		apiV1.POST("/chat/open", h.Chat.Open)
		apiV1.DELETE("/chat", h.Chat.Reset)
		apiV1.GET("/chat/events", h.Chat.Events)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
