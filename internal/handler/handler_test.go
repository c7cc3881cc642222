package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estateflow/internal/collection"
	"estateflow/internal/metrics"
	"estateflow/internal/model"
	"estateflow/internal/service"
	"estateflow/internal/storage"
)

type fakeConversation struct {
	reply string
	err   error
	block chan struct{}
}

func (f *fakeConversation) Converse(ctx context.Context, _ string) (string, error) {
	if f.block != nil {
		<-f.block
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return f.reply, f.err
}

type countingObserver struct {
	rejected atomic.Int32
}

func (o *countingObserver) ObserveComparisonRejected() { o.rejected.Add(1) }

type testServer struct {
	router    *gin.Engine
	stores    *collection.Stores
	assistant *service.Assistant
	conv      *fakeConversation
	rejects   *countingObserver
}

func testCatalog() []model.Property {
	return []model.Property{
		{ID: "p1", Title: "Marina Apartment", Price: 1800000, Location: "Dubai Marina, Dubai", Bedrooms: 2, Bathrooms: 2, Type: model.TypeApartment, Status: model.StatusForSale},
		{ID: "p2", Title: "Palm Villa", Price: 15000000, Location: "Palm Jumeirah, Dubai", Bedrooms: 5, Bathrooms: 6, Type: model.TypeVilla, Status: model.StatusForSale},
		{ID: "p3", Title: "Business Bay Studio", Price: 90000, Location: "Business Bay, Dubai", Type: model.TypeStudio, Status: model.StatusForRent},
		{ID: "p4", Title: "Hills Townhouse", Price: 3200000, Location: "Dubai Hills Estate, Dubai", Bedrooms: 4, Bathrooms: 4, Type: model.TypeTownhouse, Status: model.StatusForSale},
		{ID: "p5", Title: "Downtown Penthouse", Price: 22000000, Location: "Downtown Dubai, Dubai", Bedrooms: 4, Bathrooms: 5, Type: model.TypePenthouse, Status: model.StatusForSale},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	stores, err := collection.Open(ctx, storage.NewMemory(), collection.Keys{}, collection.DefaultComparisonMax)
	require.NoError(t, err)

	catalog := service.NewCatalog(service.StaticSource(testCatalog()), nil)
	require.NoError(t, catalog.Refresh(ctx))

	conv := &fakeConversation{reply: "Here are some villas for you."}
	assistant := service.NewAssistant(stores.Transcript, catalog, conv)
	rejects := &countingObserver{}

	router := gin.New()
	RegisterRoutes(router, Handlers{
		Listings:   NewListingHandler(service.NewSearchService(catalog, nil)),
		Favorites:  NewFavoritesHandler(stores.Favorites, catalog),
		Comparison: NewComparisonHandler(stores.Comparison, catalog, rejects),
		Chat:       NewChatHandler(assistant, time.Hour),
		Metrics:    metrics.New().Handler(),
		Build:      BuildInfo{Version: "1.2.3", BuildTime: "now", GitCommit: "abc"},
	})

	return &testServer{router: router, stores: stores, assistant: assistant, conv: conv, rejects: rejects}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthAndVersion(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["status"])

	w = s.do(t, http.MethodGet, "/version", nil)
	assert.Equal(t, "1.2.3", decode[map[string]string](t, w)["version"])

	w = s.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "API endpoint not found", decode[map[string]string](t, w)["error"])
}

func TestListingEndpoints(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		path   string
		status int
		total  int
	}{
		{name: "all", path: "/api/v1/listings", status: http.StatusOK, total: 5},
		{name: "type", path: "/api/v1/listings?type=villa", status: http.StatusOK, total: 1},
		{name: "status", path: "/api/v1/listings?status=for-rent", status: http.StatusOK, total: 1},
		{name: "free text", path: "/api/v1/listings?q=4+bedroom+townhouse", status: http.StatusOK, total: 1},
		{name: "price range", path: "/api/v1/listings?price_range=1000000-5000000", status: http.StatusOK, total: 2},
		{name: "bad bedrooms", path: "/api/v1/listings?bedrooms=many", status: http.StatusBadRequest},
		{name: "bad price range", path: "/api/v1/listings?price_range=cheap", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodGet, tt.path, nil)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.total, decode[model.SearchResponse](t, w).Total)
			}
		})
	}
}

func TestListingSearchAndLookup(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/listings/search", model.SearchRequest{
		Filters: &model.SearchFilters{PropertyType: "Penthouse"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[model.SearchResponse](t, w)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "p5", resp.Results[0].ID)
	assert.Contains(t, resp.Results[0].MatchedReasons, service.ReasonTypeMatch)

	w = s.do(t, http.MethodPost, "/api/v1/listings/search", model.SearchRequest{
		Filters: &model.SearchFilters{Status: "sold"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/listings/p2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Palm Villa", decode[model.Property](t, w).Title)

	w = s.do(t, http.MethodGet, "/api/v1/listings/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[model.MarketStats](t, w)
	assert.Equal(t, 5, stats.TotalListings)
	assert.Equal(t, 90000.0, stats.LowestPrice)
}

func TestFavoritesEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/favorites/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ToggleResponse{ID: "p1", Present: true, Count: 1}, decode[model.ToggleResponse](t, w))

	w = s.do(t, http.MethodPost, "/api/v1/favorites/p1", nil)
	assert.Equal(t, 1, decode[model.ToggleResponse](t, w).Count)

	w = s.do(t, http.MethodPost, "/api/v1/favorites/p2/toggle", nil)
	assert.True(t, decode[model.ToggleResponse](t, w).Present)

	w = s.do(t, http.MethodPost, "/api/v1/favorites/p2/toggle", nil)
	assert.False(t, decode[model.ToggleResponse](t, w).Present)

	w = s.do(t, http.MethodPost, "/api/v1/favorites/unknown", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/favorites", nil)
	list := decode[model.CollectionResponse](t, w)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "p1", list.Items[0].ID)

	w = s.do(t, http.MethodDelete, "/api/v1/favorites/p1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, s.stores.Favorites.Count())
}

func TestComparisonEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, id := range []string{"p1", "p2", "p3"} {
		w := s.do(t, http.MethodPost, "/api/v1/comparison/"+id, nil)
		require.Equal(t, http.StatusOK, w.Code, id)
	}

	w := s.do(t, http.MethodPost, "/api/v1/comparison/p4", nil)
	require.Equal(t, http.StatusConflict, w.Code)
	rejected := decode[model.ToggleResponse](t, w)
	assert.False(t, rejected.Present)
	assert.Equal(t, 3, rejected.Count)
	assert.Equal(t, "You can only compare up to 3 properties", rejected.Message)

	w = s.do(t, http.MethodPost, "/api/v1/comparison/p4/toggle", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, int32(2), s.rejects.rejected.Load())

	w = s.do(t, http.MethodPost, "/api/v1/comparison/p1", nil)
	assert.Equal(t, http.StatusOK, w.Code, "re-adding a present id is idempotent")

	w = s.do(t, http.MethodPost, "/api/v1/comparison/p1/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[model.ToggleResponse](t, w).Present)

	w = s.do(t, http.MethodGet, "/api/v1/comparison", nil)
	list := decode[model.CollectionResponse](t, w)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, 3, list.Max)

	w = s.do(t, http.MethodGet, "/api/v1/comparison/table", nil)
	require.Equal(t, http.StatusOK, w.Code)
	table := decode[model.ComparisonTable](t, w)
	assert.Equal(t, []string{"p2", "p3"}, table.PropertyIDs)
	assert.Len(t, table.Rows, 8)

	w = s.do(t, http.MethodDelete, "/api/v1/comparison/p2", nil)
	assert.Equal(t, 1, decode[model.ToggleResponse](t, w).Count)

	w = s.do(t, http.MethodDelete, "/api/v1/comparison", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, s.stores.Comparison.Count())
}

func TestChatEndpoints(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/chat/open", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["greeted"])

	w = s.do(t, http.MethodPost, "/api/v1/chat/messages", model.ChatRequest{Message: "show me villas"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	turn := decode[model.Turn](t, w)
	assert.Equal(t, model.RoleAssistant, turn.Role)
	require.Len(t, turn.Properties, 1)
	assert.Equal(t, "p2", turn.Properties[0].ID)

	w = s.do(t, http.MethodGet, "/api/v1/chat", nil)
	state := decode[model.ChatState](t, w)
	assert.Len(t, state.Turns, 3)
	assert.False(t, state.Typing)
	assert.Equal(t, "idle", state.State)

	w = s.do(t, http.MethodPost, "/api/v1/chat/open", nil)
	assert.Equal(t, false, decode[map[string]any](t, w)["greeted"])

	w = s.do(t, http.MethodPost, "/api/v1/chat/messages", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/chat/messages", model.ChatRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/chat", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[model.ChatState](t, w).Turns)
}

func TestChatFailureBecomesAssistantTurn(t *testing.T) {
	s := newTestServer(t)
	s.conv.err = service.ErrMissingCredential

	w := s.do(t, http.MethodPost, "/api/v1/chat/messages", model.ChatRequest{Message: "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	turn := decode[model.Turn](t, w)
	assert.Equal(t, service.MsgMissingCredential, turn.Content)
	assert.False(t, s.assistant.Typing())
}

func TestChatBusy(t *testing.T) {
	s := newTestServer(t)
	s.conv.block = make(chan struct{})

	done := make(chan int)
	go func() {
		w := s.do(t, http.MethodPost, "/api/v1/chat/messages", model.ChatRequest{Message: "first"})
		done <- w.Code
	}()

	require.Eventually(t, s.assistant.Typing, time.Second, time.Millisecond)

	w := s.do(t, http.MethodPost, "/api/v1/chat/messages", model.ChatRequest{Message: "second"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodDelete, "/api/v1/chat", nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	close(s.conv.block)
	assert.Equal(t, http.StatusOK, <-done)
}

func TestChatEvents(t *testing.T) {
	s := newTestServer(t)
	s.assistant.Greet(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	s.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream; charset=utf-8", w.Header().Get("Content-Type"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "event: state\ndata: {"), body)
	assert.Contains(t, body, `"id":"welcome"`)
	assert.Contains(t, body, `"typing":false`)
}

func TestChatSurvivesClientDisconnect(t *testing.T) {
	s := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/messages",
		strings.NewReader(`{"message":"show me villas"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Here are some villas for you.", decode[model.Turn](t, w).Content)
	assert.Equal(t, 2, s.stores.Transcript.Len())

	req = httptest.NewRequest(http.MethodPost, "/api/v1/comparison/p1/toggle", nil).WithContext(ctx)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.stores.Comparison.Contains("p1"))
}
