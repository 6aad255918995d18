package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"window_calculator/internal/cache"
	"window_calculator/internal/handlers"
	"window_calculator/internal/logger"
	"window_calculator/internal/metrics"
	"window_calculator/internal/middleware"
	"window_calculator/internal/preview"
	"window_calculator/internal/pricing"
	"window_calculator/internal/services"
	"window_calculator/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testDeps(t *testing.T, log *logger.Logger) Dependencies {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spa</html>"), 0o644))

	engine := pricing.NewEngine(nil)
	calcs := store.NewMemoryCalculationStore(100)
	m := metrics.New()

	return Dependencies{
		Log:          log,
		Metrics:      m,
		Sessions:     middleware.NewCookieStore("test-secret", false),
		RateLimiter:  middleware.NewRateLimiter(100, 100, log),
		PublicDir:    dir,
		Calculations: handlers.NewCalculationHandler(services.NewCalculationBridge(engine, calcs, log, m), log),
		Cart:         handlers.NewCartHandler(services.NewCartService(cache.NewMemoryCartStore(), calcs, log), log),
		Pricing:      handlers.NewPricingHandler(engine, log),
		Preview:      handlers.NewPreviewHandler(engine, preview.NewSigner("test-secret", "http://localhost:3000"), log),
		Health:       handlers.NewHealthHandler(nil),
	}
}

func TestInspectRoutes_EveryPrefixMounted(t *testing.T) {
	r := NewRouter(testDeps(t, logger.Nop()))

	counts := InspectRoutes(r)
	for _, prefix := range APIPrefixes {
		assert.GreaterOrEqual(t, counts[prefix], 1, prefix)
	}
	assert.Equal(t, 3, counts["/api/calculations"])
	assert.Equal(t, 5, counts["/api/cart"])
}

func TestInspectRoutes_EmptyEngine(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	LogRouteStatus(gin.New(), logger.Wrap(zap.New(core), false))

	assert.Equal(t, len(APIPrefixes), logs.FilterMessage("⚠️ No routes mounted").Len())
}

func TestRouter_CalculationThenCart(t *testing.T) {
	r := NewRouter(testDeps(t, logger.Nop()))

	req := httptest.NewRequest(http.MethodPost, "/api/calculations", strings.NewReader(`{"width":36,"height":48,"glassType":"double"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var calc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &calc))
	assert.Equal(t, true, calc["success"])
	assert.Equal(t, 216.0, calc["price"])
	calcID, _ := calc["calculationId"].(string)
	require.NotEmpty(t, calcID)

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req = httptest.NewRequest(http.MethodPost, "/api/cart/items", strings.NewReader(`{"calculationId":"`+calcID+`"}`))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var cart map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Equal(t, 216.0, cart["total"])
	assert.Equal(t, 1.0, cart["count"])

	// le calcul est rattaché au panier de la session
	req = httptest.NewRequest(http.MethodGet, "/api/calculations/"+calcID, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, cart["cartId"], stored["cartId"])
}

func TestRouter_SPAFallbackAndOperationalRoutes(t *testing.T) {
	r := NewRouter(testDeps(t, logger.Nop()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything/not/an/api/path", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "spa")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "window_calculator_http_requests_total")
}

func TestRouter_CORS(t *testing.T) {
	deps := testDeps(t, logger.Nop())
	deps.CORSOrigins = []string{"https://shop.example.com"}
	r := NewRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/api/pricing", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://shop.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_NonFiniteInputKeepsHistoryReadable(t *testing.T) {
	r := NewRouter(testDeps(t, logger.Nop()))
	nan := `{"width":"NaN","height":48,"glassType":"double"}`

	req := httptest.NewRequest(http.MethodPost, "/api/calculations", strings.NewReader(nan))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"error":"width: must be a number"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/api/pricing/quote", strings.NewReader(nan))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"width"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/calculations", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
