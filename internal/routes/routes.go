package routes

import (
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"window_calculator/internal/handlers"
	"window_calculator/internal/logger"
	"window_calculator/internal/metrics"
	"window_calculator/internal/middleware"
)

// APIPrefixes liste les groupes montés sous /api, dans l'ordre de montage.
var APIPrefixes = []string{
	"/api/calculations",
	"/api/cart",
	"/api/pricing",
	"/api/preview",
}

type Dependencies struct {
	Log          *logger.Logger
	Metrics      *metrics.Metrics
	Sessions     sessions.Store
	RateLimiter  *middleware.RateLimiter
	CORSOrigins  []string
	PublicDir    string
	Calculations *handlers.CalculationHandler
	Cart         *handlers.CartHandler
	Pricing      *handlers.PricingHandler
	Preview      *handlers.PreviewHandler
	Health       *handlers.HealthHandler
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, deps)
	return r
}

func RegisterRoutes(r *gin.Engine, deps Dependencies) {
	r.Use(middleware.RequestLogger(deps.Log))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}

	// cors.New panique sans origine configurée
	if len(deps.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
		}))
	}

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if deps.RateLimiter != nil {
		limit = deps.RateLimiter.Middleware()
	}

	// Santé & métriques, hors session
	if deps.Health != nil {
		r.GET("/healthz", deps.Health.Health)
	}
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.Use(middleware.CartSession(deps.Sessions, deps.Log))

	// Calculations
	calcs := api.Group("/calculations")
	{
		calcs.GET("", deps.Calculations.GetCalculations)
		calcs.POST("", limit, deps.Calculations.CreateCalculation)
		calcs.GET("/:id", deps.Calculations.GetCalculation)
	}

	// Panier
	cart := api.Group("/cart")
	{
		cart.GET("", deps.Cart.GetCart)
		cart.DELETE("", deps.Cart.ClearCart)
		cart.POST("/items", deps.Cart.AddItem)
		cart.PATCH("/items/:itemId", deps.Cart.UpdateItem)
		cart.DELETE("/items/:itemId", deps.Cart.RemoveItem)
	}

	// Tarifs
	pricing := api.Group("/pricing")
	{
		pricing.GET("", deps.Pricing.GetPricing)
		pricing.GET("/glass", deps.Pricing.GetGlassTypes)
		pricing.GET("/frames", deps.Pricing.GetFrameMaterials)
		pricing.GET("/options", deps.Pricing.GetOptions)
		pricing.POST("/quote", limit, deps.Pricing.Quote)
	}

	// Aperçus partageables
	preview := api.Group("/preview")
	{
		preview.POST("", deps.Preview.CreatePreview)
		preview.GET("/:token", deps.Preview.GetPreview)
		preview.GET("/:token/qr.png", deps.Preview.GetPreviewQR)
	}

	// Tout le reste : fichiers statiques puis index.html (routage côté client)
	r.NoRoute(handlers.SPA(deps.PublicDir))
}

// InspectRoutes compte les routes enregistrées sous chaque préfixe d'API.
func InspectRoutes(r *gin.Engine) map[string]int {
	counts := make(map[string]int, len(APIPrefixes))
	for _, prefix := range APIPrefixes {
		counts[prefix] = 0
	}
	for _, route := range r.Routes() {
		for _, prefix := range APIPrefixes {
			if route.Path == prefix || strings.HasPrefix(route.Path, prefix+"/") {
				counts[prefix]++
			}
		}
	}
	return counts
}

// LogRouteStatus signale au démarrage tout groupe d'API resté vide.
func LogRouteStatus(r *gin.Engine, log *logger.Logger) {
	counts := InspectRoutes(r)
	for _, prefix := range APIPrefixes {
		if n := counts[prefix]; n > 0 {
			log.Info("✅ Routes mounted", zap.String("prefix", prefix), zap.Int("count", n))
		} else {
			log.Warn("⚠️ No routes mounted", zap.String("prefix", prefix))
		}
	}
}

// Describe retourne "METHOD path" pour chaque route enregistrée.
func Describe(r *gin.Engine) []string {
	out := make([]string, 0, len(r.Routes()))
	for _, route := range r.Routes() {
		out = append(out, route.Method+" "+route.Path)
	}
	return out
}
