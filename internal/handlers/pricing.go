package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"window_calculator/internal/logger"
	"window_calculator/internal/pricing"
)

type PricingHandler struct {
	engine *pricing.Engine
	log    *logger.Logger
}

func NewPricingHandler(engine *pricing.Engine, log *logger.Logger) *PricingHandler {
	return &PricingHandler{engine: engine, log: log}
}

// 🟢 GET /api/pricing
func (h *PricingHandler) GetPricing(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Table())
}

// 🟢 GET /api/pricing/glass
func (h *PricingHandler) GetGlassTypes(c *gin.Context) {
	t := h.engine.Table()
	c.JSON(http.StatusOK, gin.H{"currency": t.Currency, "glassTypes": t.GlassTypes(), "rates": t.GlassRates})
}

// 🟢 GET /api/pricing/frames
func (h *PricingHandler) GetFrameMaterials(c *gin.Context) {
	t := h.engine.Table()
	c.JSON(http.StatusOK, gin.H{
		"currency":       t.Currency,
		"frameMaterials": t.FrameMaterials(),
		"rates":          t.FrameRates,
		"default":        t.DefaultFrame,
	})
}

// 🟢 GET /api/pricing/options
func (h *PricingHandler) GetOptions(c *gin.Context) {
	t := h.engine.Table()
	c.JSON(http.StatusOK, gin.H{"currency": t.Currency, "options": t.Options(), "fees": t.OptionFees})
}

// 🟢 POST /api/pricing/quote
// Devis sans enregistrement ; une saisie invalide répond 400.
func (h *PricingHandler) Quote(c *gin.Context) {
	input, err := bindInput(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.engine.Calculate(c.Request.Context(), input)
	if err != nil {
		var verr *pricing.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": verr.Error(), "field": verr.Field})
			return
		}
		h.log.Error("❌ Quote error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, successEnvelope(result))
}
