package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"window_calculator/internal/logger"
	"window_calculator/internal/models"
	"window_calculator/internal/store"
)

// CalculationBridge est le contrat consommé par le contrôleur de calcul.
type CalculationBridge interface {
	CalculateWindowCost(ctx context.Context, input models.CalculationInput) (models.CalculationResult, error)
	ListCalculations(ctx context.Context, limit int) ([]models.Calculation, error)
	GetCalculation(ctx context.Context, id string) (*models.Calculation, error)
}

type CalculationHandler struct {
	bridge CalculationBridge
	log    *logger.Logger
}

func NewCalculationHandler(bridge CalculationBridge, log *logger.Logger) *CalculationHandler {
	return &CalculationHandler{bridge: bridge, log: log}
}

// 🟢 GET /api/calculations
func (h *CalculationHandler) GetCalculations(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))

	calcs, err := h.bridge.ListCalculations(c.Request.Context(), limit)
	if err != nil {
		h.log.Error("❌ Calculation listing error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, calcs)
}

// 🟢 POST /api/calculations
func (h *CalculationHandler) CreateCalculation(c *gin.Context) {
	input, err := bindInput(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.bridge.CalculateWindowCost(c.Request.Context(), input)
	if err != nil {
		h.log.Error("❌ Calculation error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	// Les champs du résultat sont à plat, pas sous une clé "result"
	c.JSON(http.StatusOK, successEnvelope(result))
}

// 🟢 GET /api/calculations/:id
func (h *CalculationHandler) GetCalculation(c *gin.Context) {
	calc, err := h.bridge.GetCalculation(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		respondError(c, http.StatusNotFound, "calculation not found")
		return
	}
	if err != nil {
		h.log.Error("❌ Calculation lookup error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, successEnvelope(map[string]any{
		"id":        calc.ID,
		"cartId":    calc.CartID,
		"input":     calc.Input,
		"result":    calc.Result,
		"createdAt": calc.CreatedAt,
	}))
}
