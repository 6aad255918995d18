package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"window_calculator/internal/logger"
	"window_calculator/internal/metrics"
	"window_calculator/internal/models"
	"window_calculator/internal/pricing"
	"window_calculator/internal/session"
	"window_calculator/internal/store"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// Calculator est le moteur de calcul piloté par le bridge.
type Calculator interface {
	Calculate(ctx context.Context, input models.CalculationInput) (models.CalculationResult, error)
}

// CalculationBridge adapte les appels HTTP vers le moteur de calcul et garde l'historique.
type CalculationBridge struct {
	engine  Calculator
	store   store.CalculationStore
	log     *logger.Logger
	metrics *metrics.Metrics

	now   func() time.Time
	newID func() string
}

func NewCalculationBridge(engine Calculator, st store.CalculationStore, log *logger.Logger, m *metrics.Metrics) *CalculationBridge {
	if log == nil {
		log = logger.Nop()
	}
	return &CalculationBridge{
		engine:  engine,
		store:   st,
		log:     log,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

// CalculateWindowCost lance le calcul puis enregistre le résultat.
// L'échec de l'enregistrement est logué mais ne fait pas échouer le calcul.
func (b *CalculationBridge) CalculateWindowCost(ctx context.Context, input models.CalculationInput) (models.CalculationResult, error) {
	start := time.Now()
	defer b.log.Performance("calculateWindowCost", start)

	if input == nil {
		input = models.CalculationInput{}
	}

	result, err := b.engine.Calculate(ctx, input)
	if err != nil {
		status := "error"
		if errors.Is(err, pricing.ErrInvalidInput) {
			status = "invalid"
		}
		b.metrics.ObserveCalculation(status, time.Since(start))
		return nil, err
	}
	b.metrics.ObserveCalculation("ok", time.Since(start))

	if b.store == nil {
		return result, nil
	}

	calc := &models.Calculation{
		ID:        b.newID(),
		CartID:    session.CartID(ctx),
		Input:     input,
		Result:    result,
		CreatedAt: b.now(),
	}
	if err := b.store.Save(ctx, calc); err != nil {
		b.log.Warn("⚠️ Calculation not recorded", zap.String("calculation_id", calc.ID), zap.Error(err))
		return result, nil
	}

	out := make(models.CalculationResult, len(result)+1)
	for k, v := range result {
		out[k] = v
	}
	out["calculationId"] = calc.ID
	return out, nil
}

// ListCalculations retourne les calculs les plus récents, limit borné à [1, MaxListLimit].
func (b *CalculationBridge) ListCalculations(ctx context.Context, limit int) ([]models.Calculation, error) {
	if b.store == nil {
		return []models.Calculation{}, nil
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	calcs, err := b.store.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	return calcs, nil
}

func (b *CalculationBridge) GetCalculation(ctx context.Context, id string) (*models.Calculation, error) {
	if b.store == nil {
		return nil, store.ErrNotFound
	}
	return b.store.Get(ctx, id)
}
