package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"window_calculator/internal/logger"
	"window_calculator/internal/models"
	"window_calculator/internal/store"
)

const CalculationCacheTTL = 10 * time.Minute

func calculationKey(id string) string {
	return "calculation:" + id
}

// CachedCalculationStore met les calculs en cache Redis devant le store principal.
// Redis en erreur n'est jamais bloquant : on retombe sur le store.
type CachedCalculationStore struct {
	store.CalculationStore
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

func NewCachedCalculationStore(next store.CalculationStore, rdb *redis.Client, log *logger.Logger) *CachedCalculationStore {
	if log == nil {
		log = logger.Nop()
	}
	return &CachedCalculationStore{CalculationStore: next, rdb: rdb, ttl: CalculationCacheTTL, log: log}
}

// Save écrit dans le store puis pré-remplit le cache.
func (s *CachedCalculationStore) Save(ctx context.Context, calc *models.Calculation) error {
	if err := s.CalculationStore.Save(ctx, calc); err != nil {
		return err
	}
	s.set(ctx, calc)
	return nil
}

// Get lit le cache Redis, sinon le store, puis met en cache.
func (s *CachedCalculationStore) Get(ctx context.Context, id string) (*models.Calculation, error) {
	// 1. Essayer le cache Redis
	data, err := s.rdb.Get(ctx, calculationKey(id)).Bytes()
	if err == nil {
		var calc models.Calculation
		if json.Unmarshal(data, &calc) == nil {
			return &calc, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Debug("⚠️ Calculation cache read failed", zap.String("calculation_id", id), zap.Error(err))
	}

	// 2. Récupérer du store
	calc, err := s.CalculationStore.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. Mettre en cache
	s.set(ctx, calc)
	return calc, nil
}

// Invalidate retire un calcul du cache.
func (s *CachedCalculationStore) Invalidate(ctx context.Context, id string) {
	s.rdb.Del(ctx, calculationKey(id))
}

func (s *CachedCalculationStore) set(ctx context.Context, calc *models.Calculation) {
	data, err := json.Marshal(calc)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, calculationKey(calc.ID), data, s.ttl).Err(); err != nil {
		s.log.Debug("⚠️ Calculation cache write failed", zap.String("calculation_id", calc.ID), zap.Error(err))
	}
}
