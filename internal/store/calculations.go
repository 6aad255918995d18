package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"window_calculator/internal/models"
)

const CalculationsCollection = "calculations"

var ErrNotFound = errors.New("not found")

// CalculationStore conserve l'historique des calculs réussis.
type CalculationStore interface {
	Save(ctx context.Context, calc *models.Calculation) error
	List(ctx context.Context, limit int) ([]models.Calculation, error)
	Get(ctx context.Context, id string) (*models.Calculation, error)
}

// --- MongoDB ---

type MongoCalculationStore struct {
	coll *mongo.Collection
}

func NewMongoCalculationStore(coll *mongo.Collection) *MongoCalculationStore {
	return &MongoCalculationStore{coll: coll}
}

// EnsureIndexes crée l'index de tri par date (idempotent).
func (s *MongoCalculationStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create calculations index: %w", err)
	}
	return nil
}

func (s *MongoCalculationStore) Save(ctx context.Context, calc *models.Calculation) error {
	if _, err := s.coll.InsertOne(ctx, calc); err != nil {
		return fmt.Errorf("insert calculation %s: %w", calc.ID, err)
	}
	return nil
}

func (s *MongoCalculationStore) List(ctx context.Context, limit int) ([]models.Calculation, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find calculations: %w", err)
	}
	defer cursor.Close(ctx)

	calcs := []models.Calculation{}
	if err := cursor.All(ctx, &calcs); err != nil {
		return nil, fmt.Errorf("decode calculations: %w", err)
	}
	return calcs, nil
}

func (s *MongoCalculationStore) Get(ctx context.Context, id string) (*models.Calculation, error) {
	var calc models.Calculation
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&calc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find calculation %s: %w", id, err)
	}
	return &calc, nil
}

// --- Mémoire (fallback quand MongoDB est indisponible, et tests) ---

type MemoryCalculationStore struct {
	mu    sync.RWMutex
	calcs map[string]models.Calculation
	order []string // ids dans l'ordre d'insertion, le plus ancien en tête
	max   int
}

// NewMemoryCalculationStore garde au plus max calculs ; 0 = illimité.
func NewMemoryCalculationStore(max int) *MemoryCalculationStore {
	return &MemoryCalculationStore{calcs: make(map[string]models.Calculation), max: max}
}

func (s *MemoryCalculationStore) Save(_ context.Context, calc *models.Calculation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.calcs[calc.ID]; exists {
		return fmt.Errorf("calculation %s already exists", calc.ID)
	}
	s.calcs[calc.ID] = *calc
	s.order = append(s.order, calc.ID)

	if s.max > 0 && len(s.calcs) > s.max {
		delete(s.calcs, s.order[0])
		s.order[0] = ""
		s.order = s.order[1:]
	}
	return nil
}

func (s *MemoryCalculationStore) List(_ context.Context, limit int) ([]models.Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calcs := s.sortedLocked()
	if limit > 0 && len(calcs) > limit {
		calcs = calcs[:limit]
	}
	return calcs, nil
}

func (s *MemoryCalculationStore) Get(_ context.Context, id string) (*models.Calculation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calc, ok := s.calcs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &calc, nil
}

// sortedLocked trie du plus récent au plus ancien.
func (s *MemoryCalculationStore) sortedLocked() []models.Calculation {
	out := make([]models.Calculation, 0, len(s.calcs))
	for _, c := range s.calcs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
