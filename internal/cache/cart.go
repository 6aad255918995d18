package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"window_calculator/internal/models"
)

const (
	CartTTL = 30 * 24 * time.Hour // 30 jours

	maxTxRetries = 5
)

var ErrCartConflict = errors.New("cart was modified concurrently, retry")

// CartStore persiste le panier associé à un cart id.
type CartStore interface {
	// Get retourne un panier vide si aucun n'existe.
	Get(ctx context.Context, cartID string) (*models.Cart, error)
	// Update applique fn au panier courant et le sauvegarde ; un panier vide est supprimé.
	Update(ctx context.Context, cartID string, fn func(*models.Cart) error) (*models.Cart, error)
	Delete(ctx context.Context, cartID string) error
}

func cartKey(cartID string) string {
	return "cart:" + cartID
}

func emptyCart(cartID string) *models.Cart {
	return &models.Cart{CartID: cartID, Items: []models.CartItem{}}
}

// =============================================
// REDIS
// =============================================

type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: CartTTL}
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func load(ctx context.Context, c stringGetter, cartID string) (*models.Cart, error) {
	data, err := c.Get(ctx, cartKey(cartID)).Result()
	if errors.Is(err, redis.Nil) || data == "" {
		return emptyCart(cartID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cart %s: %w", cartID, err)
	}

	cart := emptyCart(cartID)
	if err := json.Unmarshal([]byte(data), cart); err != nil {
		return nil, fmt.Errorf("decode cart %s: %w", cartID, err)
	}
	cart.CartID = cartID
	if cart.Items == nil {
		cart.Items = []models.CartItem{}
	}
	return cart, nil
}

func (s *RedisCartStore) Get(ctx context.Context, cartID string) (*models.Cart, error) {
	return load(ctx, s.client, cartID)
}

// Update utilise WATCH/MULTI pour ne pas écraser une écriture concurrente.
func (s *RedisCartStore) Update(ctx context.Context, cartID string, fn func(*models.Cart) error) (*models.Cart, error) {
	key := cartKey(cartID)
	var updated *models.Cart

	txf := func(tx *redis.Tx) error {
		cart, err := load(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		cart.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(cart)
		if err != nil {
			return fmt.Errorf("encode cart %s: %w", cartID, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(cart.Items) == 0 {
				pipe.Del(ctx, key)
			} else {
				pipe.Set(ctx, key, data, s.ttl)
			}
			return nil
		})
		updated = cart
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return updated, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, err
	}
	return nil, ErrCartConflict
}

func (s *RedisCartStore) Delete(ctx context.Context, cartID string) error {
	if err := s.client.Del(ctx, cartKey(cartID)).Err(); err != nil {
		return fmt.Errorf("delete cart %s: %w", cartID, err)
	}
	return nil
}

// =============================================
// MÉMOIRE (fallback sans Redis)
// =============================================

type MemoryCartStore struct {
	mu    sync.Mutex
	carts map[string]models.Cart
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string]models.Cart)}
}

func (s *MemoryCartStore) Get(_ context.Context, cartID string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked(cartID), nil
}

func (s *MemoryCartStore) Update(_ context.Context, cartID string, fn func(*models.Cart) error) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.copyLocked(cartID)
	if err := fn(cart); err != nil {
		return nil, err
	}
	cart.UpdatedAt = time.Now().UTC()

	if len(cart.Items) == 0 {
		delete(s.carts, cartID)
	} else {
		stored := *cart
		stored.Items = append([]models.CartItem(nil), cart.Items...)
		s.carts[cartID] = stored
	}
	return cart, nil
}

func (s *MemoryCartStore) Delete(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, cartID)
	return nil
}

func (s *MemoryCartStore) copyLocked(cartID string) *models.Cart {
	stored, ok := s.carts[cartID]
	if !ok {
		return emptyCart(cartID)
	}
	cart := stored
	cart.Items = append([]models.CartItem{}, stored.Items...)
	return &cart
}
