package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"window_calculator/internal/cache"
	"window_calculator/internal/logger"
	"window_calculator/internal/models"
	"window_calculator/internal/store"
)

const MaxItemQuantity = 100

var (
	ErrInvalidItem  = errors.New("invalid cart item")
	ErrItemNotFound = errors.New("cart item not found")
)

type AddItemInput struct {
	CalculationID string         `json:"calculationId"`
	Description   string         `json:"description"`
	UnitPrice     float64        `json:"unitPrice"`
	Quantity      int            `json:"quantity"`
	Config        map[string]any `json:"config"`
}

// CartService applique les règles du panier au-dessus d'un CartStore.
type CartService struct {
	carts cache.CartStore
	calcs store.CalculationStore
	log   *logger.Logger
}

func NewCartService(carts cache.CartStore, calcs store.CalculationStore, log *logger.Logger) *CartService {
	if log == nil {
		log = logger.Nop()
	}
	return &CartService{carts: carts, calcs: calcs, log: log}
}

func (s *CartService) Get(ctx context.Context, cartID string) (*models.Cart, error) {
	return s.carts.Get(ctx, cartID)
}

// AddItem ajoute un item ou cumule la quantité si le même calcul est déjà au panier.
// Sans prix unitaire, le prix est repris du calcul enregistré.
func (s *CartService) AddItem(ctx context.Context, cartID string, in AddItemInput) (*models.Cart, error) {
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 1 || in.Quantity > MaxItemQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidItem, MaxItemQuantity)
	}
	if in.UnitPrice < 0 {
		return nil, fmt.Errorf("%w: unitPrice must not be negative", ErrInvalidItem)
	}

	if in.CalculationID != "" && in.UnitPrice == 0 {
		if err := s.fillFromCalculation(ctx, &in); err != nil {
			return nil, err
		}
	}
	if in.CalculationID == "" && in.UnitPrice == 0 {
		return nil, fmt.Errorf("%w: unitPrice or calculationId is required", ErrInvalidItem)
	}

	cart, err := s.carts.Update(ctx, cartID, func(c *models.Cart) error {
		if i := c.FindByCalculation(in.CalculationID); i >= 0 {
			if c.Items[i].Quantity+in.Quantity > MaxItemQuantity {
				return fmt.Errorf("%w: quantity must be between 1 and %d", ErrInvalidItem, MaxItemQuantity)
			}
			c.Items[i].Quantity += in.Quantity
			return nil
		}
		c.Items = append(c.Items, models.CartItem{
			ID:            uuid.NewString(),
			CalculationID: in.CalculationID,
			Description:   strings.TrimSpace(in.Description),
			UnitPrice:     models.RoundCents(in.UnitPrice),
			Quantity:      in.Quantity,
			Config:        in.Config,
			AddedAt:       time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("🛒 Item added to cart", zap.String("cart_id", cartID), zap.Int("items", len(cart.Items)))
	return cart, nil
}

// UpdateQuantity fixe la quantité d'un item ; 0 le retire.
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, itemID string, quantity int) (*models.Cart, error) {
	if quantity < 0 || quantity > MaxItemQuantity {
		return nil, fmt.Errorf("%w: quantity must be between 0 and %d", ErrInvalidItem, MaxItemQuantity)
	}
	return s.carts.Update(ctx, cartID, func(c *models.Cart) error {
		i := c.FindItem(itemID)
		if i < 0 {
			return ErrItemNotFound
		}
		if quantity == 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return nil
		}
		c.Items[i].Quantity = quantity
		return nil
	})
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID string) (*models.Cart, error) {
	return s.UpdateQuantity(ctx, cartID, itemID, 0)
}

func (s *CartService) Clear(ctx context.Context, cartID string) error {
	return s.carts.Delete(ctx, cartID)
}

func (s *CartService) fillFromCalculation(ctx context.Context, in *AddItemInput) error {
	if s.calcs == nil {
		return fmt.Errorf("%w: unitPrice is required", ErrInvalidItem)
	}
	calc, err := s.calcs.Get(ctx, in.CalculationID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: unknown calculation %s", ErrInvalidItem, in.CalculationID)
	}
	if err != nil {
		return err
	}

	price, ok := numberField(calc.Result, "unitPrice")
	if !ok {
		price, ok = numberField(calc.Result, "price")
	}
	if !ok {
		return fmt.Errorf("%w: calculation %s has no price", ErrInvalidItem, in.CalculationID)
	}
	in.UnitPrice = price

	if in.Description == "" {
		in.Description = describe(calc.Input)
	}
	if in.Config == nil {
		in.Config = calc.Input
	}
	return nil
}

func numberField(m map[string]any, key string) (float64, bool) {
	switch v := m[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// describe produit un libellé court du type `36" x 48" double`.
func describe(input map[string]any) string {
	w, okW := numberField(input, "width")
	h, okH := numberField(input, "height")
	if !okW || !okH {
		return "Custom window"
	}
	label := fmt.Sprintf(`%g" x %g"`, w, h)
	if glass, ok := input["glassType"].(string); ok && glass != "" {
		label += " " + glass
	}
	return label
}
