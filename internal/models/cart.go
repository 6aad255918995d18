package models

import "time"

// Cart est stocké tel quel (JSON) sous la clé cart:<cartId>.
type Cart struct {
	CartID    string     `json:"cartId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID            string         `json:"id"`
	CalculationID string         `json:"calculationId,omitempty"`
	Description   string         `json:"description,omitempty"`
	UnitPrice     float64        `json:"unitPrice"`
	Quantity      int            `json:"quantity"`
	Config        map[string]any `json:"config,omitempty"`
	AddedAt       time.Time      `json:"addedAt"`
}

// Total additionne prix unitaire x quantité, arrondi au centime.
func (c *Cart) Total() float64 {
	total := 0.0
	for _, item := range c.Items {
		total += item.UnitPrice * float64(item.Quantity)
	}
	return RoundCents(total)
}

// Count retourne le nombre d'unités dans le panier.
func (c *Cart) Count() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// FindItem retourne l'index de l'item, -1 si absent.
func (c *Cart) FindItem(itemID string) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// FindByCalculation retourne l'index de l'item lié à un calcul, -1 si absent.
func (c *Cart) FindByCalculation(calculationID string) int {
	if calculationID == "" {
		return -1
	}
	for i := range c.Items {
		if c.Items[i].CalculationID == calculationID {
			return i
		}
	}
	return -1
}
