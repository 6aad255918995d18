package models

import (
	"math"
	"time"
)

// CalculationInput est le payload brut envoyé par le client, sans schéma imposé.
type CalculationInput map[string]any

// CalculationResult est fusionné au premier niveau de la réponse HTTP.
type CalculationResult map[string]any

// Calculation est l'historique d'un calcul réussi (collection "calculations").
type Calculation struct {
	ID        string            `json:"id" bson:"_id"`
	CartID    string            `json:"cartId,omitempty" bson:"cart_id,omitempty"`
	Input     CalculationInput  `json:"input" bson:"input"`
	Result    CalculationResult `json:"result" bson:"result"`
	CreatedAt time.Time         `json:"createdAt" bson:"created_at"`
}

func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
