package handlers

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"

	"window_calculator/internal/models"
)

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// successEnvelope fusionne les champs du résultat au premier niveau, à côté de "success".
// Comme un spread JS, un champ "success" du résultat l'emporte.
func successEnvelope(fields map[string]any) gin.H {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	return body
}

// bindInput lit le body brut comme payload libre : body vide = {}, JSON invalide = erreur.
func bindInput(c *gin.Context) (models.CalculationInput, error) {
	raw, err := c.GetRawData()
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	input := models.CalculationInput{}
	if len(raw) == 0 {
		return input, nil
	}
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if input == nil {
		input = models.CalculationInput{}
	}
	return input, nil
}
