// Package session transporte l'identifiant de panier dans le context des requêtes.
package session

import "context"

type ctxKey struct{}

// GinKey est la clé utilisée dans le gin.Context.
const GinKey = "cart_id"

func WithCartID(ctx context.Context, cartID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, cartID)
}

// CartID retourne "" si aucun panier n'est attaché.
func CartID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}
