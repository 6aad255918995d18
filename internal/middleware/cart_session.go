package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"window_calculator/internal/logger"
	"window_calculator/internal/session"
)

const (
	CartSessionName = "cart_session"
	cartIDValue     = "cart_id"
	cartSessionAge  = 86400 * 30
)

// NewCookieStore configure le cookie signé qui porte le cart id.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cartSessionAge,
		HttpOnly: true,
		Secure:   secure, // true en production (HTTPS)
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CartSession attache un cart id à chaque requête, en émettant un nouveau cookie si besoin.
func CartSession(store sessions.Store, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, err := store.Get(c.Request, CartSessionName)
		if err != nil {
			// cookie illisible ou falsifié : on repart d'une session neuve
			log.Debug("⚠️ Invalid cart session cookie", zap.Error(err))
		}

		cartID, _ := sess.Values[cartIDValue].(string)
		if _, perr := uuid.Parse(cartID); perr != nil {
			cartID = uuid.NewString()
			sess.Values[cartIDValue] = cartID
			if err := sess.Save(c.Request, c.Writer); err != nil {
				log.Warn("⚠️ Could not save cart session", zap.Error(err))
			}
		}

		c.Set(session.GinKey, cartID)
		c.Request = c.Request.WithContext(session.WithCartID(c.Request.Context(), cartID))
		c.Next()
	}
}

// CartID lit le cart id posé par CartSession.
func CartID(c *gin.Context) string {
	return c.GetString(session.GinKey)
}
