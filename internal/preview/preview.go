// Package preview construit l'aperçu partageable d'une configuration de fenêtre.
package preview

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/skip2/go-qrcode"

	"window_calculator/internal/models"
	"window_calculator/internal/pricing"
)

const (
	TokenTTL = 7 * 24 * time.Hour
	issuer   = "window-calculator"

	DefaultQRSize = 256
	MaxQRSize     = 1024
)

var ErrInvalidToken = errors.New("invalid or expired preview token")

type Claims struct {
	Spec pricing.WindowSpec `json:"spec"`
	jwt.RegisteredClaims
}

// Preview est renvoyé tel quel au client.
type Preview struct {
	Width         float64           `json:"width"`
	Height        float64           `json:"height"`
	Area          float64           `json:"area"`
	Perimeter     float64           `json:"perimeter"`
	GlassType     string            `json:"glassType"`
	FrameMaterial string            `json:"frameMaterial"`
	Options       []string          `json:"options"`
	Quantity      int               `json:"quantity"`
	AspectRatio   float64           `json:"aspectRatio"`
	Orientation   string            `json:"orientation"`
	Price         float64           `json:"price"`
	UnitPrice     float64           `json:"unitPrice"`
	Currency      string            `json:"currency"`
	Breakdown     pricing.Breakdown `json:"breakdown"`
	Token         string            `json:"token,omitempty"`
	ShareURL      string            `json:"shareUrl,omitempty"`
	ExpiresAt     *time.Time        `json:"expiresAt,omitempty"`
}

func FromQuote(q pricing.Quote) Preview {
	orientation := "square"
	switch {
	case q.Spec.Width > q.Spec.Height:
		orientation = "landscape"
	case q.Spec.Width < q.Spec.Height:
		orientation = "portrait"
	}

	options := q.Spec.Options
	if options == nil {
		options = []string{}
	}

	return Preview{
		Width:         q.Spec.Width,
		Height:        q.Spec.Height,
		Area:          q.Area,
		Perimeter:     q.Perimeter,
		GlassType:     q.Spec.GlassType,
		FrameMaterial: q.Spec.FrameMaterial,
		Options:       options,
		Quantity:      q.Spec.Quantity,
		AspectRatio:   models.RoundCents(q.Spec.Width / q.Spec.Height),
		Orientation:   orientation,
		Price:         q.Price,
		UnitPrice:     q.UnitPrice,
		Currency:      q.Currency,
		Breakdown:     q.Breakdown,
	}
}

// Signer émet et vérifie les tokens de partage (HS256).
type Signer struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
	now     func() time.Time
}

func NewSigner(secret, baseURL string) *Signer {
	return &Signer{
		secret:  []byte(secret),
		baseURL: baseURL,
		ttl:     TokenTTL,
		now:     time.Now,
	}
}

// Sign retourne le token et sa date d'expiration.
func (s *Signer) Sign(spec pricing.WindowSpec) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.ttl)
	claims := Claims{
		Spec: spec,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign preview token: %w", err)
	}
	return token, expires, nil
}

func (s *Signer) Parse(token string) (pricing.WindowSpec, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return pricing.WindowSpec{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.Spec, nil
}

// ShareURL pointe vers la route SPA qui affiche l'aperçu.
func (s *Signer) ShareURL(token string) string {
	return s.baseURL + "/preview/" + token
}

// QRCode encode l'URL en PNG carré de size pixels.
func QRCode(content string, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultQRSize
	}
	if size > MaxQRSize {
		size = MaxQRSize
	}
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}
