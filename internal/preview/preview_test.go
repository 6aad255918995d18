package preview

import (
	"bytes"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"window_calculator/internal/pricing"
)

func TestSigner_RoundTrip(t *testing.T) {
	s := NewSigner("secret", "https://windows.example.com")
	spec := pricing.WindowSpec{Width: 36, Height: 48, GlassType: "double", FrameMaterial: "wood", Quantity: 2, Options: []string{"grids"}}

	token, expires, err := s.Sign(spec)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenTTL), expires, time.Minute)

	got, err := s.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, spec, got)

	assert.Equal(t, "https://windows.example.com/preview/"+token, s.ShareURL(token))
}

func TestSigner_Rejects(t *testing.T) {
	s := NewSigner("secret", "")
	token, _, err := s.Sign(pricing.WindowSpec{Width: 36, Height: 48, GlassType: "double"})
	require.NoError(t, err)

	t.Run("other secret", func(t *testing.T) {
		_, err := NewSigner("other", "").Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("tampered", func(t *testing.T) {
		_, err := s.Parse(token[:len(token)-2] + "xx")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := s.Parse("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		late := NewSigner("secret", "")
		late.now = func() time.Time { return time.Now().Add(TokenTTL + time.Hour) }
		_, err := late.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestFromQuote(t *testing.T) {
	q, err := pricing.NewEngine(nil).Quote(pricing.WindowSpec{Width: 48, Height: 36, GlassType: "double"})
	require.NoError(t, err)

	p := FromQuote(q)
	assert.Equal(t, "landscape", p.Orientation)
	assert.Equal(t, 1.33, p.AspectRatio)
	assert.Equal(t, 216.0, p.Price)
	assert.Equal(t, "vinyl", p.FrameMaterial)
	assert.NotNil(t, p.Options)

	q.Spec.Width, q.Spec.Height = 36, 36
	assert.Equal(t, "square", FromQuote(q).Orientation)
	q.Spec.Height = 60
	assert.Equal(t, "portrait", FromQuote(q).Orientation)
}

func TestQRCode(t *testing.T) {
	data, err := QRCode("https://windows.example.com/preview/abc", 0)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, DefaultQRSize, img.Bounds().Dx())

	data, err = QRCode("x", 5000)
	require.NoError(t, err)
	img, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, MaxQRSize, img.Bounds().Dx())
}
