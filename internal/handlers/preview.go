package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"window_calculator/internal/logger"
	"window_calculator/internal/preview"
	"window_calculator/internal/pricing"
)

type PreviewHandler struct {
	engine *pricing.Engine
	signer *preview.Signer
	log    *logger.Logger
}

func NewPreviewHandler(engine *pricing.Engine, signer *preview.Signer, log *logger.Logger) *PreviewHandler {
	return &PreviewHandler{engine: engine, signer: signer, log: log}
}

func (h *PreviewHandler) fail(c *gin.Context, err error) {
	var verr *pricing.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": verr.Error(), "field": verr.Field})
	case errors.Is(err, preview.ErrInvalidToken):
		respondError(c, http.StatusBadRequest, preview.ErrInvalidToken.Error())
	default:
		h.log.Error("❌ Preview error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not build preview")
	}
}

// 🟢 POST /api/preview
func (h *PreviewHandler) CreatePreview(c *gin.Context) {
	input, err := bindInput(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	spec, err := h.engine.ParseSpec(input)
	if err != nil {
		h.fail(c, err)
		return
	}
	quote, err := h.engine.Quote(spec)
	if err != nil {
		h.fail(c, err)
		return
	}

	token, expires, err := h.signer.Sign(quote.Spec)
	if err != nil {
		h.log.Error("❌ Preview token error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not create preview")
		return
	}

	p := preview.FromQuote(quote)
	p.Token = token
	p.ShareURL = h.signer.ShareURL(token)
	p.ExpiresAt = &expires
	c.JSON(http.StatusOK, gin.H{"success": true, "preview": p})
}

// 🟢 GET /api/preview/:token
func (h *PreviewHandler) GetPreview(c *gin.Context) {
	token := c.Param("token")
	spec, err := h.signer.Parse(token)
	if err != nil {
		h.fail(c, err)
		return
	}

	// re-chiffré avec la grille courante
	quote, err := h.engine.Quote(spec)
	if err != nil {
		h.fail(c, err)
		return
	}

	p := preview.FromQuote(quote)
	p.Token = token
	p.ShareURL = h.signer.ShareURL(token)
	c.JSON(http.StatusOK, gin.H{"success": true, "preview": p})
}

// 🟢 GET /api/preview/:token/qr.png
func (h *PreviewHandler) GetPreviewQR(c *gin.Context) {
	token := c.Param("token")
	if _, err := h.signer.Parse(token); err != nil {
		h.fail(c, err)
		return
	}

	size, _ := strconv.Atoi(c.Query("size"))
	png, err := preview.QRCode(h.signer.ShareURL(token), size)
	if err != nil {
		h.log.Error("❌ QR code error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "could not render QR code")
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "image/png", png)
}
