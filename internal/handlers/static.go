package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

// SPA sert les fichiers de publicDir et renvoie index.html pour toute autre route GET,
// pour laisser le routage au client.
func SPA(publicDir string) gin.HandlerFunc {
	index := filepath.Join(publicDir, "index.html")

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			respondError(c, http.StatusNotFound, "not found")
			return
		}

		rel := path.Clean("/" + c.Request.URL.Path)
		if rel != "/" && rel != "/index.html" {
			full := filepath.Join(publicDir, filepath.FromSlash(rel))
			if info, err := os.Stat(full); err == nil && !info.IsDir() {
				c.File(full)
				return
			}
		}
		c.File(index)
	}
}
