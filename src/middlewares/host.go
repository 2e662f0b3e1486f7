package middlewares

import (
	"crypto/subtle"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
)

// HostMiddleware gates the front-of-house scanning endpoints. Scanners are
// not logged-in users; they hold a shared key provisioned per venue.
func HostMiddleware(ctx *gin.Context) {
	expected := os.Getenv("HOST_API_KEY")
	if expected == "" {
		ctx.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}
	supplied := ctx.GetHeader("X-Host-Key")
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
		ctx.AbortWithStatus(http.StatusForbidden)
		return
	}
}
