package middlewares

import (
	"log"
	"net/http"
	"os"
	"strings"

	"festpass/src/db"
	"festpass/src/models"
	"festpass/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

// AuthMiddleware resolves the bearer token issued by the identity provider
// into a local user row. The row is provisioned on first sight; this
// service never issues credentials itself.
func AuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	parts := strings.SplitN(bearerToken, " ", 2)
	if len(parts) != 2 || parts[1] == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	reqToken := parts[1]
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return jwtKey, nil
	})
	if err != nil {
		log.Printf("token error: %s\n", err.Error())
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	if !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	uid := claims.UID
	if uid == "" {
		uid = claims.Subject
	}
	if uid == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	db := db.GetDb()
	var user models.User
	if err := db.
		Where(&models.User{UID: uid}).
		Attrs(&models.User{Email: claims.Email, Name: claims.Name}).
		FirstOrCreate(&user).
		Error; err != nil {
		log.Printf("Error provisioning user for claim %s: %s\n", uid, err.Error())
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ctx.Set("id", user.ID)
	ctx.Set("uid", user.UID)
	ctx.Set("email", user.Email)
	ctx.Set("name", user.Name)
}
