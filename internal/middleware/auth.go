package middleware

import (
	"strings"

	"literature-manager/internal/auth"
	"literature-manager/internal/errors"

	"github.com/gin-gonic/gin"
)

type Auth struct {
	Tokens *auth.TokenIssuer
}

// AuthMiddleWare rejects requests without a valid bearer token.
func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		if authHeader == "" {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		subject, err := m.Tokens.Verify(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		ctx.Set("subject", subject)
		ctx.Next()
	}
}
