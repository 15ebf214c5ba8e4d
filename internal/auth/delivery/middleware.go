package delivery

import (
	"context"
	"strings"

	authdomain "ireporter-backend/internal/auth/domain"
	"ireporter-backend/internal/auth/token"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is the gin context key holding the verified *token.Claims.
const ClaimsKey = "claims"

// AccessTokenMiddleware admits requests bearing a valid access token. The
// denylist is checked by the handler's own storage session. Rejections are
// counted under operation.
func (h *AuthHandler) AccessTokenMiddleware(operation string) gin.HandlerFunc {
	return h.bearerMiddleware(operation, h.authUsecase.VerifyAccessToken)
}

// RefreshTokenMiddleware admits requests bearing a valid refresh token.
func (h *AuthHandler) RefreshTokenMiddleware(operation string) gin.HandlerFunc {
	return h.bearerMiddleware(operation, h.authUsecase.VerifyRefreshToken)
}

// FreshTokenMiddleware must follow AccessTokenMiddleware. It rejects access
// tokens minted by a refresh exchange.
func (h *AuthHandler) FreshTokenMiddleware(operation string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := claimsFrom(c)
		if !ok || !claims.Fresh {
			h.fail(c, operation, authdomain.AuthenticationError(authdomain.MsgFreshTokenRequired, nil))
			return
		}
		c.Next()
	}
}

func (h *AuthHandler) bearerMiddleware(operation string, verify func(ctx context.Context, raw string) (*token.Claims, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			h.fail(c, operation, authdomain.AuthenticationError(authdomain.MsgMissingToken, nil))
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			h.fail(c, operation, authdomain.AuthenticationError(authdomain.MsgInvalidToken, nil))
			return
		}

		claims, err := verify(c.Request.Context(), parts[1])
		if err != nil {
			h.fail(c, operation, err)
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

func claimsFrom(c *gin.Context) (*token.Claims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*token.Claims)
	return claims, ok
}
