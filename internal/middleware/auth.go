package middleware

import (
	"context"
	"errors"
	"net/http"

	"condo-whatsapp/internal/auth"

	"github.com/gin-gonic/gin"
)

const (
	UserKey   = "user"
	UserIDKey = "userID"
)

// Authenticator resolves an Authorization header to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, header string) (*auth.User, error)
}

// Auth rejects requests without a valid bearer token before any work is
// done. The resolved user is stored under UserKey.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := a.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrMissingToken):
				abort(c, http.StatusUnauthorized, "unauthorized", "Token de autenticação ausente")
			case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrUnknownUser):
				LoggerFrom(c).Warn().Err(err).Msg("authentication failed")
				abort(c, http.StatusUnauthorized, "unauthorized", "Token inválido ou expirado")
			default:
				LoggerFrom(c).Error().Err(err).Msg("authentication lookup failed")
				abort(c, http.StatusInternalServerError, "internal_error", InternalErrorMessage)
			}
			return
		}
		c.Set(UserKey, u)
		c.Set(UserIDKey, u.ID)
		c.Next()
	}
}

// UserFrom returns the authenticated user, nil on public routes.
func UserFrom(c *gin.Context) *auth.User {
	if v, ok := c.Get(UserKey); ok {
		if u, ok := v.(*auth.User); ok {
			return u
		}
	}
	return nil
}

func abort(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success":    false,
		"error":      msg,
		"code":       code,
		"request_id": RequestIDFrom(c),
	})
}
