package session

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agrilink/agrilink/internal/users"
)

// CookieName is the session cookie set after a successful login.
const CookieName = "agrilink_session"

const ctxCaller = "agrilink_caller"

// callerSource loads fresh account state for a verified token subject.
// Satisfied by *users.Service.
type callerSource interface {
	GetByOpenID(ctx context.Context, openID string) (*users.User, error)
}

// ResolveCaller returns a Gin middleware that resolves the calling user from a
// Bearer token or the session cookie. Resolution is best effort: requests with
// no token, an invalid token, or an unknown subject proceed anonymously, and
// each procedure's guard chain decides whether that is acceptable.
func ResolveCaller(tokens *Issuer, src callerSource, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			tokenStr, _ = c.Cookie(CookieName)
		}
		if tokenStr == "" {
			c.Next()
			return
		}

		openID, err := tokens.Verify(tokenStr)
		if err != nil {
			c.Next()
			return
		}

		u, err := src.GetByOpenID(c.Request.Context(), openID)
		if err != nil {
			logger.Debug("session subject not resolvable", zap.Error(err))
			c.Next()
			return
		}
		if !u.IsActive {
			c.Next()
			return
		}

		c.Set(ctxCaller, u)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// CallerFromCtx retrieves the user injected by ResolveCaller. Returns nil for
// anonymous requests.
func CallerFromCtx(c *gin.Context) *users.User {
	v, _ := c.Get(ctxCaller)
	u, _ := v.(*users.User)
	return u
}
