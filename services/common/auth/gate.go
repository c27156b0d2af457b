package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/yashrajoria/laptop-admin/backend/services/common/errors"
	"github.com/yashrajoria/laptop-admin/backend/services/common/logger"
	"go.uber.org/zap"
)

var (
	ErrNoSession     = apperrors.Unauthorized("Please log in")
	ErrAdminRequired = apperrors.Unauthorized("Admin access required")
)

// Authorize decides access from the resolved identity alone. Both failure
// modes answer 401; they differ in message and in the audit reason.
func Authorize(ac Context, required Role) *apperrors.Error {
	if !ac.Authenticated() {
		return ErrNoSession
	}
	if required == RoleAdmin && ac.Role != RoleAdmin {
		return ErrAdminRequired
	}
	return nil
}

// HandlerFunc is a gin handler that receives the caller's identity.
type HandlerFunc func(c *gin.Context, ac Context)

// Resolver turns a request into an identity.
type Resolver interface {
	Resolve(r *http.Request) Context
}

// Gate resolves the identity once, applies Authorize and only then calls h.
func Gate(resolver Resolver, required Role, h HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac := resolver.Resolve(c.Request)
		if err := Authorize(ac, required); err != nil {
			reason := "insufficient_role"
			if err == ErrNoSession {
				reason = "no_session"
			}
			logger.Warn(c, "Authorization denied",
				zap.String("reason", reason),
				zap.String("method", c.Request.Method),
				zap.String("path", c.FullPath()),
				zap.String("user_id", ac.UserID),
			)
			apperrors.Abort(c, err)
			return
		}
		h(c, ac)
	}
}
