package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/ndlovu-dev/inkwell/internal/auth"
	"github.com/ndlovu-dev/inkwell/internal/models"
	"github.com/ndlovu-dev/inkwell/pkg/errors"
	"github.com/ndlovu-dev/inkwell/pkg/response"
)

const (
	CtxUserKey   = "authUser"
	CtxUserIDKey = "userID"
	CtxHandleKey = "userHandle"
)

// BearerToken extracts the bearer token from the Authorization header, or the
// access_token query parameter as a fallback for websocket clients that
// cannot set headers.
func BearerToken(c *gin.Context) string {
	authz := c.GetHeader("Authorization")
	if len(authz) >= 8 && strings.EqualFold(authz[:7], "Bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return strings.TrimSpace(c.Query("access_token"))
}

// Auth resolves the bearer token to a live user and stores the identity in
// the request context. Requests without a valid identity are rejected with
// 401 before reaching the handler.
func Auth(authn *iauth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, errors.ErrUnauthenticated)
			c.Abort()
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			if errors.FromError(err).Code == errors.ErrUnauthenticated.Code {
				c.Header("WWW-Authenticate", "Bearer")
			}
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxUserKey, user)
		c.Set(CtxUserIDKey, user.ID)
		c.Set(CtxHandleKey, user.Username)

		c.Next()
	}
}

// CurrentUser returns the authenticated user stored by Auth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok
}
