package handlers

import (
	"strings"

	"github.com/gin-gonic/gin"

	iauth "github.com/ndlovu-dev/inkwell/internal/auth"
	"github.com/ndlovu-dev/inkwell/internal/middleware"
	"github.com/ndlovu-dev/inkwell/internal/realtime"
	"github.com/ndlovu-dev/inkwell/pkg/errors"
	"github.com/ndlovu-dev/inkwell/pkg/response"
)

// RealtimeHandler upgrades HTTP connections into authenticated WebSocket streams.
type RealtimeHandler struct {
	hub   *realtime.Hub
	authn *iauth.Authenticator
}

// NewRealtimeHandler constructs a realtime handler.
func NewRealtimeHandler(hub *realtime.Hub, authn *iauth.Authenticator) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, authn: authn}
}

// Stream validates the caller and hands the connection to the hub. Browsers
// cannot set headers on websocket requests, so the token is also accepted as
// a query parameter.
func (h *RealtimeHandler) Stream(c *gin.Context) {
	if h.hub == nil || h.authn == nil {
		response.Error(c, errors.ErrNotFound)
		return
	}

	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		token = middleware.BearerToken(c)
	}
	if token == "" {
		response.Error(c, errors.ErrUnauthenticated)
		return
	}

	user, err := h.authn.Authenticate(requestContext(c), token)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.hub.Serve(user.ID, user.Username, c.Writer, c.Request)
}
