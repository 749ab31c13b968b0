package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ndlovu-dev/inkwell/internal/models"
	apperrors "github.com/ndlovu-dev/inkwell/pkg/errors"
	"github.com/ndlovu-dev/inkwell/pkg/metrics"
)

// Authenticator resolves an opaque bearer token to a live user identity. It is
// stateless apart from one durable read confirming the identity still exists.
// Malformed, expired, and unknown-identity tokens all resolve to the same
// Unauthenticated result rather than distinct failures.
type Authenticator struct {
	db  *gorm.DB
	jwt *JWTService
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(db *gorm.DB, jwt *JWTService) (*Authenticator, error) {
	if db == nil {
		return nil, errors.New("authenticator: db is required")
	}
	if jwt == nil {
		return nil, errors.New("authenticator: jwt service is required")
	}
	return &Authenticator{db: db, jwt: jwt}, nil
}

// Authenticate validates the token and loads the user it identifies.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrUnauthenticated
	}

	claims, err := a.jwt.ValidateAccessToken(token)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrUnauthenticated.WithInternal(err)
	}

	var user models.User
	err = a.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// Token outlived the account.
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrUnauthenticated.WithInternal(err)
	case err != nil:
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrStorage.WithInternal(err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return &user, nil
}
