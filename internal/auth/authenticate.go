package auth

import (
	"context"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

// Authenticate resolves an access token to an active user. It is shared by the
// HTTP middleware and the websocket gateway.
func (m *AuthMiddleware) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, apperrors.NewUnauthorized("missing token")
	}
	claims, err := m.tokens.ParseToken(token, domain.TokenTypeAccess)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	if !user.IsActive {
		return nil, apperrors.NewUnauthorized("user is inactive")
	}
	return user, nil
}
