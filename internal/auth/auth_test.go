package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository/memory"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 15, 60)
	pair, err := tm.IssuePair(&domain.User{ID: "u1", Role: domain.RoleOps})
	require.NoError(t, err)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := tm.ParseToken(pair.AccessToken, domain.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, domain.RoleOps, claims.Role)

	_, err = tm.ParseToken(pair.RefreshToken, domain.TokenTypeAccess)
	assert.ErrorIs(t, err, ErrWrongTokenType)

	_, err = NewTokenManager("other", 15, 60).ParseToken(pair.AccessToken, domain.TokenTypeAccess)
	assert.Error(t, err)
}

func TestTokenExpiry(t *testing.T) {
	tm := NewTokenManager("secret", 1, 60)
	token, _, err := tm.GenerateToken("u1", domain.RoleViewer, domain.TokenTypeAccess)
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tm.ParseToken(token, domain.TokenTypeAccess)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "correct horse"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}

func newProtectedApp(t *testing.T, roles ...domain.UserRole) (*fiber.App, *TokenManager, *memory.UserRepository) {
	t.Helper()
	users := memory.NewUserRepository()
	tm := NewTokenManager("secret", 15, 60)
	mw := NewAuthMiddleware(tm, users)

	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		domainErr := apperrors.ToDomainError(err)
		return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
	}})
	app.Get("/private", mw.Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.SendString(principal.UserID())
	})
	return app, tm, users
}

func TestAuthMiddleware(t *testing.T) {
	app, tm, users := newProtectedApp(t, domain.RoleOps, domain.RoleAdmin)
	ctx := context.Background()

	ops := &domain.User{Email: "ops@x", Role: domain.RoleOps, IsActive: true}
	viewer := &domain.User{Email: "viewer@x", Role: domain.RoleViewer, IsActive: true}
	inactive := &domain.User{Email: "gone@x", Role: domain.RoleAdmin, IsActive: false}
	for _, u := range []*domain.User{ops, viewer, inactive} {
		require.NoError(t, users.Create(ctx, u))
	}

	tokenFor := func(u *domain.User) string {
		pair, err := tm.IssuePair(u)
		require.NoError(t, err)
		return pair.AccessToken
	}

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer abc", http.StatusUnauthorized},
		{"allowed role", "Bearer " + tokenFor(ops), http.StatusOK},
		{"forbidden role", "Bearer " + tokenFor(viewer), http.StatusForbidden},
		{"inactive user", "Bearer " + tokenFor(inactive), http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestRefreshTokenRejectedByMiddleware(t *testing.T) {
	app, tm, users := newProtectedApp(t)
	user := &domain.User{Email: "a@x", Role: domain.RoleOps, IsActive: true}
	require.NoError(t, users.Create(context.Background(), user))
	pair, err := tm.IssuePair(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer "+pair.RefreshToken)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
