package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/alertdesk/internal/domain"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

func TestRegisterCreatesViewer(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	session, err := h.auth.Register(ctx, RegisterInput{Name: "Dana", Email: "Dana@Example.com", Password: "long-enough"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleViewer, session.User.Role)
	assert.Equal(t, "dana@example.com", session.User.Email)
	assert.NotEmpty(t, session.Tokens.AccessToken)
	assert.NotEmpty(t, session.Tokens.RefreshToken)

	_, err = h.auth.Register(ctx, RegisterInput{Name: "Dana", Email: "dana@example.com", Password: "long-enough"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	_, err = h.auth.Register(ctx, RegisterInput{Name: "", Email: "not-an-email", Password: "short"})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, apperrors.CodeValidation, domainErr.Code)
	assert.Contains(t, domainErr.Details, "name")
	assert.Contains(t, domainErr.Details, "email")
	assert.Contains(t, domainErr.Details, "password")
}

func TestLogin(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	ops := h.seedUser(t, "ops", domain.RoleOps, true)
	h.seedUser(t, "idle", domain.RoleOps, false)

	_, err := h.auth.Login(ctx, "ops@example.com", "wrong")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = h.auth.Login(ctx, "nobody@example.com", "correct-horse")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = h.auth.Login(ctx, "idle@example.com", "correct-horse")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	h.clock.Advance(time.Hour)
	session, err := h.auth.Login(ctx, " OPS@example.com ", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, ops.ID, session.User.ID)

	stored, err := h.repos.Users.GetByID(ctx, ops.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.Equal(t, t0.Add(time.Hour), *stored.LastLoginAt)
}

func TestRefresh(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	h.seedUser(t, "ops", domain.RoleOps, true)

	session, err := h.auth.Login(ctx, "ops@example.com", "correct-horse")
	require.NoError(t, err)

	refreshed, err := h.auth.Refresh(ctx, session.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, refreshed.User.ID)

	_, err = h.auth.Refresh(ctx, session.Tokens.AccessToken)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	_, err = h.auth.Refresh(ctx, "garbage")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestChangePassword(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	ops := h.seedUser(t, "ops", domain.RoleOps, true)

	err := h.auth.ChangePassword(ctx, ops.ID, "wrong", "new-password")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
	err = h.auth.ChangePassword(ctx, ops.ID, "correct-horse", "short")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	require.NoError(t, h.auth.ChangePassword(ctx, ops.ID, "correct-horse", "new-password"))
	_, err = h.auth.Login(ctx, "ops@example.com", "correct-horse")
	assert.Error(t, err)
	_, err = h.auth.Login(ctx, "ops@example.com", "new-password")
	assert.NoError(t, err)

	profile, err := h.auth.Profile(ctx, ops.ID)
	require.NoError(t, err)
	assert.Equal(t, "ops", profile.Name)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	require.NoError(t, h.auth.EnsureAdmin(ctx, "root@example.com", "bootstrap-pass"))
	require.NoError(t, h.auth.EnsureAdmin(ctx, "ROOT@example.com", "other-pass"))
	require.NoError(t, h.auth.EnsureAdmin(ctx, "", ""))

	admin, err := h.repos.Users.GetByEmail(ctx, "root@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	_, err = h.auth.Login(ctx, "root@example.com", "bootstrap-pass")
	assert.NoError(t, err)
}
