package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteops/alertdesk/internal/domain"
	"github.com/siteops/alertdesk/internal/repository"
	apperrors "github.com/siteops/alertdesk/pkg/util/errorutil"
)

func TestUserAdministration(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()
	admin := h.seedUser(t, "admin", domain.RoleAdmin, true)
	ops := h.seedUser(t, "ops", domain.RoleOps, true)

	_, err := h.users.Create(ctx, ops, UserCreateInput{Name: "X", Email: "x@example.com", Password: "long-enough", Role: domain.RoleOps})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = h.users.Create(ctx, admin, UserCreateInput{Name: "X", Email: "x@example.com", Password: "long-enough", Role: "ROOT"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	analyst, err := h.users.Create(ctx, admin, UserCreateInput{Name: "Ana", Email: "Ana@Example.com", Password: "long-enough", Role: domain.RoleAnalyst})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", analyst.Email)
	assert.True(t, analyst.IsActive)

	_, err = h.users.Create(ctx, admin, UserCreateInput{Name: "Ana", Email: "ana@example.com", Password: "long-enough", Role: domain.RoleAnalyst})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	inactive := false
	updated, err := h.users.Update(ctx, admin, analyst.ID, UserPatch{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	_, err = h.users.Update(ctx, admin, admin.ID, UserPatch{IsActive: &inactive})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
	viewer := domain.RoleViewer
	_, err = h.users.Update(ctx, admin, admin.ID, UserPatch{Role: &viewer})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	active := true
	users, total, err := h.users.List(ctx, admin, repository.UserFilter{Active: &active})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, users, 2)

	_, err = h.users.Get(ctx, admin, "missing")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}
