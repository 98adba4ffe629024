//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_GetUserAndPermissions(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	truncateTables(t, testDB)
	f := seed(t, testDB)
	userRepo := NewUserRepository(testDB, logger)
	ctx := context.Background()

	_, err := testDB.Exec("INSERT INTO user_permissions (user_id, permission) VALUES ($1, $2), ($1, $3)",
		f.other, domain.PermAddonsReview, domain.PermAddonsEdit)
	require.NoError(t, err)

	user, err := userRepo.GetUser(ctx, f.reviewer)
	require.NoError(t, err)
	assert.Equal(t, "reviewer", user.Username)
	assert.Equal(t, "reviewer@example.com", user.Email)

	perms, err := userRepo.GetPermissions(ctx, f.other)
	require.NoError(t, err)
	assert.Equal(t, []string{domain.PermAddonsEdit, domain.PermAddonsReview}, perms)

	perms, err = userRepo.GetPermissions(ctx, f.reviewer)
	require.NoError(t, err)
	assert.Empty(t, perms)

	_, err = userRepo.GetUser(ctx, 424242)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
