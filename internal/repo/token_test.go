package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"postboard/internal/httperr"
	"postboard/internal/models"
)

func TestTokenRepoUpsertKeepsSingleRecord(t *testing.T) {
	gdb := initTestDB(t)
	r := &TokenRepo{DB: gdb}
	ctx := context.Background()
	user := seedUser(t, gdb, "a@example.com", models.RoleUser)

	exp := time.Now().Add(time.Hour)
	_, err := r.Upsert(ctx, user.ID, models.TokenClassRefresh, "hash-1", &exp)
	require.NoError(t, err)

	_, err = r.Upsert(ctx, user.ID, models.TokenClassRefresh, "hash-2", &exp)
	require.NoError(t, err)

	var count int64
	require.NoError(t, gdb.Model(&models.RefreshToken{}).Count(&count).Error)
	require.EqualValues(t, 1, count)

	record, err := r.Get(ctx, user.ID, models.TokenClassRefresh)
	require.NoError(t, err)
	require.Equal(t, "hash-2", record.SignatureHash)
}

func TestTokenRepoGetMissing(t *testing.T) {
	gdb := initTestDB(t)
	r := &TokenRepo{DB: gdb}

	_, err := r.Get(context.Background(), 999, models.TokenClassRefresh)
	require.ErrorIs(t, err, httperr.ErrNotFound)
}

func TestTokenRepoRotate(t *testing.T) {
	gdb := initTestDB(t)
	r := &TokenRepo{DB: gdb}
	ctx := context.Background()
	user := seedUser(t, gdb, "a@example.com", models.RoleUser)

	exp := time.Now().Add(time.Hour)
	_, err := r.Upsert(ctx, user.ID, models.TokenClassRefresh, "old-hash", &exp)
	require.NoError(t, err)

	require.NoError(t, r.Rotate(ctx, user.ID, models.TokenClassRefresh, "old-hash", "new-hash", &exp))

	record, err := r.Get(ctx, user.ID, models.TokenClassRefresh)
	require.NoError(t, err)
	require.Equal(t, "new-hash", record.SignatureHash)

	// A second rotation from the already-replaced hash must lose.
	err = r.Rotate(ctx, user.ID, models.TokenClassRefresh, "old-hash", "other-hash", &exp)
	require.ErrorIs(t, err, httperr.ErrStaleRefreshToken)

	record, err = r.Get(ctx, user.ID, models.TokenClassRefresh)
	require.NoError(t, err)
	require.Equal(t, "new-hash", record.SignatureHash)
}

func TestTokenRepoDelete(t *testing.T) {
	gdb := initTestDB(t)
	r := &TokenRepo{DB: gdb}
	ctx := context.Background()
	user := seedUser(t, gdb, "a@example.com", models.RoleUser)

	exp := time.Now().Add(time.Hour)
	_, err := r.Upsert(ctx, user.ID, models.TokenClassRefresh, "hash", &exp)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, user.ID, models.TokenClassRefresh))

	_, err = r.Get(ctx, user.ID, models.TokenClassRefresh)
	require.ErrorIs(t, err, httperr.ErrNotFound)

	// Deleting an absent record is not an error.
	require.NoError(t, r.Delete(ctx, user.ID, models.TokenClassRefresh))
}
