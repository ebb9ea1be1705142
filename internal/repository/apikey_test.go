//go:build integration

package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbase/quillbase/internal/domain"
	"github.com/quillbase/quillbase/internal/testutil"
)

func hashFor(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func TestAPIKeyRepository_CreateAndGetByHash(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAPIKeyRepository(pool)

	key := &domain.APIKey{
		ID:        uuid.NewString(),
		UserID:    "alice",
		KeyHash:   hashFor("qb_sometoken"),
		Admin:     true,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.Create(ctx, key))

	got, err := repo.GetByHash(ctx, hashFor("qb_sometoken"))
	require.NoError(t, err)
	assert.Equal(t, key.ID, got.ID)
	assert.Equal(t, "alice", got.UserID)
	assert.True(t, got.Admin)
}

func TestAPIKeyRepository_GetByHash_Unknown(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAPIKeyRepository(pool)

	_, err := repo.GetByHash(ctx, hashFor("qb_neverissued"))
	assert.ErrorIs(t, err, domain.ErrInvalidAPIKey)
}

func TestAPIKeyRepository_DuplicateHashRejected(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewAPIKeyRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	first := &domain.APIKey{ID: uuid.NewString(), UserID: "alice", KeyHash: hashFor("qb_dup"), CreatedAt: now}
	require.NoError(t, repo.Create(ctx, first))

	second := &domain.APIKey{ID: uuid.NewString(), UserID: "bob", KeyHash: hashFor("qb_dup"), CreatedAt: now}
	assert.Error(t, repo.Create(ctx, second))
}
