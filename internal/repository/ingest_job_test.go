//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillbase/quillbase/internal/domain"
	"github.com/quillbase/quillbase/internal/testutil"
)

func createTestJob(ctx context.Context, t *testing.T, docs *DocumentRepository, jobs *IngestJobRepository, createdAt time.Time) *domain.IngestJob {
	doc := createTestDocument(ctx, t, docs, "Doc")
	job := domain.NewIngestJob(uuid.NewString(), doc.ID, createdAt)
	require.NoError(t, jobs.Create(ctx, job))
	return job
}

func TestIngestJobRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docs := NewDocumentRepository(pool)
	jobs := NewIngestJobRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	job := createTestJob(ctx, t, docs, jobs, now)

	got, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, job.DocumentID, got.DocumentID)
	assert.Equal(t, domain.IngestJobStatusPending, got.Status)
	assert.Equal(t, int32(0), got.Retries)
	assert.Nil(t, got.ProcessedAt)
}

func TestIngestJobRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	jobs := NewIngestJobRepository(pool)

	_, err := jobs.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestIngestJobRepository_ClaimPending(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docs := NewDocumentRepository(pool)
	jobs := NewIngestJobRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	first := createTestJob(ctx, t, docs, jobs, now.Add(-time.Minute))
	second := createTestJob(ctx, t, docs, jobs, now)

	claimed, err := jobs.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	for _, job := range claimed {
		assert.Equal(t, domain.IngestJobStatusProcessing, job.Status)
	}
	ids := []string{claimed[0].ID, claimed[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)

	// everything is processing now, a second claim finds nothing
	claimed, err = jobs.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestIngestJobRepository_ClaimPending_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docs := NewDocumentRepository(pool)
	jobs := NewIngestJobRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		createTestJob(ctx, t, docs, jobs, now.Add(time.Duration(i)*time.Second))
	}

	claimed, err := jobs.ClaimPending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, claimed, 2)

	claimed, err = jobs.ClaimPending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, claimed, 1)
}

func TestIngestJobRepository_UpdateJobStatus(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docs := NewDocumentRepository(pool)
	jobs := NewIngestJobRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	job := createTestJob(ctx, t, docs, jobs, now)

	require.NoError(t, jobs.UpdateJobStatus(ctx, job.ID, domain.IngestJobStatusFailed, domain.IngestStageEmbed, "rate limited"))

	got, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.IngestJobStatusFailed, got.Status)
	assert.Equal(t, domain.IngestStageEmbed, got.Stage)
	assert.Equal(t, "rate limited", got.Error)
	require.NotNil(t, got.ProcessedAt)

	assert.ErrorIs(t,
		jobs.UpdateJobStatus(ctx, uuid.NewString(), domain.IngestJobStatusCompleted, "", ""),
		domain.ErrJobNotFound)
}

func TestIngestJobRepository_IncrementRetries(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docs := NewDocumentRepository(pool)
	jobs := NewIngestJobRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	job := createTestJob(ctx, t, docs, jobs, now)

	require.NoError(t, jobs.IncrementRetries(ctx, job.ID))
	require.NoError(t, jobs.IncrementRetries(ctx, job.ID))

	got, err := jobs.GetByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(2), got.Retries)

	assert.ErrorIs(t, jobs.IncrementRetries(ctx, uuid.NewString()), domain.ErrJobNotFound)
}

func TestIngestJobRepository_DeleteDocumentCascadesJobs(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	docs := NewDocumentRepository(pool)
	jobs := NewIngestJobRepository(pool)

	now := time.Now().UTC().Truncate(time.Microsecond)
	job := createTestJob(ctx, t, docs, jobs, now)

	require.NoError(t, docs.Delete(ctx, job.DocumentID))

	_, err := jobs.GetByID(ctx, job.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}
