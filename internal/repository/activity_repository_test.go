package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"ragdash/internal/model"
)

func newTestRepo(t *testing.T) *ActivityRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	repo := NewActivityRepository(db)
	require.NoError(t, repo.Migrate(context.Background()))
	return repo
}

func TestActivityRepository(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 10, 9, 0, 0, 0, time.UTC)

	for i, subject := range []string{"first", "second", "third"} {
		require.NoError(t, repo.Record(ctx, model.ActivityEvent{
			Kind:      model.ActivityQuery,
			Status:    model.ActivitySuccess,
			Subject:   subject,
			SessionID: "12",
			CreatedAt: base.Add(time.Duration(i) * 24 * time.Hour),
		}))
	}
	require.NoError(t, repo.Record(ctx, model.ActivityEvent{Kind: model.ActivityUpload, Status: model.ActivitySuccess, Subject: "a.pdf"}))

	count, err := repo.CountByKind(ctx, model.ActivityQuery)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	since, err := repo.ListSince(ctx, model.ActivityQuery, base.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, "second", since[0].Subject)

	recent, err := repo.Recent(ctx, model.ActivityQuery, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "third", recent[0].Subject)
	assert.Equal(t, "second", recent[1].Subject)

	uploads, err := repo.Recent(ctx, model.ActivityUpload, 0)
	require.NoError(t, err)
	require.Len(t, uploads, 1)
	assert.False(t, uploads[0].CreatedAt.IsZero())
}
