package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"ragdash/internal/model"
)

const maxRecentLimit = 100

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Migrate creates or updates the activity table.
func (r *ActivityRepository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&model.ActivityEvent{}); err != nil {
		return fmt.Errorf("migrate activity events failed: %w", err)
	}
	return nil
}

// Record stores the event directly. It satisfies the same interface as the
// queue publisher so the pipeline can run without a broker.
func (r *ActivityRepository) Record(ctx context.Context, event model.ActivityEvent) error {
	return r.Create(ctx, &event)
}

func (r *ActivityRepository) Create(ctx context.Context, event *model.ActivityEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create activity event failed: %w", err)
	}
	return nil
}

func (r *ActivityRepository) CountByKind(ctx context.Context, kind model.ActivityKind) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.ActivityEvent{}).Where("kind = ?", kind).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count activity events failed: %w", err)
	}
	return count, nil
}

func (r *ActivityRepository) ListSince(ctx context.Context, kind model.ActivityKind, since time.Time) ([]model.ActivityEvent, error) {
	var events []model.ActivityEvent
	if err := r.db.WithContext(ctx).
		Where("kind = ? AND created_at >= ?", kind, since).
		Order("created_at ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list activity events failed: %w", err)
	}
	return events, nil
}

func (r *ActivityRepository) Recent(ctx context.Context, kind model.ActivityKind, limit int) ([]model.ActivityEvent, error) {
	if limit <= 0 || limit > maxRecentLimit {
		limit = 10
	}
	var events []model.ActivityEvent
	if err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("list recent activity failed: %w", err)
	}
	return events, nil
}
