package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/salon-bot/internal/model"
)

type EventRepository interface {
	// Неотправленные события в порядке создания.
	FetchUnpublished(ctx context.Context, limit int) ([]model.Event, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}

type GormEventRepository struct {
	db *gorm.DB
}

func NewGormEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

func (r *GormEventRepository) FetchUnpublished(ctx context.Context, limit int) ([]model.Event, error) {
	var out []model.Event
	q := r.db.WithContext(ctx).
		Where("published_at IS NULL").
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *GormEventRepository) MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Event{}).
		Where("id IN ?", ids).
		Update("published_at", at).
		Error
}
