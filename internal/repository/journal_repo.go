package repository

import (
	"context"
	"time"

	"caribepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JournalRepository interface {
	Create(ctx context.Context, e *model.JournalEntry) error
	Update(ctx context.Context, e *model.JournalEntry) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error)
	FindBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) (*model.JournalEntry, error)
	MarkError(ctx context.Context, id uuid.UUID, errMsg string, nextRetry time.Time) error
	ListRetryable(ctx context.Context, maxRetries int, limit int) ([]model.JournalEntry, error)
	List(ctx context.Context, status string, page, limit int) ([]model.JournalEntry, int64, error)
}

type journalRepo struct{ db *gorm.DB }

func NewJournalRepository(db *gorm.DB) JournalRepository { return &journalRepo{db: db} }

func (r *journalRepo) Create(ctx context.Context, e *model.JournalEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// Update saves the entry and upserts its lines.
func (r *journalRepo) Update(ctx context.Context, e *model.JournalEntry) error {
	return r.db.WithContext(ctx).Session(&gorm.Session{FullSaveAssociations: true}).Save(e).Error
}

func (r *journalRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.JournalEntry, error) {
	var e model.JournalEntry
	err := r.db.WithContext(ctx).Preload("Lines").First(&e, "id = ?", id).Error
	return &e, err
}

// FindBySource is the idempotency check: one journal entry per source event.
func (r *journalRepo) FindBySource(ctx context.Context, sourceType string, sourceID uuid.UUID) (*model.JournalEntry, error) {
	var e model.JournalEntry
	err := r.db.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		First(&e).Error
	return &e, err
}

func (r *journalRepo) MarkError(ctx context.Context, id uuid.UUID, errMsg string, nextRetry time.Time) error {
	return r.db.WithContext(ctx).Model(&model.JournalEntry{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":        model.JournalError,
			"retry_count":   gorm.Expr("retry_count + 1"),
			"last_error":    errMsg,
			"next_retry_at": nextRetry,
		}).Error
}

func (r *journalRepo) ListRetryable(ctx context.Context, maxRetries int, limit int) ([]model.JournalEntry, error) {
	var entries []model.JournalEntry
	err := r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ? AND next_retry_at <= NOW()", model.JournalError, maxRetries).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *journalRepo) List(ctx context.Context, status string, page, limit int) ([]model.JournalEntry, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.JournalEntry{})
	if status != "" && status != "all" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var entries []model.JournalEntry
	err := q.Preload("Lines").
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&entries).Error
	return entries, total, err
}
