package repository

import (
	"context"

	"caribepos/internal/dto"
	"caribepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateTx(ctx context.Context, tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, reason *string) (int64, error)
	List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(ctx context.Context, tx *gorm.DB, s *model.Sale) error {
	// Lines and Payments are created in the same insert via gorm associations
	return tx.WithContext(ctx).Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).Preload("Lines.Product").Preload("Payments").First(&s, "id = ?", id).Error
	return &s, err
}

// UpdateStatusTx flips a completed sale to the given status. The WHERE guard on
// the current status makes the transition race-safe: rows==0 means somebody
// else got there first.
func (r *saleRepo) UpdateStatusTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, status string, reason *string) (int64, error) {
	res := tx.WithContext(ctx).Model(&model.Sale{}).
		Where("id = ? AND status = ?", id, model.SaleCompleted).
		Updates(map[string]interface{}{"status": status, "void_reason": reason})
	return res.RowsAffected, res.Error
}

func (r *saleRepo) List(ctx context.Context, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Sale{})

	if filter.ShiftID != "" {
		q = q.Where("shift_id = ?", filter.ShiftID)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Date != "" {
		q = q.Where("DATE(created_at) = ?", filter.Date)
	} else if filter.ShiftID == "" {
		// Default: today
		q = q.Where("DATE(created_at) = CURRENT_DATE")
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Lines.Product").Preload("Payments").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}
