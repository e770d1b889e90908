package repository

import (
	"context"

	"caribepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DenominationRepository interface {
	Create(ctx context.Context, d *model.CashDenomination) error
	Update(ctx context.Context, d *model.CashDenomination) error
	List(ctx context.Context, currencyCode string) ([]model.CashDenomination, error)
	// FindByIDs loads denominations in bulk for count validation.
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.CashDenomination, error)
}

type denominationRepo struct{ db *gorm.DB }

func NewDenominationRepository(db *gorm.DB) DenominationRepository {
	return &denominationRepo{db: db}
}

func (r *denominationRepo) Create(ctx context.Context, d *model.CashDenomination) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *denominationRepo) Update(ctx context.Context, d *model.CashDenomination) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *denominationRepo) List(ctx context.Context, currencyCode string) ([]model.CashDenomination, error) {
	var denoms []model.CashDenomination
	q := r.db.WithContext(ctx).Where("active = true")
	if currencyCode != "" {
		q = q.Where("currency_code = ?", currencyCode)
	}
	err := q.Order("currency_code ASC, position ASC").Find(&denoms).Error
	return denoms, err
}

func (r *denominationRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]model.CashDenomination, error) {
	var denoms []model.CashDenomination
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&denoms).Error; err != nil {
		return nil, err
	}
	result := make(map[uuid.UUID]model.CashDenomination, len(denoms))
	for _, d := range denoms {
		result[d.ID] = d
	}
	return result, nil
}
