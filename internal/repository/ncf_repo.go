package repository

import (
	"context"
	"errors"

	"caribepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoSequence is returned when no active sequence row matches (store, type).
// The service layer translates it into its own sentinel.
var ErrNoSequence = errors.New("ncf sequence not found")

// ErrExhausted is returned when the sequence reached its authorized end.
var ErrExhausted = errors.New("ncf sequence exhausted")

type NcfRepository interface {
	// ReserveNext atomically reads and increments the sequence inside tx,
	// holding a row lock for the duration. Returns the pre-increment number.
	// The sequence row is NOT mutated on the exhausted path.
	ReserveNext(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, typeCode string) (*model.NcfSequence, int64, error)
	Create(ctx context.Context, seq *model.NcfSequence) error
	Update(ctx context.Context, seq *model.NcfSequence) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.NcfSequence, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.NcfSequence, error)
	DB() *gorm.DB
}

type ncfRepo struct{ db *gorm.DB }

func NewNcfRepository(db *gorm.DB) NcfRepository { return &ncfRepo{db: db} }

func (r *ncfRepo) DB() *gorm.DB { return r.db }

func (r *ncfRepo) ReserveNext(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, typeCode string) (*model.NcfSequence, int64, error) {
	var seq model.NcfSequence
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("store_id = ? AND type_code = ? AND active = true", storeID, typeCode).
		First(&seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, ErrNoSequence
	}
	if err != nil {
		return nil, 0, err
	}

	// EndNumber marks the first number beyond the authorized range
	if seq.EndNumber != nil && seq.NextNumber >= *seq.EndNumber {
		return nil, 0, ErrExhausted
	}

	reserved := seq.NextNumber
	if err := tx.WithContext(ctx).Model(&model.NcfSequence{}).
		Where("id = ?", seq.ID).
		Update("next_number", gorm.Expr("next_number + 1")).Error; err != nil {
		return nil, 0, err
	}
	seq.NextNumber = reserved + 1
	return &seq, reserved, nil
}

func (r *ncfRepo) Create(ctx context.Context, seq *model.NcfSequence) error {
	return r.db.WithContext(ctx).Create(seq).Error
}

func (r *ncfRepo) Update(ctx context.Context, seq *model.NcfSequence) error {
	return r.db.WithContext(ctx).Save(seq).Error
}

func (r *ncfRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.NcfSequence, error) {
	var seq model.NcfSequence
	err := r.db.WithContext(ctx).First(&seq, id).Error
	return &seq, err
}

func (r *ncfRepo) ListByStore(ctx context.Context, storeID uuid.UUID) ([]model.NcfSequence, error) {
	var seqs []model.NcfSequence
	err := r.db.WithContext(ctx).Where("store_id = ?", storeID).Order("type_code ASC").Find(&seqs).Error
	return seqs, err
}
