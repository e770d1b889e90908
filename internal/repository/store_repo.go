package repository

import (
	"context"

	"caribepos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StoreRepository interface {
	Create(ctx context.Context, s *model.Store) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error)
	List(ctx context.Context) ([]model.Store, error)
	Update(ctx context.Context, s *model.Store) error

	CreateRegister(ctx context.Context, reg *model.Register) error
	FindRegisterByID(ctx context.Context, id uuid.UUID) (*model.Register, error)
	ListRegisters(ctx context.Context, storeID uuid.UUID) ([]model.Register, error)
}

type storeRepo struct{ db *gorm.DB }

func NewStoreRepository(db *gorm.DB) StoreRepository { return &storeRepo{db: db} }

func (r *storeRepo) Create(ctx context.Context, s *model.Store) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *storeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Store, error) {
	var s model.Store
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *storeRepo) List(ctx context.Context) ([]model.Store, error) {
	var stores []model.Store
	err := r.db.WithContext(ctx).Where("active = true").Order("name ASC").Find(&stores).Error
	return stores, err
}

func (r *storeRepo) Update(ctx context.Context, s *model.Store) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *storeRepo) CreateRegister(ctx context.Context, reg *model.Register) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *storeRepo) FindRegisterByID(ctx context.Context, id uuid.UUID) (*model.Register, error) {
	var reg model.Register
	err := r.db.WithContext(ctx).First(&reg, "id = ?", id).Error
	return &reg, err
}

func (r *storeRepo) ListRegisters(ctx context.Context, storeID uuid.UUID) ([]model.Register, error) {
	var regs []model.Register
	err := r.db.WithContext(ctx).Where("store_id = ? AND active = true", storeID).Order("name ASC").Find(&regs).Error
	return regs, err
}
