package service

import (
	"context"
	"errors"
	"fmt"

	"caribepos/internal/dto"
	"caribepos/internal/model"
	"caribepos/internal/repository"

	"github.com/google/uuid"
)

// AdminService covers the back-office reference data: stores, registers and
// cash denominations.
type AdminService interface {
	CreateStore(ctx context.Context, req dto.CreateStoreRequest) (*dto.StoreResponse, error)
	ListStores(ctx context.Context) ([]dto.StoreResponse, error)
	CreateRegister(ctx context.Context, req dto.CreateRegisterRequest) (*dto.RegisterResponse, error)
	ListRegisters(ctx context.Context, storeID uuid.UUID) ([]dto.RegisterResponse, error)

	CreateDenomination(ctx context.Context, req dto.CreateDenominationRequest) (*dto.DenominationResponse, error)
	ListDenominations(ctx context.Context, currencyCode string) ([]dto.DenominationResponse, error)
}

type adminService struct {
	stores repository.StoreRepository
	denoms repository.DenominationRepository
}

func NewAdminService(stores repository.StoreRepository, denoms repository.DenominationRepository) AdminService {
	return &adminService{stores: stores, denoms: denoms}
}

func (s *adminService) CreateStore(ctx context.Context, req dto.CreateStoreRequest) (*dto.StoreResponse, error) {
	currency := req.CurrencyCode
	if currency == "" {
		currency = "DOP"
	}
	store := &model.Store{
		Name:         req.Name,
		RNC:          req.RNC,
		Address:      req.Address,
		CurrencyCode: currency,
		Active:       true,
	}
	if err := s.stores.Create(ctx, store); err != nil {
		return nil, err
	}
	return storeToResponse(store), nil
}

func (s *adminService) ListStores(ctx context.Context) ([]dto.StoreResponse, error) {
	stores, err := s.stores.List(ctx)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.StoreResponse, len(stores))
	for i := range stores {
		resp[i] = *storeToResponse(&stores[i])
	}
	return resp, nil
}

func (s *adminService) CreateRegister(ctx context.Context, req dto.CreateRegisterRequest) (*dto.RegisterResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("store_id inválido: %w", err)
	}
	if _, err := s.stores.FindByID(ctx, storeID); err != nil {
		return nil, errors.New("tienda no encontrada")
	}
	reg := &model.Register{
		StoreID: storeID,
		Name:    req.Name,
		Active:  true,
	}
	if err := s.stores.CreateRegister(ctx, reg); err != nil {
		return nil, err
	}
	return registerToResponse(reg), nil
}

func (s *adminService) ListRegisters(ctx context.Context, storeID uuid.UUID) ([]dto.RegisterResponse, error) {
	regs, err := s.stores.ListRegisters(ctx, storeID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.RegisterResponse, len(regs))
	for i := range regs {
		resp[i] = *registerToResponse(&regs[i])
	}
	return resp, nil
}

func (s *adminService) CreateDenomination(ctx context.Context, req dto.CreateDenominationRequest) (*dto.DenominationResponse, error) {
	if !req.Value.IsPositive() {
		return nil, ErrInvalidAmount
	}
	d := &model.CashDenomination{
		CurrencyCode: req.CurrencyCode,
		Value:        req.Value,
		Kind:         req.Kind,
		Position:     req.Position,
		Active:       true,
	}
	if err := s.denoms.Create(ctx, d); err != nil {
		return nil, err
	}
	return denominationToResponse(d), nil
}

func (s *adminService) ListDenominations(ctx context.Context, currencyCode string) ([]dto.DenominationResponse, error) {
	denoms, err := s.denoms.List(ctx, currencyCode)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.DenominationResponse, len(denoms))
	for i := range denoms {
		resp[i] = *denominationToResponse(&denoms[i])
	}
	return resp, nil
}

func storeToResponse(s *model.Store) *dto.StoreResponse {
	return &dto.StoreResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		RNC:          s.RNC,
		Address:      s.Address,
		CurrencyCode: s.CurrencyCode,
		Active:       s.Active,
	}
}

func registerToResponse(r *model.Register) *dto.RegisterResponse {
	return &dto.RegisterResponse{
		ID:      r.ID.String(),
		StoreID: r.StoreID.String(),
		Name:    r.Name,
		Active:  r.Active,
	}
}

func denominationToResponse(d *model.CashDenomination) *dto.DenominationResponse {
	return &dto.DenominationResponse{
		ID:           d.ID.String(),
		CurrencyCode: d.CurrencyCode,
		Value:        d.Value,
		Kind:         d.Kind,
		Position:     d.Position,
		Active:       d.Active,
	}
}
