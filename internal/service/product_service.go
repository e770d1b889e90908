package service

import (
	"context"
	"errors"
	"fmt"

	"caribepos/internal/dto"
	"caribepos/internal/model"
	"caribepos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	FindByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	FindByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error)
	List(ctx context.Context, filter repository.ProductFilter) ([]dto.ProductResponse, int64, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error)
	ListStockMovements(ctx context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error)
}

type productService struct {
	repo repository.ProductRepository
	txr  TxRunner
}

func NewProductService(repo repository.ProductRepository, txr TxRunner) ProductService {
	return &productService{repo: repo, txr: txr}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if !req.SalePrice.IsPositive() {
		return nil, ErrInvalidAmount
	}
	taxable := true
	if req.Taxable != nil {
		taxable = *req.Taxable
	}
	category := req.Category
	if category == "" {
		category = "general"
	}
	p := &model.Product{
		Barcode:      req.Barcode,
		Name:         req.Name,
		Category:     category,
		CostPrice:    req.CostPrice,
		SalePrice:    req.SalePrice,
		Taxable:      taxable,
		StockCurrent: req.StockCurrent,
		StockMinimum: req.StockMinimum,
		Active:       true,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("ya existe un producto con el código %s", req.Barcode)
		}
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Category != "" {
		p.Category = req.Category
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.SalePrice != nil {
		if !req.SalePrice.IsPositive() {
			return nil, ErrInvalidAmount
		}
		p.SalePrice = *req.SalePrice
	}
	if req.Taxable != nil {
		p.Taxable = *req.Taxable
	}
	if req.StockMinimum != nil {
		p.StockMinimum = *req.StockMinimum
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return productToResponse(p), nil
}

func (s *productService) FindByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	return productToResponse(p), nil
}

func (s *productService) FindByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	return productToResponse(p), nil
}

func (s *productService) List(ctx context.Context, filter repository.ProductFilter) ([]dto.ProductResponse, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 200 {
		filter.Limit = 50
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	resp := make([]dto.ProductResponse, len(products))
	for i := range products {
		resp[i] = *productToResponse(&products[i])
	}
	return resp, total, nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SoftDelete(ctx, id)
}

// AdjustStock applies a manual correction with its audit movement in one
// transaction. Quantity may be negative; the note is mandatory.
func (s *productService) AdjustStock(ctx context.Context, id uuid.UUID, req dto.AdjustStockRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.New("producto no encontrado")
	}
	if req.Quantity == 0 {
		return nil, errors.New("la cantidad del ajuste no puede ser cero")
	}

	txErr := s.txr.RunInTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.AdjustStockTx(ctx, tx, id, req.Quantity); err != nil {
			return err
		}
		mov := &model.StockMovement{
			ProductID:   id,
			Type:        "manual_adjustment",
			Quantity:    req.Quantity,
			StockBefore: p.StockCurrent,
			StockAfter:  p.StockCurrent + req.Quantity,
			Note:        req.Note,
		}
		return s.repo.CreateStockMovementTx(ctx, tx, mov)
	})
	if txErr != nil {
		return nil, txErr
	}
	p.StockCurrent += req.Quantity
	return productToResponse(p), nil
}

func (s *productService) ListStockMovements(ctx context.Context, filter repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	return s.repo.ListStockMovements(ctx, filter)
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:           p.ID.String(),
		Barcode:      p.Barcode,
		Name:         p.Name,
		Category:     p.Category,
		CostPrice:    p.CostPrice,
		SalePrice:    p.SalePrice,
		Taxable:      p.Taxable,
		StockCurrent: p.StockCurrent,
		StockMinimum: p.StockMinimum,
		Active:       p.Active,
	}
}
