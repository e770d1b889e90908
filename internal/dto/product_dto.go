package dto

import "github.com/shopspring/decimal"

type CreateProductRequest struct {
	Barcode      string          `json:"barcode"       validate:"required"`
	Name         string          `json:"name"          validate:"required"`
	Category     string          `json:"category"`
	CostPrice    decimal.Decimal `json:"cost_price"    validate:"min=0"`
	SalePrice    decimal.Decimal `json:"sale_price"    validate:"required"`
	Taxable      *bool           `json:"taxable"`
	StockCurrent int             `json:"stock_current" validate:"min=0"`
	StockMinimum int             `json:"stock_minimum" validate:"min=0"`
}

type UpdateProductRequest struct {
	Name         string           `json:"name"`
	Category     string           `json:"category"`
	CostPrice    *decimal.Decimal `json:"cost_price"`
	SalePrice    *decimal.Decimal `json:"sale_price"`
	Taxable      *bool            `json:"taxable"`
	StockMinimum *int             `json:"stock_minimum"`
}

type AdjustStockRequest struct {
	Quantity int    `json:"quantity" validate:"required"`
	Note     string `json:"note"     validate:"required,min=3"`
}

type ProductResponse struct {
	ID           string          `json:"id"`
	Barcode      string          `json:"barcode"`
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	Taxable      bool            `json:"taxable"`
	StockCurrent int             `json:"stock_current"`
	StockMinimum int             `json:"stock_minimum"`
	Active       bool            `json:"active"`
}
