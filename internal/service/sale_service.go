package service

import (
	"context"
	"fmt"
	"time"

	"caribepos/internal/dto"
	"caribepos/internal/model"
	"caribepos/internal/repository"
	"caribepos/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// itbisRate is the Dominican ITBIS rate. Catalog prices are tax-inclusive, so
// the tax portion of an inclusive amount is amount × 18/118.
var (
	itbisNum = decimal.NewFromInt(18)
	itbisDen = decimal.NewFromInt(118)
)

// RNCDirectory resolves a taxpayer registry number to its registered name.
// Implemented by the DGII client in infra; lookups are best-effort and must
// never block or fail a sale.
type RNCDirectory interface {
	LookupRNC(ctx context.Context, rnc string) (name string, active bool, err error)
}

type SaleService interface {
	Finalize(ctx context.Context, userID uuid.UUID, req dto.FinalizeSaleRequest) (*dto.SaleResponse, error)
	Void(ctx context.Context, userID uuid.UUID, id uuid.UUID, reason string) error
	FindByID(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error)
	List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	repo        repository.SaleRepository
	productRepo repository.ProductRepository
	storeRepo   repository.StoreRepository
	shifts      ShiftService
	ncf         NcfService
	txr         TxRunner
	dispatcher  *worker.Dispatcher
	rncDir      RNCDirectory
}

func NewSaleService(
	repo repository.SaleRepository,
	productRepo repository.ProductRepository,
	storeRepo repository.StoreRepository,
	shifts ShiftService,
	ncf NcfService,
	txr TxRunner,
	dispatcher *worker.Dispatcher,
	rncDir RNCDirectory,
) SaleService {
	return &saleService{
		repo:        repo,
		productRepo: productRepo,
		storeRepo:   storeRepo,
		shifts:      shifts,
		ncf:         ncf,
		txr:         txr,
		dispatcher:  dispatcher,
		rncDir:      rncDir,
	}
}

// ── Finalize ─────────────────────────────────────────────────────────────────
// One ACID transaction:
//  1. Validate the shift is open
//  2. Resolve + lock products, compute totals (ITBIS included in price)
//  3. Validate payment sufficiency in the sale's currency
//  4. Reserve the NCF — the sequence increment commits or rolls back with the
//     rest of the sale, so a failed sale never burns a number
//  5. Create sale + lines + payments, decrement stock, append drawer cash-ins
//  6. COMMIT, then (async) dispatch the journal-posting job

func (s *saleService) Finalize(ctx context.Context, userID uuid.UUID, req dto.FinalizeSaleRequest) (*dto.SaleResponse, error) {
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("shift_id inválido: %w", err)
	}
	shift, err := s.shifts.RequireOpen(ctx, shiftID)
	if err != nil {
		return nil, err
	}

	reg, err := s.storeRepo.FindRegisterByID(ctx, shift.RegisterID)
	if err != nil {
		return nil, fmt.Errorf("caja no encontrada: %w", err)
	}
	store, err := s.storeRepo.FindByID(ctx, reg.StoreID)
	if err != nil {
		return nil, fmt.Errorf("tienda no encontrada: %w", err)
	}

	// Fiscal credit and government invoices must carry the customer's RNC
	if (req.BillToType == "credito_fiscal" || req.BillToType == "gubernamental") &&
		(req.CustomerRNC == nil || *req.CustomerRNC == "") {
		return nil, ErrRNCRequired
	}

	customerName := req.CustomerName
	if req.CustomerRNC != nil && *req.CustomerRNC != "" && customerName == nil && s.rncDir != nil {
		if name, _, err := s.rncDir.LookupRNC(ctx, *req.CustomerRNC); err == nil && name != "" {
			customerName = &name
		}
	}

	lineIDs := make([]uuid.UUID, 0, len(req.Lines))
	for _, line := range req.Lines {
		pid, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("product_id inválido: %w", err)
		}
		lineIDs = append(lineIDs, pid)
	}

	var sale model.Sale
	productNames := map[uuid.UUID]string{}

	txErr := s.txr.RunInTx(ctx, func(tx *gorm.DB) error {
		products, err := s.productRepo.FindByIDsTx(ctx, tx, lineIDs)
		if err != nil {
			return err
		}

		subtotal := decimal.Zero
		discountTotal := decimal.Zero
		taxTotal := decimal.Zero
		lines := make([]model.SaleLine, 0, len(req.Lines))

		for _, line := range req.Lines {
			pid, _ := uuid.Parse(line.ProductID)
			p, ok := products[pid]
			if !ok {
				return fmt.Errorf("producto %s no encontrado", line.ProductID)
			}
			if !p.Active {
				return fmt.Errorf("producto %s está inactivo y no puede venderse", p.Name)
			}
			if p.StockCurrent < line.Quantity {
				return ErrInsufficientStock
			}
			productNames[pid] = p.Name

			lineSubtotal := p.SalePrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Sub(line.Discount).Round(2)
			if lineSubtotal.IsNegative() {
				return ErrInvalidAmount
			}
			subtotal = subtotal.Add(lineSubtotal)
			discountTotal = discountTotal.Add(line.Discount)
			if p.Taxable {
				taxTotal = taxTotal.Add(lineSubtotal.Mul(itbisNum).Div(itbisDen))
			}
			lines = append(lines, model.SaleLine{
				ProductID: pid,
				Quantity:  line.Quantity,
				UnitPrice: p.SalePrice,
				Discount:  line.Discount,
				Subtotal:  lineSubtotal,
			})
		}

		total := subtotal.Round(2)
		taxTotal = taxTotal.Round(2)

		// Payment sufficiency in the sale's currency. Foreign-currency tenders
		// convert through their declared fx rate; a missing rate counts zero,
		// which fails the check loudly instead of accepting unpriced cash.
		paid := decimal.Zero
		payments := make([]model.SalePayment, 0, len(req.Payments))
		for _, pr := range req.Payments {
			if !pr.Amount.IsPositive() {
				return ErrInvalidAmount
			}
			inSaleCurrency := pr.Amount
			if pr.CurrencyCode != store.CurrencyCode {
				if pr.FxRateToSale == nil || !pr.FxRateToSale.IsPositive() {
					inSaleCurrency = decimal.Zero
				} else {
					inSaleCurrency = pr.Amount.Mul(*pr.FxRateToSale)
				}
			}
			paid = paid.Add(inSaleCurrency)

			tendered := pr.Amount
			change := decimal.Zero
			if pr.TenderedAmount != nil {
				if pr.TenderedAmount.LessThan(pr.Amount) {
					return ErrInsufficientPayment
				}
				tendered = *pr.TenderedAmount
				change = tendered.Sub(pr.Amount).Round(2)
			}
			payments = append(payments, model.SalePayment{
				Method:         pr.Method,
				CurrencyCode:   pr.CurrencyCode,
				Amount:         pr.Amount,
				TenderedAmount: tendered,
				ChangeAmount:   change,
				FxRateToSale:   pr.FxRateToSale,
			})
		}
		if paid.Round(2).LessThan(total) {
			return ErrInsufficientPayment
		}

		sale = model.Sale{
			StoreID:       store.ID,
			ShiftID:       shiftID,
			UserID:        userID,
			BillToType:    req.BillToType,
			CustomerName:  customerName,
			CustomerRNC:   req.CustomerRNC,
			CurrencyCode:  store.CurrencyCode,
			Subtotal:      subtotal.Round(2),
			DiscountTotal: discountTotal.Round(2),
			TaxTotal:      taxTotal,
			Total:         total,
			Status:        model.SaleCompleted,
			Lines:         lines,
			Payments:      payments,
		}

		// NCF reservation rides the sale's transaction
		if typeCode, ok := NcfTypeFor(req.BillToType); ok {
			ncf, err := s.ncf.ReserveTx(ctx, tx, store.ID, typeCode)
			if err != nil {
				return err
			}
			sale.Ncf = &ncf
			sale.NcfTypeCode = &typeCode
		}

		if err := s.repo.CreateTx(ctx, tx, &sale); err != nil {
			return err
		}

		// Stock decrement + audit trail
		src := "sale"
		for _, line := range sale.Lines {
			p := products[line.ProductID]
			if err := s.productRepo.AdjustStockTx(ctx, tx, line.ProductID, -line.Quantity); err != nil {
				return fmt.Errorf("error descontando stock de %s: %w", p.Name, err)
			}
			mov := &model.StockMovement{
				ProductID:   line.ProductID,
				Type:        "sale",
				Quantity:    -line.Quantity,
				StockBefore: p.StockCurrent,
				StockAfter:  p.StockCurrent - line.Quantity,
				Note:        fmt.Sprintf("Venta %s", sale.ID),
				SourceType:  &src,
				SourceID:    &sale.ID,
			}
			if err := s.productRepo.CreateStockMovementTx(ctx, tx, mov); err != nil {
				return err
			}
		}

		// Drawer ledger: one cash-in per cash payment, net of change. The
		// change handed back lives on the payment row, never as an out
		// movement — the drawer's expected total already nets it out.
		for i := range sale.Payments {
			p := &sale.Payments[i]
			if p.Method != model.PaymentCash {
				continue
			}
			ref := fmt.Sprintf("venta %s", sale.ID)
			mov := &model.CashMovement{
				ShiftID:      shiftID,
				Direction:    model.MovementIn,
				CurrencyCode: p.CurrencyCode,
				Amount:       p.Amount,
				Reason:       model.ReasonSalePayment,
				Reference:    &ref,
				CreatedBy:    userID,
				SourceType:   &src,
				SourceID:     &sale.ID,
			}
			if err := s.shifts.PostMovementTx(ctx, tx, mov); err != nil {
				return err
			}
		}

		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	// Async journal posting — fire & forget; the retry cron covers failures
	if s.dispatcher != nil {
		_ = s.dispatcher.EnqueueJournal(ctx, worker.JournalJobPayload{
			SourceType: "sale",
			SourceID:   sale.ID.String(),
		})
	}

	resp := saleToResponse(&sale)
	for i, line := range sale.Lines {
		resp.Lines[i].Product = productNames[line.ProductID]
	}
	return resp, nil
}

// ── Void ─────────────────────────────────────────────────────────────────────
// Inverse entries, never mutation: stock is restored with an audit movement and
// each cash payment gets a cash-out in the drawer ledger. The NCF stays on the
// sale — fiscal numbers are burned, not reused. Voiding requires the sale's
// shift to still be open.

func (s *saleService) Void(ctx context.Context, userID uuid.UUID, id uuid.UUID, reason string) error {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ErrSaleNotFound
	}
	if sale.Status == model.SaleVoided {
		return ErrSaleAlreadyVoided
	}
	if _, err := s.shifts.RequireOpen(ctx, sale.ShiftID); err != nil {
		return err
	}

	src := "sale_void"
	txErr := s.txr.RunInTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.UpdateStatusTx(ctx, tx, id, model.SaleVoided, &reason)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrSaleAlreadyVoided
		}

		for _, line := range sale.Lines {
			if err := s.productRepo.AdjustStockTx(ctx, tx, line.ProductID, line.Quantity); err != nil {
				return err
			}
			stockBefore := 0
			if line.Product != nil {
				stockBefore = line.Product.StockCurrent
			}
			mov := &model.StockMovement{
				ProductID:   line.ProductID,
				Type:        "void_restore",
				Quantity:    line.Quantity,
				StockBefore: stockBefore,
				StockAfter:  stockBefore + line.Quantity,
				Note:        fmt.Sprintf("Anulación venta %s — %s", sale.ID, reason),
				SourceType:  &src,
				SourceID:    &sale.ID,
			}
			if err := s.productRepo.CreateStockMovementTx(ctx, tx, mov); err != nil {
				return err
			}
		}

		for i := range sale.Payments {
			p := &sale.Payments[i]
			if p.Method != model.PaymentCash {
				continue
			}
			ref := fmt.Sprintf("anulación venta %s", sale.ID)
			mov := &model.CashMovement{
				ShiftID:      sale.ShiftID,
				Direction:    model.MovementOut,
				CurrencyCode: p.CurrencyCode,
				Amount:       p.Amount,
				Reason:       model.ReasonSaleVoid,
				Reference:    &ref,
				CreatedBy:    userID,
				SourceType:   &src,
				SourceID:     &sale.ID,
			}
			if err := s.shifts.PostMovementTx(ctx, tx, mov); err != nil {
				return err
			}
		}
		return nil
	})
	return txErr
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *saleService) FindByID(ctx context.Context, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrSaleNotFound
	}
	return saleToResponse(sale), nil
}

func (s *saleService) List(ctx context.Context, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *saleToResponse(&sales[i]))
	}
	return &dto.SaleListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func saleToResponse(v *model.Sale) *dto.SaleResponse {
	lines := make([]dto.SaleLineResponse, 0, len(v.Lines))
	for _, line := range v.Lines {
		name := ""
		if line.Product != nil {
			name = line.Product.Name
		}
		lines = append(lines, dto.SaleLineResponse{
			Product:   name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
			Discount:  line.Discount,
			Subtotal:  line.Subtotal,
		})
	}
	payments := make([]dto.SalePaymentResponse, 0, len(v.Payments))
	for _, p := range v.Payments {
		payments = append(payments, dto.SalePaymentResponse{
			Method:       p.Method,
			CurrencyCode: p.CurrencyCode,
			Amount:       p.Amount,
			ChangeAmount: p.ChangeAmount,
		})
	}
	return &dto.SaleResponse{
		ID:            v.ID.String(),
		Ncf:           v.Ncf,
		NcfTypeCode:   v.NcfTypeCode,
		BillToType:    v.BillToType,
		CustomerName:  v.CustomerName,
		CustomerRNC:   v.CustomerRNC,
		CurrencyCode:  v.CurrencyCode,
		Subtotal:      v.Subtotal,
		DiscountTotal: v.DiscountTotal,
		TaxTotal:      v.TaxTotal,
		Total:         v.Total,
		Status:        v.Status,
		Lines:         lines,
		Payments:      payments,
		CreatedAt:     v.CreatedAt.Format(time.RFC3339),
	}
}
