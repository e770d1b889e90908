package service

import (
	"context"
	"errors"
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

type ShiftService interface {
	Open(ctx context.Context, openerID uuid.UUID, req dto.OpenShiftRequest) (*dto.ShiftResponse, error)
	PostMovement(ctx context.Context, userID uuid.UUID, req dto.PostMovementRequest) (*dto.MovementResponse, error)
	Close(ctx context.Context, closer Closer, req dto.CloseShiftRequest) (*dto.ShiftReportResponse, error)
	ExpectedTotals(ctx context.Context, shiftID uuid.UUID) (map[string]decimal.Decimal, error)
	Report(ctx context.Context, shiftID uuid.UUID) (*dto.ShiftReportResponse, error)
	History(ctx context.Context, registerID *uuid.UUID, page, limit int) (*dto.ShiftListResponse, error)

	// RequireOpen is called by SaleService to validate the sale's shift.
	RequireOpen(ctx context.Context, shiftID uuid.UUID) (*model.CashShift, error)
	// PostMovementTx appends a movement inside an enclosing transaction.
	PostMovementTx(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error
}

type shiftService struct {
	repo        repository.ShiftRepository
	denoms      repository.DenominationRepository
	auth        ShiftAuthorizer
	txr         TxRunner
	dispatcher  *worker.Dispatcher
	reportEmail string
}

func NewShiftService(
	repo repository.ShiftRepository,
	denoms repository.DenominationRepository,
	auth ShiftAuthorizer,
	txr TxRunner,
	dispatcher *worker.Dispatcher,
	reportEmail string,
) ShiftService {
	return &shiftService{
		repo:        repo,
		denoms:      denoms,
		auth:        auth,
		txr:         txr,
		dispatcher:  dispatcher,
		reportEmail: reportEmail,
	}
}

// ── Open ─────────────────────────────────────────────────────────────────────

func (s *shiftService) Open(ctx context.Context, openerID uuid.UUID, req dto.OpenShiftRequest) (*dto.ShiftResponse, error) {
	registerID, err := uuid.Parse(req.RegisterID)
	if err != nil {
		return nil, fmt.Errorf("register_id inválido: %w", err)
	}

	// Fast pre-check; the partial unique index on (register_id) WHERE
	// status='open' is the authoritative guard for concurrent openers.
	if existing, err := s.repo.FindOpenByRegister(ctx, registerID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrShiftAlreadyOpen
	}

	counts, anyPositive, err := s.buildCounts(ctx, model.CountOpening, openerID, req.Counts, req.Note)
	if err != nil {
		return nil, err
	}
	// "Debe ingresar al menos una cantidad" — an all-zero opening is rejected
	if !anyPositive {
		return nil, ErrInvalidCount
	}

	shift := &model.CashShift{
		RegisterID:  registerID,
		OpenedBy:    openerID,
		Status:      model.ShiftOpen,
		OpeningNote: req.Note,
		OpenedAt:    time.Now(),
	}

	txErr := s.txr.RunInTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.CreateShiftTx(ctx, tx, shift); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrShiftAlreadyOpen
			}
			return err
		}
		for i := range counts {
			counts[i].ShiftID = shift.ID
			if err := s.repo.CreateCountTx(ctx, tx, &counts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	shift.Counts = counts
	return shiftToResponse(shift), nil
}

// ── PostMovement ─────────────────────────────────────────────────────────────
// Append-only; no balance check against available cash — a drawer shortfall is
// surfaced at reconciliation, not blocked here.

func (s *shiftService) PostMovement(ctx context.Context, userID uuid.UUID, req dto.PostMovementRequest) (*dto.MovementResponse, error) {
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("shift_id inválido: %w", err)
	}
	if _, err := s.RequireOpen(ctx, shiftID); err != nil {
		return nil, err
	}

	m := &model.CashMovement{
		ShiftID:      shiftID,
		Direction:    req.Direction,
		CurrencyCode: req.CurrencyCode,
		Amount:       req.Amount,
		Reason:       req.Reason,
		Reference:    req.Reference,
		CreatedBy:    userID,
	}

	txErr := s.txr.RunInTx(ctx, func(tx *gorm.DB) error {
		return s.PostMovementTx(ctx, tx, m)
	})
	if txErr != nil {
		return nil, txErr
	}

	return &dto.MovementResponse{
		ID:           m.ID.String(),
		ShiftID:      m.ShiftID.String(),
		Direction:    m.Direction,
		CurrencyCode: m.CurrencyCode,
		Amount:       m.Amount,
		Reason:       m.Reason,
		Reference:    m.Reference,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *shiftService) PostMovementTx(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error {
	if !m.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if m.Direction != model.MovementIn && m.Direction != model.MovementOut {
		return fmt.Errorf("dirección de movimiento inválida: %s", m.Direction)
	}
	// Re-check inside the transaction: the shift may have been closed between
	// the caller's validation and this insert.
	shift, err := s.repo.FindShiftByID(ctx, m.ShiftID)
	if err != nil {
		return ErrShiftNotFound
	}
	if shift.Status != model.ShiftOpen {
		return ErrShiftClosed
	}
	return s.repo.CreateMovementTx(ctx, tx, m)
}

// ── Close ────────────────────────────────────────────────────────────────────
// Terminal transition. The status flip uses UPDATE … WHERE status='open' with a
// rows-affected check so that two concurrent closers cannot both succeed.

func (s *shiftService) Close(ctx context.Context, closer Closer, req dto.CloseShiftRequest) (*dto.ShiftReportResponse, error) {
	shiftID, err := uuid.Parse(req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("shift_id inválido: %w", err)
	}
	shift, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		return nil, ErrShiftNotFound
	}
	if shift.Status != model.ShiftOpen {
		return nil, ErrShiftAlreadyClosed
	}
	if !s.auth.CanClose(closer, shift) {
		return nil, ErrForbidden
	}

	counts, _, err := s.buildCounts(ctx, model.CountClosing, closer.UserID, req.Counts, req.Note)
	if err != nil {
		return nil, err
	}

	closedAt := time.Now()
	txErr := s.txr.RunInTx(ctx, func(tx *gorm.DB) error {
		rows, err := s.repo.CloseShiftTx(ctx, tx, shiftID, closer.UserID, closedAt, req.Note)
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrShiftAlreadyClosed
		}
		for i := range counts {
			counts[i].ShiftID = shiftID
			if err := s.repo.CreateCountTx(ctx, tx, &counts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	shift.Status = model.ShiftClosed
	shift.ClosedBy = &closer.UserID
	shift.ClosedAt = &closedAt
	shift.ClosingNote = req.Note

	report, err := s.buildReport(ctx, shift)
	if err != nil {
		return nil, err
	}

	// Best-effort close-of-shift summary e-mail
	if s.dispatcher != nil && s.reportEmail != "" {
		_ = s.dispatcher.EnqueueEmail(ctx, worker.EmailJobPayload{
			ToEmail: s.reportEmail,
			Subject: fmt.Sprintf("Cierre de turno — caja %s", shift.RegisterID),
			Body:    RenderReportText(report),
		})
	}

	return report, nil
}

// ── Reads ────────────────────────────────────────────────────────────────────

func (s *shiftService) RequireOpen(ctx context.Context, shiftID uuid.UUID) (*model.CashShift, error) {
	shift, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		return nil, ErrShiftNotFound
	}
	if shift.Status != model.ShiftOpen {
		return nil, ErrShiftClosed
	}
	return shift, nil
}

func (s *shiftService) ExpectedTotals(ctx context.Context, shiftID uuid.UUID) (map[string]decimal.Decimal, error) {
	opening, err := s.repo.CountTotals(ctx, shiftID, model.CountOpening)
	if err != nil {
		return nil, err
	}
	sums, err := s.repo.SumMovements(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	return ExpectedTotals(opening, sums), nil
}

func (s *shiftService) Report(ctx context.Context, shiftID uuid.UUID) (*dto.ShiftReportResponse, error) {
	shift, err := s.repo.FindShiftByID(ctx, shiftID)
	if err != nil {
		return nil, ErrShiftNotFound
	}
	return s.buildReport(ctx, shift)
}

func (s *shiftService) History(ctx context.Context, registerID *uuid.UUID, page, limit int) (*dto.ShiftListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	shifts, total, err := s.repo.ListShifts(ctx, registerID, page, limit)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		items = append(items, *shiftToResponse(&shifts[i]))
	}
	return &dto.ShiftListResponse{Data: items, Total: total, Page: page, Limit: limit}, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// buildCounts validates the denomination lines and materializes one CashCount
// per currency entry. Returns anyPositive=false when every quantity is zero.
// Invariant enforced here: Σ line subtotals == total_counted per currency, and
// every denomination belongs to its stated currency.
func (s *shiftService) buildCounts(ctx context.Context, countType string, createdBy uuid.UUID, inputs []dto.CashCountInput, note *string) ([]model.CashCount, bool, error) {
	var ids []uuid.UUID
	for _, input := range inputs {
		for _, line := range input.Lines {
			id, err := uuid.Parse(line.DenominationID)
			if err != nil {
				return nil, false, ErrInvalidCount
			}
			ids = append(ids, id)
		}
	}
	denoms, err := s.denoms.FindByIDs(ctx, ids)
	if err != nil {
		return nil, false, err
	}

	anyPositive := false
	counts := make([]model.CashCount, 0, len(inputs))
	for _, input := range inputs {
		total := decimal.Zero
		lines := make([]model.CashCountLine, 0, len(input.Lines))
		for _, line := range input.Lines {
			id, _ := uuid.Parse(line.DenominationID)
			denom, ok := denoms[id]
			if !ok || !denom.Active || denom.CurrencyCode != input.CurrencyCode {
				return nil, false, ErrInvalidCount
			}
			if line.Quantity < 0 {
				return nil, false, ErrInvalidCount
			}
			if line.Quantity > 0 {
				anyPositive = true
			}
			subtotal := denom.Value.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
			total = total.Add(subtotal)
			lines = append(lines, model.CashCountLine{
				DenominationID: id,
				Quantity:       line.Quantity,
				Subtotal:       subtotal,
			})
		}
		total = total.Round(2)
		if input.DeclaredTotal != nil && !input.DeclaredTotal.Round(2).Equal(total) {
			return nil, false, ErrInvalidCount
		}
		counts = append(counts, model.CashCount{
			Type:         countType,
			CurrencyCode: input.CurrencyCode,
			TotalCounted: total,
			CreatedBy:    createdBy,
			Note:         note,
			Lines:        lines,
		})
	}
	return counts, anyPositive, nil
}

func (s *shiftService) buildReport(ctx context.Context, shift *model.CashShift) (*dto.ShiftReportResponse, error) {
	opening, err := s.repo.CountTotals(ctx, shift.ID, model.CountOpening)
	if err != nil {
		return nil, err
	}
	sums, err := s.repo.SumMovements(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	counted, err := s.repo.CountTotals(ctx, shift.ID, model.CountClosing)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.PaymentSummary(ctx, shift.ID)
	if err != nil {
		return nil, err
	}
	expected := ExpectedTotals(opening, sums)
	return BuildShiftReport(shift, opening, expected, counted, payments), nil
}

func shiftToResponse(shift *model.CashShift) *dto.ShiftResponse {
	resp := &dto.ShiftResponse{
		ID:          shift.ID.String(),
		RegisterID:  shift.RegisterID.String(),
		Status:      shift.Status,
		OpenedBy:    shift.OpenedBy.String(),
		OpeningNote: shift.OpeningNote,
		ClosingNote: shift.ClosingNote,
		OpenedAt:    shift.OpenedAt.Format(time.RFC3339),
	}
	if shift.ClosedBy != nil {
		v := shift.ClosedBy.String()
		resp.ClosedBy = &v
	}
	if shift.ClosedAt != nil {
		t := shift.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &t
	}
	for i := range shift.Counts {
		c := &shift.Counts[i]
		cr := dto.CashCountResponse{
			ID:           c.ID.String(),
			Type:         c.Type,
			CurrencyCode: c.CurrencyCode,
			TotalCounted: c.TotalCounted,
		}
		for _, line := range c.Lines {
			cr.Lines = append(cr.Lines, dto.CountLineResponse{
				DenominationID: line.DenominationID.String(),
				Quantity:       line.Quantity,
				Subtotal:       line.Subtotal,
			})
		}
		resp.Counts = append(resp.Counts, cr)
	}
	return resp
}
