package repository

import (
	"context"
	"errors"
	"time"

	"caribepos/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementSum is one aggregation bucket of a shift's movement ledger.
type MovementSum struct {
	CurrencyCode string
	Direction    string
	Reason       string
	Total        decimal.Decimal
}

// PaymentSummaryRow aggregates the shift's sale payments by method × currency.
// AmountInShiftCurrency uses the payment's own amount when its currency matches
// the sale's, otherwise amount × COALESCE(fx_rate_to_sale, 0).
type PaymentSummaryRow struct {
	Method                string
	CurrencyCode          string
	Count                 int64
	Amount                decimal.Decimal
	AmountInShiftCurrency decimal.Decimal
}

type ShiftRepository interface {
	CreateShiftTx(ctx context.Context, tx *gorm.DB, s *model.CashShift) error
	CreateCountTx(ctx context.Context, tx *gorm.DB, c *model.CashCount) error
	FindShiftByID(ctx context.Context, id uuid.UUID) (*model.CashShift, error)
	FindOpenByRegister(ctx context.Context, registerID uuid.UUID) (*model.CashShift, error)
	// CloseShiftTx flips status open→closed; returns the number of rows updated
	// so the service can detect a lost double-close race (0 rows).
	CloseShiftTx(ctx context.Context, tx *gorm.DB, shiftID, closedBy uuid.UUID, closedAt time.Time, note *string) (int64, error)
	CreateMovementTx(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error
	ListMovements(ctx context.Context, shiftID uuid.UUID) ([]model.CashMovement, error)
	SumMovements(ctx context.Context, shiftID uuid.UUID) ([]MovementSum, error)
	// CountTotals sums cash counts of the given type per currency.
	CountTotals(ctx context.Context, shiftID uuid.UUID, countType string) (map[string]decimal.Decimal, error)
	PaymentSummary(ctx context.Context, shiftID uuid.UUID) ([]PaymentSummaryRow, error)
	ListShifts(ctx context.Context, registerID *uuid.UUID, page, limit int) ([]model.CashShift, int64, error)
	DB() *gorm.DB
}

type shiftRepo struct{ db *gorm.DB }

func NewShiftRepository(db *gorm.DB) ShiftRepository { return &shiftRepo{db: db} }

func (r *shiftRepo) DB() *gorm.DB { return r.db }

func (r *shiftRepo) CreateShiftTx(ctx context.Context, tx *gorm.DB, s *model.CashShift) error {
	return tx.WithContext(ctx).Create(s).Error
}

func (r *shiftRepo) CreateCountTx(ctx context.Context, tx *gorm.DB, c *model.CashCount) error {
	return tx.WithContext(ctx).Create(c).Error
}

func (r *shiftRepo) FindShiftByID(ctx context.Context, id uuid.UUID) (*model.CashShift, error) {
	var s model.CashShift
	err := r.db.WithContext(ctx).Preload("Counts.Lines").First(&s, id).Error
	return &s, err
}

func (r *shiftRepo) FindOpenByRegister(ctx context.Context, registerID uuid.UUID) (*model.CashShift, error) {
	var s model.CashShift
	err := r.db.WithContext(ctx).
		Where("register_id = ? AND status = ?", registerID, model.ShiftOpen).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &s, err
}

func (r *shiftRepo) CloseShiftTx(ctx context.Context, tx *gorm.DB, shiftID, closedBy uuid.UUID, closedAt time.Time, note *string) (int64, error) {
	res := tx.WithContext(ctx).Model(&model.CashShift{}).
		Where("id = ? AND status = ?", shiftID, model.ShiftOpen).
		Updates(map[string]interface{}{
			"status":       model.ShiftClosed,
			"closed_by":    closedBy,
			"closed_at":    closedAt,
			"closing_note": note,
		})
	return res.RowsAffected, res.Error
}

func (r *shiftRepo) CreateMovementTx(ctx context.Context, tx *gorm.DB, m *model.CashMovement) error {
	return tx.WithContext(ctx).Create(m).Error
}

func (r *shiftRepo) ListMovements(ctx context.Context, shiftID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).
		Where("shift_id = ?", shiftID).
		Order("created_at ASC").
		Find(&movs).Error
	return movs, err
}

func (r *shiftRepo) SumMovements(ctx context.Context, shiftID uuid.UUID) ([]MovementSum, error) {
	var rows []MovementSum
	err := r.db.WithContext(ctx).Model(&model.CashMovement{}).
		Select("currency_code, direction, reason, SUM(amount) AS total").
		Where("shift_id = ?", shiftID).
		Group("currency_code, direction, reason").
		Scan(&rows).Error
	return rows, err
}

func (r *shiftRepo) CountTotals(ctx context.Context, shiftID uuid.UUID, countType string) (map[string]decimal.Decimal, error) {
	var rows []struct {
		CurrencyCode string
		Total        decimal.Decimal
	}
	err := r.db.WithContext(ctx).Model(&model.CashCount{}).
		Select("currency_code, SUM(total_counted) AS total").
		Where("shift_id = ? AND type = ?", shiftID, countType).
		Group("currency_code").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	totals := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		totals[row.CurrencyCode] = row.Total
	}
	return totals, nil
}

func (r *shiftRepo) PaymentSummary(ctx context.Context, shiftID uuid.UUID) ([]PaymentSummaryRow, error) {
	var rows []PaymentSummaryRow
	err := r.db.WithContext(ctx).
		Table("sale_payments p").
		Select(`p.method,
			p.currency_code,
			COUNT(*) AS count,
			SUM(p.amount) AS amount,
			SUM(CASE WHEN p.currency_code = s.currency_code
			         THEN p.amount
			         ELSE p.amount * COALESCE(p.fx_rate_to_sale, 0) END) AS amount_in_shift_currency`).
		Joins("JOIN sales s ON s.id = p.sale_id").
		Where("s.shift_id = ? AND s.status = ?", shiftID, model.SaleCompleted).
		Group("p.method, p.currency_code").
		Order("p.method, p.currency_code").
		Scan(&rows).Error
	return rows, err
}

func (r *shiftRepo) ListShifts(ctx context.Context, registerID *uuid.UUID, page, limit int) ([]model.CashShift, int64, error) {
	var shifts []model.CashShift
	var total int64
	q := r.db.WithContext(ctx).Model(&model.CashShift{})
	if registerID != nil {
		q = q.Where("register_id = ?", *registerID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("opened_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&shifts).Error
	return shifts, total, err
}
