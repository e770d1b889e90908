package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"caribepos/internal/dto"
	"caribepos/internal/model"
	"caribepos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory ShiftRepository ────────────────────────────────────────────────

type fakeShiftRepo struct {
	mu        sync.Mutex
	shifts    map[uuid.UUID]*model.CashShift
	counts    []model.CashCount
	movements []model.CashMovement
	payments  []repository.PaymentSummaryRow

	// hideOpen simulates the lost pre-check race: two openers both see no open
	// shift, and the second insert trips the partial unique index.
	hideOpen bool
}

func newFakeShiftRepo() *fakeShiftRepo {
	return &fakeShiftRepo{shifts: make(map[uuid.UUID]*model.CashShift)}
}

func (r *fakeShiftRepo) DB() *gorm.DB { return nil }

func (r *fakeShiftRepo) CreateShiftTx(_ context.Context, _ *gorm.DB, s *model.CashShift) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.shifts {
		if existing.RegisterID == s.RegisterID && existing.Status == model.ShiftOpen {
			return gorm.ErrDuplicatedKey
		}
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	clone := *s
	r.shifts[s.ID] = &clone
	return nil
}

func (r *fakeShiftRepo) CreateCountTx(_ context.Context, _ *gorm.DB, c *model.CashCount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	for i := range c.Lines {
		if c.Lines[i].ID == uuid.Nil {
			c.Lines[i].ID = uuid.New()
		}
		c.Lines[i].CountID = c.ID
	}
	r.counts = append(r.counts, *c)
	return nil
}

func (r *fakeShiftRepo) FindShiftByID(_ context.Context, id uuid.UUID) (*model.CashShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *s
	clone.Counts = nil
	for _, c := range r.counts {
		if c.ShiftID == id {
			clone.Counts = append(clone.Counts, c)
		}
	}
	return &clone, nil
}

func (r *fakeShiftRepo) FindOpenByRegister(_ context.Context, registerID uuid.UUID) (*model.CashShift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hideOpen {
		return nil, nil
	}
	for _, s := range r.shifts {
		if s.RegisterID == registerID && s.Status == model.ShiftOpen {
			clone := *s
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeShiftRepo) CloseShiftTx(_ context.Context, _ *gorm.DB, shiftID, closedBy uuid.UUID, closedAt time.Time, note *string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.shifts[shiftID]
	if !ok || s.Status != model.ShiftOpen {
		return 0, nil
	}
	s.Status = model.ShiftClosed
	s.ClosedBy = &closedBy
	s.ClosedAt = &closedAt
	s.ClosingNote = note
	return 1, nil
}

func (r *fakeShiftRepo) CreateMovementTx(_ context.Context, _ *gorm.DB, m *model.CashMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *fakeShiftRepo) ListMovements(_ context.Context, shiftID uuid.UUID) ([]model.CashMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.CashMovement
	for _, m := range r.movements {
		if m.ShiftID == shiftID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeShiftRepo) SumMovements(_ context.Context, shiftID uuid.UUID) ([]repository.MovementSum, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	type key struct{ cur, dir, reason string }
	sums := make(map[key]decimal.Decimal)
	for _, m := range r.movements {
		if m.ShiftID != shiftID {
			continue
		}
		k := key{m.CurrencyCode, m.Direction, m.Reason}
		sums[k] = sums[k].Add(m.Amount)
	}
	rows := make([]repository.MovementSum, 0, len(sums))
	for k, total := range sums {
		rows = append(rows, repository.MovementSum{
			CurrencyCode: k.cur, Direction: k.dir, Reason: k.reason, Total: total,
		})
	}
	return rows, nil
}

func (r *fakeShiftRepo) CountTotals(_ context.Context, shiftID uuid.UUID, countType string) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	totals := make(map[string]decimal.Decimal)
	for _, c := range r.counts {
		if c.ShiftID == shiftID && c.Type == countType {
			totals[c.CurrencyCode] = totals[c.CurrencyCode].Add(c.TotalCounted)
		}
	}
	return totals, nil
}

func (r *fakeShiftRepo) PaymentSummary(_ context.Context, _ uuid.UUID) ([]repository.PaymentSummaryRow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.payments, nil
}

func (r *fakeShiftRepo) ListShifts(_ context.Context, registerID *uuid.UUID, page, limit int) ([]model.CashShift, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []model.CashShift
	for _, s := range r.shifts {
		if registerID == nil || s.RegisterID == *registerID {
			all = append(all, *s)
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

var _ repository.ShiftRepository = (*fakeShiftRepo)(nil)

// ── In-memory DenominationRepository ─────────────────────────────────────────

type fakeDenomRepo struct {
	denoms map[uuid.UUID]model.CashDenomination
}

func newFakeDenomRepo() *fakeDenomRepo {
	return &fakeDenomRepo{denoms: make(map[uuid.UUID]model.CashDenomination)}
}

func (r *fakeDenomRepo) add(currency string, value float64, kind string) uuid.UUID {
	id := uuid.New()
	r.denoms[id] = model.CashDenomination{
		ID: id, CurrencyCode: currency, Value: decimal.NewFromFloat(value), Kind: kind, Active: true,
	}
	return id
}

func (r *fakeDenomRepo) Create(_ context.Context, d *model.CashDenomination) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.denoms[d.ID] = *d
	return nil
}

func (r *fakeDenomRepo) Update(_ context.Context, d *model.CashDenomination) error {
	r.denoms[d.ID] = *d
	return nil
}

func (r *fakeDenomRepo) List(_ context.Context, currencyCode string) ([]model.CashDenomination, error) {
	var out []model.CashDenomination
	for _, d := range r.denoms {
		if currencyCode == "" || d.CurrencyCode == currencyCode {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDenomRepo) FindByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.CashDenomination, error) {
	out := make(map[uuid.UUID]model.CashDenomination)
	for _, id := range ids {
		if d, ok := r.denoms[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

var _ repository.DenominationRepository = (*fakeDenomRepo)(nil)

// passTxRunner executes fn directly: the in-memory fakes mutate state in place,
// so "commit" is a no-op. Rollback-sensitive flows use snapshotTxRunner instead.
type passTxRunner struct{}

func (passTxRunner) RunInTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

// ── Fixture ──────────────────────────────────────────────────────────────────

type shiftFixture struct {
	repo       *fakeShiftRepo
	denomRepo  *fakeDenomRepo
	svc        ShiftService
	registerID uuid.UUID
	opener     uuid.UUID
	d500, d100 uuid.UUID
	dUSD20     uuid.UUID
}

func newShiftFixture() *shiftFixture {
	f := &shiftFixture{
		repo:       newFakeShiftRepo(),
		denomRepo:  newFakeDenomRepo(),
		registerID: uuid.New(),
		opener:     uuid.New(),
	}
	f.d500 = f.denomRepo.add("DOP", 500, "bill")
	f.d100 = f.denomRepo.add("DOP", 100, "bill")
	f.dUSD20 = f.denomRepo.add("USD", 20, "bill")
	f.svc = NewShiftService(f.repo, f.denomRepo, RoleAuthorizer{}, passTxRunner{}, nil, "")
	return f
}

func (f *shiftFixture) countDOP(lines ...dto.CountLineInput) []dto.CashCountInput {
	return []dto.CashCountInput{{CurrencyCode: "DOP", Lines: lines}}
}

func (f *shiftFixture) open(t *testing.T) *dto.ShiftResponse {
	t.Helper()
	resp, err := f.svc.Open(context.Background(), f.opener, dto.OpenShiftRequest{
		RegisterID: f.registerID.String(),
		Counts: f.countDOP(
			dto.CountLineInput{DenominationID: f.d500.String(), Quantity: 2},
		),
	})
	require.NoError(t, err)
	return resp
}

// ── Open ─────────────────────────────────────────────────────────────────────

func TestOpenShift(t *testing.T) {
	f := newShiftFixture()
	resp := f.open(t)

	assert.Equal(t, model.ShiftOpen, resp.Status)
	assert.Equal(t, f.opener.String(), resp.OpenedBy)
	require.Len(t, resp.Counts, 1)
	assert.Equal(t, model.CountOpening, resp.Counts[0].Type)
	assert.Equal(t, "1000", resp.Counts[0].TotalCounted.String())
	require.Len(t, resp.Counts[0].Lines, 1)
	assert.Equal(t, "1000", resp.Counts[0].Lines[0].Subtotal.String())
}

func TestOpenShiftAlreadyOpen(t *testing.T) {
	f := newShiftFixture()
	f.open(t)

	_, err := f.svc.Open(context.Background(), uuid.New(), dto.OpenShiftRequest{
		RegisterID: f.registerID.String(),
		Counts:     f.countDOP(dto.CountLineInput{DenominationID: f.d100.String(), Quantity: 1}),
	})
	assert.ErrorIs(t, err, ErrShiftAlreadyOpen)
}

func TestOpenShiftConcurrentRace(t *testing.T) {
	// Two openers pass the pre-check at the same time; the unique index rejects
	// the second insert and the service translates the driver error.
	f := newShiftFixture()
	f.open(t)
	f.repo.hideOpen = true

	_, err := f.svc.Open(context.Background(), uuid.New(), dto.OpenShiftRequest{
		RegisterID: f.registerID.String(),
		Counts:     f.countDOP(dto.CountLineInput{DenominationID: f.d100.String(), Quantity: 1}),
	})
	assert.ErrorIs(t, err, ErrShiftAlreadyOpen)
}

func TestOpenShiftAllZeroCount(t *testing.T) {
	f := newShiftFixture()
	_, err := f.svc.Open(context.Background(), f.opener, dto.OpenShiftRequest{
		RegisterID: f.registerID.String(),
		Counts: f.countDOP(
			dto.CountLineInput{DenominationID: f.d500.String(), Quantity: 0},
			dto.CountLineInput{DenominationID: f.d100.String(), Quantity: 0},
		),
	})
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestOpenShiftDeclaredTotalMismatch(t *testing.T) {
	f := newShiftFixture()
	declared := decimal.NewFromInt(999) // 2×500 = 1000
	_, err := f.svc.Open(context.Background(), f.opener, dto.OpenShiftRequest{
		RegisterID: f.registerID.String(),
		Counts: []dto.CashCountInput{{
			CurrencyCode:  "DOP",
			DeclaredTotal: &declared,
			Lines:         []dto.CountLineInput{{DenominationID: f.d500.String(), Quantity: 2}},
		}},
	})
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestOpenShiftForeignDenominationRejected(t *testing.T) {
	// A USD bill cannot appear inside the DOP count
	f := newShiftFixture()
	_, err := f.svc.Open(context.Background(), f.opener, dto.OpenShiftRequest{
		RegisterID: f.registerID.String(),
		Counts:     f.countDOP(dto.CountLineInput{DenominationID: f.dUSD20.String(), Quantity: 3}),
	})
	assert.ErrorIs(t, err, ErrInvalidCount)
}

func TestOpenShiftMultiCurrency(t *testing.T) {
	f := newShiftFixture()
	resp, err := f.svc.Open(context.Background(), f.opener, dto.OpenShiftRequest{
		RegisterID: f.registerID.String(),
		Counts: []dto.CashCountInput{
			{CurrencyCode: "DOP", Lines: []dto.CountLineInput{{DenominationID: f.d500.String(), Quantity: 4}}},
			{CurrencyCode: "USD", Lines: []dto.CountLineInput{{DenominationID: f.dUSD20.String(), Quantity: 5}}},
		},
	})
	require.NoError(t, err)
	require.Len(t, resp.Counts, 2)
	totals := map[string]string{}
	for _, c := range resp.Counts {
		totals[c.CurrencyCode] = c.TotalCounted.String()
	}
	assert.Equal(t, "2000", totals["DOP"])
	assert.Equal(t, "100", totals["USD"])
}

// ── Movements ────────────────────────────────────────────────────────────────

func TestPostMovement(t *testing.T) {
	f := newShiftFixture()
	shift := f.open(t)

	resp, err := f.svc.PostMovement(context.Background(), f.opener, dto.PostMovementRequest{
		ShiftID:      shift.ID,
		Direction:    model.MovementOut,
		CurrencyCode: "DOP",
		Amount:       decimal.NewFromInt(200),
		Reason:       "pago mensajería",
	})
	require.NoError(t, err)
	assert.Equal(t, model.MovementOut, resp.Direction)
	assert.Equal(t, "200", resp.Amount.String())
	require.Len(t, f.repo.movements, 1)
}

func TestPostMovementNonPositiveAmount(t *testing.T) {
	f := newShiftFixture()
	shift := f.open(t)

	_, err := f.svc.PostMovement(context.Background(), f.opener, dto.PostMovementRequest{
		ShiftID:      shift.ID,
		Direction:    model.MovementIn,
		CurrencyCode: "DOP",
		Amount:       decimal.Zero,
		Reason:       "fondo extra",
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestPostMovementOnClosedShift(t *testing.T) {
	f := newShiftFixture()
	shift := f.open(t)
	f.closeShift(t, shift.ID)

	_, err := f.svc.PostMovement(context.Background(), f.opener, dto.PostMovementRequest{
		ShiftID:      shift.ID,
		Direction:    model.MovementIn,
		CurrencyCode: "DOP",
		Amount:       decimal.NewFromInt(100),
		Reason:       "fondo extra",
	})
	assert.ErrorIs(t, err, ErrShiftClosed)
}

// ── Expected totals ──────────────────────────────────────────────────────────

func TestExpectedTotalsExcludesChange(t *testing.T) {
	f := newShiftFixture()
	resp, err := f.svc.Open(context.Background(), f.opener, dto.OpenShiftRequest{
		RegisterID: f.registerID.String(),
		Counts:     f.countDOP(dto.CountLineInput{DenominationID: f.d100.String(), Quantity: 1}),
	})
	require.NoError(t, err)
	shiftID := uuid.MustParse(resp.ID)

	// opening 100, +50 sale cash-in, −20 expense, −30 change (must be ignored)
	f.repo.movements = append(f.repo.movements,
		model.CashMovement{ShiftID: shiftID, Direction: model.MovementIn,
			CurrencyCode: "DOP", Amount: decimal.NewFromInt(50), Reason: model.ReasonSalePayment},
		model.CashMovement{ShiftID: shiftID, Direction: model.MovementOut,
			CurrencyCode: "DOP", Amount: decimal.NewFromInt(20), Reason: "gasto menor"},
		model.CashMovement{ShiftID: shiftID, Direction: model.MovementOut,
			CurrencyCode: "DOP", Amount: decimal.NewFromInt(30), Reason: model.ReasonChange},
	)

	totals, err := f.svc.ExpectedTotals(context.Background(), shiftID)
	require.NoError(t, err)
	assert.Equal(t, "130", totals["DOP"].String())
}

// ── Close ────────────────────────────────────────────────────────────────────

func (f *shiftFixture) closeShift(t *testing.T, shiftID string) *dto.ShiftReportResponse {
	t.Helper()
	report, err := f.svc.Close(context.Background(),
		Closer{UserID: f.opener, Rol: model.RoleCajero},
		dto.CloseShiftRequest{
			ShiftID: shiftID,
			Counts:  f.countDOP(dto.CountLineInput{DenominationID: f.d500.String(), Quantity: 2}),
		})
	require.NoError(t, err)
	return report
}

func TestCloseShiftByOpener(t *testing.T) {
	f := newShiftFixture()
	shift := f.open(t)

	report := f.closeShift(t, shift.ID)
	assert.Equal(t, model.ShiftClosed, report.Status)
	require.Len(t, report.Currencies, 1)
	// Opened with 1000, closed counting 1000 → zero variance
	c := report.Currencies[0]
	assert.Equal(t, "DOP", c.CurrencyCode)
	assert.True(t, c.Variance.IsZero())
	assert.Equal(t, VarianceNormal, c.Classification)
}

func TestCloseShiftForbiddenForOtherCashier(t *testing.T) {
	f := newShiftFixture()
	shift := f.open(t)

	_, err := f.svc.Close(context.Background(),
		Closer{UserID: uuid.New(), Rol: model.RoleCajero},
		dto.CloseShiftRequest{
			ShiftID: shift.ID,
			Counts:  f.countDOP(dto.CountLineInput{DenominationID: f.d500.String(), Quantity: 2}),
		})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCloseShiftBySupervisor(t *testing.T) {
	f := newShiftFixture()
	shift := f.open(t)

	report, err := f.svc.Close(context.Background(),
		Closer{UserID: uuid.New(), Rol: model.RoleSupervisor},
		dto.CloseShiftRequest{
			ShiftID: shift.ID,
			Counts:  f.countDOP(dto.CountLineInput{DenominationID: f.d500.String(), Quantity: 2}),
		})
	require.NoError(t, err)
	assert.Equal(t, model.ShiftClosed, report.Status)
}

func TestCloseShiftTwice(t *testing.T) {
	f := newShiftFixture()
	shift := f.open(t)
	f.closeShift(t, shift.ID)

	_, err := f.svc.Close(context.Background(),
		Closer{UserID: f.opener, Rol: model.RoleCajero},
		dto.CloseShiftRequest{
			ShiftID: shift.ID,
			Counts:  f.countDOP(dto.CountLineInput{DenominationID: f.d500.String(), Quantity: 2}),
		})
	assert.ErrorIs(t, err, ErrShiftAlreadyClosed)
}

func TestCloseShiftVarianceClassified(t *testing.T) {
	f := newShiftFixture()
	shift := f.open(t) // opening 1000

	// Count only 900 at close → variance −100 = −10% → critico
	report, err := f.svc.Close(context.Background(),
		Closer{UserID: f.opener, Rol: model.RoleCajero},
		dto.CloseShiftRequest{
			ShiftID: shift.ID,
			Counts:  f.countDOP(dto.CountLineInput{DenominationID: f.d100.String(), Quantity: 9}),
		})
	require.NoError(t, err)
	require.Len(t, report.Currencies, 1)
	c := report.Currencies[0]
	assert.Equal(t, "-100", c.Variance.String())
	assert.Equal(t, VarianceCritical, c.Classification)
}

func TestShiftHistoryFiltersByRegister(t *testing.T) {
	f := newShiftFixture()
	f.open(t)

	list, err := f.svc.History(context.Background(), &f.registerID, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, list.Total)
	require.Len(t, list.Data, 1)

	unknown := uuid.New()
	empty, err := f.svc.History(context.Background(), &unknown, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 0, empty.Total)
}
