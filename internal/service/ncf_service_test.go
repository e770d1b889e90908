package service

import (
	"context"
	"sync"
	"testing"

	"caribepos/internal/dto"
	"caribepos/internal/model"
	"caribepos/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── In-memory NcfRepository ──────────────────────────────────────────────────
// The mutex stands in for the row lock ReserveNext takes in production: only
// one reservation touches a sequence at a time.

type fakeNcfRepo struct {
	mu   sync.Mutex
	seqs []*model.NcfSequence
}

func newFakeNcfRepo(seqs ...*model.NcfSequence) *fakeNcfRepo {
	r := &fakeNcfRepo{}
	for _, s := range seqs {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		r.seqs = append(r.seqs, s)
	}
	return r
}

func (r *fakeNcfRepo) DB() *gorm.DB { return nil }

func (r *fakeNcfRepo) ReserveNext(_ context.Context, _ *gorm.DB, storeID uuid.UUID, typeCode string) (*model.NcfSequence, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.seqs {
		if s.StoreID != storeID || s.TypeCode != typeCode || !s.Active {
			continue
		}
		if s.EndNumber != nil && s.NextNumber >= *s.EndNumber {
			return nil, 0, repository.ErrExhausted
		}
		reserved := s.NextNumber
		s.NextNumber++
		snapshot := *s
		return &snapshot, reserved, nil
	}
	return nil, 0, repository.ErrNoSequence
}

func (r *fakeNcfRepo) Create(_ context.Context, seq *model.NcfSequence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if seq.ID == uuid.Nil {
		seq.ID = uuid.New()
	}
	r.seqs = append(r.seqs, seq)
	return nil
}

func (r *fakeNcfRepo) Update(_ context.Context, seq *model.NcfSequence) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.seqs {
		if s.ID == seq.ID {
			r.seqs[i] = seq
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeNcfRepo) FindByID(_ context.Context, id uuid.UUID) (*model.NcfSequence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.seqs {
		if s.ID == id {
			snapshot := *s
			return &snapshot, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeNcfRepo) ListByStore(_ context.Context, storeID uuid.UUID) ([]model.NcfSequence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.NcfSequence
	for _, s := range r.seqs {
		if s.StoreID == storeID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *fakeNcfRepo) nextNumber(typeCode string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.seqs {
		if s.TypeCode == typeCode {
			return s.NextNumber
		}
	}
	return -1
}

var _ repository.NcfRepository = (*fakeNcfRepo)(nil)

// ── Tests ────────────────────────────────────────────────────────────────────

func TestReserveFormatsNcf(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeNcfRepo(&model.NcfSequence{
		StoreID: storeID, TypeCode: "B02", NextNumber: 42, PadLength: 8, Active: true,
	})
	svc := NewNcfService(repo)

	ncf, err := svc.Reserve(context.Background(), storeID, "B02")
	require.NoError(t, err)
	assert.Equal(t, "B0200000042", ncf)

	// The sequence advanced past the reserved number
	assert.Equal(t, int64(43), repo.nextNumber("B02"))
}

func TestReserveCustomPrefixAndPadding(t *testing.T) {
	storeID := uuid.New()
	prefix := "E31"
	repo := newFakeNcfRepo(&model.NcfSequence{
		StoreID: storeID, TypeCode: "B01", Prefix: &prefix, NextNumber: 7, PadLength: 10, Active: true,
	})
	svc := NewNcfService(repo)

	ncf, err := svc.Reserve(context.Background(), storeID, "B01")
	require.NoError(t, err)
	assert.Equal(t, "E310000000007", ncf)
}

func TestReserveConcurrentIssuesUniqueNumbers(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeNcfRepo(&model.NcfSequence{
		StoreID: storeID, TypeCode: "B02", NextNumber: 1, PadLength: 8, Active: true,
	})
	svc := NewNcfService(repo)

	const n = 50
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ncf, err := svc.Reserve(context.Background(), storeID, "B02")
			assert.NoError(t, err)
			results <- ncf
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{}, n)
	for ncf := range results {
		_, dup := seen[ncf]
		assert.False(t, dup, "NCF %s issued twice", ncf)
		seen[ncf] = struct{}{}
	}
	require.Len(t, seen, n)
	// Numbers 1..n were all issued with no gaps
	for i := 1; i <= n; i++ {
		seq := model.NcfSequence{TypeCode: "B02", PadLength: 8}
		_, ok := seen[FormatNcf(&seq, int64(i))]
		assert.True(t, ok, "number %d missing from issued set", i)
	}
	assert.Equal(t, int64(n+1), repo.nextNumber("B02"))
}

func TestReserveExhaustedSequence(t *testing.T) {
	storeID := uuid.New()
	end := int64(9999999)
	repo := newFakeNcfRepo(&model.NcfSequence{
		StoreID: storeID, TypeCode: "B02", NextNumber: 9999998, EndNumber: &end, PadLength: 8, Active: true,
	})
	svc := NewNcfService(repo)

	// 9999998 is the last authorized number (EndNumber is exclusive)
	ncf, err := svc.Reserve(context.Background(), storeID, "B02")
	require.NoError(t, err)
	assert.Equal(t, "B0209999998", ncf)

	_, err = svc.Reserve(context.Background(), storeID, "B02")
	assert.ErrorIs(t, err, ErrSequenceExhausted)
	// The exhausted path must not advance the counter
	assert.Equal(t, int64(9999999), repo.nextNumber("B02"))
}

func TestReserveUnknownSequence(t *testing.T) {
	svc := NewNcfService(newFakeNcfRepo())
	_, err := svc.Reserve(context.Background(), uuid.New(), "B02")
	assert.ErrorIs(t, err, ErrSequenceNotFound)
}

func TestReserveInactiveSequence(t *testing.T) {
	storeID := uuid.New()
	repo := newFakeNcfRepo(&model.NcfSequence{
		StoreID: storeID, TypeCode: "B02", NextNumber: 1, PadLength: 8, Active: false,
	})
	svc := NewNcfService(repo)

	_, err := svc.Reserve(context.Background(), storeID, "B02")
	assert.ErrorIs(t, err, ErrSequenceNotFound)
}

func TestNcfTypeForBillTo(t *testing.T) {
	cases := map[string]string{
		"consumo":          "B02",
		"credito_fiscal":   "B01",
		"regimen_especial": "B14",
		"gubernamental":    "B15",
	}
	for billTo, want := range cases {
		got, ok := NcfTypeFor(billTo)
		require.True(t, ok, billTo)
		assert.Equal(t, want, got)
	}
	_, ok := NcfTypeFor("none")
	assert.False(t, ok, "bill-to none must not produce a fiscal document")
}

func TestCreateSequenceRejectsInvertedRange(t *testing.T) {
	svc := NewNcfService(newFakeNcfRepo())
	end := int64(10)
	_, err := svc.CreateSequence(context.Background(), dto.CreateNcfSequenceRequest{
		StoreID:    uuid.New().String(),
		TypeCode:   "B02",
		NextNumber: 10,
		EndNumber:  &end,
	})
	assert.ErrorContains(t, err, "end_number")
}

func TestCreateSequenceRejectsUnknownType(t *testing.T) {
	svc := NewNcfService(newFakeNcfRepo())
	_, err := svc.CreateSequence(context.Background(), dto.CreateNcfSequenceRequest{
		StoreID:  uuid.New().String(),
		TypeCode: "B99",
	})
	assert.ErrorContains(t, err, "tipo de comprobante")
}

func TestUpdateSequenceNeverRewinds(t *testing.T) {
	storeID := uuid.New()
	seq := &model.NcfSequence{
		StoreID: storeID, TypeCode: "B02", NextNumber: 500, PadLength: 8, Active: true,
	}
	repo := newFakeNcfRepo(seq)
	svc := NewNcfService(repo)

	backward := int64(100)
	_, err := svc.UpdateSequence(context.Background(), seq.ID, dto.UpdateNcfSequenceRequest{
		NextNumber: &backward,
	})
	assert.ErrorContains(t, err, "no puede retroceder")

	forward := int64(600)
	resp, err := svc.UpdateSequence(context.Background(), seq.ID, dto.UpdateNcfSequenceRequest{
		NextNumber: &forward,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(600), resp.NextNumber)
}
