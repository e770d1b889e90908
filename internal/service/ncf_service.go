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

// ncfTypeForBillTo maps a sale's bill-to type to the DGII document type that
// must be stamped on it. Bill-to "none" produces no fiscal document.
var ncfTypeForBillTo = map[string]string{
	"credito_fiscal":   "B01",
	"consumo":          "B02",
	"regimen_especial": "B14",
	"gubernamental":    "B15",
}

// NcfTypeFor returns the NCF type code a bill-to type requires, or ok=false
// when the sale needs no fiscal document.
func NcfTypeFor(billToType string) (string, bool) {
	t, ok := ncfTypeForBillTo[billToType]
	return t, ok
}

type NcfService interface {
	// Reserve issues the next number in its own transaction.
	Reserve(ctx context.Context, storeID uuid.UUID, typeCode string) (string, error)
	// ReserveTx issues the next number inside an enclosing transaction: the
	// increment commits or rolls back together with the caller's writes.
	ReserveTx(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, typeCode string) (string, error)

	// Admin configuration surface
	CreateSequence(ctx context.Context, req dto.CreateNcfSequenceRequest) (*dto.NcfSequenceResponse, error)
	UpdateSequence(ctx context.Context, id uuid.UUID, req dto.UpdateNcfSequenceRequest) (*dto.NcfSequenceResponse, error)
	ListSequences(ctx context.Context, storeID uuid.UUID) ([]dto.NcfSequenceResponse, error)
}

type ncfService struct {
	repo repository.NcfRepository
}

func NewNcfService(repo repository.NcfRepository) NcfService {
	return &ncfService{repo: repo}
}

func (s *ncfService) Reserve(ctx context.Context, storeID uuid.UUID, typeCode string) (string, error) {
	var formatted string
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		formatted, err = s.ReserveTx(ctx, tx, storeID, typeCode)
		return err
	})
	return formatted, err
}

func (s *ncfService) ReserveTx(ctx context.Context, tx *gorm.DB, storeID uuid.UUID, typeCode string) (string, error) {
	seq, number, err := s.repo.ReserveNext(ctx, tx, storeID, typeCode)
	switch {
	case errors.Is(err, repository.ErrNoSequence):
		return "", ErrSequenceNotFound
	case errors.Is(err, repository.ErrExhausted):
		return "", ErrSequenceExhausted
	case err != nil:
		return "", err
	}
	return FormatNcf(seq, number), nil
}

// FormatNcf renders a reserved number: prefix (default: type code) followed by
// the zero-padded number, e.g. B02 + 00000042 → "B0200000042".
func FormatNcf(seq *model.NcfSequence, number int64) string {
	prefix := seq.TypeCode
	if seq.Prefix != nil && *seq.Prefix != "" {
		prefix = *seq.Prefix
	}
	return fmt.Sprintf("%s%0*d", prefix, seq.PadLength, number)
}

// ── Admin CRUD ───────────────────────────────────────────────────────────────

func (s *ncfService) CreateSequence(ctx context.Context, req dto.CreateNcfSequenceRequest) (*dto.NcfSequenceResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, fmt.Errorf("store_id inválido: %w", err)
	}
	if _, ok := ncfTypeForBillTo[billToForType(req.TypeCode)]; !ok {
		return nil, fmt.Errorf("tipo de comprobante desconocido: %s", req.TypeCode)
	}
	padLength := req.PadLength
	if padLength == 0 {
		padLength = 8
	}
	if padLength < 1 || padLength > 12 {
		return nil, errors.New("pad_length debe estar entre 1 y 12")
	}
	nextNumber := req.NextNumber
	if nextNumber == 0 {
		nextNumber = 1
	}
	if req.EndNumber != nil && *req.EndNumber <= nextNumber {
		return nil, errors.New("end_number debe ser mayor que next_number")
	}
	seq := &model.NcfSequence{
		StoreID:    storeID,
		TypeCode:   req.TypeCode,
		Prefix:     req.Prefix,
		NextNumber: nextNumber,
		EndNumber:  req.EndNumber,
		PadLength:  padLength,
		Active:     true,
	}
	if err := s.repo.Create(ctx, seq); err != nil {
		return nil, err
	}
	return sequenceToResponse(seq), nil
}

func (s *ncfService) UpdateSequence(ctx context.Context, id uuid.UUID, req dto.UpdateNcfSequenceRequest) (*dto.NcfSequenceResponse, error) {
	seq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, ErrSequenceNotFound
	}
	// Admin override: NextNumber may only move forward — issued numbers are
	// never reissued, even by an explicit edit.
	if req.NextNumber != nil {
		if *req.NextNumber < seq.NextNumber {
			return nil, errors.New("next_number no puede retroceder: los NCF emitidos no se reutilizan")
		}
		seq.NextNumber = *req.NextNumber
	}
	if req.EndNumber != nil {
		seq.EndNumber = req.EndNumber
	}
	if req.Prefix != nil {
		seq.Prefix = req.Prefix
	}
	if req.Active != nil {
		seq.Active = *req.Active
	}
	if err := s.repo.Update(ctx, seq); err != nil {
		return nil, err
	}
	return sequenceToResponse(seq), nil
}

func (s *ncfService) ListSequences(ctx context.Context, storeID uuid.UUID) ([]dto.NcfSequenceResponse, error) {
	seqs, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.NcfSequenceResponse, len(seqs))
	for i := range seqs {
		resp[i] = *sequenceToResponse(&seqs[i])
	}
	return resp, nil
}

func sequenceToResponse(seq *model.NcfSequence) *dto.NcfSequenceResponse {
	return &dto.NcfSequenceResponse{
		ID:         seq.ID.String(),
		StoreID:    seq.StoreID.String(),
		TypeCode:   seq.TypeCode,
		Prefix:     seq.Prefix,
		NextNumber: seq.NextNumber,
		EndNumber:  seq.EndNumber,
		PadLength:  seq.PadLength,
		Active:     seq.Active,
	}
}

// billToForType reverses ncfTypeForBillTo for validation purposes.
func billToForType(typeCode string) string {
	for billTo, t := range ncfTypeForBillTo {
		if t == typeCode {
			return billTo
		}
	}
	return ""
}
