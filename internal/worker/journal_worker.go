package worker

// journal_worker.go
// Processes accounting jobs from QueueJournal: derives a balanced double-entry
// journal entry from a finalized sale and stores it. Idempotent per source —
// replaying a job for an already-journalized sale is a no-op.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"caribepos/internal/model"
	"caribepos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// MaxJournalRetries caps the retry cron's attempts before an entry stays in
// error for manual inspection.
const MaxJournalRetries = 5

// JournalJobPayload is the job envelope sent to QueueJournal.
type JournalJobPayload struct {
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
}

type JournalWorker struct {
	journalRepo repository.JournalRepository
	saleRepo    repository.SaleRepository
}

func NewJournalWorker(journalRepo repository.JournalRepository, saleRepo repository.SaleRepository) *JournalWorker {
	return &JournalWorker{journalRepo: journalRepo, saleRepo: saleRepo}
}

// Process handles a single journal job:
//  1. Parse the payload and fetch the sale (with lines + payments)
//  2. Idempotency check: skip if an entry for this source already exists
//  3. Build the balanced entry and store it as posted
func (w *JournalWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload JournalJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("journal_worker: invalid payload")
		return nil // malformed payloads are not retryable
	}
	if payload.SourceType != "sale" {
		log.Error().Str("source_type", payload.SourceType).Msg("journal_worker: unknown source type")
		return nil
	}
	saleID, err := uuid.Parse(payload.SourceID)
	if err != nil {
		log.Error().Str("source_id", payload.SourceID).Msg("journal_worker: invalid source_id")
		return nil
	}

	// Idempotency anchor: one entry per source. An existing pending or error
	// entry is completed in place; a posted one is a finished replay.
	entry, err := w.journalRepo.FindBySource(ctx, payload.SourceType, saleID)
	if err == nil && entry != nil && entry.Status == model.JournalPosted {
		log.Debug().Str("sale_id", payload.SourceID).Msg("journal_worker: entry already posted, skipping")
		return nil
	}
	if entry == nil || err != nil {
		entry = &model.JournalEntry{
			EntryDate:   time.Now(),
			Description: fmt.Sprintf("Venta %s", saleID),
			SourceType:  payload.SourceType,
			SourceID:    saleID,
			Status:      model.JournalPending,
		}
		if err := w.journalRepo.Create(ctx, entry); err != nil {
			return fmt.Errorf("journal_worker: failed to create entry for sale %s: %w", payload.SourceID, err)
		}
	}

	sale, err := w.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		w.scheduleRetry(ctx, entry, err)
		return fmt.Errorf("journal_worker: sale %s not found: %w", payload.SourceID, err)
	}

	rebuilt := BuildSaleEntry(sale)
	entry.Lines = rebuilt.Lines
	entry.Description = rebuilt.Description
	entry.Status = model.JournalPosted
	if err := w.journalRepo.Update(ctx, entry); err != nil {
		w.scheduleRetry(ctx, entry, err)
		return fmt.Errorf("journal_worker: failed to store entry for sale %s: %w", payload.SourceID, err)
	}

	log.Info().
		Str("sale_id", payload.SourceID).
		Str("entry_id", entry.ID.String()).
		Msg("journal_worker: entry posted")
	return nil
}

// scheduleRetry hands the entry to the retry cron with a 1-minute first delay.
func (w *JournalWorker) scheduleRetry(ctx context.Context, entry *model.JournalEntry, cause error) {
	_ = w.journalRepo.MarkError(ctx, entry.ID, cause.Error(), time.Now().Add(time.Minute))
}

// BuildSaleEntry derives the double-entry record for a completed sale:
//
//	Dr 1101 Caja             (cash payments, in the sale's currency)
//	Dr 1102 Bancos           (card + transfer payments)
//	Dr 1201 Cuentas por cobrar (credit payments)
//	    Cr 4101 Ingresos por ventas (total − ITBIS)
//	    Cr 2105 ITBIS por pagar     (tax portion)
//
// The revenue credit is computed as Σ debits − tax so the entry always
// balances, even when foreign-currency conversions round unevenly.
func BuildSaleEntry(sale *model.Sale) *model.JournalEntry {
	debits := map[string]decimal.Decimal{}
	for _, p := range sale.Payments {
		amount := p.Amount
		if p.CurrencyCode != sale.CurrencyCode {
			if p.FxRateToSale != nil {
				amount = p.Amount.Mul(*p.FxRateToSale).Round(2)
			} else {
				amount = decimal.Zero
			}
		}
		account := AccountFor(p.Method)
		debits[account] = debits[account].Add(amount)
	}

	totalDebit := decimal.Zero
	lines := make([]model.JournalLine, 0, len(debits)+2)
	for _, account := range []string{model.AccountCash, model.AccountBank, model.AccountReceivables} {
		amount, ok := debits[account]
		if !ok || amount.IsZero() {
			continue
		}
		totalDebit = totalDebit.Add(amount)
		lines = append(lines, model.JournalLine{
			Account:      account,
			CurrencyCode: sale.CurrencyCode,
			Debit:        amount,
		})
	}

	tax := sale.TaxTotal
	revenue := totalDebit.Sub(tax)
	lines = append(lines, model.JournalLine{
		Account:      model.AccountSalesRevenue,
		CurrencyCode: sale.CurrencyCode,
		Credit:       revenue,
	})
	if !tax.IsZero() {
		lines = append(lines, model.JournalLine{
			Account:      model.AccountITBISPayable,
			CurrencyCode: sale.CurrencyCode,
			Credit:       tax,
		})
	}

	return &model.JournalEntry{
		EntryDate:   time.Now(),
		Description: fmt.Sprintf("Venta %s", sale.ID),
		SourceType:  "sale",
		SourceID:    sale.ID,
		Status:      model.JournalPosted,
		Lines:       lines,
	}
}

// AccountFor maps a payment method to its debit account.
func AccountFor(method string) string {
	switch method {
	case model.PaymentCash:
		return model.AccountCash
	case model.PaymentCredit:
		return model.AccountReceivables
	default: // card, transfer
		return model.AccountBank
	}
}
