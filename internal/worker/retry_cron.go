package worker

// retry_cron.go
// Background goroutine that periodically re-attempts journal entries stuck in
// status='error' with a next_retry_at in the past. Backoff doubles per attempt;
// entries that exhaust MaxJournalRetries land in the DLQ for manual review.

import (
	"context"
	"fmt"
	"time"

	"caribepos/internal/model"
	"caribepos/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	JournalRepo repository.JournalRepository
	SaleRepo    repository.SaleRepository
	RDB         *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s, queries
// retryable journal entries, and re-derives them from their source sale.
// It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	entries, err := cfg.JournalRepo.ListRetryable(ctx, MaxJournalRetries, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query retryable entries")
		return
	}
	if len(entries) == 0 {
		return
	}

	log.Info().Int("count", len(entries)).Msg("retry_cron: processing journal entries")

	for i := range entries {
		entry := &entries[i]

		err := retryEntry(ctx, cfg, entry)
		if err == nil {
			log.Info().
				Str("entry_id", entry.ID.String()).
				Int("total_retries", entry.RetryCount).
				Msg("retry_cron: entry posted after retry")
			continue
		}

		nextRetry := time.Now().Add(computeRetryBackoff(entry.RetryCount + 1))
		_ = cfg.JournalRepo.MarkError(ctx, entry.ID, err.Error(), nextRetry)

		if entry.RetryCount+1 >= MaxJournalRetries {
			log.Error().
				Str("entry_id", entry.ID.String()).
				Str("source_id", entry.SourceID.String()).
				Int("retries", entry.RetryCount+1).
				Msg("retry_cron: max retries exceeded, moving to DLQ")
			payload := fmt.Sprintf(`{"source_type":%q,"source_id":%q}`, entry.SourceType, entry.SourceID)
			SendToDLQ(ctx, cfg.RDB, QueueJournal, "journal", []byte(payload),
				fmt.Sprintf("max retries (%d) exceeded: %s", MaxJournalRetries, err),
				entry.RetryCount+1)
		} else {
			log.Warn().
				Str("entry_id", entry.ID.String()).
				Int("retry_count", entry.RetryCount+1).
				Time("next_retry_at", nextRetry).
				Err(err).
				Msg("retry_cron: retry failed, scheduled next attempt")
		}
	}
}

// retryEntry re-derives the entry's lines from its source sale and persists
// the posted result.
func retryEntry(ctx context.Context, cfg RetryCronConfig, entry *model.JournalEntry) error {
	if entry.SourceType != "sale" {
		return fmt.Errorf("unknown source type %q", entry.SourceType)
	}
	sale, err := cfg.SaleRepo.FindByID(ctx, entry.SourceID)
	if err != nil {
		return fmt.Errorf("source sale not found: %w", err)
	}
	rebuilt := BuildSaleEntry(sale)
	entry.Lines = rebuilt.Lines
	entry.Description = rebuilt.Description
	entry.Status = model.JournalPosted
	entry.LastError = nil
	entry.NextRetryAt = nil
	return cfg.JournalRepo.Update(ctx, entry)
}

// computeRetryBackoff doubles per attempt: 1m, 2m, 4m …
func computeRetryBackoff(retryCount int) time.Duration {
	if retryCount < 1 {
		retryCount = 1
	}
	return time.Duration(1<<uint(retryCount-1)) * time.Minute
}
