// Package indexer drives replay: it turns the DA layer's blob stream into
// an ordered, deduplicated sequence of events and folds each one into the
// store through the reducer.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nftzone/registry-indexer/internal/adapter"
	"github.com/nftzone/registry-indexer/internal/da"
	"github.com/nftzone/registry-indexer/internal/domain"
	"github.com/nftzone/registry-indexer/internal/logger"
	"github.com/nftzone/registry-indexer/internal/reducer"
	"github.com/nftzone/registry-indexer/internal/store"
)

// Config holds the replay driver settings
type Config struct {
	// StartHeight is the first height to index when no cursor exists
	StartHeight uint64
	// PollInterval is the sleep between head polls and the backoff unit for
	// fetch retries
	PollInterval time.Duration
}

// Counters tallies apply decisions for one height or one run
type Counters struct {
	Applied  int
	Rejected int
	Skipped  int
}

func (c *Counters) add(other Counters) {
	c.Applied += other.Applied
	c.Rejected += other.Rejected
	c.Skipped += other.Skipped
}

// Driver is the continuous replay loop. It is the single logical writer:
// events are applied strictly sequentially, one committed before the next
// begins.
type Driver struct {
	cfg     Config
	store   store.Store
	reducer *reducer.Reducer
	client  da.Client
	clock   adapter.Clock

	runID string
}

// NewDriver creates a continuous replay driver
func NewDriver(cfg Config, s store.Store, r *reducer.Reducer, client da.Client, clock adapter.Clock) *Driver {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	return &Driver{
		cfg:     cfg,
		store:   s,
		reducer: r,
		client:  client,
		clock:   clock,
		runID:   uuid.NewString(),
	}
}

// Run polls the DA layer for new heights until ctx is cancelled. An
// in-flight height always completes before shutdown is honored.
func (d *Driver) Run(ctx context.Context) error {
	cursor, err := d.store.GetLastIndexedHeight(ctx)
	if err != nil {
		// Cannot proceed with undefined cursor state
		return fmt.Errorf("failed to load cursor: %w", err)
	}

	height := d.cfg.StartHeight
	if cursor+1 > height {
		height = cursor + 1
	}

	logger.InfoCtx(ctx, "replay driver starting",
		zap.String("run_id", d.runID),
		zap.Uint64("start_height", height),
		zap.Uint64("cursor", cursor))

	var totals Counters
	start := d.clock.Now()

	for {
		select {
		case <-ctx.Done():
			d.logRunSummary(totals, start)
			return nil
		default:
		}

		head, err := d.client.LocalHead(ctx)
		if err != nil {
			logger.WarnCtx(ctx, "failed to get chain head, backing off",
				zap.String("run_id", d.runID), zap.Error(err))
			if !d.sleep(ctx) {
				d.logRunSummary(totals, start)
				return nil
			}
			continue
		}

		if height > head {
			if !d.sleep(ctx) {
				d.logRunSummary(totals, start)
				return nil
			}
			continue
		}

		for height <= head {
			counters, err := d.processHeight(ctx, height)
			if err != nil {
				// Retry the same height after one interval; the cursor has
				// not advanced and the dedup set protects partial progress
				logger.WarnCtx(ctx, "height processing failed, retrying",
					zap.String("run_id", d.runID),
					zap.Uint64("height", height),
					zap.Error(err))
				if !d.sleep(ctx) {
					d.logRunSummary(totals, start)
					return nil
				}
				continue
			}

			totals.add(counters)
			height++

			select {
			case <-ctx.Done():
				d.logRunSummary(totals, start)
				return nil
			default:
			}
		}
	}
}

// processHeight fetches, decodes and applies every blob at one height, then
// advances the cursor and processed set in the same store transaction.
func (d *Driver) processHeight(ctx context.Context, height uint64) (Counters, error) {
	blobs, err := d.client.GetAll(ctx, height)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to fetch blobs at height %d: %w", height, err)
	}

	var counters Counters
	txHashes := make([]string, 0, len(blobs))

	for _, blob := range blobs {
		processed, err := d.store.IsTxProcessed(ctx, blob.TxID)
		if err != nil {
			return Counters{}, fmt.Errorf("failed to check processed tx: %w", err)
		}
		if processed {
			logger.DebugCtx(ctx, "tx already processed, skipping",
				zap.Uint64("height", height), zap.String("tx_id", blob.TxID))
			continue
		}

		event, err := domain.DecodeEvent(blob.Data)
		if err != nil {
			// Undecodable blob: skip this one only, siblings still apply
			logger.WarnCtx(ctx, "undecodable blob, skipping",
				zap.Uint64("height", height),
				zap.String("tx_id", blob.TxID),
				zap.Error(err))
			txHashes = append(txHashes, blob.TxID)
			continue
		}

		result, err := d.reducer.Apply(ctx, event, height, blob.TxID)
		if err != nil {
			return Counters{}, fmt.Errorf("failed to apply event: %w", err)
		}

		d.logDecision(ctx, event, height, blob.TxID, result)
		switch result.Outcome {
		case reducer.OutcomeApplied:
			counters.Applied++
		case reducer.OutcomeRejected:
			counters.Rejected++
		case reducer.OutcomeSkipped:
			counters.Skipped++
		}

		txHashes = append(txHashes, blob.TxID)
	}

	if err := d.store.AdvanceCursor(ctx, height, txHashes); err != nil {
		return Counters{}, fmt.Errorf("failed to advance cursor: %w", err)
	}

	if len(blobs) > 0 {
		logger.InfoCtx(ctx, "height indexed",
			zap.String("run_id", d.runID),
			zap.Uint64("height", height),
			zap.Int("blobs", len(blobs)),
			zap.Int("applied", counters.Applied),
			zap.Int("rejected", counters.Rejected),
			zap.Int("skipped", counters.Skipped))
	}

	return counters, nil
}

func (d *Driver) logDecision(ctx context.Context, event domain.Event, height uint64, txID string, result reducer.Result) {
	fields := []zap.Field{
		zap.String("run_id", d.runID),
		zap.String("kind", string(event.Kind)),
		zap.Uint64("height", height),
		zap.String("tx_id", txID),
		zap.String("outcome", string(result.Outcome)),
	}
	if result.Reason != "" {
		fields = append(fields, zap.String("reason", string(result.Reason)))
	}
	logger.InfoCtx(ctx, "event processed", fields...)
}

func (d *Driver) logRunSummary(totals Counters, start time.Time) {
	logger.Info("replay driver stopped",
		zap.String("run_id", d.runID),
		zap.Int("applied", totals.Applied),
		zap.Int("rejected", totals.Rejected),
		zap.Int("skipped", totals.Skipped),
		zap.Duration("uptime", d.clock.Since(start)))
}

// sleep waits one polling interval; returns false if ctx was cancelled
func (d *Driver) sleep(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-d.clock.After(d.cfg.PollInterval):
		return true
	}
}
