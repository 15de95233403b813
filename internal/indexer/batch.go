package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nftzone/registry-indexer/internal/adapter"
	"github.com/nftzone/registry-indexer/internal/domain"
	"github.com/nftzone/registry-indexer/internal/logger"
	"github.com/nftzone/registry-indexer/internal/reducer"
	"github.com/nftzone/registry-indexer/internal/store"
)

// BatchImporter replays a finite directory of pre-recorded event files and
// stops. Files are processed in stable filename order.
type BatchImporter struct {
	fs      adapter.FileSystem
	store   store.Store
	reducer *reducer.Reducer
}

// NewBatchImporter creates a batch importer reading through the given
// file system adapter
func NewBatchImporter(fs adapter.FileSystem, s store.Store, r *reducer.Reducer) *BatchImporter {
	return &BatchImporter{fs: fs, store: s, reducer: r}
}

// deployWrapper is the shape written by deployment tooling: the event
// nested under collection_data with its provenance alongside.
type deployWrapper struct {
	CollectionData json.RawMessage `json:"collection_data"`
	Result         *struct {
		Height uint64 `json:"height"`
		TxHash string `json:"txhash"`
	} `json:"result"`
}

// eventProvenance are the optional members a raw event file may carry
type eventProvenance struct {
	Height uint64 `json:"height"`
	TxHash string `json:"txhash"`
}

// Run imports every *.json file under dir. Undecodable files are skipped
// individually; already-processed tx ids are deduplicated the same way the
// continuous driver does.
func (b *BatchImporter) Run(ctx context.Context, dir string) (Counters, error) {
	entries, err := b.fs.ReadDir(dir)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to read import directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	logger.InfoCtx(ctx, "batch import starting",
		zap.String("dir", dir), zap.Int("files", len(files)))

	var totals Counters
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return totals, err
		}

		counters, err := b.importFile(ctx, filepath.Join(dir, name), name)
		if err != nil {
			return totals, err
		}
		totals.add(counters)
	}

	logger.InfoCtx(ctx, "batch import finished",
		zap.String("dir", dir),
		zap.Int("applied", totals.Applied),
		zap.Int("rejected", totals.Rejected),
		zap.Int("skipped", totals.Skipped))

	return totals, nil
}

func (b *BatchImporter) importFile(ctx context.Context, path, name string) (Counters, error) {
	content, err := b.fs.ReadFile(path)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	raw, height, txID, err := extractEvent(content)
	if err != nil {
		logger.WarnCtx(ctx, "undecodable event file, skipping",
			zap.String("file", name), zap.Error(err))
		return Counters{}, nil
	}
	if txID == "" {
		// Files recorded without provenance still need a stable dedup id
		txID = "file:" + name
	}

	processed, err := b.store.IsTxProcessed(ctx, txID)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to check processed tx: %w", err)
	}
	if processed {
		logger.DebugCtx(ctx, "tx already processed, skipping",
			zap.String("file", name), zap.String("tx_id", txID))
		return Counters{}, nil
	}

	event, err := domain.DecodeEvent(raw)
	if err != nil {
		logger.WarnCtx(ctx, "undecodable event file, skipping",
			zap.String("file", name), zap.Error(err))
		return Counters{}, nil
	}

	result, err := b.reducer.Apply(ctx, event, height, txID)
	if err != nil {
		return Counters{}, fmt.Errorf("failed to apply event from %s: %w", name, err)
	}

	fields := []zap.Field{
		zap.String("file", name),
		zap.String("kind", string(event.Kind)),
		zap.Uint64("height", height),
		zap.String("tx_id", txID),
		zap.String("outcome", string(result.Outcome)),
	}
	if result.Reason != "" {
		fields = append(fields, zap.String("reason", string(result.Reason)))
	}
	logger.InfoCtx(ctx, "event processed", fields...)

	if err := b.store.AdvanceCursor(ctx, height, []string{txID}); err != nil {
		return Counters{}, fmt.Errorf("failed to advance cursor: %w", err)
	}

	var counters Counters
	switch result.Outcome {
	case reducer.OutcomeApplied:
		counters.Applied++
	case reducer.OutcomeRejected:
		counters.Rejected++
	case reducer.OutcomeSkipped:
		counters.Skipped++
	}
	return counters, nil
}

// extractEvent accepts both recorded shapes: a deploy wrapper with the
// event under collection_data, or a raw event object with optional
// height/txhash members.
func extractEvent(content []byte) (json.RawMessage, uint64, string, error) {
	var wrapper deployWrapper
	if err := json.Unmarshal(content, &wrapper); err != nil {
		return nil, 0, "", fmt.Errorf("failed to parse event file: %w", err)
	}

	if len(wrapper.CollectionData) > 0 {
		var height uint64
		var txHash string
		if wrapper.Result != nil {
			height = wrapper.Result.Height
			txHash = wrapper.Result.TxHash
		}
		return wrapper.CollectionData, height, txHash, nil
	}

	var meta eventProvenance
	if err := json.Unmarshal(content, &meta); err != nil {
		return nil, 0, "", fmt.Errorf("failed to parse event provenance: %w", err)
	}
	return content, meta.Height, meta.TxHash, nil
}
