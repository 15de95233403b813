package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nftzone/registry-indexer/internal/store/schema"
)

// GetLastIndexedHeight retrieves the replay cursor
func (s *pgStore) GetLastIndexedHeight(ctx context.Context) (uint64, error) {
	var kv schema.KeyValueStore
	err := s.db.WithContext(ctx).Where("key = ?", s.cursorKey).First(&kv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil // No cursor yet, replay starts from the configured height
		}
		return 0, fmt.Errorf("failed to get cursor: %w", err)
	}

	height, err := strconv.ParseUint(kv.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse cursor: %w", err)
	}

	return height, nil
}

// IsTxProcessed reports whether a blob/tx has already been applied
func (s *pgStore) IsTxProcessed(ctx context.Context, txHash string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&schema.ProcessedTx{}).
		Where("tx_hash = ?", txHash).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check processed tx: %w", err)
	}
	return count > 0, nil
}

// AdvanceCursor raises the replay cursor and records the processed tx hashes
// in a single transaction. The cursor is monotonic: a height at or below the
// current cursor leaves it untouched, so replays cannot rewind progress.
func (s *pgStore) AdvanceCursor(ctx context.Context, height uint64, txHashes []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(txHashes) > 0 {
			processed := make([]schema.ProcessedTx, len(txHashes))
			for i, hash := range txHashes {
				processed[i] = schema.ProcessedTx{
					TxHash:      hash,
					BlockHeight: height,
				}
			}
			// Re-delivered txs are expected under at-least-once delivery
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "tx_hash"}},
				DoNothing: true,
			}).CreateInBatches(&processed, calculateSafeBatchSize(len(processed), 3)).Error; err != nil {
				return fmt.Errorf("failed to mark txs processed: %w", err)
			}
		}

		var kv schema.KeyValueStore
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("key = ?", s.cursorKey).First(&kv).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to get cursor: %w", err)
			}
		} else {
			current, err := strconv.ParseUint(kv.Value, 10, 64)
			if err != nil {
				return fmt.Errorf("failed to parse cursor: %w", err)
			}
			if height <= current {
				return nil
			}
		}

		kv.Key = s.cursorKey
		kv.Value = strconv.FormatUint(height, 10)
		if err := tx.Save(&kv).Error; err != nil {
			return fmt.Errorf("failed to set cursor: %w", err)
		}

		return nil
	})
}
