package schema

import "time"

// ProcessedTx represents the processed_txs table - the dedup set used to make
// event replay idempotent under at-least-once delivery
type ProcessedTx struct {
	// TxHash is the blob/transaction identifier (primary key)
	TxHash string `gorm:"column:tx_hash;primaryKey;type:text"`
	// BlockHeight is the DA-layer block height the tx was observed at
	BlockHeight uint64 `gorm:"column:block_height;not null"`
	// ProcessedAt is when the reducer finished with the tx
	ProcessedAt time.Time `gorm:"column:processed_at;not null;default:now()"`
}

// TableName specifies the table name for the ProcessedTx model
func (ProcessedTx) TableName() string {
	return "processed_txs"
}
