package schema

import "time"

// TransferType classifies how ownership moved
type TransferType string

const (
	// TransferTypeMint indicates the NFT entered circulation
	TransferTypeMint TransferType = "mint"
	// TransferTypeTransfer indicates a plain owner-to-owner transfer
	TransferTypeTransfer TransferType = "transfer"
	// TransferTypeSale indicates a transfer settled through a listing
	TransferTypeSale TransferType = "sale"
)

// TransferHistory represents the transfer_history table - append-only
// provenance trail of every ownership change
type TransferHistory struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CollectionID references the collection of the moved NFT
	CollectionID string `gorm:"column:collection_id;not null;type:text;index:idx_transfer_history_collection_nft,priority:1"`
	// NFTID is the token identifier within the collection
	NFTID int64 `gorm:"column:nft_id;not null;index:idx_transfer_history_collection_nft,priority:2"`
	// FromAddress is the previous owner (the MINT sentinel for mints)
	FromAddress string `gorm:"column:from_address;not null;type:text"`
	// ToAddress is the new owner
	ToAddress string `gorm:"column:to_address;not null;type:text"`
	// TxType classifies the movement (mint, transfer, sale)
	TxType TransferType `gorm:"column:tx_type;not null;type:text"`
	// Price is the settlement price for sales, nil otherwise
	Price *int64 `gorm:"column:price"`
	// BlockHeight is the DA-layer block height the movement appeared at
	BlockHeight uint64 `gorm:"column:block_height;not null"`
	// TxHash identifies the blob that carried the movement
	TxHash string `gorm:"column:tx_hash;not null;type:text"`
	// CreatedAt is the timestamp when this record was indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the TransferHistory model
func (TransferHistory) TableName() string {
	return "transfer_history"
}
