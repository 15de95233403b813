package schema

import "time"

// ListingStatus represents the state of a sale listing
type ListingStatus string

const (
	// ListingStatusActive indicates the listing is open for purchase
	ListingStatusActive ListingStatus = "active"
	// ListingStatusSold indicates the listing was settled by a buy or the
	// NFT left the seller through a transfer
	ListingStatusSold ListingStatus = "sold"
	// ListingStatusCancelled indicates the listing was withdrawn or superseded
	ListingStatusCancelled ListingStatus = "cancelled"
)

// Listing represents the listings table - full listing history; at most one
// active row exists per (collection_id, nft_id)
type Listing struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CollectionID references the collection of the listed NFT
	CollectionID string `gorm:"column:collection_id;not null;type:text;index:idx_listings_collection_nft,priority:1"`
	// NFTID is the token identifier within the collection
	NFTID int64 `gorm:"column:nft_id;not null;index:idx_listings_collection_nft,priority:2"`
	// Seller is the address that created the listing
	Seller string `gorm:"column:seller;not null;type:text;index:idx_listings_seller"`
	// Price is the asking price in base units
	Price int64 `gorm:"column:price;not null"`
	// Status is the listing state (active, sold, cancelled)
	Status ListingStatus `gorm:"column:status;not null;type:text"`
	// CreatedAtHeight is the DA-layer block height the listing appeared at
	CreatedAtHeight uint64 `gorm:"column:created_at_height;not null"`
	// TxHash identifies the blob that carried the listing event
	TxHash string `gorm:"column:tx_hash;not null;type:text"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the Listing model
func (Listing) TableName() string {
	return "listings"
}
