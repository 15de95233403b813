package schema

import (
	"time"

	"gorm.io/datatypes"
)

// NFTStatus represents the lifecycle state of an NFT
type NFTStatus string

const (
	// NFTStatusActive indicates the NFT is held by its owner with no open listing
	NFTStatusActive NFTStatus = "active"
	// NFTStatusListed indicates the NFT has an active sale listing
	NFTStatusListed NFTStatus = "listed"
	// NFTStatusBurned indicates the NFT was destroyed and can no longer move
	NFTStatusBurned NFTStatus = "burned"
)

// NFT represents the nfts table - one row per minted NFT
type NFT struct {
	// ID is the internal database primary key
	ID int64 `gorm:"column:id;primaryKey;autoIncrement"`
	// CollectionID references the collection this NFT belongs to
	CollectionID string `gorm:"column:collection_id;not null;type:text;uniqueIndex:idx_nfts_collection_nft,priority:1"`
	// NFTID is the numeric token identifier within the collection
	NFTID int64 `gorm:"column:nft_id;not null;uniqueIndex:idx_nfts_collection_nft,priority:2"`
	// Owner is the current owner's address
	Owner string `gorm:"column:owner;not null;type:text;index:idx_nfts_owner"`
	// MetadataURI points at off-chain metadata for the NFT
	MetadataURI string `gorm:"column:metadata_uri;type:text"`
	// Extra holds arbitrary issuer-supplied JSON attached at mint time
	Extra datatypes.JSON `gorm:"column:extra;type:jsonb"`
	// Status is the lifecycle state (active, listed, burned)
	Status NFTStatus `gorm:"column:status;not null;type:text;default:'active'"`
	// CreatedAtHeight is the DA-layer block height the mint appeared at
	CreatedAtHeight uint64 `gorm:"column:created_at_height;not null"`
	// TxHash identifies the blob that carried the mint
	TxHash string `gorm:"column:tx_hash;not null;type:text"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`
}

// TableName specifies the table name for the NFT model
func (NFT) TableName() string {
	return "nfts"
}
