package schema

import (
	"time"

	"gorm.io/datatypes"
)

// Collection represents the collections table - one row per collection
// definition observed on the data availability layer
type Collection struct {
	// CollectionID is the issuer-chosen collection identifier (primary key)
	CollectionID string `gorm:"column:collection_id;primaryKey;type:text"`
	// Issuer is the address that published the collection definition;
	// only this address may mint into the collection
	Issuer string `gorm:"column:issuer;not null;type:text;index:idx_collections_issuer"`
	// Name is the human-readable collection name
	Name string `gorm:"column:name;not null;type:text"`
	// Description is an optional free-form description
	Description string `gorm:"column:description;type:text"`
	// TotalSupply counts the NFTs currently minted into this collection
	TotalSupply int64 `gorm:"column:total_supply;not null;default:0"`
	// RawDefinition is the complete definition event payload as published
	RawDefinition datatypes.JSON `gorm:"column:raw_definition;type:jsonb"`
	// CreatedAtHeight is the DA-layer block height the definition appeared at
	CreatedAtHeight uint64 `gorm:"column:created_at_height;not null"`
	// TxHash identifies the blob that carried the definition
	TxHash string `gorm:"column:tx_hash;not null;type:text"`
	// CreatedAt is the timestamp when this record was first indexed
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now()"`

	// Associations
	NFTs     []NFT     `gorm:"foreignKey:CollectionID;references:CollectionID;constraint:OnDelete:CASCADE"`
	Listings []Listing `gorm:"foreignKey:CollectionID;references:CollectionID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for the Collection model
func (Collection) TableName() string {
	return "collections"
}
