package store

import (
	"context"
	"encoding/json"

	"github.com/nftzone/registry-indexer/internal/store/schema"
)

// CreateCollectionInput bundles everything needed to register a collection
// definition, including any NFTs pre-minted inside it
type CreateCollectionInput struct {
	CollectionID string
	Name         string
	Description  string
	Issuer       string
	NFTs         []BundledNFTInput
	Raw          json.RawMessage
	Height       uint64
	TxHash       string
}

// BundledNFTInput is an NFT created as part of a collection definition
type BundledNFTInput struct {
	NFTID       int64
	MetadataURI string
	Extra       json.RawMessage
}

// MintNFTInput bundles the fields of a single mint
type MintNFTInput struct {
	CollectionID string
	NFTID        int64
	To           string
	MetadataURI  string
	Extra        json.RawMessage
	Height       uint64
	TxHash       string
}

// TransferNFTInput moves an NFT between owners. TxType distinguishes plain
// transfers from sale settlements; Price is set for sales only.
type TransferNFTInput struct {
	CollectionID string
	NFTID        int64
	From         string
	To           string
	TxType       schema.TransferType
	Price        *int64
	Height       uint64
	TxHash       string
}

// CreateListingInput opens a sale listing for an NFT
type CreateListingInput struct {
	CollectionID string
	NFTID        int64
	Seller       string
	Price        int64
	Height       uint64
	TxHash       string
}

// CancelListingInput withdraws the active listing of an NFT
type CancelListingInput struct {
	CollectionID string
	NFTID        int64
	Seller       string
	Height       uint64
	TxHash       string
}

// ListingQueryFilter narrows active listing queries
type ListingQueryFilter struct {
	CollectionID string
	Seller       string
	Limit        int
	Offset       uint64
}

// CollectionQueryFilter narrows collection queries
type CollectionQueryFilter struct {
	Issuer string
	Limit  int
	Offset uint64
}

// RegistryStats summarizes the indexed state
type RegistryStats struct {
	Collections       int64  `json:"collections"`
	NFTs              int64  `json:"nfts"`
	ActiveListings    int64  `json:"active_listings"`
	Transfers         int64  `json:"transfers"`
	LastIndexedHeight uint64 `json:"last_indexed_height"`
}

// Store defines the interface for database operations. Mutations run inside a
// single transaction each; precondition failures surface as domain sentinel
// errors so callers can classify them.
type Store interface {
	// CreateCollection registers a collection definition together with its
	// bundled NFTs, owned by the issuer
	CreateCollection(ctx context.Context, input CreateCollectionInput) error
	// MintNFT creates a single NFT and its mint provenance entry
	MintNFT(ctx context.Context, input MintNFTInput) error
	// TransferNFT changes ownership, closes any active listing as sold,
	// and appends a provenance entry
	TransferNFT(ctx context.Context, input TransferNFTInput) error
	// CreateListing opens a listing, superseding any previous active one
	CreateListing(ctx context.Context, input CreateListingInput) error
	// CancelListing withdraws the active listing of an NFT
	CancelListing(ctx context.Context, input CancelListingInput) error

	// GetCollection retrieves a collection by its identifier (nil when absent)
	GetCollection(ctx context.Context, collectionID string) (*schema.Collection, error)
	// GetCollections retrieves collections ordered by indexing time
	GetCollections(ctx context.Context, filter CollectionQueryFilter) ([]schema.Collection, uint64, error)
	// GetNFT retrieves a single NFT (nil when absent)
	GetNFT(ctx context.Context, collectionID string, nftID int64) (*schema.NFT, error)
	// GetNFTsByCollection retrieves the NFTs of a collection ordered by nft_id
	GetNFTsByCollection(ctx context.Context, collectionID string, limit int, offset uint64) ([]schema.NFT, uint64, error)
	// GetNFTsByOwner retrieves the NFTs held by an address
	GetNFTsByOwner(ctx context.Context, owner string, limit int, offset uint64) ([]schema.NFT, uint64, error)
	// GetActiveListing retrieves the open listing for an NFT (nil when absent)
	GetActiveListing(ctx context.Context, collectionID string, nftID int64) (*schema.Listing, error)
	// GetActiveListings retrieves open listings
	GetActiveListings(ctx context.Context, filter ListingQueryFilter) ([]schema.Listing, uint64, error)
	// GetTransferHistory retrieves the provenance trail of an NFT, oldest first
	GetTransferHistory(ctx context.Context, collectionID string, nftID int64, limit int, offset uint64) ([]schema.TransferHistory, uint64, error)
	// GetStats summarizes the indexed state
	GetStats(ctx context.Context) (*RegistryStats, error)

	// GetLastIndexedHeight retrieves the replay cursor (0 when unset)
	GetLastIndexedHeight(ctx context.Context) (uint64, error)
	// IsTxProcessed reports whether a blob/tx has already been applied
	IsTxProcessed(ctx context.Context, txHash string) (bool, error)
	// AdvanceCursor atomically raises the replay cursor to height (it never
	// moves backwards) and marks the given tx hashes processed
	AdvanceCursor(ctx context.Context, height uint64, txHashes []string) error
}
