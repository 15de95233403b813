// Package dto defines the wire shapes of the query facade.
package dto

import (
	"encoding/json"
	"time"

	"github.com/nftzone/registry-indexer/internal/store/schema"
	"github.com/nftzone/registry-indexer/internal/uri"
)

// metadataResolver rewrites ipfs:// and ar:// metadata URIs into gateway
// URLs for API consumers
var metadataResolver = uri.NewResolver("", "")

// Collection is the API representation of a collection
type Collection struct {
	CollectionID    string    `json:"collection_id"`
	Issuer          string    `json:"issuer"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	TotalSupply     int64     `json:"total_supply"`
	CreatedAtHeight uint64    `json:"created_at_height"`
	TxHash          string    `json:"tx_hash"`
	CreatedAt       time.Time `json:"created_at"`
}

// NFT is the API representation of an NFT
type NFT struct {
	CollectionID    string          `json:"collection_id"`
	NFTID           int64           `json:"nft_id"`
	Owner           string          `json:"owner"`
	MetadataURI     string          `json:"metadata_uri,omitempty"`
	MetadataURL     string          `json:"metadata_url,omitempty"`
	Extra           json.RawMessage `json:"extra,omitempty"`
	Status          string          `json:"status"`
	CreatedAtHeight uint64          `json:"created_at_height"`
	TxHash          string          `json:"tx_hash"`
}

// Listing is the API representation of a sale listing
type Listing struct {
	CollectionID    string `json:"collection_id"`
	NFTID           int64  `json:"nft_id"`
	Seller          string `json:"seller"`
	Price           int64  `json:"price"`
	Status          string `json:"status"`
	CreatedAtHeight uint64 `json:"created_at_height"`
	TxHash          string `json:"tx_hash"`
}

// Transfer is one row of an NFT's provenance
type Transfer struct {
	CollectionID string    `json:"collection_id"`
	NFTID        int64     `json:"nft_id"`
	From         string    `json:"from"`
	To           string    `json:"to"`
	TxType       string    `json:"tx_type"`
	Price        *int64    `json:"price,omitempty"`
	BlockHeight  uint64    `json:"block_height"`
	TxHash       string    `json:"tx_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// CollectionsResponse is a paginated collection list
type CollectionsResponse struct {
	Collections []Collection `json:"collections"`
	Total       uint64       `json:"total"`
	Limit       uint64       `json:"limit"`
	Offset      uint64       `json:"offset"`
}

// NFTsResponse is a paginated NFT list
type NFTsResponse struct {
	NFTs   []NFT  `json:"nfts"`
	Total  uint64 `json:"total"`
	Limit  uint64 `json:"limit"`
	Offset uint64 `json:"offset"`
}

// ListingsResponse is a paginated listing list
type ListingsResponse struct {
	Listings []Listing `json:"listings"`
	Total    uint64    `json:"total"`
	Limit    uint64    `json:"limit"`
	Offset   uint64    `json:"offset"`
}

// TransfersResponse is a paginated provenance list
type TransfersResponse struct {
	Transfers []Transfer `json:"transfers"`
	Total     uint64     `json:"total"`
	Limit     uint64     `json:"limit"`
	Offset    uint64     `json:"offset"`
}

// BundledNFTRequest is one pre-minted NFT inside a create request
type BundledNFTRequest struct {
	ID          int64           `json:"id" binding:"required"`
	MetadataURI string          `json:"metadata_uri"`
	Extra       json.RawMessage `json:"extra"`
}

// CreateCollectionRequest is the POST /collections body. Issuer may be
// omitted; the server resolves it from the configured wallet key.
type CreateCollectionRequest struct {
	CollectionID string              `json:"collection_id" binding:"required"`
	Name         string              `json:"name" binding:"required"`
	Description  string              `json:"description"`
	Issuer       string              `json:"issuer"`
	NFTs         []BundledNFTRequest `json:"nfts"`
}

// CreateCollectionResponse reports where the definition blob landed and the
// local apply outcome
type CreateCollectionResponse struct {
	CollectionID string `json:"collection_id"`
	Issuer       string `json:"issuer"`
	Height       uint64 `json:"height"`
	TxHash       string `json:"tx_hash"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason,omitempty"`
}

// FromCollection maps a store model to its API shape
func FromCollection(c *schema.Collection) Collection {
	return Collection{
		CollectionID:    c.CollectionID,
		Issuer:          c.Issuer,
		Name:            c.Name,
		Description:     c.Description,
		TotalSupply:     c.TotalSupply,
		CreatedAtHeight: c.CreatedAtHeight,
		TxHash:          c.TxHash,
		CreatedAt:       c.CreatedAt,
	}
}

// FromNFT maps a store model to its API shape
func FromNFT(n *schema.NFT) NFT {
	return NFT{
		CollectionID:    n.CollectionID,
		NFTID:           n.NFTID,
		Owner:           n.Owner,
		MetadataURI:     n.MetadataURI,
		MetadataURL:     metadataResolver.Resolve(n.MetadataURI),
		Extra:           json.RawMessage(n.Extra),
		Status:          string(n.Status),
		CreatedAtHeight: n.CreatedAtHeight,
		TxHash:          n.TxHash,
	}
}

// FromListing maps a store model to its API shape
func FromListing(l *schema.Listing) Listing {
	return Listing{
		CollectionID:    l.CollectionID,
		NFTID:           l.NFTID,
		Seller:          l.Seller,
		Price:           l.Price,
		Status:          string(l.Status),
		CreatedAtHeight: l.CreatedAtHeight,
		TxHash:          l.TxHash,
	}
}

// FromTransfer maps a store model to its API shape
func FromTransfer(tr *schema.TransferHistory) Transfer {
	return Transfer{
		CollectionID: tr.CollectionID,
		NFTID:        tr.NFTID,
		From:         tr.FromAddress,
		To:           tr.ToAddress,
		TxType:       string(tr.TxType),
		Price:        tr.Price,
		BlockHeight:  tr.BlockHeight,
		TxHash:       tr.TxHash,
		CreatedAt:    tr.CreatedAt,
	}
}
