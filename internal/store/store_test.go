package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftzone/registry-indexer/internal/domain"
	"github.com/nftzone/registry-indexer/internal/store/schema"
)

// RunStoreTests exercises the full Store contract against any implementation.
// Both the in-memory store and the Postgres store run the same suite.
func RunStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	tests := map[string]func(t *testing.T, s Store){
		"CreateCollectionWithBundledNFTs": testCreateCollectionWithBundledNFTs,
		"CreateCollectionDuplicate":       testCreateCollectionDuplicate,
		"MintNFT":                         testMintNFT,
		"MintNFTDuplicate":                testMintNFTDuplicate,
		"MintNFTUnknownCollection":        testMintNFTUnknownCollection,
		"TransferNFT":                     testTransferNFT,
		"TransferNFTNotOwner":             testTransferNFTNotOwner,
		"TransferNFTNotFound":             testTransferNFTNotFound,
		"TransferClosesActiveListing":     testTransferClosesActiveListing,
		"CreateListing":                   testCreateListing,
		"CreateListingNotOwner":           testCreateListingNotOwner,
		"CreateListingSupersedesPrior":    testCreateListingSupersedesPrior,
		"CancelListing":                   testCancelListing,
		"CancelListingNoActive":           testCancelListingNoActive,
		"CancelListingNotSeller":          testCancelListingNotSeller,
		"SaleClosesListingAsSold":         testSaleClosesListingAsSold,
		"QueryCollections":                testQueryCollections,
		"QueryNFTs":                       testQueryNFTs,
		"TransferHistoryOrdering":         testTransferHistoryOrdering,
		"CursorMonotonic":                 testCursorMonotonic,
		"ProcessedTxs":                    testProcessedTxs,
		"Stats":                           testStats,
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			test(t, newStore(t))
		})
	}
}

func seedCollection(t *testing.T, s Store, collectionID, issuer string, nftIDs ...int64) {
	t.Helper()

	nfts := make([]BundledNFTInput, len(nftIDs))
	for i, id := range nftIDs {
		nfts[i] = BundledNFTInput{NFTID: id, MetadataURI: "ipfs://meta"}
	}
	err := s.CreateCollection(context.Background(), CreateCollectionInput{
		CollectionID: collectionID,
		Name:         "Test Collection",
		Description:  "seeded for tests",
		Issuer:       issuer,
		NFTs:         nfts,
		Raw:          json.RawMessage(`{"type":"collection_definition"}`),
		Height:       100,
		TxHash:       "seed-" + collectionID,
	})
	require.NoError(t, err)
}

func testCreateCollectionWithBundledNFTs(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1, 2, 3)

	collection, err := s.GetCollection(ctx, "col-1")
	require.NoError(t, err)
	require.NotNil(t, collection)
	assert.Equal(t, "alice", collection.Issuer)
	assert.Equal(t, int64(3), collection.TotalSupply)
	assert.Equal(t, uint64(100), collection.CreatedAtHeight)

	nfts, total, err := s.GetNFTsByCollection(ctx, "col-1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, nfts, 3)
	for _, nft := range nfts {
		assert.Equal(t, "alice", nft.Owner)
		assert.Equal(t, schema.NFTStatusActive, nft.Status)
	}

	// Bundled NFTs get a genesis mint entry each
	history, total, err := s.GetTransferHistory(ctx, "col-1", 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, history, 1)
	assert.Equal(t, domain.GenesisAddress, history[0].FromAddress)
	assert.Equal(t, "alice", history[0].ToAddress)
	assert.Equal(t, schema.TransferTypeMint, history[0].TxType)
}

func testCreateCollectionDuplicate(t *testing.T, s Store) {
	seedCollection(t, s, "col-1", "alice", 1)

	err := s.CreateCollection(context.Background(), CreateCollectionInput{
		CollectionID: "col-1",
		Name:         "Different Name",
		Issuer:       "bob",
		Height:       101,
		TxHash:       "tx-dup",
	})
	assert.ErrorIs(t, err, domain.ErrCollectionAlreadyExists)

	// Original untouched
	collection, err := s.GetCollection(context.Background(), "col-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", collection.Issuer)
}

func testMintNFT(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1)

	err := s.MintNFT(ctx, MintNFTInput{
		CollectionID: "col-1",
		NFTID:        2,
		To:           "bob",
		MetadataURI:  "ipfs://nft-2",
		Height:       110,
		TxHash:       "tx-mint-2",
	})
	require.NoError(t, err)

	nft, err := s.GetNFT(ctx, "col-1", 2)
	require.NoError(t, err)
	require.NotNil(t, nft)
	assert.Equal(t, "bob", nft.Owner)
	assert.Equal(t, schema.NFTStatusActive, nft.Status)

	collection, err := s.GetCollection(ctx, "col-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), collection.TotalSupply)

	history, _, err := s.GetTransferHistory(ctx, "col-1", 2, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, domain.MintAddress, history[0].FromAddress)
}

func testMintNFTDuplicate(t *testing.T, s Store) {
	seedCollection(t, s, "col-1", "alice", 1)

	err := s.MintNFT(context.Background(), MintNFTInput{
		CollectionID: "col-1",
		NFTID:        1,
		To:           "bob",
		Height:       110,
		TxHash:       "tx-mint-dup",
	})
	assert.ErrorIs(t, err, domain.ErrNFTAlreadyExists)

	nft, err := s.GetNFT(context.Background(), "col-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", nft.Owner)
}

func testMintNFTUnknownCollection(t *testing.T, s Store) {
	err := s.MintNFT(context.Background(), MintNFTInput{
		CollectionID: "nope",
		NFTID:        1,
		To:           "bob",
		Height:       110,
		TxHash:       "tx-mint",
	})
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func testTransferNFT(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1)

	err := s.TransferNFT(ctx, TransferNFTInput{
		CollectionID: "col-1",
		NFTID:        1,
		From:         "alice",
		To:           "bob",
		TxType:       schema.TransferTypeTransfer,
		Height:       120,
		TxHash:       "tx-transfer",
	})
	require.NoError(t, err)

	nft, err := s.GetNFT(ctx, "col-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "bob", nft.Owner)

	owned, total, err := s.GetNFTsByOwner(ctx, "bob", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, owned, 1)
	assert.Equal(t, int64(1), owned[0].NFTID)
}

func testTransferNFTNotOwner(t *testing.T, s Store) {
	seedCollection(t, s, "col-1", "alice", 1)

	err := s.TransferNFT(context.Background(), TransferNFTInput{
		CollectionID: "col-1",
		NFTID:        1,
		From:         "mallory",
		To:           "bob",
		TxType:       schema.TransferTypeTransfer,
		Height:       120,
		TxHash:       "tx-steal",
	})
	assert.ErrorIs(t, err, domain.ErrNotOwner)

	nft, err := s.GetNFT(context.Background(), "col-1", 1)
	require.NoError(t, err)
	assert.Equal(t, "alice", nft.Owner)
}

func testTransferNFTNotFound(t *testing.T, s Store) {
	err := s.TransferNFT(context.Background(), TransferNFTInput{
		CollectionID: "col-1",
		NFTID:        99,
		From:         "alice",
		To:           "bob",
		TxType:       schema.TransferTypeTransfer,
		Height:       120,
		TxHash:       "tx-missing",
	})
	assert.ErrorIs(t, err, domain.ErrNFTNotFound)
}

func testTransferClosesActiveListing(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1)

	require.NoError(t, s.CreateListing(ctx, CreateListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "alice", Price: 500,
		Height: 121, TxHash: "tx-list",
	}))

	require.NoError(t, s.TransferNFT(ctx, TransferNFTInput{
		CollectionID: "col-1", NFTID: 1, From: "alice", To: "bob",
		TxType: schema.TransferTypeTransfer, Height: 122, TxHash: "tx-transfer",
	}))

	listing, err := s.GetActiveListing(ctx, "col-1", 1)
	require.NoError(t, err)
	assert.Nil(t, listing)

	nft, err := s.GetNFT(ctx, "col-1", 1)
	require.NoError(t, err)
	assert.Equal(t, schema.NFTStatusActive, nft.Status)
}

func testCreateListing(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1)

	err := s.CreateListing(ctx, CreateListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "alice", Price: 1000,
		Height: 130, TxHash: "tx-list",
	})
	require.NoError(t, err)

	listing, err := s.GetActiveListing(ctx, "col-1", 1)
	require.NoError(t, err)
	require.NotNil(t, listing)
	assert.Equal(t, "alice", listing.Seller)
	assert.Equal(t, int64(1000), listing.Price)
	assert.Equal(t, schema.ListingStatusActive, listing.Status)

	nft, err := s.GetNFT(ctx, "col-1", 1)
	require.NoError(t, err)
	assert.Equal(t, schema.NFTStatusListed, nft.Status)
}

func testCreateListingNotOwner(t *testing.T, s Store) {
	seedCollection(t, s, "col-1", "alice", 1)

	err := s.CreateListing(context.Background(), CreateListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "mallory", Price: 1000,
		Height: 130, TxHash: "tx-list",
	})
	assert.ErrorIs(t, err, domain.ErrNotOwner)
}

func testCreateListingSupersedesPrior(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1)

	require.NoError(t, s.CreateListing(ctx, CreateListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "alice", Price: 1000,
		Height: 130, TxHash: "tx-list-1",
	}))
	require.NoError(t, s.CreateListing(ctx, CreateListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "alice", Price: 800,
		Height: 131, TxHash: "tx-list-2",
	}))

	listing, err := s.GetActiveListing(ctx, "col-1", 1)
	require.NoError(t, err)
	require.NotNil(t, listing)
	assert.Equal(t, int64(800), listing.Price)

	listings, total, err := s.GetActiveListings(ctx, ListingQueryFilter{CollectionID: "col-1", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, listings, 1)
}

func testCancelListing(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1)

	require.NoError(t, s.CreateListing(ctx, CreateListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "alice", Price: 1000,
		Height: 130, TxHash: "tx-list",
	}))
	require.NoError(t, s.CancelListing(ctx, CancelListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "alice",
		Height: 131, TxHash: "tx-cancel",
	}))

	listing, err := s.GetActiveListing(ctx, "col-1", 1)
	require.NoError(t, err)
	assert.Nil(t, listing)

	nft, err := s.GetNFT(ctx, "col-1", 1)
	require.NoError(t, err)
	assert.Equal(t, schema.NFTStatusActive, nft.Status)
}

func testCancelListingNoActive(t *testing.T, s Store) {
	seedCollection(t, s, "col-1", "alice", 1)

	err := s.CancelListing(context.Background(), CancelListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "alice",
		Height: 131, TxHash: "tx-cancel",
	})
	assert.ErrorIs(t, err, domain.ErrNoActiveListing)
}

func testCancelListingNotSeller(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1)

	require.NoError(t, s.CreateListing(ctx, CreateListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "alice", Price: 1000,
		Height: 130, TxHash: "tx-list",
	}))

	err := s.CancelListing(ctx, CancelListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "mallory",
		Height: 131, TxHash: "tx-cancel",
	})
	assert.ErrorIs(t, err, domain.ErrNotSeller)

	listing, err := s.GetActiveListing(ctx, "col-1", 1)
	require.NoError(t, err)
	require.NotNil(t, listing)
}

func testSaleClosesListingAsSold(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1)

	require.NoError(t, s.CreateListing(ctx, CreateListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "alice", Price: 1000,
		Height: 130, TxHash: "tx-list",
	}))

	price := int64(1000)
	require.NoError(t, s.TransferNFT(ctx, TransferNFTInput{
		CollectionID: "col-1", NFTID: 1, From: "alice", To: "bob",
		TxType: schema.TransferTypeSale, Price: &price,
		Height: 131, TxHash: "tx-buy",
	}))

	listing, err := s.GetActiveListing(ctx, "col-1", 1)
	require.NoError(t, err)
	assert.Nil(t, listing)

	history, _, err := s.GetTransferHistory(ctx, "col-1", 1, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	sale := history[1]
	assert.Equal(t, schema.TransferTypeSale, sale.TxType)
	require.NotNil(t, sale.Price)
	assert.Equal(t, int64(1000), *sale.Price)
}

func testQueryCollections(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-a", "alice", 1)
	seedCollection(t, s, "col-b", "bob", 1)
	seedCollection(t, s, "col-c", "alice", 1)

	all, total, err := s.GetCollections(ctx, CollectionQueryFilter{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Len(t, all, 3)

	byIssuer, total, err := s.GetCollections(ctx, CollectionQueryFilter{Issuer: "alice", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), total)
	assert.Len(t, byIssuer, 2)

	paged, total, err := s.GetCollections(ctx, CollectionQueryFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	assert.Len(t, paged, 1)
}

func testQueryNFTs(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 3, 1, 2)

	nfts, total, err := s.GetNFTsByCollection(ctx, "col-1", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, nfts, 2)
	assert.Equal(t, int64(1), nfts[0].NFTID)
	assert.Equal(t, int64(2), nfts[1].NFTID)

	// limit and offset are not interchangeable: one row starting at the second
	offsetNFTs, total, err := s.GetNFTsByCollection(ctx, "col-1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, offsetNFTs, 1)
	assert.Equal(t, int64(2), offsetNFTs[0].NFTID)

	missing, err := s.GetNFT(ctx, "col-1", 99)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func testTransferHistoryOrdering(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1)

	require.NoError(t, s.TransferNFT(ctx, TransferNFTInput{
		CollectionID: "col-1", NFTID: 1, From: "alice", To: "bob",
		TxType: schema.TransferTypeTransfer, Height: 120, TxHash: "tx-1",
	}))
	require.NoError(t, s.TransferNFT(ctx, TransferNFTInput{
		CollectionID: "col-1", NFTID: 1, From: "bob", To: "carol",
		TxType: schema.TransferTypeTransfer, Height: 125, TxHash: "tx-2",
	}))

	history, total, err := s.GetTransferHistory(ctx, "col-1", 1, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), total)
	require.Len(t, history, 3)
	assert.Equal(t, domain.GenesisAddress, history[0].FromAddress)
	assert.Equal(t, "bob", history[1].ToAddress)
	assert.Equal(t, "carol", history[2].ToAddress)
}

func testCursorMonotonic(t *testing.T, s Store) {
	ctx := context.Background()

	height, err := s.GetLastIndexedHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), height)

	require.NoError(t, s.AdvanceCursor(ctx, 100, nil))
	require.NoError(t, s.AdvanceCursor(ctx, 105, nil))
	// An out-of-order replay must not rewind the cursor
	require.NoError(t, s.AdvanceCursor(ctx, 103, nil))

	height, err = s.GetLastIndexedHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(105), height)
}

func testProcessedTxs(t *testing.T, s Store) {
	ctx := context.Background()

	processed, err := s.IsTxProcessed(ctx, "tx-1")
	require.NoError(t, err)
	assert.False(t, processed)

	require.NoError(t, s.AdvanceCursor(ctx, 100, []string{"tx-1", "tx-2"}))

	processed, err = s.IsTxProcessed(ctx, "tx-1")
	require.NoError(t, err)
	assert.True(t, processed)

	// Re-delivery of the same hashes is a no-op
	require.NoError(t, s.AdvanceCursor(ctx, 101, []string{"tx-2", "tx-3"}))

	processed, err = s.IsTxProcessed(ctx, "tx-3")
	require.NoError(t, err)
	assert.True(t, processed)
}

func testStats(t *testing.T, s Store) {
	ctx := context.Background()
	seedCollection(t, s, "col-1", "alice", 1, 2)

	require.NoError(t, s.CreateListing(ctx, CreateListingInput{
		CollectionID: "col-1", NFTID: 1, Seller: "alice", Price: 1000,
		Height: 130, TxHash: "tx-list",
	}))
	require.NoError(t, s.AdvanceCursor(ctx, 130, []string{"tx-list"}))

	stats, err := s.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Collections)
	assert.Equal(t, int64(2), stats.NFTs)
	assert.Equal(t, int64(1), stats.ActiveListings)
	assert.Equal(t, int64(2), stats.Transfers)
	assert.Equal(t, uint64(130), stats.LastIndexedHeight)
}
