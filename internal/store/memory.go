package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nftzone/registry-indexer/internal/domain"
	"github.com/nftzone/registry-indexer/internal/store/schema"
)

// memoryStore keeps the whole registry in process memory. It exists for tests
// and for the one-shot import tool where spinning up Postgres is overkill.
// All methods hold a single mutex, which is fine for a sequential writer.
type memoryStore struct {
	mu sync.Mutex

	collections map[string]*schema.Collection
	nfts        []*schema.NFT
	listings    []*schema.Listing
	transfers   []*schema.TransferHistory
	processed   map[string]uint64

	lastHeight uint64
	nextID     int64
}

// NewMemoryStore creates an empty in-memory Store.
func NewMemoryStore() Store {
	return &memoryStore{
		collections: make(map[string]*schema.Collection),
		processed:   make(map[string]uint64),
		nextID:      1,
	}
}

func (s *memoryStore) id() int64 {
	id := s.nextID
	s.nextID++
	return id
}

func (s *memoryStore) findNFT(collectionID string, nftID int64) *schema.NFT {
	for _, n := range s.nfts {
		if n.CollectionID == collectionID && n.NFTID == nftID {
			return n
		}
	}
	return nil
}

func (s *memoryStore) findActiveListing(collectionID string, nftID int64) *schema.Listing {
	for i := len(s.listings) - 1; i >= 0; i-- {
		l := s.listings[i]
		if l.CollectionID == collectionID && l.NFTID == nftID && l.Status == schema.ListingStatusActive {
			return l
		}
	}
	return nil
}

func (s *memoryStore) CreateCollection(ctx context.Context, input CreateCollectionInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[input.CollectionID]; ok {
		return domain.ErrCollectionAlreadyExists
	}

	now := time.Now()
	s.collections[input.CollectionID] = &schema.Collection{
		CollectionID:    input.CollectionID,
		Issuer:          input.Issuer,
		Name:            input.Name,
		Description:     input.Description,
		TotalSupply:     int64(len(input.NFTs)),
		RawDefinition:   []byte(input.Raw),
		CreatedAtHeight: input.Height,
		TxHash:          input.TxHash,
		CreatedAt:       now,
	}

	for _, bundled := range input.NFTs {
		s.nfts = append(s.nfts, &schema.NFT{
			ID:              s.id(),
			CollectionID:    input.CollectionID,
			NFTID:           bundled.NFTID,
			Owner:           input.Issuer,
			MetadataURI:     bundled.MetadataURI,
			Extra:           []byte(bundled.Extra),
			Status:          schema.NFTStatusActive,
			CreatedAtHeight: input.Height,
			TxHash:          input.TxHash,
			CreatedAt:       now,
		})
		s.transfers = append(s.transfers, &schema.TransferHistory{
			ID:           s.id(),
			CollectionID: input.CollectionID,
			NFTID:        bundled.NFTID,
			FromAddress:  domain.GenesisAddress,
			ToAddress:    input.Issuer,
			TxType:       schema.TransferTypeMint,
			BlockHeight:  input.Height,
			TxHash:       input.TxHash,
			CreatedAt:    now,
		})
	}

	return nil
}

func (s *memoryStore) MintNFT(ctx context.Context, input MintNFTInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, ok := s.collections[input.CollectionID]
	if !ok {
		return domain.ErrCollectionNotFound
	}
	if s.findNFT(input.CollectionID, input.NFTID) != nil {
		return domain.ErrNFTAlreadyExists
	}

	now := time.Now()
	s.nfts = append(s.nfts, &schema.NFT{
		ID:              s.id(),
		CollectionID:    input.CollectionID,
		NFTID:           input.NFTID,
		Owner:           input.To,
		MetadataURI:     input.MetadataURI,
		Extra:           []byte(input.Extra),
		Status:          schema.NFTStatusActive,
		CreatedAtHeight: input.Height,
		TxHash:          input.TxHash,
		CreatedAt:       now,
	})
	s.transfers = append(s.transfers, &schema.TransferHistory{
		ID:           s.id(),
		CollectionID: input.CollectionID,
		NFTID:        input.NFTID,
		FromAddress:  domain.MintAddress,
		ToAddress:    input.To,
		TxType:       schema.TransferTypeMint,
		BlockHeight:  input.Height,
		TxHash:       input.TxHash,
		CreatedAt:    now,
	})
	collection.TotalSupply++

	return nil
}

func (s *memoryStore) TransferNFT(ctx context.Context, input TransferNFTInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nft := s.findNFT(input.CollectionID, input.NFTID)
	if nft == nil {
		return domain.ErrNFTNotFound
	}
	if nft.Owner != input.From {
		return domain.ErrNotOwner
	}

	nft.Owner = input.To
	nft.Status = schema.NFTStatusActive

	if listing := s.findActiveListing(input.CollectionID, input.NFTID); listing != nil {
		listing.Status = schema.ListingStatusSold
	}

	s.transfers = append(s.transfers, &schema.TransferHistory{
		ID:           s.id(),
		CollectionID: input.CollectionID,
		NFTID:        input.NFTID,
		FromAddress:  input.From,
		ToAddress:    input.To,
		TxType:       input.TxType,
		Price:        input.Price,
		BlockHeight:  input.Height,
		TxHash:       input.TxHash,
		CreatedAt:    time.Now(),
	})

	return nil
}

func (s *memoryStore) CreateListing(ctx context.Context, input CreateListingInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nft := s.findNFT(input.CollectionID, input.NFTID)
	if nft == nil {
		return domain.ErrNFTNotFound
	}
	if nft.Owner != input.Seller {
		return domain.ErrNotOwner
	}

	if prior := s.findActiveListing(input.CollectionID, input.NFTID); prior != nil {
		prior.Status = schema.ListingStatusCancelled
	}

	s.listings = append(s.listings, &schema.Listing{
		ID:              s.id(),
		CollectionID:    input.CollectionID,
		NFTID:           input.NFTID,
		Seller:          input.Seller,
		Price:           input.Price,
		Status:          schema.ListingStatusActive,
		CreatedAtHeight: input.Height,
		TxHash:          input.TxHash,
		CreatedAt:       time.Now(),
	})
	nft.Status = schema.NFTStatusListed

	return nil
}

func (s *memoryStore) CancelListing(ctx context.Context, input CancelListingInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing := s.findActiveListing(input.CollectionID, input.NFTID)
	if listing == nil {
		return domain.ErrNoActiveListing
	}
	if listing.Seller != input.Seller {
		return domain.ErrNotSeller
	}

	listing.Status = schema.ListingStatusCancelled
	if nft := s.findNFT(input.CollectionID, input.NFTID); nft != nil {
		nft.Status = schema.NFTStatusActive
	}

	return nil
}

func (s *memoryStore) GetCollection(ctx context.Context, collectionID string) (*schema.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, ok := s.collections[collectionID]
	if !ok {
		return nil, nil
	}
	copied := *collection
	return &copied, nil
}

func (s *memoryStore) GetCollections(ctx context.Context, filter CollectionQueryFilter) ([]schema.Collection, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []schema.Collection
	for _, c := range s.collections {
		if filter.Issuer != "" && c.Issuer != filter.Issuer {
			continue
		}
		matched = append(matched, *c)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAtHeight != matched[j].CreatedAtHeight {
			return matched[i].CreatedAtHeight > matched[j].CreatedAtHeight
		}
		return matched[i].CollectionID < matched[j].CollectionID
	})

	total := uint64(len(matched))
	return paginate(matched, filter.Limit, filter.Offset), total, nil
}

func (s *memoryStore) GetNFT(ctx context.Context, collectionID string, nftID int64) (*schema.NFT, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	nft := s.findNFT(collectionID, nftID)
	if nft == nil {
		return nil, nil
	}
	copied := *nft
	return &copied, nil
}

func (s *memoryStore) GetNFTsByCollection(ctx context.Context, collectionID string, limit int, offset uint64) ([]schema.NFT, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []schema.NFT
	for _, n := range s.nfts {
		if n.CollectionID == collectionID {
			matched = append(matched, *n)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].NFTID < matched[j].NFTID
	})

	total := uint64(len(matched))
	return paginate(matched, limit, offset), total, nil
}

func (s *memoryStore) GetNFTsByOwner(ctx context.Context, owner string, limit int, offset uint64) ([]schema.NFT, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []schema.NFT
	for _, n := range s.nfts {
		if n.Owner == owner {
			matched = append(matched, *n)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CollectionID != matched[j].CollectionID {
			return matched[i].CollectionID < matched[j].CollectionID
		}
		return matched[i].NFTID < matched[j].NFTID
	})

	total := uint64(len(matched))
	return paginate(matched, limit, offset), total, nil
}

func (s *memoryStore) GetActiveListing(ctx context.Context, collectionID string, nftID int64) (*schema.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing := s.findActiveListing(collectionID, nftID)
	if listing == nil {
		return nil, nil
	}
	copied := *listing
	return &copied, nil
}

func (s *memoryStore) GetActiveListings(ctx context.Context, filter ListingQueryFilter) ([]schema.Listing, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []schema.Listing
	for _, l := range s.listings {
		if l.Status != schema.ListingStatusActive {
			continue
		}
		if filter.CollectionID != "" && l.CollectionID != filter.CollectionID {
			continue
		}
		if filter.Seller != "" && l.Seller != filter.Seller {
			continue
		}
		matched = append(matched, *l)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAtHeight != matched[j].CreatedAtHeight {
			return matched[i].CreatedAtHeight > matched[j].CreatedAtHeight
		}
		return matched[i].ID > matched[j].ID
	})

	total := uint64(len(matched))
	return paginate(matched, filter.Limit, filter.Offset), total, nil
}

func (s *memoryStore) GetTransferHistory(ctx context.Context, collectionID string, nftID int64, limit int, offset uint64) ([]schema.TransferHistory, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []schema.TransferHistory
	for _, tr := range s.transfers {
		if tr.CollectionID == collectionID && tr.NFTID == nftID {
			matched = append(matched, *tr)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].BlockHeight != matched[j].BlockHeight {
			return matched[i].BlockHeight < matched[j].BlockHeight
		}
		return matched[i].ID < matched[j].ID
	})

	total := uint64(len(matched))
	return paginate(matched, limit, offset), total, nil
}

func (s *memoryStore) GetStats(ctx context.Context) (*RegistryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var activeListings int64
	for _, l := range s.listings {
		if l.Status == schema.ListingStatusActive {
			activeListings++
		}
	}

	return &RegistryStats{
		Collections:       int64(len(s.collections)),
		NFTs:              int64(len(s.nfts)),
		ActiveListings:    activeListings,
		Transfers:         int64(len(s.transfers)),
		LastIndexedHeight: s.lastHeight,
	}, nil
}

func (s *memoryStore) GetLastIndexedHeight(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeight, nil
}

func (s *memoryStore) IsTxProcessed(ctx context.Context, txHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.processed[txHash]
	return ok, nil
}

func (s *memoryStore) AdvanceCursor(ctx context.Context, height uint64, txHashes []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, hash := range txHashes {
		if _, ok := s.processed[hash]; !ok {
			s.processed[hash] = height
		}
	}
	if height > s.lastHeight {
		s.lastHeight = height
	}

	return nil
}

func paginate[T any](items []T, limit int, offset uint64) []T {
	if offset >= uint64(len(items)) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
