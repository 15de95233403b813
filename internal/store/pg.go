package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nftzone/registry-indexer/internal/domain"
	"github.com/nftzone/registry-indexer/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB

	// cursorKey scopes the replay cursor to the configured namespace so one
	// database can index more than one namespace
	cursorKey string
}

// NewPGStore creates a new PostgreSQL store instance for the given
// namespace (hex form; may be empty for single-namespace deployments)
func NewPGStore(db *gorm.DB, namespace string) Store {
	key := "indexer_cursor"
	if namespace != "" {
		key = fmt.Sprintf("indexer_cursor:%s", namespace)
	}
	return &pgStore{db: db, cursorKey: key}
}

// AutoMigrate creates or updates the registry tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&schema.Collection{},
		&schema.NFT{},
		&schema.Listing{},
		&schema.TransferHistory{},
		&schema.ProcessedTx{},
		&schema.KeyValueStore{},
	)
}

// ConfigureConnectionPool configures the connection pool settings for a GORM
// database connection. Zero values fall back to defaults.
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings
// into safe values.
//
// Defaults (when zero):
//   - MaxOpenConns: 20
//   - MaxIdleConns: 5
//   - ConnMaxLifetime: 5 minutes
//   - ConnMaxIdleTime: 10 minutes
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// calculateSafeBatchSize computes the batch size for bulk inserts that stays
// under PostgreSQL's extended-protocol limit of 65535 parameters per query.
// A headroom of 1000 parameters is reserved for GORM-added timestamp columns
// and ON CONFLICT clause parameters.
func calculateSafeBatchSize(totalRecords int, fieldsPerRecord int) int {
	const maxParams = 65535
	const totalHeadroom = 1000

	availableParams := maxParams - totalHeadroom
	safeBatchSize := max(availableParams/fieldsPerRecord, 1)

	if safeBatchSize > totalRecords {
		return totalRecords
	}

	return safeBatchSize
}

// mutationErr folds database constraint violations into
// domain.ErrIntegrityViolation so callers can tell a rolled-back write from a
// connection failure. Requires gorm.Config{TranslateError: true} on the
// session. Domain sentinels and everything else pass through unchanged.
func mutationErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return fmt.Errorf("%w: %w", domain.ErrIntegrityViolation, err)
	default:
		return err
	}
}

// CreateCollection registers a collection definition together with its
// bundled NFTs, all owned by the issuer
func (s *pgStore) CreateCollection(ctx context.Context, input CreateCollectionInput) error {
	return mutationErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing schema.Collection
		err := tx.Where("collection_id = ?", input.CollectionID).First(&existing).Error
		if err == nil {
			return domain.ErrCollectionAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check collection: %w", err)
		}

		collection := schema.Collection{
			CollectionID:    input.CollectionID,
			Issuer:          input.Issuer,
			Name:            input.Name,
			Description:     input.Description,
			TotalSupply:     int64(len(input.NFTs)),
			RawDefinition:   []byte(input.Raw),
			CreatedAtHeight: input.Height,
			TxHash:          input.TxHash,
		}
		if err := tx.Create(&collection).Error; err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}

		if len(input.NFTs) == 0 {
			return nil
		}

		nfts := make([]schema.NFT, len(input.NFTs))
		history := make([]schema.TransferHistory, len(input.NFTs))
		for i, bundled := range input.NFTs {
			nfts[i] = schema.NFT{
				CollectionID:    input.CollectionID,
				NFTID:           bundled.NFTID,
				Owner:           input.Issuer,
				MetadataURI:     bundled.MetadataURI,
				Extra:           []byte(bundled.Extra),
				Status:          schema.NFTStatusActive,
				CreatedAtHeight: input.Height,
				TxHash:          input.TxHash,
			}
			history[i] = schema.TransferHistory{
				CollectionID: input.CollectionID,
				NFTID:        bundled.NFTID,
				FromAddress:  domain.GenesisAddress,
				ToAddress:    input.Issuer,
				TxType:       schema.TransferTypeMint,
				BlockHeight:  input.Height,
				TxHash:       input.TxHash,
			}
		}

		// NFT has 9 insertable fields, TransferHistory has 9
		if err := tx.CreateInBatches(&nfts, calculateSafeBatchSize(len(nfts), 9)).Error; err != nil {
			return fmt.Errorf("failed to create bundled nfts: %w", err)
		}
		if err := tx.CreateInBatches(&history, calculateSafeBatchSize(len(history), 9)).Error; err != nil {
			return fmt.Errorf("failed to create genesis history: %w", err)
		}

		return nil
	}))
}

// MintNFT creates a single NFT together with its mint provenance entry and
// bumps the collection supply counter
func (s *pgStore) MintNFT(ctx context.Context, input MintNFTInput) error {
	return mutationErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var collection schema.Collection
		err := tx.Where("collection_id = ?", input.CollectionID).First(&collection).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrCollectionNotFound
			}
			return fmt.Errorf("failed to get collection: %w", err)
		}

		nft := schema.NFT{
			CollectionID:    input.CollectionID,
			NFTID:           input.NFTID,
			Owner:           input.To,
			MetadataURI:     input.MetadataURI,
			Extra:           []byte(input.Extra),
			Status:          schema.NFTStatusActive,
			CreatedAtHeight: input.Height,
			TxHash:          input.TxHash,
		}

		// ON CONFLICT DO NOTHING on (collection_id, nft_id); ID stays 0 when
		// the pair already exists
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection_id"}, {Name: "nft_id"}},
			DoNothing: true,
		}).Clauses(clause.Returning{Columns: []clause.Column{}}).
			Create(&nft).Error; err != nil {
			return fmt.Errorf("failed to create nft: %w", err)
		}
		if nft.ID == 0 {
			return domain.ErrNFTAlreadyExists
		}

		entry := schema.TransferHistory{
			CollectionID: input.CollectionID,
			NFTID:        input.NFTID,
			FromAddress:  domain.MintAddress,
			ToAddress:    input.To,
			TxType:       schema.TransferTypeMint,
			BlockHeight:  input.Height,
			TxHash:       input.TxHash,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to create mint history: %w", err)
		}

		if err := tx.Model(&schema.Collection{}).
			Where("collection_id = ?", input.CollectionID).
			Update("total_supply", gorm.Expr("total_supply + 1")).Error; err != nil {
			return fmt.Errorf("failed to bump total supply: %w", err)
		}

		return nil
	}))
}

// TransferNFT changes ownership, closes any active listing as sold, and
// appends a provenance entry
func (s *pgStore) TransferNFT(ctx context.Context, input TransferNFTInput) error {
	return mutationErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var nft schema.NFT
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection_id = ? AND nft_id = ?", input.CollectionID, input.NFTID).
			First(&nft).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNFTNotFound
			}
			return fmt.Errorf("failed to get nft: %w", err)
		}

		if nft.Owner != input.From {
			return domain.ErrNotOwner
		}

		nft.Owner = input.To
		nft.Status = schema.NFTStatusActive
		if err := tx.Save(&nft).Error; err != nil {
			return fmt.Errorf("failed to update nft owner: %w", err)
		}

		// Any open listing is over once the NFT moves
		if err := tx.Model(&schema.Listing{}).
			Where("collection_id = ? AND nft_id = ? AND status = ?",
				input.CollectionID, input.NFTID, schema.ListingStatusActive).
			Update("status", schema.ListingStatusSold).Error; err != nil {
			return fmt.Errorf("failed to close active listing: %w", err)
		}

		entry := schema.TransferHistory{
			CollectionID: input.CollectionID,
			NFTID:        input.NFTID,
			FromAddress:  input.From,
			ToAddress:    input.To,
			TxType:       input.TxType,
			Price:        input.Price,
			BlockHeight:  input.Height,
			TxHash:       input.TxHash,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to create transfer history: %w", err)
		}

		return nil
	}))
}

// CreateListing opens a listing, superseding any previous active one
func (s *pgStore) CreateListing(ctx context.Context, input CreateListingInput) error {
	return mutationErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var nft schema.NFT
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection_id = ? AND nft_id = ?", input.CollectionID, input.NFTID).
			First(&nft).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNFTNotFound
			}
			return fmt.Errorf("failed to get nft: %w", err)
		}

		if nft.Owner != input.Seller {
			return domain.ErrNotOwner
		}

		// Re-listing supersedes the previous listing rather than stacking
		if err := tx.Model(&schema.Listing{}).
			Where("collection_id = ? AND nft_id = ? AND status = ?",
				input.CollectionID, input.NFTID, schema.ListingStatusActive).
			Update("status", schema.ListingStatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to supersede listing: %w", err)
		}

		listing := schema.Listing{
			CollectionID:    input.CollectionID,
			NFTID:           input.NFTID,
			Seller:          input.Seller,
			Price:           input.Price,
			Status:          schema.ListingStatusActive,
			CreatedAtHeight: input.Height,
			TxHash:          input.TxHash,
		}
		if err := tx.Create(&listing).Error; err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}

		if err := tx.Model(&nft).Update("status", schema.NFTStatusListed).Error; err != nil {
			return fmt.Errorf("failed to update nft status: %w", err)
		}

		return nil
	}))
}

// CancelListing withdraws the active listing of an NFT
func (s *pgStore) CancelListing(ctx context.Context, input CancelListingInput) error {
	return mutationErr(s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var listing schema.Listing
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("collection_id = ? AND nft_id = ? AND status = ?",
				input.CollectionID, input.NFTID, schema.ListingStatusActive).
			First(&listing).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNoActiveListing
			}
			return fmt.Errorf("failed to get active listing: %w", err)
		}

		if listing.Seller != input.Seller {
			return domain.ErrNotSeller
		}

		if err := tx.Model(&listing).Update("status", schema.ListingStatusCancelled).Error; err != nil {
			return fmt.Errorf("failed to cancel listing: %w", err)
		}

		if err := tx.Model(&schema.NFT{}).
			Where("collection_id = ? AND nft_id = ?", input.CollectionID, input.NFTID).
			Update("status", schema.NFTStatusActive).Error; err != nil {
			return fmt.Errorf("failed to update nft status: %w", err)
		}

		return nil
	}))
}

// GetCollection retrieves a collection by its identifier
func (s *pgStore) GetCollection(ctx context.Context, collectionID string) (*schema.Collection, error) {
	var collection schema.Collection
	err := s.db.WithContext(ctx).Where("collection_id = ?", collectionID).First(&collection).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	return &collection, nil
}

// GetCollections retrieves collections ordered by indexing height
func (s *pgStore) GetCollections(ctx context.Context, filter CollectionQueryFilter) ([]schema.Collection, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Collection{})
	if filter.Issuer != "" {
		query = query.Where("issuer = ?", filter.Issuer)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count collections: %w", err)
	}

	var collections []schema.Collection
	err := query.Order("created_at_height DESC, collection_id ASC").
		Limit(filter.Limit).Offset(int(filter.Offset)). //nolint:gosec,G115
		Find(&collections).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get collections: %w", err)
	}

	return collections, uint64(total), nil //nolint:gosec,G115
}

// GetNFT retrieves a single NFT by its (collection_id, nft_id) pair
func (s *pgStore) GetNFT(ctx context.Context, collectionID string, nftID int64) (*schema.NFT, error) {
	var nft schema.NFT
	err := s.db.WithContext(ctx).
		Where("collection_id = ? AND nft_id = ?", collectionID, nftID).
		First(&nft).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get nft: %w", err)
	}
	return &nft, nil
}

// GetNFTsByCollection retrieves the NFTs of a collection ordered by nft_id
func (s *pgStore) GetNFTsByCollection(ctx context.Context, collectionID string, limit int, offset uint64) ([]schema.NFT, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.NFT{}).Where("collection_id = ?", collectionID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count nfts: %w", err)
	}

	var nfts []schema.NFT
	err := query.Order("nft_id ASC").
		Limit(limit).Offset(int(offset)). //nolint:gosec,G115
		Find(&nfts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get nfts: %w", err)
	}

	return nfts, uint64(total), nil //nolint:gosec,G115
}

// GetNFTsByOwner retrieves the NFTs held by an address
func (s *pgStore) GetNFTsByOwner(ctx context.Context, owner string, limit int, offset uint64) ([]schema.NFT, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.NFT{}).Where("owner = ?", owner)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count nfts: %w", err)
	}

	var nfts []schema.NFT
	err := query.Order("collection_id ASC, nft_id ASC").
		Limit(limit).Offset(int(offset)). //nolint:gosec,G115
		Find(&nfts).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get nfts: %w", err)
	}

	return nfts, uint64(total), nil //nolint:gosec,G115
}

// GetActiveListing retrieves the open listing for an NFT
func (s *pgStore) GetActiveListing(ctx context.Context, collectionID string, nftID int64) (*schema.Listing, error) {
	var listing schema.Listing
	err := s.db.WithContext(ctx).
		Where("collection_id = ? AND nft_id = ? AND status = ?",
			collectionID, nftID, schema.ListingStatusActive).
		First(&listing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active listing: %w", err)
	}
	return &listing, nil
}

// GetActiveListings retrieves open listings
func (s *pgStore) GetActiveListings(ctx context.Context, filter ListingQueryFilter) ([]schema.Listing, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.Listing{}).
		Where("status = ?", schema.ListingStatusActive)
	if filter.CollectionID != "" {
		query = query.Where("collection_id = ?", filter.CollectionID)
	}
	if filter.Seller != "" {
		query = query.Where("seller = ?", filter.Seller)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	var listings []schema.Listing
	err := query.Order("created_at_height DESC, id DESC").
		Limit(filter.Limit).Offset(int(filter.Offset)). //nolint:gosec,G115
		Find(&listings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get listings: %w", err)
	}

	return listings, uint64(total), nil //nolint:gosec,G115
}

// GetTransferHistory retrieves the provenance trail of an NFT, oldest first
func (s *pgStore) GetTransferHistory(ctx context.Context, collectionID string, nftID int64, limit int, offset uint64) ([]schema.TransferHistory, uint64, error) {
	query := s.db.WithContext(ctx).Model(&schema.TransferHistory{}).
		Where("collection_id = ? AND nft_id = ?", collectionID, nftID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transfer history: %w", err)
	}

	var entries []schema.TransferHistory
	err := query.Order("block_height ASC, id ASC").
		Limit(limit).Offset(int(offset)). //nolint:gosec,G115
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transfer history: %w", err)
	}

	return entries, uint64(total), nil //nolint:gosec,G115
}

// GetStats summarizes the indexed state
func (s *pgStore) GetStats(ctx context.Context) (*RegistryStats, error) {
	stats := &RegistryStats{}

	if err := s.db.WithContext(ctx).Model(&schema.Collection{}).Count(&stats.Collections).Error; err != nil {
		return nil, fmt.Errorf("failed to count collections: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&schema.NFT{}).Count(&stats.NFTs).Error; err != nil {
		return nil, fmt.Errorf("failed to count nfts: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&schema.Listing{}).
		Where("status = ?", schema.ListingStatusActive).
		Count(&stats.ActiveListings).Error; err != nil {
		return nil, fmt.Errorf("failed to count active listings: %w", err)
	}
	if err := s.db.WithContext(ctx).Model(&schema.TransferHistory{}).Count(&stats.Transfers).Error; err != nil {
		return nil, fmt.Errorf("failed to count transfers: %w", err)
	}

	height, err := s.GetLastIndexedHeight(ctx)
	if err != nil {
		return nil, err
	}
	stats.LastIndexedHeight = height

	return stats, nil
}
