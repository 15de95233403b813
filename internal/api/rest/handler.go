package rest

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nftzone/registry-indexer/internal/api/rest/dto"
	"github.com/nftzone/registry-indexer/internal/domain"
	"github.com/nftzone/registry-indexer/internal/keyring"
	"github.com/nftzone/registry-indexer/internal/publisher"
	"github.com/nftzone/registry-indexer/internal/reducer"
	"github.com/nftzone/registry-indexer/internal/store"
	"github.com/nftzone/registry-indexer/internal/store/schema"
)

//go:generate mockgen -source=handler.go -destination=mocks/handler.go -package=mocks

// Handler defines the REST API handlers over the indexed registry state
type Handler interface {
	// HealthCheck reports service liveness
	HealthCheck(c *gin.Context)
	// GetCollections lists collections, optionally filtered by issuer
	GetCollections(c *gin.Context)
	// GetCollection retrieves a single collection by identifier
	GetCollection(c *gin.Context)
	// GetCollectionNFTs lists the NFTs of a collection
	GetCollectionNFTs(c *gin.Context)
	// GetNFT retrieves a single NFT
	GetNFT(c *gin.Context)
	// GetOwnerNFTs lists the NFTs held by an address
	GetOwnerNFTs(c *gin.Context)
	// GetListings lists active listings
	GetListings(c *gin.Context)
	// GetListing retrieves the active listing of an NFT
	GetListing(c *gin.Context)
	// GetTransferHistory retrieves the provenance trail of an NFT
	GetTransferHistory(c *gin.Context)
	// GetStats summarizes the indexed state
	GetStats(c *gin.Context)
	// CreateCollection submits a collection definition to the DA layer and
	// applies it locally for immediate availability
	CreateCollection(c *gin.Context)
}

type handler struct {
	store      store.Store
	publisher  *publisher.Publisher
	reducer    *reducer.Reducer
	resolver   keyring.AddressResolver
	defaultKey string
}

// NewHandler creates a REST handler. publisher and resolver may be nil for a
// read-only deployment; CreateCollection then reports the write path as
// unavailable.
func NewHandler(s store.Store, pub *publisher.Publisher, red *reducer.Reducer, resolver keyring.AddressResolver, defaultKey string) Handler {
	return &handler{
		store:      s,
		publisher:  pub,
		reducer:    red,
		resolver:   resolver,
		defaultKey: defaultKey,
	}
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}

func (h *handler) GetCollections(c *gin.Context) {
	var params collectionsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}
	params.clamp()

	collections, total, err := h.store.GetCollections(c.Request.Context(), store.CollectionQueryFilter{
		Issuer: params.Issuer,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		respondInternalError(c, "failed to query collections", err)
		return
	}

	resp := dto.CollectionsResponse{
		Collections: make([]dto.Collection, 0, len(collections)),
		Total:       total,
		Limit:       uint64(params.Limit), //nolint:gosec,G115
		Offset:      params.Offset,
	}
	for i := range collections {
		resp.Collections = append(resp.Collections, dto.FromCollection(&collections[i]))
	}
	c.JSON(200, resp)
}

func (h *handler) GetCollection(c *gin.Context) {
	collection, err := h.store.GetCollection(c.Request.Context(), c.Param("collection_id"))
	if err != nil {
		respondInternalError(c, "failed to query collection", err)
		return
	}
	if collection == nil {
		respondNotFound(c, "collection not found")
		return
	}
	c.JSON(200, dto.FromCollection(collection))
}

func (h *handler) GetCollectionNFTs(c *gin.Context) {
	var params paginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}
	params.clamp()

	collectionID := c.Param("collection_id")
	collection, err := h.store.GetCollection(c.Request.Context(), collectionID)
	if err != nil {
		respondInternalError(c, "failed to query collection", err)
		return
	}
	if collection == nil {
		respondNotFound(c, "collection not found")
		return
	}

	nfts, total, err := h.store.GetNFTsByCollection(c.Request.Context(), collectionID, params.Limit, params.Offset)
	if err != nil {
		respondInternalError(c, "failed to query nfts", err)
		return
	}
	c.JSON(200, buildNFTsResponse(nfts, total, params))
}

func (h *handler) GetNFT(c *gin.Context) {
	nftID, ok := parseNFTID(c)
	if !ok {
		return
	}
	nft, err := h.store.GetNFT(c.Request.Context(), c.Param("collection_id"), nftID)
	if err != nil {
		respondInternalError(c, "failed to query nft", err)
		return
	}
	if nft == nil {
		respondNotFound(c, "nft not found")
		return
	}
	c.JSON(200, dto.FromNFT(nft))
}

func (h *handler) GetOwnerNFTs(c *gin.Context) {
	var params paginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}
	params.clamp()

	nfts, total, err := h.store.GetNFTsByOwner(c.Request.Context(), c.Param("address"), params.Limit, params.Offset)
	if err != nil {
		respondInternalError(c, "failed to query nfts", err)
		return
	}
	c.JSON(200, buildNFTsResponse(nfts, total, params))
}

func (h *handler) GetListings(c *gin.Context) {
	var params listingsQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}
	params.clamp()

	listings, total, err := h.store.GetActiveListings(c.Request.Context(), store.ListingQueryFilter{
		CollectionID: params.CollectionID,
		Seller:       params.Seller,
		Limit:        params.Limit,
		Offset:       params.Offset,
	})
	if err != nil {
		respondInternalError(c, "failed to query listings", err)
		return
	}

	resp := dto.ListingsResponse{
		Listings: make([]dto.Listing, 0, len(listings)),
		Total:    total,
		Limit:    uint64(params.Limit), //nolint:gosec,G115
		Offset:   params.Offset,
	}
	for i := range listings {
		resp.Listings = append(resp.Listings, dto.FromListing(&listings[i]))
	}
	c.JSON(200, resp)
}

func (h *handler) GetListing(c *gin.Context) {
	nftID, ok := parseNFTID(c)
	if !ok {
		return
	}
	listing, err := h.store.GetActiveListing(c.Request.Context(), c.Param("collection_id"), nftID)
	if err != nil {
		respondInternalError(c, "failed to query listing", err)
		return
	}
	if listing == nil {
		respondNotFound(c, "no active listing")
		return
	}
	c.JSON(200, dto.FromListing(listing))
}

func (h *handler) GetTransferHistory(c *gin.Context) {
	var params paginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, "invalid query parameters")
		return
	}
	params.clamp()

	nftID, ok := parseNFTID(c)
	if !ok {
		return
	}

	transfers, total, err := h.store.GetTransferHistory(c.Request.Context(), c.Param("collection_id"), nftID, params.Limit, params.Offset)
	if err != nil {
		respondInternalError(c, "failed to query transfer history", err)
		return
	}

	resp := dto.TransfersResponse{
		Transfers: make([]dto.Transfer, 0, len(transfers)),
		Total:     total,
		Limit:     uint64(params.Limit), //nolint:gosec,G115
		Offset:    params.Offset,
	}
	for i := range transfers {
		resp.Transfers = append(resp.Transfers, dto.FromTransfer(&transfers[i]))
	}
	c.JSON(200, resp)
}

func (h *handler) GetStats(c *gin.Context) {
	stats, err := h.store.GetStats(c.Request.Context())
	if err != nil {
		respondInternalError(c, "failed to query stats", err)
		return
	}
	c.JSON(200, stats)
}

func (h *handler) CreateCollection(c *gin.Context) {
	if h.publisher == nil {
		respondWithError(c, 503, ErrCodeInternalError, "write path is not configured", "")
		return
	}

	var req dto.CreateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, "invalid request body", err.Error())
		return
	}

	ctx := c.Request.Context()

	issuer := req.Issuer
	if issuer == "" {
		if h.resolver == nil || h.defaultKey == "" {
			respondValidationError(c, "issuer is required", "no wallet key configured to resolve it from")
			return
		}
		resolved, err := h.resolver.Resolve(ctx, h.defaultKey)
		if err != nil {
			respondInternalError(c, "failed to resolve issuer address", err)
			return
		}
		issuer = resolved
	}

	if existing, err := h.store.GetCollection(ctx, req.CollectionID); err != nil {
		respondInternalError(c, "failed to query collection", err)
		return
	} else if existing != nil {
		respondConflict(c, "collection already exists", req.CollectionID)
		return
	}

	def := domain.CollectionDefinition{
		CollectionID: req.CollectionID,
		Name:         req.Name,
		Description:  req.Description,
		Issuer:       issuer,
		// Signature verification is out of scope for the registry; the
		// field travels opaquely through the DA layer.
		IssuerSignature: "unsigned",
	}
	for _, n := range req.NFTs {
		def.NFTs = append(def.NFTs, domain.BundledNFT{
			ID:          n.ID,
			MetadataURI: n.MetadataURI,
			Extra:       n.Extra,
		})
	}

	res, err := h.publisher.PublishCollectionDefinition(ctx, def)
	if err != nil {
		respondInternalError(c, "failed to submit collection definition", err)
		return
	}

	// Apply locally so the collection is queryable before the replay driver
	// reaches the submitted height. When it does, the duplicate apply is
	// rejected and the state stays unchanged.
	raw, err := domain.EncodeEvent(domain.KindCollectionDefinition, def)
	if err != nil {
		respondInternalError(c, "failed to encode collection definition", err)
		return
	}
	event, err := domain.DecodeEvent(raw)
	if err != nil {
		respondInternalError(c, "failed to decode collection definition", err)
		return
	}
	result, err := h.reducer.Apply(ctx, event, res.Height, res.TxHash)
	if err != nil {
		respondInternalError(c, "failed to apply collection definition", err)
		return
	}

	c.JSON(201, dto.CreateCollectionResponse{
		CollectionID: req.CollectionID,
		Issuer:       issuer,
		Height:       res.Height,
		TxHash:       res.TxHash,
		Outcome:      string(result.Outcome),
		Reason:       string(result.Reason),
	})
}

func parseNFTID(c *gin.Context) (int64, bool) {
	nftID, err := strconv.ParseInt(c.Param("nft_id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "invalid nft_id")
		return 0, false
	}
	return nftID, true
}

func buildNFTsResponse(nfts []schema.NFT, total uint64, params paginationParams) dto.NFTsResponse {
	resp := dto.NFTsResponse{
		NFTs:   make([]dto.NFT, 0, len(nfts)),
		Total:  total,
		Limit:  uint64(params.Limit), //nolint:gosec,G115
		Offset: params.Offset,
	}
	for i := range nfts {
		resp.NFTs = append(resp.NFTs, dto.FromNFT(&nfts[i]))
	}
	return resp
}
