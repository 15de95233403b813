package reducer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nftzone/registry-indexer/internal/domain"
	"github.com/nftzone/registry-indexer/internal/store"
	"github.com/nftzone/registry-indexer/internal/store/schema"
)

// Outcome is the terminal state of applying one event
type Outcome string

const (
	// OutcomeApplied means the event mutated the store
	OutcomeApplied Outcome = "applied"
	// OutcomeRejected means a required field or precondition failed; the store is untouched
	OutcomeRejected Outcome = "rejected"
	// OutcomeSkipped means the event kind is not recognized
	OutcomeSkipped Outcome = "skipped"
)

// RejectReason is the machine-readable cause of a rejection
type RejectReason string

const (
	ReasonMissingField    RejectReason = "missing_field"
	ReasonNotFound        RejectReason = "not_found"
	ReasonNotOwner        RejectReason = "not_owner"
	ReasonDuplicate       RejectReason = "duplicate"
	ReasonNotIssuer       RejectReason = "not_issuer"
	ReasonNoActiveListing RejectReason = "no_active_listing"
	ReasonStoreError      RejectReason = "store_error"
)

// Result reports what happened to a single event. Reason is set only when
// Outcome is OutcomeRejected.
type Result struct {
	Outcome Outcome
	Reason  RejectReason
}

func applied() Result                    { return Result{Outcome: OutcomeApplied} }
func rejected(reason RejectReason) Result { return Result{Outcome: OutcomeRejected, Reason: reason} }
func skipped() Result                    { return Result{Outcome: OutcomeSkipped} }

// Reducer folds registry events into the store. Events arrive from an
// untrusted feed, so ownership and issuer authority are always re-checked
// against current store state rather than trusted from the event.
type Reducer struct {
	store store.Store
}

func New(s store.Store) *Reducer {
	return &Reducer{store: s}
}

// Apply evaluates one event against the store. A rejection never aborts
// replay; the non-nil error return is reserved for infrastructure failures
// (store unreachable) where the caller should retry the same event.
func (r *Reducer) Apply(ctx context.Context, event domain.Event, height uint64, txID string) (Result, error) {
	switch event.Kind {
	case domain.KindCollectionDefinition:
		return r.applyCollectionDefinition(ctx, event.CollectionDefinition, event.Raw, height, txID)
	case domain.KindNFTMint:
		return r.applyMint(ctx, event.Mint, height, txID)
	case domain.KindNFTTransfer:
		return r.applyTransfer(ctx, event.Transfer, height, txID)
	case domain.KindNFTList:
		return r.applyList(ctx, event.List, height, txID)
	case domain.KindNFTCancelList:
		return r.applyCancelList(ctx, event.CancelList, height, txID)
	case domain.KindNFTBuy:
		return r.applyBuy(ctx, event.Buy, height, txID)
	default:
		return skipped(), nil
	}
}

func (r *Reducer) applyCollectionDefinition(ctx context.Context, p *domain.CollectionDefinition, raw json.RawMessage, height uint64, txID string) (Result, error) {
	if p.CollectionID == "" || p.Issuer == "" || p.Name == "" {
		return rejected(ReasonMissingField), nil
	}

	nfts := make([]store.BundledNFTInput, len(p.NFTs))
	for i, bundled := range p.NFTs {
		nfts[i] = store.BundledNFTInput{
			NFTID:       bundled.ID,
			MetadataURI: bundled.MetadataURI,
			Extra:       bundled.Extra,
		}
	}

	err := r.store.CreateCollection(ctx, store.CreateCollectionInput{
		CollectionID: p.CollectionID,
		Name:         p.Name,
		Description:  p.Description,
		Issuer:       p.Issuer,
		NFTs:         nfts,
		Raw:          raw,
		Height:       height,
		TxHash:       txID,
	})
	return r.mutationResult(err)
}

func (r *Reducer) applyMint(ctx context.Context, p *domain.MintEvent, height uint64, txID string) (Result, error) {
	if p.CollectionID == "" || p.NFTID == 0 || p.To == "" || p.Issuer == "" {
		return rejected(ReasonMissingField), nil
	}

	collection, err := r.store.GetCollection(ctx, p.CollectionID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load collection: %w", err)
	}
	if collection == nil {
		return rejected(ReasonNotFound), nil
	}
	// Only the collection's issuer may mint into it
	if collection.Issuer != p.Issuer {
		return rejected(ReasonNotIssuer), nil
	}

	err = r.store.MintNFT(ctx, store.MintNFTInput{
		CollectionID: p.CollectionID,
		NFTID:        p.NFTID,
		To:           p.To,
		MetadataURI:  p.MetadataURI,
		Extra:        p.Extra,
		Height:       height,
		TxHash:       txID,
	})
	return r.mutationResult(err)
}

func (r *Reducer) applyTransfer(ctx context.Context, p *domain.TransferEvent, height uint64, txID string) (Result, error) {
	if p.CollectionID == "" || p.NFTID == 0 || p.From == "" || p.To == "" {
		return rejected(ReasonMissingField), nil
	}

	err := r.store.TransferNFT(ctx, store.TransferNFTInput{
		CollectionID: p.CollectionID,
		NFTID:        p.NFTID,
		From:         p.From,
		To:           p.To,
		TxType:       schema.TransferTypeTransfer,
		Height:       height,
		TxHash:       txID,
	})
	return r.mutationResult(err)
}

func (r *Reducer) applyList(ctx context.Context, p *domain.ListEvent, height uint64, txID string) (Result, error) {
	if p.CollectionID == "" || p.NFTID == 0 || p.Seller == "" || p.Price == 0 {
		return rejected(ReasonMissingField), nil
	}

	err := r.store.CreateListing(ctx, store.CreateListingInput{
		CollectionID: p.CollectionID,
		NFTID:        p.NFTID,
		Seller:       p.Seller,
		Price:        p.Price,
		Height:       height,
		TxHash:       txID,
	})
	return r.mutationResult(err)
}

func (r *Reducer) applyCancelList(ctx context.Context, p *domain.CancelListEvent, height uint64, txID string) (Result, error) {
	if p.CollectionID == "" || p.NFTID == 0 || p.Seller == "" {
		return rejected(ReasonMissingField), nil
	}

	err := r.store.CancelListing(ctx, store.CancelListingInput{
		CollectionID: p.CollectionID,
		NFTID:        p.NFTID,
		Seller:       p.Seller,
		Height:       height,
		TxHash:       txID,
	})
	return r.mutationResult(err)
}

func (r *Reducer) applyBuy(ctx context.Context, p *domain.BuyEvent, height uint64, txID string) (Result, error) {
	if p.CollectionID == "" || p.NFTID == 0 || p.Buyer == "" {
		return rejected(ReasonMissingField), nil
	}

	listing, err := r.store.GetActiveListing(ctx, p.CollectionID, p.NFTID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to load active listing: %w", err)
	}
	if listing == nil {
		return rejected(ReasonNoActiveListing), nil
	}

	// A buy is a sale-typed transfer from the listing's seller; the store
	// closes the listing as part of the same transaction.
	price := listing.Price
	err = r.store.TransferNFT(ctx, store.TransferNFTInput{
		CollectionID: p.CollectionID,
		NFTID:        p.NFTID,
		From:         listing.Seller,
		To:           p.Buyer,
		TxType:       schema.TransferTypeSale,
		Price:        &price,
		Height:       height,
		TxHash:       txID,
	})
	return r.mutationResult(err)
}

// mutationResult maps a store mutation error to a result. Domain sentinels
// become typed rejections; a constraint-violation rollback is terminal as
// store_error. Any other error is infrastructure (store unreachable, timeout)
// and is returned to the caller so the same event gets retried rather than
// silently dropped.
func (r *Reducer) mutationResult(err error) (Result, error) {
	switch {
	case err == nil:
		return applied(), nil
	case errors.Is(err, domain.ErrCollectionAlreadyExists),
		errors.Is(err, domain.ErrNFTAlreadyExists):
		return rejected(ReasonDuplicate), nil
	case errors.Is(err, domain.ErrCollectionNotFound),
		errors.Is(err, domain.ErrNFTNotFound):
		return rejected(ReasonNotFound), nil
	case errors.Is(err, domain.ErrNotOwner),
		errors.Is(err, domain.ErrNotSeller):
		return rejected(ReasonNotOwner), nil
	case errors.Is(err, domain.ErrNotIssuer):
		return rejected(ReasonNotIssuer), nil
	case errors.Is(err, domain.ErrNoActiveListing):
		return rejected(ReasonNoActiveListing), nil
	case errors.Is(err, domain.ErrIntegrityViolation):
		return rejected(ReasonStoreError), nil
	default:
		return Result{}, fmt.Errorf("failed to apply mutation: %w", err)
	}
}
