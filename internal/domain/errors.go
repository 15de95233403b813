package domain

import "errors"

var (
	// ErrCollectionAlreadyExists is returned when a collection_id is already taken
	ErrCollectionAlreadyExists = errors.New("collection already exists")

	// ErrCollectionNotFound is returned when a collection is not found
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrNFTAlreadyExists is returned when minting an (collection_id, nft_id) pair that exists
	ErrNFTAlreadyExists = errors.New("nft already exists")

	// ErrNFTNotFound is returned when an NFT is not found
	ErrNFTNotFound = errors.New("nft not found")

	// ErrNotOwner is returned when the from-address of a transfer is not the current owner
	ErrNotOwner = errors.New("sender is not the current owner")

	// ErrNotIssuer is returned when a mint comes from an address other than the collection issuer
	ErrNotIssuer = errors.New("minter is not the collection issuer")

	// ErrNotSeller is returned when a cancel comes from an address other than the listing seller
	ErrNotSeller = errors.New("sender is not the listing seller")

	// ErrNoActiveListing is returned when a buy or cancel targets an NFT with no open listing
	ErrNoActiveListing = errors.New("no active listing")

	// ErrIntegrityViolation is returned when a mutation rolled back on a
	// database constraint; unlike a connection failure, retrying the same
	// event cannot succeed
	ErrIntegrityViolation = errors.New("integrity constraint violation")
)
