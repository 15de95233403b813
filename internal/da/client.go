// Package da talks to the data-availability node that carries registry
// event blobs. The rest of the system only sees opaque payload bytes keyed
// by height; commitments, share versions and transport encodings stay in
// here.
package da

import "context"

// Blob is one namespaced payload retrieved at a height. TxID is the node's
// commitment for the blob, which is the identity the dedup set keys on.
type Blob struct {
	Data []byte
	TxID string
}

// SubmitResult reports where a submitted payload landed.
type SubmitResult struct {
	Height uint64
	TxHash string
}

// Client is the blob source collaborator.
//
//go:generate mockgen -source=client.go -destination=../mocks/da.go -package=mocks -mock_names=Client=MockClient
type Client interface {
	// Submit publishes a payload into the configured namespace
	Submit(ctx context.Context, payload []byte) (*SubmitResult, error)

	// GetAll returns every blob in the configured namespace at the height
	GetAll(ctx context.Context, height uint64) ([]Blob, error)

	// LocalHead returns the node's current chain head height
	LocalHead(ctx context.Context) (uint64, error)
}
