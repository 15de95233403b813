package domain

import (
	"encoding/json"
	"fmt"
)

// EventKind identifies the registry event carried by a blob
type EventKind string

const (
	// KindCollectionDefinition declares a new collection
	KindCollectionDefinition EventKind = "collection_definition"
	// KindNFTMint mints a single NFT into a collection
	KindNFTMint EventKind = "nft_mint"
	// KindNFTTransfer moves an NFT between owners
	KindNFTTransfer EventKind = "nft_transfer"
	// KindNFTList opens a sale listing
	KindNFTList EventKind = "nft_list"
	// KindNFTCancelList withdraws an active listing
	KindNFTCancelList EventKind = "nft_cancel_list"
	// KindNFTBuy settles an active listing
	KindNFTBuy EventKind = "nft_buy"
	// KindUnknown is any well-formed event whose type is not recognized
	KindUnknown EventKind = "unknown"
)

// BundledNFT is an NFT pre-minted inside a collection definition
type BundledNFT struct {
	ID          int64           `json:"id"`
	MetadataURI string          `json:"metadata_uri,omitempty"`
	Extra       json.RawMessage `json:"extra,omitempty"`
}

// CollectionDefinition is the payload of a collection_definition event
type CollectionDefinition struct {
	CollectionID    string       `json:"collection_id"`
	Name            string       `json:"name"`
	Description     string       `json:"description,omitempty"`
	Issuer          string       `json:"issuer"`
	NFTs            []BundledNFT `json:"nfts,omitempty"`
	IssuerSignature string       `json:"issuer_signature,omitempty"`
	Timestamp       int64        `json:"timestamp,omitempty"`
}

// MintEvent is the payload of an nft_mint event
type MintEvent struct {
	CollectionID string          `json:"collection_id"`
	NFTID        int64           `json:"nft_id"`
	To           string          `json:"to"`
	Issuer       string          `json:"issuer"`
	MetadataURI  string          `json:"metadata_uri,omitempty"`
	Extra        json.RawMessage `json:"extra,omitempty"`
	Timestamp    int64           `json:"timestamp,omitempty"`
}

// TransferEvent is the payload of an nft_transfer event
type TransferEvent struct {
	CollectionID string `json:"collection_id"`
	NFTID        int64  `json:"nft_id"`
	From         string `json:"from"`
	To           string `json:"to"`
	Timestamp    int64  `json:"timestamp,omitempty"`
}

// ListEvent is the payload of an nft_list event
type ListEvent struct {
	CollectionID string `json:"collection_id"`
	NFTID        int64  `json:"nft_id"`
	Seller       string `json:"seller"`
	Price        int64  `json:"price"`
	Timestamp    int64  `json:"timestamp,omitempty"`
}

// CancelListEvent is the payload of an nft_cancel_list event
type CancelListEvent struct {
	CollectionID string `json:"collection_id"`
	NFTID        int64  `json:"nft_id"`
	Seller       string `json:"seller"`
	Timestamp    int64  `json:"timestamp,omitempty"`
}

// BuyEvent is the payload of an nft_buy event
type BuyEvent struct {
	CollectionID string `json:"collection_id"`
	NFTID        int64  `json:"nft_id"`
	Buyer        string `json:"buyer"`
	Timestamp    int64  `json:"timestamp,omitempty"`
}

// Event is the decoded form of a registry blob. Exactly one payload pointer
// is non-nil for recognized kinds; Raw always carries the original bytes.
type Event struct {
	Kind EventKind

	CollectionDefinition *CollectionDefinition
	Mint                 *MintEvent
	Transfer             *TransferEvent
	List                 *ListEvent
	CancelList           *CancelListEvent
	Buy                  *BuyEvent

	Raw json.RawMessage
}

// eventEnvelope peeks at the discriminator field
type eventEnvelope struct {
	Type string `json:"type"`
}

// EncodeEvent marshals a payload struct with the kind's type discriminator
// injected, producing the wire form DecodeEvent accepts.
func EncodeEvent(kind EventKind, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event payload: %w", err)
	}

	var fields map[string]interface{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode event payload: %w", err)
	}
	fields["type"] = string(kind)

	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode event: %w", err)
	}
	return encoded, nil
}

// DecodeEvent parses a raw blob payload into an Event. Payloads with an
// unrecognized type decode to KindUnknown rather than an error; only
// malformed JSON fails.
func DecodeEvent(raw []byte) (Event, error) {
	var env eventEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Event{}, fmt.Errorf("failed to decode event envelope: %w", err)
	}

	ev := Event{Kind: EventKind(env.Type), Raw: raw}

	switch ev.Kind {
	case KindCollectionDefinition:
		var p CollectionDefinition
		if err := json.Unmarshal(raw, &p); err != nil {
			return Event{}, fmt.Errorf("failed to decode collection definition: %w", err)
		}
		ev.CollectionDefinition = &p
	case KindNFTMint:
		var p MintEvent
		if err := json.Unmarshal(raw, &p); err != nil {
			return Event{}, fmt.Errorf("failed to decode mint event: %w", err)
		}
		ev.Mint = &p
	case KindNFTTransfer:
		var p TransferEvent
		if err := json.Unmarshal(raw, &p); err != nil {
			return Event{}, fmt.Errorf("failed to decode transfer event: %w", err)
		}
		ev.Transfer = &p
	case KindNFTList:
		var p ListEvent
		if err := json.Unmarshal(raw, &p); err != nil {
			return Event{}, fmt.Errorf("failed to decode list event: %w", err)
		}
		ev.List = &p
	case KindNFTCancelList:
		var p CancelListEvent
		if err := json.Unmarshal(raw, &p); err != nil {
			return Event{}, fmt.Errorf("failed to decode cancel list event: %w", err)
		}
		ev.CancelList = &p
	case KindNFTBuy:
		var p BuyEvent
		if err := json.Unmarshal(raw, &p); err != nil {
			return Event{}, fmt.Errorf("failed to decode buy event: %w", err)
		}
		ev.Buy = &p
	default:
		ev.Kind = KindUnknown
	}

	return ev, nil
}
