// Package uri rewrites content-addressed metadata URIs into fetchable
// gateway URLs. Resolution is a pure string mapping; nothing here checks
// that the content actually exists.
package uri

import (
	"fmt"
	"strings"
)

// Resolver maps ipfs:// and ar:// URIs onto HTTP gateways
type Resolver struct {
	ipfsGateway    string
	arweaveGateway string
}

const (
	defaultIPFSGateway    = "https://ipfs.io"
	defaultArweaveGateway = "https://arweave.net"
)

// NewResolver creates a resolver. Empty gateway arguments fall back to the
// public defaults.
func NewResolver(ipfsGateway, arweaveGateway string) *Resolver {
	if ipfsGateway == "" {
		ipfsGateway = defaultIPFSGateway
	}
	if arweaveGateway == "" {
		arweaveGateway = defaultArweaveGateway
	}
	return &Resolver{
		ipfsGateway:    strings.TrimRight(ipfsGateway, "/"),
		arweaveGateway: strings.TrimRight(arweaveGateway, "/"),
	}
}

// Resolve returns the fetchable form of a metadata URI. HTTP(S) and data:
// URIs pass through unchanged; unrecognized schemes pass through too, since
// rejecting them would hide the original value from API consumers.
func (r *Resolver) Resolve(uri string) string {
	if uri == "" {
		return ""
	}

	if cid, ok := strings.CutPrefix(uri, "ipfs://"); ok {
		return fmt.Sprintf("%s/ipfs/%s", r.ipfsGateway, strings.TrimPrefix(cid, "ipfs/"))
	}

	if txID, ok := strings.CutPrefix(uri, "ar://"); ok {
		return fmt.Sprintf("%s/%s", r.arweaveGateway, txID)
	}

	// Foreign IPFS gateway URLs get re-pointed at the configured gateway so
	// consumers are never sent to a gateway the operator does not trust
	if _, after, found := strings.Cut(uri, "/ipfs/"); found && strings.HasPrefix(uri, "http") {
		return fmt.Sprintf("%s/ipfs/%s", r.ipfsGateway, after)
	}

	return uri
}
