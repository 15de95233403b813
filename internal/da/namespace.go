package da

import (
	"encoding/hex"
	"fmt"

	"github.com/nftzone/registry-indexer/internal/domain"
)

// celestiaNamespaceLen is the full wire form: 1 version byte plus a 28-byte
// ID with the user bytes right-aligned.
const celestiaNamespaceLen = 29

// ParseNamespace decodes the configured hex namespace into its raw user
// bytes. The hex form is twice domain.NamespaceSize characters.
func ParseNamespace(hexStr string) ([]byte, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode namespace hex: %w", err)
	}
	if len(raw) != domain.NamespaceSize {
		return nil, fmt.Errorf("namespace must be %d bytes, got %d", domain.NamespaceSize, len(raw))
	}
	return raw, nil
}

// wireNamespace left-pads the user bytes into the version-0 wire form the
// node expects.
func wireNamespace(user []byte) []byte {
	ns := make([]byte, celestiaNamespaceLen)
	copy(ns[celestiaNamespaceLen-len(user):], user)
	return ns
}
