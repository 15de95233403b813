package uri

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	r := NewResolver("", "")

	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "ipfs scheme",
			uri:      "ipfs://QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
			expected: "https://ipfs.io/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
		},
		{
			name:     "ipfs scheme with redundant path prefix",
			uri:      "ipfs://ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
			expected: "https://ipfs.io/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
		},
		{
			name:     "arweave scheme",
			uri:      "ar://bNbA3TEQVL60xlgCcqdz4ZPHFZ711cZ3hmkpGttDt_U",
			expected: "https://arweave.net/bNbA3TEQVL60xlgCcqdz4ZPHFZ711cZ3hmkpGttDt_U",
		},
		{
			name:     "foreign ipfs gateway",
			uri:      "https://cloudflare-ipfs.com/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/meta.json",
			expected: "https://ipfs.io/ipfs/QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG/meta.json",
		},
		{
			name:     "https passthrough",
			uri:      "https://example.com/meta/1.json",
			expected: "https://example.com/meta/1.json",
		},
		{
			name:     "data uri passthrough",
			uri:      "data:application/json;base64,eyJ9",
			expected: "data:application/json;base64,eyJ9",
		},
		{
			name:     "unknown scheme passthrough",
			uri:      "onchfs://abcdef",
			expected: "onchfs://abcdef",
		},
		{
			name:     "empty",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Resolve(tt.uri))
		})
	}
}

func TestResolveCustomGateways(t *testing.T) {
	r := NewResolver("https://gw.nftzone.dev/", "https://ar.nftzone.dev")

	assert.Equal(t, "https://gw.nftzone.dev/ipfs/QmX", r.Resolve("ipfs://QmX"))
	assert.Equal(t, "https://ar.nftzone.dev/tx123", r.Resolve("ar://tx123"))
}
