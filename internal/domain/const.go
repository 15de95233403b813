package domain

const (
	// GenesisAddress is the from-address sentinel for NFTs created inside a
	// collection definition
	GenesisAddress = "GENESIS"

	// MintAddress is the from-address sentinel recorded for nft_mint events
	MintAddress = "MINT"

	// NamespaceSize is the number of user bytes in a registry namespace.
	// The hex form used in configuration is twice this length.
	NamespaceSize = 10
)
