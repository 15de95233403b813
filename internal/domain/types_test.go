package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	t.Run("collection definition with bundled nfts", func(t *testing.T) {
		raw := []byte(`{
			"type": "collection_definition",
			"collection_id": "genesis-art",
			"name": "Genesis Art",
			"description": "first drop",
			"issuer": "celestia1issuer",
			"nfts": [
				{"id": 1, "metadata_uri": "ipfs://one"},
				{"id": 2, "metadata_uri": "ipfs://two", "extra": {"rarity": "rare"}}
			],
			"issuer_signature": "c2ln",
			"timestamp": 1700000000
		}`)

		ev, err := DecodeEvent(raw)
		require.NoError(t, err)
		require.Equal(t, KindCollectionDefinition, ev.Kind)
		require.NotNil(t, ev.CollectionDefinition)
		assert.Equal(t, "genesis-art", ev.CollectionDefinition.CollectionID)
		assert.Equal(t, "Genesis Art", ev.CollectionDefinition.Name)
		assert.Equal(t, "celestia1issuer", ev.CollectionDefinition.Issuer)
		require.Len(t, ev.CollectionDefinition.NFTs, 2)
		assert.Equal(t, int64(1), ev.CollectionDefinition.NFTs[0].ID)
		assert.Equal(t, "ipfs://two", ev.CollectionDefinition.NFTs[1].MetadataURI)
		assert.JSONEq(t, `{"rarity":"rare"}`, string(ev.CollectionDefinition.NFTs[1].Extra))
		assert.Equal(t, raw, []byte(ev.Raw))
	})

	t.Run("mint event", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"nft_mint","collection_id":"genesis-art","nft_id":7,"to":"celestia1alice","issuer":"celestia1issuer","metadata_uri":"ipfs://seven"}`))
		require.NoError(t, err)
		require.Equal(t, KindNFTMint, ev.Kind)
		require.NotNil(t, ev.Mint)
		assert.Equal(t, int64(7), ev.Mint.NFTID)
		assert.Equal(t, "celestia1alice", ev.Mint.To)
		assert.Equal(t, "celestia1issuer", ev.Mint.Issuer)
		assert.Nil(t, ev.Transfer)
	})

	t.Run("transfer event", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"nft_transfer","collection_id":"genesis-art","nft_id":7,"from":"celestia1alice","to":"celestia1bob"}`))
		require.NoError(t, err)
		require.Equal(t, KindNFTTransfer, ev.Kind)
		require.NotNil(t, ev.Transfer)
		assert.Equal(t, "celestia1alice", ev.Transfer.From)
		assert.Equal(t, "celestia1bob", ev.Transfer.To)
	})

	t.Run("list, cancel and buy events", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"nft_list","collection_id":"c","nft_id":1,"seller":"celestia1alice","price":2500}`))
		require.NoError(t, err)
		require.Equal(t, KindNFTList, ev.Kind)
		require.NotNil(t, ev.List)
		assert.Equal(t, int64(2500), ev.List.Price)

		ev, err = DecodeEvent([]byte(`{"type":"nft_cancel_list","collection_id":"c","nft_id":1,"seller":"celestia1alice"}`))
		require.NoError(t, err)
		require.Equal(t, KindNFTCancelList, ev.Kind)
		require.NotNil(t, ev.CancelList)

		ev, err = DecodeEvent([]byte(`{"type":"nft_buy","collection_id":"c","nft_id":1,"buyer":"celestia1bob"}`))
		require.NoError(t, err)
		require.Equal(t, KindNFTBuy, ev.Kind)
		require.NotNil(t, ev.Buy)
		assert.Equal(t, "celestia1bob", ev.Buy.Buyer)
	})

	t.Run("unrecognized type decodes to unknown", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"type":"nft_airdrop","collection_id":"c"}`))
		require.NoError(t, err)
		assert.Equal(t, KindUnknown, ev.Kind)
		assert.Nil(t, ev.Mint)
		assert.NotEmpty(t, ev.Raw)
	})

	t.Run("missing type field decodes to unknown", func(t *testing.T) {
		ev, err := DecodeEvent([]byte(`{"collection_id":"c","nft_id":1}`))
		require.NoError(t, err)
		assert.Equal(t, KindUnknown, ev.Kind)
	})

	t.Run("malformed json fails", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`{"type":"nft_mint",`))
		require.Error(t, err)
	})

	t.Run("non-object json fails", func(t *testing.T) {
		_, err := DecodeEvent([]byte(`"nft_mint"`))
		require.Error(t, err)
	})
}
