// Package publisher builds marketplace event payloads and submits them to
// the DA layer. It is the write-side counterpart of the replay driver:
// anything it publishes comes back through the indexer before it becomes
// visible in the store.
package publisher

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nftzone/registry-indexer/internal/adapter"
	"github.com/nftzone/registry-indexer/internal/da"
	"github.com/nftzone/registry-indexer/internal/domain"
	"github.com/nftzone/registry-indexer/internal/logger"
)

type Publisher struct {
	client da.Client
	clock  adapter.Clock
}

func New(client da.Client, clock adapter.Clock) *Publisher {
	return &Publisher{client: client, clock: clock}
}

func (p *Publisher) publish(ctx context.Context, kind domain.EventKind, payload interface{}) (*da.SubmitResult, error) {
	encoded, err := domain.EncodeEvent(kind, payload)
	if err != nil {
		return nil, err
	}

	result, err := p.client.Submit(ctx, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to submit %s: %w", kind, err)
	}

	logger.InfoCtx(ctx, "event published",
		zap.String("kind", string(kind)),
		zap.Uint64("height", result.Height),
		zap.String("tx_hash", result.TxHash))

	return result, nil
}

// stamp fills a zero timestamp with the current time
func (p *Publisher) stamp(ts int64) int64 {
	if ts != 0 {
		return ts
	}
	return p.clock.Now().Unix()
}

// PublishCollectionDefinition submits a collection_definition blob. The
// issuer signature travels opaquely; no verification happens anywhere.
func (p *Publisher) PublishCollectionDefinition(ctx context.Context, def domain.CollectionDefinition) (*da.SubmitResult, error) {
	if def.CollectionID == "" || def.Issuer == "" || def.Name == "" {
		return nil, fmt.Errorf("collection definition requires collection_id, issuer and name")
	}
	def.Timestamp = p.stamp(def.Timestamp)
	return p.publish(ctx, domain.KindCollectionDefinition, def)
}

func (p *Publisher) PublishMint(ctx context.Context, mint domain.MintEvent) (*da.SubmitResult, error) {
	if mint.CollectionID == "" || mint.NFTID == 0 || mint.To == "" || mint.Issuer == "" {
		return nil, fmt.Errorf("mint requires collection_id, nft_id, to and issuer")
	}
	mint.Timestamp = p.stamp(mint.Timestamp)
	return p.publish(ctx, domain.KindNFTMint, mint)
}

func (p *Publisher) PublishTransfer(ctx context.Context, transfer domain.TransferEvent) (*da.SubmitResult, error) {
	if transfer.CollectionID == "" || transfer.NFTID == 0 || transfer.From == "" || transfer.To == "" {
		return nil, fmt.Errorf("transfer requires collection_id, nft_id, from and to")
	}
	transfer.Timestamp = p.stamp(transfer.Timestamp)
	return p.publish(ctx, domain.KindNFTTransfer, transfer)
}

func (p *Publisher) PublishList(ctx context.Context, list domain.ListEvent) (*da.SubmitResult, error) {
	if list.CollectionID == "" || list.NFTID == 0 || list.Seller == "" || list.Price <= 0 {
		return nil, fmt.Errorf("list requires collection_id, nft_id, seller and a positive price")
	}
	list.Timestamp = p.stamp(list.Timestamp)
	return p.publish(ctx, domain.KindNFTList, list)
}

func (p *Publisher) PublishCancelList(ctx context.Context, cancel domain.CancelListEvent) (*da.SubmitResult, error) {
	if cancel.CollectionID == "" || cancel.NFTID == 0 || cancel.Seller == "" {
		return nil, fmt.Errorf("cancel requires collection_id, nft_id and seller")
	}
	cancel.Timestamp = p.stamp(cancel.Timestamp)
	return p.publish(ctx, domain.KindNFTCancelList, cancel)
}

func (p *Publisher) PublishBuy(ctx context.Context, buy domain.BuyEvent) (*da.SubmitResult, error) {
	if buy.CollectionID == "" || buy.NFTID == 0 || buy.Buyer == "" {
		return nil, fmt.Errorf("buy requires collection_id, nft_id and buyer")
	}
	buy.Timestamp = p.stamp(buy.Timestamp)
	return p.publish(ctx, domain.KindNFTBuy, buy)
}
