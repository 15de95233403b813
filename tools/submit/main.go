// Command submit publishes registry events to the DA layer from the command
// line. It is an operator tool; the indexer picks the events up through the
// normal replay path.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/nftzone/registry-indexer/internal/adapter"
	"github.com/nftzone/registry-indexer/internal/config"
	"github.com/nftzone/registry-indexer/internal/da"
	"github.com/nftzone/registry-indexer/internal/domain"
	"github.com/nftzone/registry-indexer/internal/keyring"
	"github.com/nftzone/registry-indexer/internal/logger"
	"github.com/nftzone/registry-indexer/internal/publisher"
)

const usage = `Usage: submit [flags] <command>

Commands:
  define    publish a collection_definition event
  mint      publish an nft_mint event
  transfer  publish an nft_transfer event
  list      publish an nft_list event
  cancel    publish an nft_cancel_list event
  buy       publish an nft_buy event
`

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

type env struct {
	publisher *publisher.Publisher
	resolver  keyring.AddressResolver
	key       string
}

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	config.ChdirRepoRoot()
	cfg, err := config.LoadSubmitConfig(*configFile, *envPath)
	if err != nil {
		fatalf("failed to load config: %v", err)
	}

	if err := logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags:            map[string]string{"service": "submit"},
	}); err != nil {
		fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Flush(2 * time.Second)

	httpClient := adapter.NewHTTPClient(cfg.DA.HTTPTimeout)
	daClient, err := da.NewCelestiaClient(cfg.DA.RPCEndpoint, cfg.DA.AuthToken, cfg.DA.Namespace, httpClient)
	if err != nil {
		fatalf("failed to create DA client: %v", err)
	}

	e := &env{
		publisher: publisher.New(daClient, adapter.NewClock()),
		resolver:  keyring.NewCLIResolver(cfg.Keyring.Binary, cfg.Keyring.Backend, cfg.Keyring.Home, adapter.NewCommandRunner()),
		key:       cfg.Keyring.DefaultKey,
	}

	ctx := context.Background()
	command := flag.Arg(0)
	args := flag.Args()[1:]

	var res *da.SubmitResult
	switch command {
	case "define":
		res, err = e.define(ctx, args)
	case "mint":
		res, err = e.mint(ctx, args)
	case "transfer":
		res, err = e.transfer(ctx, args)
	case "list":
		res, err = e.list(ctx, args)
	case "cancel":
		res, err = e.cancel(ctx, args)
	case "buy":
		res, err = e.buy(ctx, args)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		fatalf("%s failed: %v", command, err)
	}

	fmt.Printf("submitted at height %d, tx %s\n", res.Height, res.TxHash)
}

// walletAddress resolves the configured wallet key when the flag was omitted
func (e *env) walletAddress(ctx context.Context, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if e.key == "" {
		return "", fmt.Errorf("no address given and no default key configured")
	}
	return e.resolver.Resolve(ctx, e.key)
}

func (e *env) define(ctx context.Context, args []string) (*da.SubmitResult, error) {
	fs := flag.NewFlagSet("define", flag.ExitOnError)
	collectionID := fs.String("collection", "", "Collection identifier")
	name := fs.String("name", "", "Collection name")
	description := fs.String("description", "", "Collection description")
	issuer := fs.String("issuer", "", "Issuer address (default: resolved from wallet)")
	nftsJSON := fs.String("nfts", "", `Bundled NFTs as JSON, e.g. [{"id":1,"metadata_uri":"ipfs://..."}]`)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	addr, err := e.walletAddress(ctx, *issuer)
	if err != nil {
		return nil, err
	}

	def := domain.CollectionDefinition{
		CollectionID:    *collectionID,
		Name:            *name,
		Description:     *description,
		Issuer:          addr,
		IssuerSignature: "unsigned",
	}
	if *nftsJSON != "" {
		if err := json.Unmarshal([]byte(*nftsJSON), &def.NFTs); err != nil {
			return nil, fmt.Errorf("failed to parse nfts: %w", err)
		}
	}
	return e.publisher.PublishCollectionDefinition(ctx, def)
}

func (e *env) mint(ctx context.Context, args []string) (*da.SubmitResult, error) {
	fs := flag.NewFlagSet("mint", flag.ExitOnError)
	collectionID := fs.String("collection", "", "Collection identifier")
	nftID := fs.Int64("nft", 0, "NFT identifier")
	to := fs.String("to", "", "Recipient address")
	issuer := fs.String("issuer", "", "Issuer address (default: resolved from wallet)")
	metadataURI := fs.String("metadata-uri", "", "Metadata URI")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	addr, err := e.walletAddress(ctx, *issuer)
	if err != nil {
		return nil, err
	}

	return e.publisher.PublishMint(ctx, domain.MintEvent{
		CollectionID: *collectionID,
		NFTID:        *nftID,
		To:           *to,
		Issuer:       addr,
		MetadataURI:  *metadataURI,
	})
}

func (e *env) transfer(ctx context.Context, args []string) (*da.SubmitResult, error) {
	fs := flag.NewFlagSet("transfer", flag.ExitOnError)
	collectionID := fs.String("collection", "", "Collection identifier")
	nftID := fs.Int64("nft", 0, "NFT identifier")
	from := fs.String("from", "", "Current owner address (default: resolved from wallet)")
	to := fs.String("to", "", "Recipient address")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	addr, err := e.walletAddress(ctx, *from)
	if err != nil {
		return nil, err
	}

	return e.publisher.PublishTransfer(ctx, domain.TransferEvent{
		CollectionID: *collectionID,
		NFTID:        *nftID,
		From:         addr,
		To:           *to,
	})
}

func (e *env) list(ctx context.Context, args []string) (*da.SubmitResult, error) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	collectionID := fs.String("collection", "", "Collection identifier")
	nftID := fs.Int64("nft", 0, "NFT identifier")
	seller := fs.String("seller", "", "Seller address (default: resolved from wallet)")
	price := fs.Int64("price", 0, "Asking price in base units")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	addr, err := e.walletAddress(ctx, *seller)
	if err != nil {
		return nil, err
	}

	return e.publisher.PublishList(ctx, domain.ListEvent{
		CollectionID: *collectionID,
		NFTID:        *nftID,
		Seller:       addr,
		Price:        *price,
	})
}

func (e *env) cancel(ctx context.Context, args []string) (*da.SubmitResult, error) {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	collectionID := fs.String("collection", "", "Collection identifier")
	nftID := fs.Int64("nft", 0, "NFT identifier")
	seller := fs.String("seller", "", "Seller address (default: resolved from wallet)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	addr, err := e.walletAddress(ctx, *seller)
	if err != nil {
		return nil, err
	}

	return e.publisher.PublishCancelList(ctx, domain.CancelListEvent{
		CollectionID: *collectionID,
		NFTID:        *nftID,
		Seller:       addr,
	})
}

func (e *env) buy(ctx context.Context, args []string) (*da.SubmitResult, error) {
	fs := flag.NewFlagSet("buy", flag.ExitOnError)
	collectionID := fs.String("collection", "", "Collection identifier")
	nftID := fs.Int64("nft", 0, "NFT identifier")
	buyer := fs.String("buyer", "", "Buyer address (default: resolved from wallet)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	addr, err := e.walletAddress(ctx, *buyer)
	if err != nil {
		return nil, err
	}

	return e.publisher.PublishBuy(ctx, domain.BuyEvent{
		CollectionID: *collectionID,
		NFTID:        *nftID,
		Buyer:        addr,
	})
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
