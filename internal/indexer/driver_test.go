package indexer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nftzone/registry-indexer/internal/da"
	"github.com/nftzone/registry-indexer/internal/reducer"
	"github.com/nftzone/registry-indexer/internal/store"
)

// fakeClock never actually sleeps so driver loops run at full speed
type fakeClock struct{}

func (fakeClock) Now() time.Time                  { return time.Now() }
func (fakeClock) Since(t time.Time) time.Duration { return time.Since(t) }
func (fakeClock) Sleep(time.Duration)             {}
func (fakeClock) After(time.Duration) <-chan time.Time {
	ch := make(chan time.Time)
	close(ch)
	return ch
}

// fakeDAClient serves scripted blobs and cancels the run after the driver
// has caught up with the head
type fakeDAClient struct {
	mu sync.Mutex

	head  uint64
	blobs map[uint64][]da.Blob

	cancelAfterCatchUp context.CancelFunc
	localHeadCalls     int
	fetchedHeights     []uint64
	fetchErrs          map[uint64]int
}

func (f *fakeDAClient) Submit(context.Context, []byte) (*da.SubmitResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDAClient) LocalHead(context.Context) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.localHeadCalls++
	caughtUp := len(f.fetchedHeights) > 0 && f.fetchedHeights[len(f.fetchedHeights)-1] == f.head
	if f.localHeadCalls > 1 && caughtUp && f.cancelAfterCatchUp != nil {
		f.cancelAfterCatchUp()
	}
	return f.head, nil
}

func (f *fakeDAClient) GetAll(_ context.Context, height uint64) ([]da.Blob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErrs[height] > 0 {
		f.fetchErrs[height]--
		return nil, errors.New("fetch timeout")
	}
	f.fetchedHeights = append(f.fetchedHeights, height)
	return f.blobs[height], nil
}

func runDriver(t *testing.T, s store.Store, client *fakeDAClient, startHeight uint64) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.cancelAfterCatchUp = cancel

	driver := NewDriver(Config{StartHeight: startHeight, PollInterval: time.Millisecond},
		s, reducer.New(s), client, fakeClock{})

	done := make(chan error, 1)
	go func() { done <- driver.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		cancel()
		t.Fatal("driver did not stop")
	}
}

func TestDriverRun(t *testing.T) {
	s := store.NewMemoryStore()
	client := &fakeDAClient{
		head: 102,
		blobs: map[uint64][]da.Blob{
			100: {{Data: []byte(`{"type":"collection_definition","collection_id":"C","issuer":"I","name":"Genesis","nfts":[{"id":1}]}`), TxID: "tx-def"}},
			101: {{Data: []byte(`{"type":"nft_mint","collection_id":"C","nft_id":2,"to":"X","issuer":"I"}`), TxID: "tx-mint"}},
			102: {
				{Data: []byte(`not json at all`), TxID: "tx-garbage"},
				{Data: []byte(`{"type":"nft_airdrop"}`), TxID: "tx-unknown"},
			},
		},
	}

	runDriver(t, s, client, 100)

	ctx := context.Background()
	height, err := s.GetLastIndexedHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(102), height)

	collection, err := s.GetCollection(ctx, "C")
	require.NoError(t, err)
	require.NotNil(t, collection)
	assert.Equal(t, int64(2), collection.TotalSupply)

	// Every blob at an indexed height lands in the dedup set, including the
	// undecodable and unrecognized ones
	for _, txID := range []string{"tx-def", "tx-mint", "tx-garbage", "tx-unknown"} {
		processed, err := s.IsTxProcessed(ctx, txID)
		require.NoError(t, err)
		assert.True(t, processed, txID)
	}
}

func TestDriverStartsAfterCursor(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, s.AdvanceCursor(context.Background(), 104, nil))

	client := &fakeDAClient{head: 106, blobs: map[uint64][]da.Blob{}}
	runDriver(t, s, client, 100)

	assert.Equal(t, []uint64{105, 106}, client.fetchedHeights)
}

func TestDriverSkipsProcessedTxs(t *testing.T) {
	s := store.NewMemoryStore()
	require.NoError(t, s.AdvanceCursor(context.Background(), 0, []string{"tx-def"}))

	client := &fakeDAClient{
		head: 100,
		blobs: map[uint64][]da.Blob{
			100: {{Data: []byte(`{"type":"collection_definition","collection_id":"C","issuer":"I","name":"Genesis"}`), TxID: "tx-def"}},
		},
	}
	runDriver(t, s, client, 100)

	// The redelivered tx was never applied
	collection, err := s.GetCollection(context.Background(), "C")
	require.NoError(t, err)
	assert.Nil(t, collection)
}

func TestDriverRetriesFetchErrors(t *testing.T) {
	s := store.NewMemoryStore()
	client := &fakeDAClient{
		head: 100,
		blobs: map[uint64][]da.Blob{
			100: {{Data: []byte(`{"type":"collection_definition","collection_id":"C","issuer":"I","name":"Genesis"}`), TxID: "tx-def"}},
		},
		fetchErrs: map[uint64]int{100: 2},
	}
	runDriver(t, s, client, 100)

	collection, err := s.GetCollection(context.Background(), "C")
	require.NoError(t, err)
	require.NotNil(t, collection)

	height, err := s.GetLastIndexedHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(100), height)
}
