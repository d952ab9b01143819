package limitbook

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startSerialBook(t *testing.T) *SerialBook {
	t.Helper()

	book, err := NewOrderBook(decimal.RequireFromString("0.01"))
	require.NoError(t, err)

	host := NewSerialBook(book)
	go func() {
		_ = host.Start()
	}()

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = host.Shutdown(ctx)
	})

	return host
}

func TestSerialBookBasicFlow(t *testing.T) {
	ctx := context.Background()
	host := startSerialBook(t)

	sellID, fills, err := host.AddLimitOrder(ctx, Sell, dec("100.00"), dec("10"))
	require.NoError(t, err)
	assert.Empty(t, fills)

	_, fills, err = host.AddLimitOrder(ctx, Buy, dec("100.00"), dec("4"))
	require.NoError(t, err)
	require.Len(t, fills, 1)
	assert.Equal(t, sellID, fills[0].MakerOrderID)

	marketFills, err := host.ExecuteMarketOrder(ctx, Buy, dec("6"))
	require.NoError(t, err)
	require.Len(t, marketFills, 1)

	stats, err := host.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.AskOrderCount)

	_, err = host.ExecuteMarketOrder(ctx, Buy, dec("1"))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)

	err = host.CancelLimitOrder(ctx, sellID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestSerialBookDepthAndSnapshot(t *testing.T) {
	ctx := context.Background()
	host := startSerialBook(t)

	_, _, err := host.AddLimitOrder(ctx, Buy, dec("99.00"), dec("10"))
	require.NoError(t, err)
	_, _, err = host.AddLimitOrder(ctx, Sell, dec("100.00"), dec("5"))
	require.NoError(t, err)

	depth, err := host.Depth(ctx, 10)
	require.NoError(t, err)
	require.Len(t, depth.Bids, 1)
	require.Len(t, depth.Asks, 1)

	snap, err := host.TakeSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Bids, 1)
	assert.Len(t, snap.Asks, 1)
}

func TestSerialBookConcurrentSubmitters(t *testing.T) {
	ctx := context.Background()
	host := startSerialBook(t)

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			side := Buy
			price := dec("99.00")
			if w%2 == 0 {
				side = Sell
				price = dec("101.00")
			}
			for i := 0; i < perWorker; i++ {
				_, _, err := host.AddLimitOrder(ctx, side, price, dec("1"))
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	stats, err := host.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*perWorker), stats.BidOrderCount+stats.AskOrderCount)

	// Serialized access kept the core consistent.
	snap, err := host.TakeSnapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Bids, workers/2*perWorker)
	assert.Len(t, snap.Asks, workers/2*perWorker)
}

func TestSerialBookShutdown(t *testing.T) {
	ctx := context.Background()

	book, err := NewOrderBook(decimal.RequireFromString("0.01"))
	require.NoError(t, err)

	host := NewSerialBook(book)
	go func() {
		_ = host.Start()
	}()

	_, _, err = host.AddLimitOrder(ctx, Buy, dec("99.00"), dec("1"))
	require.NoError(t, err)

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, host.Shutdown(shutdownCtx))

	// New submissions are refused after shutdown.
	_, _, err = host.AddLimitOrder(ctx, Buy, dec("99.00"), dec("1"))
	assert.ErrorIs(t, err, ErrShutdown)

	// Shutdown is idempotent.
	require.NoError(t, host.Shutdown(shutdownCtx))
}
