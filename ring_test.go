package limitbook

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingHandler struct {
	count atomic.Int64
	sum   atomic.Int64
}

func (h *countingHandler) OnEvent(event int64) {
	h.count.Add(1)
	h.sum.Add(event)
}

func TestRingBufferCapacityValidation(t *testing.T) {
	assert.Panics(t, func() {
		NewRingBuffer[int64](3, &countingHandler{})
	})
	assert.Panics(t, func() {
		NewRingBuffer[int64](0, &countingHandler{})
	})
	assert.NotPanics(t, func() {
		NewRingBuffer[int64](8, &countingHandler{})
	})
}

func TestRingBufferSingleProducer(t *testing.T) {
	handler := &countingHandler{}
	rb := NewRingBuffer[int64](64, handler)
	rb.Start()

	var expected int64
	for i := int64(1); i <= 100; i++ {
		rb.Publish(i)
		expected += i
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	assert.Equal(t, int64(100), handler.count.Load())
	assert.Equal(t, expected, handler.sum.Load())
	assert.Equal(t, int64(0), rb.PendingEvents())
}

func TestRingBufferMultiProducer(t *testing.T) {
	handler := &countingHandler{}
	rb := NewRingBuffer[int64](256, handler)
	rb.Start()

	const producers = 8
	const perProducer = 1000

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				rb.Publish(1)
			}
		}()
	}
	wg.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	assert.Equal(t, int64(producers*perProducer), handler.count.Load())
	assert.Equal(t, int64(producers*perProducer), handler.sum.Load())
}

func TestRingBufferDropsAfterShutdown(t *testing.T) {
	handler := &countingHandler{}
	rb := NewRingBuffer[int64](8, handler)
	rb.Start()

	rb.Publish(1)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	rb.Publish(2)
	assert.Equal(t, int64(1), handler.count.Load())
}

// bookEventHandler feeds published commands into a book, mirroring how a
// lock-free ingestion host would drive the single-threaded core.
type bookEventHandler struct {
	book *OrderBook
}

func (h *bookEventHandler) OnEvent(cmd command) {
	switch cmd.kind {
	case cmdAddLimit:
		_, _, _ = h.book.AddLimitOrder(cmd.side, cmd.price, cmd.quantity)
	case cmdCancel:
		_ = h.book.CancelLimitOrder(cmd.orderID)
	}
}

func TestRingBufferDrivesBook(t *testing.T) {
	book, err := NewOrderBook(decimal.RequireFromString("0.01"))
	require.NoError(t, err)

	rb := NewRingBuffer[command](1024, &bookEventHandler{book: book})
	rb.Start()

	for i := 0; i < 500; i++ {
		rb.Publish(command{kind: cmdAddLimit, side: Buy, price: dec("99.00"), quantity: dec("1")})
		rb.Publish(command{kind: cmdAddLimit, side: Sell, price: dec("101.00"), quantity: dec("1")})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, rb.Shutdown(ctx))

	stats := book.Stats()
	assert.Equal(t, int64(500), stats.BidOrderCount)
	assert.Equal(t, int64(500), stats.AskOrderCount)
	checkBookInvariants(t, book)
}
