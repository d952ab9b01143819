package limitbook

import (
	"context"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// commandType identifies a command sent to the serial host.
type commandType int

const (
	cmdAddLimit commandType = iota
	cmdMarket
	cmdCancel
	cmdDepth
	cmdStats
	cmdSnapshot
)

type placeResult struct {
	id    OrderID
	fills []Fill
	err   error
}

type marketResult struct {
	fills []Fill
	err   error
}

type depthResult struct {
	depth *Depth
	err   error
}

// command is the unified envelope processed by the host loop. A single
// channel keeps command effects in strict arrival order.
type command struct {
	kind     commandType
	side     Side
	price    decimal.Decimal
	quantity decimal.Decimal
	orderID  OrderID
	limit    uint32
	resp     chan any
}

// SerialBook hosts one OrderBook behind a command channel so that
// concurrent callers are serialized onto the single-threaded core. Every
// command runs to completion before the next starts; results are
// delivered synchronously through a per-command response channel.
type SerialBook struct {
	book             *OrderBook
	isShutdown       atomic.Bool
	cmdChan          chan command
	done             chan struct{}
	shutdownComplete chan struct{}
}

// NewSerialBook wraps an existing book. The caller must not touch the
// book directly once the host is started.
func NewSerialBook(book *OrderBook) *SerialBook {
	return &SerialBook{
		book:             book,
		cmdChan:          make(chan command, 32768),
		done:             make(chan struct{}),
		shutdownComplete: make(chan struct{}),
	}
}

// Start runs the host loop, processing commands until Shutdown is called
// and the channel is drained. Returns nil on clean shutdown.
func (s *SerialBook) Start() error {
	for {
		select {
		case <-s.done:
			return s.drain()
		case cmd := <-s.cmdChan:
			s.apply(cmd)
		}
	}
}

// Shutdown signals the host to stop accepting new commands and waits for
// the pending ones to be processed. Returns ctx.Err() on timeout.
func (s *SerialBook) Shutdown(ctx context.Context) error {
	if s.isShutdown.CompareAndSwap(false, true) {
		close(s.done)
	}

	select {
	case <-s.shutdownComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain processes all remaining commands before returning. Queries are
// answered too, so no submitted caller is left waiting.
func (s *SerialBook) drain() error {
	defer close(s.shutdownComplete)

	for {
		select {
		case cmd := <-s.cmdChan:
			s.apply(cmd)
		default:
			return nil
		}
	}
}

func (s *SerialBook) apply(cmd command) {
	var res any

	switch cmd.kind {
	case cmdAddLimit:
		id, fills, err := s.book.AddLimitOrder(cmd.side, cmd.price, cmd.quantity)
		res = placeResult{id: id, fills: fills, err: err}
	case cmdMarket:
		fills, err := s.book.ExecuteMarketOrder(cmd.side, cmd.quantity)
		res = marketResult{fills: fills, err: err}
	case cmdCancel:
		res = s.book.CancelLimitOrder(cmd.orderID)
	case cmdDepth:
		depth, err := s.book.Depth(cmd.limit)
		res = depthResult{depth: depth, err: err}
	case cmdStats:
		res = s.book.Stats()
	case cmdSnapshot:
		res = s.book.Snapshot()
	default:
		logger.Warn("serial book dropped unknown command", "kind", int(cmd.kind))
		return
	}

	if cmd.resp != nil {
		select {
		case cmd.resp <- res:
		default:
			// Non-blocking send, if no one is listening, just drop it
		}
	}
}

// submit enqueues a command and waits for its result.
func (s *SerialBook) submit(ctx context.Context, cmd command) (any, error) {
	if s.isShutdown.Load() {
		return nil, ErrShutdown
	}

	cmd.resp = make(chan any, 1)

	select {
	case s.cmdChan <- cmd:
	case <-ctx.Done():
		return nil, ErrTimeout
	}

	select {
	case res := <-cmd.resp:
		return res, nil
	case <-ctx.Done():
		return nil, ErrTimeout
	}
}

// AddLimitOrder serializes an AddLimitOrder call onto the book.
func (s *SerialBook) AddLimitOrder(ctx context.Context, side Side, price, quantity decimal.Decimal) (OrderID, []Fill, error) {
	res, err := s.submit(ctx, command{kind: cmdAddLimit, side: side, price: price, quantity: quantity})
	if err != nil {
		return 0, nil, err
	}

	r, _ := res.(placeResult)
	return r.id, r.fills, r.err
}

// ExecuteMarketOrder serializes an ExecuteMarketOrder call onto the book.
func (s *SerialBook) ExecuteMarketOrder(ctx context.Context, side Side, quantity decimal.Decimal) ([]Fill, error) {
	res, err := s.submit(ctx, command{kind: cmdMarket, side: side, quantity: quantity})
	if err != nil {
		return nil, err
	}

	r, _ := res.(marketResult)
	return r.fills, r.err
}

// CancelLimitOrder serializes a CancelLimitOrder call onto the book.
func (s *SerialBook) CancelLimitOrder(ctx context.Context, id OrderID) error {
	res, err := s.submit(ctx, command{kind: cmdCancel, orderID: id})
	if err != nil {
		return err
	}

	if res == nil {
		return nil
	}

	r, _ := res.(error)
	return r
}

// Depth serializes a Depth query onto the book.
func (s *SerialBook) Depth(ctx context.Context, limit uint32) (*Depth, error) {
	res, err := s.submit(ctx, command{kind: cmdDepth, limit: limit})
	if err != nil {
		return nil, err
	}

	r, _ := res.(depthResult)
	return r.depth, r.err
}

// Stats serializes a Stats query onto the book.
func (s *SerialBook) Stats(ctx context.Context) (BookStats, error) {
	res, err := s.submit(ctx, command{kind: cmdStats})
	if err != nil {
		return BookStats{}, err
	}

	r, _ := res.(BookStats)
	return r, nil
}

// TakeSnapshot serializes a snapshot capture onto the book.
func (s *SerialBook) TakeSnapshot(ctx context.Context) (*OrderBookSnapshot, error) {
	res, err := s.submit(ctx, command{kind: cmdSnapshot})
	if err != nil {
		return nil, err
	}

	r, _ := res.(*OrderBookSnapshot)
	return r, nil
}
