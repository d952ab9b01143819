package limitbook

import (
	"github.com/shopspring/decimal"
)

// OrderBook is an in-memory central limit order book for one instrument,
// matching under price-time priority. It is a single-threaded object:
// callers serialize access (see SerialBook for a ready-made host).
//
// Every public operation either completes and leaves the book consistent,
// or fails and leaves the book untouched.
type OrderBook struct {
	tickSize  decimal.Decimal
	bidQueue  *queue
	askQueue  *queue
	nextID    OrderID
	seqID     uint64
	tradeID   uint64
	publisher PublishLog
}

// OrderBookOption configures optional order book behavior.
type OrderBookOption func(*OrderBook)

// WithPublishLog attaches a publisher that receives a BookLog event for
// every open, match and cancel. Without it the book emits nothing.
func WithPublishLog(p PublishLog) OrderBookOption {
	return func(book *OrderBook) {
		book.publisher = p
	}
}

// NewOrderBook creates an empty book with the given tick size.
func NewOrderBook(tickSize decimal.Decimal, opts ...OrderBookOption) (*OrderBook, error) {
	if tickSize.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidTickSize
	}

	book := &OrderBook{
		tickSize: tickSize,
		bidQueue: newBuyerQueue(),
		askQueue: newSellerQueue(),
	}

	for _, opt := range opts {
		opt(book)
	}

	return book, nil
}

// TickSize returns the book's price grid spacing.
func (book *OrderBook) TickSize() decimal.Decimal {
	return book.tickSize
}

func (book *OrderBook) nextOrderID() OrderID {
	id := book.nextID
	book.nextID++
	return id
}

func (book *OrderBook) myQueue(side Side) *queue {
	if side == Buy {
		return book.bidQueue
	}
	return book.askQueue
}

func (book *OrderBook) targetQueue(side Side) *queue {
	if side == Buy {
		return book.askQueue
	}
	return book.bidQueue
}

// crosses reports whether a resting tick on the opposite side is
// marketable against the incoming limit tick.
func crosses(side Side, limitTick, restingTick Tick) bool {
	if side == Buy {
		return restingTick <= limitTick
	}
	return restingTick >= limitTick
}

// match walks the opposite side best-first and consumes liquidity under
// price-time priority. When limited, matching stops once the best
// opposite tick no longer crosses limitTick. Partial fills decrement the
// head order's remaining in place; fully consumed makers leave their
// level and the registry in the same step. Returns the fills in
// execution order and the unfilled quantity.
func (book *OrderBook) match(side Side, takerID OrderID, limitTick Tick, limited bool, quantity decimal.Decimal) ([]Fill, decimal.Decimal) {
	target := book.targetQueue(side)
	fills := make([]Fill, 0, 8)

	for quantity.GreaterThan(decimal.Zero) {
		resting := target.peekHeadOrder()
		if resting == nil {
			break
		}

		if limited && !crosses(side, limitTick, resting.Tick) {
			break
		}

		fillQty := decimal.Min(quantity, resting.Remaining)

		fills = append(fills, Fill{
			MakerOrderID: resting.ID,
			TakerOrderID: takerID,
			TakerSide:    side,
			Price:        resting.Price,
			Quantity:     fillQty,
		})

		quantity = quantity.Sub(fillQty)
		book.publishMatch(takerID, side, resting, fillQty)
		target.fill(resting, fillQty)
	}

	return fills, quantity
}

// AddLimitOrder submits a limit order. Marketable quantity matches
// immediately against the opposite side; any remainder rests at the
// order's tick. The returned ID is always valid, even when the order is
// fully consumed and never rests.
func (book *OrderBook) AddLimitOrder(side Side, price, quantity decimal.Decimal) (OrderID, []Fill, error) {
	if side != Buy && side != Sell {
		return 0, nil, ErrInvalidParam
	}

	if quantity.LessThanOrEqual(decimal.Zero) {
		return 0, nil, ErrInvalidParam
	}

	tick, err := book.tickOf(price)
	if err != nil {
		return 0, nil, err
	}

	id := book.nextOrderID()
	fills, remaining := book.match(side, id, tick, true, quantity)

	if remaining.GreaterThan(decimal.Zero) {
		order := &Order{
			ID:        id,
			Side:      side,
			Tick:      tick,
			Price:     book.priceOf(tick),
			Original:  quantity,
			Remaining: remaining,
		}
		book.myQueue(side).insertOrder(order)
		book.publishOpen(order)
	}

	return id, fills, nil
}

// ExecuteMarketOrder submits a market order. The opposite side's total
// volume is checked up front: when it cannot cover the full quantity the
// order is rejected and the book is left untouched. Otherwise matching
// runs with no price bound and is guaranteed to fill completely.
func (book *OrderBook) ExecuteMarketOrder(side Side, quantity decimal.Decimal) ([]Fill, error) {
	if side != Buy && side != Sell {
		return nil, ErrInvalidParam
	}

	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidParam
	}

	if book.targetQueue(side).volume().LessThan(quantity) {
		return nil, ErrInsufficientLiquidity
	}

	id := book.nextOrderID()
	fills, _ := book.match(side, id, 0, false, quantity)

	return fills, nil
}

// CancelLimitOrder removes a resting order by ID, releasing its remaining
// quantity from the level and side aggregates.
func (book *OrderBook) CancelLimitOrder(id OrderID) error {
	if order := book.askQueue.removeOrder(id); order != nil {
		book.publishCancel(order)
		return nil
	}

	if order := book.bidQueue.removeOrder(id); order != nil {
		book.publishCancel(order)
		return nil
	}

	return ErrOrderNotFound
}

// BestBid returns the highest resting buy price and the volume at that
// level. ok is false when there are no bids.
func (book *OrderBook) BestBid() (price, volume decimal.Decimal, ok bool) {
	unit := book.bidQueue.bestUnit()
	if unit == nil {
		return decimal.Zero, decimal.Zero, false
	}
	return book.priceOf(unit.tick), unit.totalVolume, true
}

// BestAsk returns the lowest resting sell price and the volume at that
// level. ok is false when there are no asks.
func (book *OrderBook) BestAsk() (price, volume decimal.Decimal, ok bool) {
	unit := book.askQueue.bestUnit()
	if unit == nil {
		return decimal.Zero, decimal.Zero, false
	}
	return book.priceOf(unit.tick), unit.totalVolume, true
}

// Spread returns best ask minus best bid. ok is false when either side is
// empty.
func (book *OrderBook) Spread() (decimal.Decimal, bool) {
	bid, _, okBid := book.BestBid()
	ask, _, okAsk := book.BestAsk()
	if !okBid || !okAsk {
		return decimal.Zero, false
	}
	return ask.Sub(bid), true
}

// VolumeAt returns the resting volume at a price level, zero when the
// level is empty or the price is off the tick grid.
func (book *OrderBook) VolumeAt(side Side, price decimal.Decimal) decimal.Decimal {
	tick, err := book.tickOf(price)
	if err != nil {
		return decimal.Zero
	}

	unit := book.myQueue(side).unitAt(tick)
	if unit == nil {
		return decimal.Zero
	}

	return unit.totalVolume
}

// Depth returns an aggregated snapshot of both sides up to limit levels,
// best-first.
func (book *OrderBook) Depth(limit uint32) (*Depth, error) {
	if limit == 0 {
		return nil, ErrInvalidParam
	}

	return &Depth{
		UpdateID: book.seqID,
		Asks:     book.askQueue.depth(limit),
		Bids:     book.bidQueue.depth(limit),
	}, nil
}

// Stats returns aggregate counters for both sides.
func (book *OrderBook) Stats() BookStats {
	return BookStats{
		AskDepthCount: book.askQueue.depthCount(),
		AskOrderCount: book.askQueue.orderCount(),
		AskVolume:     book.askQueue.volume(),
		BidDepthCount: book.bidQueue.depthCount(),
		BidOrderCount: book.bidQueue.orderCount(),
		BidVolume:     book.bidQueue.volume(),
	}
}

// SequenceID returns the sequence number of the last published BookLog.
func (book *OrderBook) SequenceID() uint64 {
	return book.seqID
}

func (book *OrderBook) nextSeqID() uint64 {
	book.seqID++
	return book.seqID
}

func (book *OrderBook) publishOpen(order *Order) {
	if book.publisher == nil {
		return
	}

	log := newOpenLog(book.nextSeqID(), order)
	book.publisher.Publish(log)
	releaseBookLog(log)
}

func (book *OrderBook) publishMatch(takerID OrderID, takerSide Side, maker *Order, qty decimal.Decimal) {
	if book.publisher == nil {
		return
	}

	book.tradeID++
	log := newMatchLog(book.nextSeqID(), book.tradeID, takerID, takerSide, maker, qty)
	book.publisher.Publish(log)
	releaseBookLog(log)
}

func (book *OrderBook) publishCancel(order *Order) {
	if book.publisher == nil {
		return
	}

	log := newCancelLog(book.nextSeqID(), order)
	book.publisher.Publish(log)
	releaseBookLog(log)
}
