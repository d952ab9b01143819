package limitbook

import "github.com/shopspring/decimal"

// OrderBookSnapshot contains the full resting state of a single book.
// Orders are listed best price first, then head first, so replaying them
// in slice order preserves price-time priority.
type OrderBookSnapshot struct {
	TickSize decimal.Decimal `json:"tick_size"`
	NextID   OrderID         `json:"next_id"`
	SeqID    uint64          `json:"seq_id"`
	TradeID  uint64          `json:"trade_id"`
	Bids     []Order         `json:"bids"`
	Asks     []Order         `json:"asks"`
}

// Snapshot captures the current state of the book.
func (book *OrderBook) Snapshot() *OrderBookSnapshot {
	return &OrderBookSnapshot{
		TickSize: book.tickSize,
		NextID:   book.nextID,
		SeqID:    book.seqID,
		TradeID:  book.tradeID,
		Bids:     book.bidQueue.toSnapshot(),
		Asks:     book.askQueue.toSnapshot(),
	}
}

// RestoreOrderBook rebuilds a book from a snapshot, bypassing matching.
func RestoreOrderBook(snap *OrderBookSnapshot, opts ...OrderBookOption) (*OrderBook, error) {
	book, err := NewOrderBook(snap.TickSize, opts...)
	if err != nil {
		return nil, err
	}

	book.nextID = snap.NextID
	book.seqID = snap.SeqID
	book.tradeID = snap.TradeID

	restoreOrders := func(orders []Order, q *queue) {
		for i := range orders {
			o := orders[i]
			q.insertOrder(&o)
		}
	}

	restoreOrders(snap.Bids, book.bidQueue)
	restoreOrders(snap.Asks, book.askQueue)

	return book, nil
}
