package limitbook

import (
	"github.com/shopspring/decimal"
)

type Side int8

const (
	Buy  Side = 1
	Sell Side = 2
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// OrderID identifies an order. IDs are assigned by the book on each
// accepting call, increase monotonically and are never reused, including
// after cancellation or full execution.
type OrderID uint64

// Tick is a discrete price level index. Prices on the book always sit on
// the tick grid; a larger tick means a higher price.
type Tick int64

// Order represents a resting order in the book. Original never changes
// after creation; Remaining decreases only through matching.
type Order struct {
	ID        OrderID         `json:"id"`
	Side      Side            `json:"side"`
	Tick      Tick            `json:"tick"`
	Price     decimal.Decimal `json:"price"`
	Original  decimal.Decimal `json:"original"`
	Remaining decimal.Decimal `json:"remaining"`

	// Intrusive linked list pointers (ignored by JSON)
	next *Order
	prev *Order
}

// Fill reports one executed match between the incoming taker and exactly
// one resting maker. Fills always execute at the maker's price, regardless
// of the taker's limit.
type Fill struct {
	MakerOrderID OrderID         `json:"maker_order_id"`
	TakerOrderID OrderID         `json:"taker_order_id"`
	TakerSide    Side            `json:"taker_side"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// DepthItem is one aggregated price level in a depth snapshot.
type DepthItem struct {
	Price  decimal.Decimal `json:"price"`
	Volume decimal.Decimal `json:"volume"`
	Orders int64           `json:"orders"`
}

// Depth is a best-first aggregated view of both sides of the book.
type Depth struct {
	UpdateID uint64       `json:"update_id"`
	Asks     []*DepthItem `json:"asks"`
	Bids     []*DepthItem `json:"bids"`
}

// BookStats contains aggregate counters for the order book.
type BookStats struct {
	AskDepthCount int64
	AskOrderCount int64
	AskVolume     decimal.Decimal
	BidDepthCount int64
	BidOrderCount int64
	BidVolume     decimal.Decimal
}
