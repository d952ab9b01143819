package limitbook

import "github.com/shopspring/decimal"

// tickOf converts a price to its tick. The price must be positive and an
// exact multiple of the tick size; anything off the grid is rejected.
func (book *OrderBook) tickOf(price decimal.Decimal) (Tick, error) {
	if price.LessThanOrEqual(decimal.Zero) {
		return 0, ErrInvalidParam
	}

	if !price.Mod(book.tickSize).IsZero() {
		return 0, ErrInvalidParam
	}

	return Tick(price.DivRound(book.tickSize, 0).IntPart()), nil
}

// priceOf converts a tick back to its decimal price.
func (book *OrderBook) priceOf(tick Tick) decimal.Decimal {
	return book.tickSize.Mul(decimal.NewFromInt(int64(tick)))
}
