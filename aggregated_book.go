package limitbook

import (
	"github.com/igrmk/treemap/v2"
	"github.com/shopspring/decimal"
)

// AggregatedBook maintains a simplified view of the order book, tracking
// only price levels and their aggregated sizes (depth). It is designed
// for downstream services that need to rebuild order book state from
// BookLog events received off the matching path.
type AggregatedBook struct {
	seqID uint64
	ask   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
	bid   *treemap.TreeMap[decimal.Decimal, decimal.Decimal]
}

// NewAggregatedBook creates a new AggregatedBook instance with empty ask
// and bid sides.
func NewAggregatedBook() *AggregatedBook {
	return &AggregatedBook{
		ask: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
		bid: treemap.NewWithKeyCompare[decimal.Decimal, decimal.Decimal](func(a, b decimal.Decimal) bool {
			return a.LessThan(b)
		}),
	}
}

// SequenceID returns the last applied sequence ID.
// Used for synchronization and gap detection during rebuild.
func (ab *AggregatedBook) SequenceID() uint64 {
	return ab.seqID
}

// Reset clears both sides and rewinds the sequence cursor, typically to
// the sequence ID of a snapshot about to be replayed on top.
func (ab *AggregatedBook) Reset(seqID uint64) {
	ab.ask.Clear()
	ab.bid.Clear()
	ab.seqID = seqID
}

// sideMap picks the treemap that a depth change applies to. Matches
// reduce liquidity on the maker side, which is the opposite of the log's
// (taker) side.
func (ab *AggregatedBook) sideMap(log *BookLog) *treemap.TreeMap[decimal.Decimal, decimal.Decimal] {
	side := log.Side
	if log.Type == LogTypeMatch {
		side = side.Opposite()
	}

	if side == Buy {
		return ab.bid
	}
	return ab.ask
}

// Replay applies a BookLog event to the aggregated state. Events at or
// below the current sequence ID are dropped as duplicates; a gap returns
// ErrSequenceGap without mutating the book.
func (ab *AggregatedBook) Replay(log *BookLog) error {
	if log.SequenceID <= ab.seqID {
		return nil
	}

	if log.SequenceID != ab.seqID+1 {
		return ErrSequenceGap
	}

	levels := ab.sideMap(log)

	diff := log.Size
	if log.Type == LogTypeMatch || log.Type == LogTypeCancel {
		diff = diff.Neg()
	}

	current := decimal.Zero
	if v, ok := levels.Get(log.Price); ok {
		current = v
	}

	next := current.Add(diff)
	if next.LessThanOrEqual(decimal.Zero) {
		levels.Del(log.Price)
	} else {
		levels.Set(log.Price, next)
	}

	ab.seqID = log.SequenceID
	return nil
}

// Depth returns the aggregated size at a specific price level for the
// given side, zero if the price level does not exist.
func (ab *AggregatedBook) Depth(side Side, price decimal.Decimal) decimal.Decimal {
	levels := ab.ask
	if side == Buy {
		levels = ab.bid
	}

	if v, ok := levels.Get(price); ok {
		return v
	}
	return decimal.Zero
}

// Best returns the best price and its aggregated size for the given
// side. ok is false when the side is empty.
func (ab *AggregatedBook) Best(side Side) (price, volume decimal.Decimal, ok bool) {
	if side == Buy {
		it := ab.bid.Reverse()
		if !it.Valid() {
			return decimal.Zero, decimal.Zero, false
		}
		return it.Key(), it.Value(), true
	}

	it := ab.ask.Iterator()
	if !it.Valid() {
		return decimal.Zero, decimal.Zero, false
	}
	return it.Key(), it.Value(), true
}
