package limitbook

import (
	"github.com/huandu/skiplist"
	"github.com/shopspring/decimal"
)

// priceUnit is a single price level: a FIFO of resting orders plus cached
// aggregates. head is the earliest inserted order and therefore the first
// to match.
type priceUnit struct {
	tick        Tick
	totalVolume decimal.Decimal
	head        *Order
	tail        *Order
	count       int64
}

// queue holds one side of the book: price levels ordered best-first in a
// skip list, a price map for O(1) level addressing, and an order index for
// O(1) cancel-by-id.
type queue struct {
	side        Side
	totalOrders int64
	depths      int64
	totalVolume decimal.Decimal
	depthList   *skiplist.SkipList
	priceList   map[Tick]*skiplist.Element
	orders      map[OrderID]*Order
}

// newBuyerQueue creates a new queue for buy orders (bids).
// Levels are sorted by tick in descending order (highest price first).
func newBuyerQueue() *queue {
	return &queue{
		side: Buy,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			t1, _ := lhs.(Tick)
			t2, _ := rhs.(Tick)

			if t1 < t2 {
				return 1
			} else if t1 > t2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[Tick]*skiplist.Element),
		orders:    make(map[OrderID]*Order),
	}
}

// newSellerQueue creates a new queue for sell orders (asks).
// Levels are sorted by tick in ascending order (lowest price first).
func newSellerQueue() *queue {
	return &queue{
		side: Sell,
		depthList: skiplist.New(skiplist.GreaterThanFunc(func(lhs, rhs any) int {
			t1, _ := lhs.(Tick)
			t2, _ := rhs.(Tick)

			if t1 > t2 {
				return 1
			} else if t1 < t2 {
				return -1
			}

			return 0
		})),
		priceList: make(map[Tick]*skiplist.Element),
		orders:    make(map[OrderID]*Order),
	}
}

// order finds a resting order by its ID.
func (q *queue) order(id OrderID) *Order {
	return q.orders[id]
}

// insertOrder appends an order to the tail of its price level, creating
// the level if absent. It updates the level and side aggregates.
func (q *queue) insertOrder(order *Order) {
	el, ok := q.priceList[order.Tick]
	if ok {
		unit, _ := el.Value.(*priceUnit)
		order.prev = unit.tail
		order.next = nil
		if unit.tail != nil {
			unit.tail.next = order
		}
		unit.tail = order
		if unit.head == nil {
			unit.head = order
		}

		unit.totalVolume = unit.totalVolume.Add(order.Remaining)
		unit.count++
	} else {
		unit := &priceUnit{
			tick:        order.Tick,
			head:        order,
			tail:        order,
			totalVolume: order.Remaining,
			count:       1,
		}
		order.next = nil
		order.prev = nil

		el := q.depthList.Set(order.Tick, unit)
		q.priceList[order.Tick] = el
		q.depths++
	}

	q.orders[order.ID] = order
	q.totalOrders++
	q.totalVolume = q.totalVolume.Add(order.Remaining)
}

// unlink detaches an order from its level's linked list and from the
// order index, removing the level when it empties. Volume accounting is
// the caller's responsibility.
func (q *queue) unlink(order *Order, el *skiplist.Element, unit *priceUnit) {
	if order.prev != nil {
		order.prev.next = order.next
	} else {
		unit.head = order.next
	}

	if order.next != nil {
		order.next.prev = order.prev
	} else {
		unit.tail = order.prev
	}

	order.next = nil
	order.prev = nil

	unit.count--
	delete(q.orders, order.ID)
	q.totalOrders--

	if unit.count == 0 {
		q.depthList.RemoveElement(el)
		delete(q.priceList, order.Tick)
		q.depths--
	}
}

// removeOrder removes an order by ID, subtracting its remaining quantity
// from the level and side volumes. Returns nil if the ID is not resting.
func (q *queue) removeOrder(id OrderID) *Order {
	order, ok := q.orders[id]
	if !ok {
		return nil
	}

	el := q.priceList[order.Tick]
	unit, _ := el.Value.(*priceUnit)

	unit.totalVolume = unit.totalVolume.Sub(order.Remaining)
	q.totalVolume = q.totalVolume.Sub(order.Remaining)
	q.unlink(order, el, unit)

	return order
}

// fill consumes qty from a resting order in place, without dequeuing.
// The order leaves the level only when its remaining reaches zero.
func (q *queue) fill(order *Order, qty decimal.Decimal) {
	el := q.priceList[order.Tick]
	unit, _ := el.Value.(*priceUnit)

	order.Remaining = order.Remaining.Sub(qty)
	unit.totalVolume = unit.totalVolume.Sub(qty)
	q.totalVolume = q.totalVolume.Sub(qty)

	if order.Remaining.IsZero() {
		q.unlink(order, el, unit)
	}
}

// bestUnit returns the level at the best price, or nil when the side is
// empty.
func (q *queue) bestUnit() *priceUnit {
	el := q.depthList.Front()
	if el == nil {
		return nil
	}

	unit, _ := el.Value.(*priceUnit)
	return unit
}

// unitAt returns the level at the given tick, or nil when absent.
func (q *queue) unitAt(tick Tick) *priceUnit {
	el, ok := q.priceList[tick]
	if !ok {
		return nil
	}

	unit, _ := el.Value.(*priceUnit)
	return unit
}

// peekHeadOrder returns the order at the front of the best level without
// removing it.
func (q *queue) peekHeadOrder() *Order {
	unit := q.bestUnit()
	if unit == nil {
		return nil
	}
	return unit.head
}

// orderCount returns the total number of resting orders on this side.
func (q *queue) orderCount() int64 {
	return q.totalOrders
}

// depthCount returns the number of occupied price levels on this side.
func (q *queue) depthCount() int64 {
	return q.depths
}

// volume returns the side's total resting volume.
func (q *queue) volume() decimal.Decimal {
	return q.totalVolume
}

// toSnapshot serializes the side into a slice of Order values, walking
// levels best-first and each level head-first to preserve priority.
func (q *queue) toSnapshot() []Order {
	snapshots := make([]Order, 0, q.totalOrders)

	elem := q.depthList.Front()
	for elem != nil {
		unit := elem.Value.(*priceUnit)

		order := unit.head
		for order != nil {
			snapshots = append(snapshots, Order{
				ID:        order.ID,
				Side:      order.Side,
				Tick:      order.Tick,
				Price:     order.Price,
				Original:  order.Original,
				Remaining: order.Remaining,
			})
			order = order.next
		}

		elem = elem.Next()
	}

	return snapshots
}

// depth returns aggregated (price, volume) rows up to limit levels,
// best-first.
func (q *queue) depth(limit uint32) []*DepthItem {
	result := make([]*DepthItem, 0, limit)

	el := q.depthList.Front()

	var i uint32 = 0
	for i < limit && el != nil {
		unit, _ := el.Value.(*priceUnit)
		d := DepthItem{
			Price:  unit.head.Price,
			Volume: unit.totalVolume,
			Orders: unit.count,
		}

		result = append(result, &d)

		el = el.Next()
		i++
	}

	return result
}
