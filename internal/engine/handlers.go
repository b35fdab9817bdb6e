package engine

import (
	"github.com/matchcore/matchcore/internal/book"
	"github.com/matchcore/matchcore/internal/order"
)

// Each handler acquires the relevant book's exclusive lock for its
// matching phase, mutates state, and releases the lock *before*
// publishing any event — the event feed's mutex is acquired only after
// every core lock is released (spec §5). Trades publish before the L2
// update for the same submit (P5).

// submitMarket implements spec §4.5.
func (e *Engine) submitMarket(b *book.Book, o *order.Order) OrderResponse {
	b.Lock()
	fills := b.MatchLocked(o, false)
	traded := len(fills) > 0
	var snap book.L2Update
	if traded {
		snap = b.L2SnapshotLocked(DefaultL2Depth)
	}
	b.Unlock()

	reports := e.publishFills(o, fills)
	if traded {
		e.l2Feed.Publish(snap)
	}

	res := PartiallyFilled
	if o.IsFilled() {
		res = CompletelyFilled
	}
	return OrderResponse{Result: res, FilledQuantity: o.FilledQty, Trades: reports}
}

// submitLimit implements spec §4.6. The trade-through precheck exists
// for interface completeness but never rejects in this single-book
// engine — see book.WouldTradeThrough and DESIGN.md.
func (e *Engine) submitLimit(b *book.Book, o *order.Order) OrderResponse {
	if b.WouldTradeThrough(o) {
		return OrderResponse{Result: RejectedTradeThrough, Message: "would trade through"}
	}

	b.Lock()
	fills := b.MatchLocked(o, true)
	rested := false
	if !o.IsFilled() {
		b.AddLocked(o)
		rested = true
	}
	snap := b.L2SnapshotLocked(DefaultL2Depth)
	b.Unlock()

	reports := e.publishFills(o, fills)
	if len(fills) > 0 || rested {
		e.l2Feed.Publish(snap)
	}

	if o.IsFilled() {
		return OrderResponse{Result: CompletelyFilled, FilledQuantity: o.FilledQty, Trades: reports}
	}
	if rested {
		e.emitJournal(JournalRested, o)
	}
	return OrderResponse{Result: Accepted, FilledQuantity: o.FilledQty, Trades: reports}
}

// submitIOC implements spec §4.7. Any remainder is discarded rather than
// resting. A zero-fill IOC reports Canceled rather than PartiallyFilled
// — see the "IOC with zero fills" resolution in SPEC_FULL.md.
func (e *Engine) submitIOC(b *book.Book, o *order.Order) OrderResponse {
	b.Lock()
	fills := b.MatchLocked(o, true)
	traded := len(fills) > 0
	var snap book.L2Update
	if traded {
		snap = b.L2SnapshotLocked(DefaultL2Depth)
	}
	b.Unlock()

	reports := e.publishFills(o, fills)
	if traded {
		e.l2Feed.Publish(snap)
	}

	switch {
	case o.IsFilled():
		return OrderResponse{Result: CompletelyFilled, FilledQuantity: o.FilledQty, Trades: reports}
	case traded:
		return OrderResponse{Result: PartiallyFilled, FilledQuantity: o.FilledQty, Trades: reports}
	default:
		return OrderResponse{Result: Canceled, FilledQuantity: o.FilledQty, Trades: reports}
	}
}

// submitFOK implements spec §4.8: an atomic precheck-then-execute under
// a single hold of the book's exclusive lock. If the order cannot be
// completely filled subject to its limit, no state changes and no
// events publish (P8).
func (e *Engine) submitFOK(b *book.Book, o *order.Order) OrderResponse {
	b.Lock()
	available := b.AvailableLocked(o.Side, o.Price, true)
	if available < o.Quantity {
		b.Unlock()
		return OrderResponse{Result: RejectedFOKUnfillable, Message: "insufficient liquidity to fill completely"}
	}

	fills := b.MatchLocked(o, true)
	snap := b.L2SnapshotLocked(DefaultL2Depth)
	b.Unlock()

	reports := e.publishFills(o, fills)
	e.l2Feed.Publish(snap)

	return OrderResponse{Result: CompletelyFilled, FilledQuantity: o.FilledQty, Trades: reports}
}
