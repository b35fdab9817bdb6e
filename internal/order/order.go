// Package order defines the engine's core value type: an order's immutable
// identity plus its mutable fill progress.
package order

import "fmt"

// Side is which side of the book an order rests on or trades against.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "BUY"
	}
	return "SELL"
}

// Type is the order-type state machine the engine dispatches to.
type Type int

const (
	Market Type = iota
	Limit
	IOC
	FOK
)

func (t Type) String() string {
	switch t {
	case Market:
		return "MARKET"
	case Limit:
		return "LIMIT"
	case IOC:
		return "IOC"
	case FOK:
		return "FOK"
	default:
		return "UNKNOWN"
	}
}

// WireType maps Type to the stable integer encoding used by the journal
// and the wire protocol (§6 of the spec: 0 MARKET, 1 LIMIT, 2 IOC, 3 FOK).
func (t Type) WireType() int {
	return int(t)
}

// Order is registered once in the engine's registry. ID, Symbol, Side,
// Type, Price, Quantity, and Timestamp are immutable after registration;
// only FilledQty changes, and only under the owning book's exclusive lock.
type Order struct {
	ID        string
	Symbol    string
	Side      Side
	Type      Type
	Price     float64
	Quantity  float64
	FilledQty float64

	// Timestamp is the engine's own monotonic ingress sequence number,
	// assigned at registration — never the adapter-supplied clock. See
	// the "Order timestamp source" resolution in SPEC_FULL.md.
	Timestamp int64

	// ClientTimestamp holds a timestamp reported by the submitting
	// adapter. No current adapter sets it and the journal does not write
	// it. It never participates in price-time priority.
	ClientTimestamp int64
}

// Remaining is the unfilled quantity still working.
func (o *Order) Remaining() float64 {
	return o.Quantity - o.FilledQty
}

// IsFilled reports whether the order has no remaining quantity.
func (o *Order) IsFilled() bool {
	return o.Remaining() <= 0
}

func (o *Order) String() string {
	return fmt.Sprintf("Order{id=%s symbol=%s side=%s type=%s price=%g qty=%g filled=%g}",
		o.ID, o.Symbol, o.Side, o.Type, o.Price, o.Quantity, o.FilledQty)
}
