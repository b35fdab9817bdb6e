package engine

import (
	"time"

	"github.com/matchcore/matchcore/internal/order"
)

// Result is the outcome code returned to a submitter; see SPEC_FULL.md's
// "Supplemented detail" section for how the IOC-zero-fill and
// LIMIT-trade-through open questions were resolved.
type Result int

const (
	Accepted Result = iota
	RejectedInvalidParams
	RejectedTradeThrough
	RejectedFOKUnfillable
	PartiallyFilled
	CompletelyFilled
	Canceled
)

func (r Result) String() string {
	switch r {
	case Accepted:
		return "ACCEPTED"
	case RejectedInvalidParams:
		return "REJECTED_INVALID_PARAMS"
	case RejectedTradeThrough:
		return "REJECTED_TRADE_THROUGH"
	case RejectedFOKUnfillable:
		return "REJECTED_FOK_UNFILLABLE"
	case PartiallyFilled:
		return "PARTIALLY_FILLED"
	case CompletelyFilled:
		return "COMPLETELY_FILLED"
	case Canceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// TradeReport is published once per fill.
type TradeReport struct {
	Symbol       string
	TradeID      string
	Price        float64
	Quantity     float64
	MakerFee     float64
	TakerFee     float64
	Aggressor    order.Side
	MakerOrderID string
	TakerOrderID string
	Timestamp    time.Time
}

// OrderResponse is the synchronous result of Engine.Submit.
type OrderResponse struct {
	Result         Result
	Message        string
	FilledQuantity float64
	Trades         []TradeReport
}
