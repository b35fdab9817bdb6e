// Package engine ties together the order registry, the per-symbol book
// registry, and the four order-type protocols (MARKET, LIMIT, IOC, FOK)
// behind a single synchronous Submit entry point, publishing trade and
// L2 events as it goes.
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/matchcore/matchcore/internal/book"
	"github.com/matchcore/matchcore/internal/fee"
	"github.com/matchcore/matchcore/internal/feed"
	"github.com/matchcore/matchcore/internal/order"
)

// DefaultL2Depth is used by L2 when depth is not otherwise specified.
const DefaultL2Depth = 10

const (
	minL2Depth = 1
	maxL2Depth = 100
)

// Engine owns the order registry and the per-symbol book registry, and
// implements the submit pipeline described in the spec §4.4.
//
// Lock inventory and acquisition order, per the spec §5:
//  1. registry's own lock (internal/order.Registry)
//  2. booksMu, the book-registry lock
//  3. a single book's lock (internal/book.Book)
//
// No goroutine holds a later lock while acquiring an earlier one; the
// event feed's lock is acquired only after all three are released.
type Engine struct {
	registry *order.Registry

	booksMu sync.RWMutex
	books   map[string]*book.Book

	fees Fees

	tradeSeq atomic.Int64
	// publishMu serializes trade-ID assignment with trade publication so
	// IDs reach subscribers in increasing order across concurrent submits.
	publishMu sync.Mutex

	tradeFeed *feed.Feed[TradeReport]
	l2Feed    *feed.Feed[book.L2Update]

	journal Journal
}

// Fees is the engine-wide fee model; exported so adapters can override
// rates at construction time.
type Fees = fee.Model

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithJournal attaches an external journal. Without this option the
// engine uses NopJournal.
func WithJournal(j Journal) Option {
	return func(e *Engine) { e.journal = j }
}

// WithFees overrides the default maker/taker fee rates.
func WithFees(f Fees) Option {
	return func(e *Engine) { e.fees = f }
}

// New constructs an empty Engine ready to accept submissions for any
// symbol (books are created lazily on first submission).
func New(opts ...Option) *Engine {
	e := &Engine{
		registry:  order.NewRegistry(),
		books:     make(map[string]*book.Book),
		fees:      fee.NewDefaultModel(),
		tradeFeed: feed.New[TradeReport](),
		l2Feed:    feed.New[book.L2Update](),
		journal:   NopJournal{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubscribeTrades registers cb to be invoked, in order, for every
// TradeReport this engine publishes.
func (e *Engine) SubscribeTrades(cb func(TradeReport)) {
	e.tradeFeed.Subscribe(cb)
}

// SubscribeL2 registers cb to be invoked, in order, for every L2Update
// this engine publishes.
func (e *Engine) SubscribeL2(cb func(book.L2Update)) {
	e.l2Feed.Subscribe(cb)
}

// bookFor returns the book for symbol, creating it under the
// book-registry's exclusive lock if it does not yet exist.
func (e *Engine) bookFor(symbol string) *book.Book {
	e.booksMu.RLock()
	b, ok := e.books[symbol]
	e.booksMu.RUnlock()
	if ok {
		return b
	}

	e.booksMu.Lock()
	defer e.booksMu.Unlock()
	if b, ok = e.books[symbol]; ok {
		return b
	}
	b = book.New(symbol)
	e.books[symbol] = b
	return b
}

// existingBook returns the book for symbol without creating one, for
// read-only queries where an unknown symbol should look empty rather
// than materialize state.
func (e *Engine) existingBook(symbol string) (*book.Book, bool) {
	e.booksMu.RLock()
	defer e.booksMu.RUnlock()
	b, ok := e.books[symbol]
	return b, ok
}

// BBO returns (best_bid, best_ask) for symbol, (0, 0) if unknown.
func (e *Engine) BBO(symbol string) (bid, ask float64) {
	b, ok := e.existingBook(symbol)
	if !ok {
		return 0, 0
	}
	return b.BBO()
}

func clampDepth(depth int) int {
	if depth <= 0 {
		return DefaultL2Depth
	}
	if depth < minL2Depth {
		return minL2Depth
	}
	if depth > maxL2Depth {
		return maxL2Depth
	}
	return depth
}

// L2 returns a depth-clamped snapshot for symbol, an empty snapshot if
// unknown.
func (e *Engine) L2(symbol string, depth int) book.L2Update {
	depth = clampDepth(depth)
	b, ok := e.existingBook(symbol)
	if !ok {
		return book.L2Update{Symbol: symbol, Timestamp: time.Now()}
	}
	return b.L2Snapshot(depth)
}

// validate implements spec §4.4 step 1.
func (e *Engine) validate(o *order.Order) Result {
	switch {
	case o.ID == "":
		return RejectedInvalidParams
	case o.Symbol == "":
		return RejectedInvalidParams
	case o.Quantity <= 0:
		return RejectedInvalidParams
	case o.Type != order.Market && o.Price <= 0:
		return RejectedInvalidParams
	case e.registry.Contains(o.ID):
		return RejectedInvalidParams
	}
	return Accepted
}

// Submit runs the full pipeline described in spec §4.4: validate,
// register, journal, dispatch by type, and publish events.
func (e *Engine) Submit(o *order.Order) OrderResponse {
	if res := e.validate(o); res != Accepted {
		log.Info().Str("order_id", o.ID).Str("result", res.String()).Msg("order rejected")
		return OrderResponse{Result: res, Message: "invalid order parameters or duplicate order id"}
	}

	o.Timestamp = e.registry.NextSeq()
	if !e.registry.Register(o) {
		// Lost a race against a concurrent submitter with the same ID.
		log.Info().Str("order_id", o.ID).Str("result", RejectedInvalidParams.String()).Msg("order rejected")
		return OrderResponse{Result: RejectedInvalidParams, Message: "duplicate order id"}
	}

	e.emitJournal(JournalNew, o)

	b := e.bookFor(o.Symbol)

	var resp OrderResponse
	switch o.Type {
	case order.Market:
		resp = e.submitMarket(b, o)
	case order.Limit:
		resp = e.submitLimit(b, o)
	case order.IOC:
		resp = e.submitIOC(b, o)
	case order.FOK:
		resp = e.submitFOK(b, o)
	default:
		resp = OrderResponse{Result: RejectedInvalidParams, Message: "unknown order type"}
	}

	switch resp.Result {
	case PartiallyFilled:
		e.emitJournal(JournalPartialFill, o)
	case CompletelyFilled:
		e.emitJournal(JournalFilled, o)
	case Canceled:
		e.emitJournal(JournalCanceled, o)
	case RejectedInvalidParams, RejectedTradeThrough, RejectedFOKUnfillable:
		log.Info().Str("order_id", o.ID).Str("result", resp.Result.String()).Msg("order rejected")
	}
	return resp
}

// emitJournal is the best-effort wrapper the spec §4.4 step 3 and §7
// require: journal faults are logged out-of-band and never affect the
// engine's return value.
func (e *Engine) emitJournal(event JournalEvent, o *order.Order) {
	if err := e.journal.Write(event, o); err != nil {
		log.Error().Err(err).Str("order_id", o.ID).Str("event", event.String()).
			Msg("journal write failed")
	}
}

func (e *Engine) nextTradeID() string {
	n := e.tradeSeq.Add(1)
	return fmt.Sprintf("T%d", n)
}

// publishFills converts raw book fills into TradeReports (attaching
// trade ID, aggressor, and fees) and publishes them in matching order,
// i.e. best-priced/earliest-maker first, satisfying P5/P6's "trades
// before L2, trade IDs increasing in publish order" guarantee.
func (e *Engine) publishFills(taker *order.Order, fills []book.MatchedFill) []TradeReport {
	if len(fills) == 0 {
		return nil
	}
	e.publishMu.Lock()
	defer e.publishMu.Unlock()

	reports := make([]TradeReport, 0, len(fills))
	now := time.Now()
	for _, f := range fills {
		makerFee, takerFee := e.fees.Compute(f.Price, f.Qty)
		tr := TradeReport{
			Symbol:       taker.Symbol,
			TradeID:      e.nextTradeID(),
			Price:        f.Price,
			Quantity:     f.Qty,
			MakerFee:     makerFee,
			TakerFee:     takerFee,
			Aggressor:    taker.Side,
			MakerOrderID: f.Maker.ID,
			TakerOrderID: taker.ID,
			Timestamp:    now,
		}
		reports = append(reports, tr)
		e.tradeFeed.Publish(tr)

		log.Debug().
			Str("trade_id", tr.TradeID).
			Str("symbol", tr.Symbol).
			Float64("price", tr.Price).
			Float64("qty", tr.Quantity).
			Str("maker", tr.MakerOrderID).
			Str("taker", tr.TakerOrderID).
			Msg("trade executed")
	}
	return reports
}
