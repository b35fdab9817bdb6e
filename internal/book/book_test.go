package book

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/matchcore/matchcore/internal/order"
)

func newResting(id string, side order.Side, price, qty float64) *order.Order {
	return &order.Order{ID: id, Symbol: "BTC-USDT", Side: side, Type: order.Limit, Price: price, Quantity: qty}
}

func TestAddAndBBO(t *testing.T) {
	b := New("BTC-USDT")
	b.Lock()
	b.AddLocked(newResting("s1", order.Sell, 101, 1))
	b.AddLocked(newResting("s2", order.Sell, 100, 1))
	b.AddLocked(newResting("b1", order.Buy, 99, 1))
	b.Unlock()

	bid, ask := b.BBO()
	assert.Equal(t, 99.0, bid)
	assert.Equal(t, 100.0, ask, "best ask should be the lower of the two resting asks")
}

func TestTopBidsAndAsksAggregateByLevel(t *testing.T) {
	b := New("BTC-USDT")
	b.Lock()
	b.AddLocked(newResting("b1", order.Buy, 99, 100))
	b.AddLocked(newResting("b2", order.Buy, 99, 50))
	b.AddLocked(newResting("b3", order.Buy, 98, 10))
	b.Unlock()

	top := b.TopBidsLocked(10)
	assert.Equal(t, []PriceQty{{Price: 99, Qty: 150}, {Price: 98, Qty: 10}}, top)
}

func TestTopBidsRespectsDepthLimit(t *testing.T) {
	b := New("BTC-USDT")
	b.Lock()
	for i := 0; i < 5; i++ {
		b.AddLocked(newResting("b", order.Buy, float64(90+i), 1))
	}
	b.Unlock()

	top := b.TopBidsLocked(2)
	assert.Len(t, top, 2)
	assert.Equal(t, 94.0, top[0].Price, "best bid is the highest price")
	assert.Equal(t, 93.0, top[1].Price)
}

func TestMatchLockedPriceTimePriority(t *testing.T) {
	b := New("BTC-USDT")
	b.Lock()
	s1 := newResting("s1", order.Sell, 100, 1)
	s2 := newResting("s2", order.Sell, 100, 1)
	b.AddLocked(s1)
	b.AddLocked(s2)
	b.Unlock()

	taker := &order.Order{ID: "b1", Side: order.Buy, Type: order.Limit, Price: 100, Quantity: 1.5}

	b.Lock()
	fills := b.MatchLocked(taker, true)
	b.Unlock()

	if assert.Len(t, fills, 2) {
		assert.Equal(t, "s1", fills[0].Maker.ID, "oldest resting order trades first")
		assert.Equal(t, 1.0, fills[0].Qty)
		assert.Equal(t, "s2", fills[1].Maker.ID)
		assert.Equal(t, 0.5, fills[1].Qty)
	}
	assert.True(t, s1.IsFilled())
	assert.Equal(t, 0.5, s2.FilledQty)
	assert.False(t, s2.IsFilled(), "s2 should still be resting with remaining quantity")
}

func TestMatchLockedTradePriceIsMakerPrice(t *testing.T) {
	b := New("BTC-USDT")
	b.Lock()
	b.AddLocked(newResting("s1", order.Sell, 101, 1))
	b.AddLocked(newResting("s2", order.Sell, 100, 1))
	b.Unlock()

	taker := &order.Order{ID: "b1", Side: order.Buy, Type: order.Market, Quantity: 1}
	b.Lock()
	fills := b.MatchLocked(taker, false)
	b.Unlock()

	if assert.Len(t, fills, 1) {
		assert.Equal(t, "s2", fills[0].Maker.ID, "better-priced ask trades first")
		assert.Equal(t, 100.0, fills[0].Price)
	}
}

func TestMatchLockedStopsAtWorsePriceForLimit(t *testing.T) {
	b := New("BTC-USDT")
	b.Lock()
	b.AddLocked(newResting("s1", order.Sell, 100, 1))
	b.AddLocked(newResting("s2", order.Sell, 102, 1))
	b.Unlock()

	taker := &order.Order{ID: "b1", Side: order.Buy, Type: order.Limit, Price: 101, Quantity: 5}
	b.Lock()
	fills := b.MatchLocked(taker, true)
	b.Unlock()

	if assert.Len(t, fills, 1) {
		assert.Equal(t, "s1", fills[0].Maker.ID)
	}
	assert.Equal(t, 1.0, taker.FilledQty, "limit must not cross the 102 level above its 101 limit")
}

func TestAvailableLockedSumsWithinPriceBound(t *testing.T) {
	b := New("BTC-USDT")
	b.Lock()
	b.AddLocked(newResting("s1", order.Sell, 100, 1))
	b.AddLocked(newResting("s2", order.Sell, 101, 2))
	b.AddLocked(newResting("s3", order.Sell, 103, 4))
	b.Unlock()

	b.RLock()
	avail := b.AvailableLocked(order.Buy, 101, true)
	b.RUnlock()

	assert.Equal(t, 3.0, avail, "only levels at or below the limit price count")
}

func TestEmptyLevelsAreRemovedAfterFullConsumption(t *testing.T) {
	b := New("BTC-USDT")
	b.Lock()
	b.AddLocked(newResting("s1", order.Sell, 100, 1))
	b.Unlock()

	taker := &order.Order{ID: "b1", Side: order.Buy, Type: order.Market, Quantity: 1}
	b.Lock()
	b.MatchLocked(taker, false)
	b.Unlock()

	bid, ask := b.BBO()
	assert.Equal(t, 0.0, bid)
	assert.Equal(t, 0.0, ask, "fully consumed level should leave the ask side empty")
}
