// Package fee implements the engine's pure fee model: a deterministic
// function from (price, quantity, maker/taker rate) to fee amounts. It
// holds no state and has no failure mode.
package fee

// Default maker/taker rates per the original spec §4.2.
const (
	DefaultMakerRate = 0.001
	DefaultTakerRate = 0.002
)

// Model parameterizes fee computation by maker and taker rates.
type Model struct {
	MakerRate float64
	TakerRate float64
}

// NewDefaultModel returns a Model using the spec's default rates.
func NewDefaultModel() Model {
	return Model{MakerRate: DefaultMakerRate, TakerRate: DefaultTakerRate}
}

// Compute returns the maker and taker fee for a trade of the given price
// and quantity, i.e. notional = price * quantity scaled by each rate.
func (m Model) Compute(price, quantity float64) (makerFee, takerFee float64) {
	notional := price * quantity
	return notional * m.MakerRate, notional * m.TakerRate
}
