// Package config holds the engine's runtime tunables. The teacher repo
// has no configuration framework to draw from, so this follows its own
// minimalism: a plain struct with code-level defaults, overridable by
// flags in cmd/matchcore, rather than importing a config library that
// nothing else in the example pack grounds.
package config

import "github.com/matchcore/matchcore/internal/fee"

// Config is the set of engine and adapter knobs. The CLI entry point
// wires ListenAddr, JournalPath and the fee rates; L2Depth is not read
// by the engine, which uses engine.DefaultL2Depth.
type Config struct {
	ListenAddr   string
	JournalPath  string
	MakerFeeRate float64
	TakerFeeRate float64
	L2Depth      int
}

// Default returns the engine's out-of-the-box configuration.
func Default() Config {
	return Config{
		ListenAddr:   "0.0.0.0:9101",
		JournalPath:  "matchcore.journal",
		MakerFeeRate: fee.DefaultMakerRate,
		TakerFeeRate: fee.DefaultTakerRate,
		L2Depth:      10,
	}
}

// Fees builds the fee.Model this configuration describes.
func (c Config) Fees() fee.Model {
	return fee.Model{MakerRate: c.MakerFeeRate, TakerRate: c.TakerFeeRate}
}
