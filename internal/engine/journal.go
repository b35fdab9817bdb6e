package engine

import "github.com/matchcore/matchcore/internal/order"

// JournalEvent names which lifecycle event a journal line records.
type JournalEvent int

const (
	JournalNew JournalEvent = iota
	JournalRested
	JournalPartialFill
	JournalFilled
	JournalCanceled
)

func (e JournalEvent) String() string {
	switch e {
	case JournalNew:
		return "NEW"
	case JournalRested:
		return "RESTED"
	case JournalPartialFill:
		return "PARTIAL_FILL"
	case JournalFilled:
		return "FILLED"
	case JournalCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// Journal is the append-only audit sink. Journal faults never affect the
// engine's return value to the submitter — Engine.journal is wrapped so
// every call site treats it as best-effort (see emitJournal).
type Journal interface {
	Write(event JournalEvent, o *order.Order) error
}

// NopJournal discards every event. Used when the engine is constructed
// without an external journal (e.g. in unit tests).
type NopJournal struct{}

func (NopJournal) Write(JournalEvent, *order.Order) error { return nil }
