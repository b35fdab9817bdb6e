// Package journal implements the append-only audit journal described in
// the spec §6. It is a thin external collaborator: one line per order
// event, flushed immediately, with no replay semantics — the spec is
// explicit that durable recovery from the journal is a non-goal.
package journal

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/matchcore/matchcore/internal/engine"
	"github.com/matchcore/matchcore/internal/order"
)

// lineFormat matches spec §6 exactly:
// <now_ms>|<event>|<order_id>|<symbol>|<side>|<type_int>|<price>|<quantity>|<filled_qty>|<order_ts>
const lineFormat = "%d|%s|%s|%s|%s|%d|%g|%g|%g|%d\n"

// File is a Journal backed by an append-only file, flushed after every
// write.
type File struct {
	mu sync.Mutex
	f  *os.File
}

// Open creates or appends to the file at path.
func Open(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	return &File{f: f}, nil
}

// Close flushes and closes the underlying file.
func (j *File) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.f.Close()
}

// Write implements engine.Journal.
func (j *File) Write(event engine.JournalEvent, o *order.Order) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	line := fmt.Sprintf(lineFormat,
		time.Now().UnixMilli(),
		event.String(),
		o.ID,
		o.Symbol,
		o.Side.String(),
		o.Type.WireType(),
		o.Price,
		o.Quantity,
		o.FilledQty,
		o.Timestamp,
	)

	if _, err := j.f.WriteString(line); err != nil {
		return fmt.Errorf("journal: write: %w", err)
	}
	return j.f.Sync()
}
