package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchcore/matchcore/internal/engine"
	"github.com/matchcore/matchcore/internal/order"
)

func TestWriteAppendsOneLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.journal")
	j, err := Open(path)
	require.NoError(t, err)
	defer j.Close()

	o := &order.Order{
		ID: "o1", Symbol: "BTC-USDT", Side: order.Buy, Type: order.Limit,
		Price: 100, Quantity: 2, FilledQty: 1, Timestamp: 7,
	}
	require.NoError(t, j.Write(engine.JournalNew, o))
	require.NoError(t, j.Write(engine.JournalPartialFill, o))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)

	fields := strings.Split(lines[0], "|")
	require.Len(t, fields, 10)
	assert.Equal(t, "NEW", fields[1])
	assert.Equal(t, "o1", fields[2])
	assert.Equal(t, "BTC-USDT", fields[3])
	assert.Equal(t, "BUY", fields[4])
	assert.Equal(t, "1", fields[5]) // LIMIT
	assert.Equal(t, "100", fields[6])
	assert.Equal(t, "2", fields[7])
	assert.Equal(t, "1", fields[8])
	assert.Equal(t, "7", fields[9])

	assert.Contains(t, lines[1], "PARTIAL_FILL")
}
