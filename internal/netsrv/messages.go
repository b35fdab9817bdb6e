package netsrv

import (
	"encoding/binary"
	"errors"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/matchcore/matchcore/internal/engine"
	"github.com/matchcore/matchcore/internal/order"
)

// The wire protocol is a small fixed-header binary format, in the style
// of the teacher's internal/net/messages.go — no JSON encoding, per the
// spec's explicit non-goal for the external surface.

var (
	ErrMessageTooShort = errors.New("netsrv: message too short")
	ErrUnknownMessage  = errors.New("netsrv: unknown message type")
)

// MessageType identifies an inbound client message.
type MessageType uint16

const (
	MsgNewOrder MessageType = iota
	MsgBBOQuery
	MsgL2Query
)

const (
	symbolFieldLen = 8
	headerLen      = 2 // MessageType
)

// newOrderLen is the fixed body length after the 2-byte header:
// orderType(2) + side(1) + symbol(8) + price(8) + quantity(8) + ownerLen(1).
const newOrderLen = 2 + 1 + symbolFieldLen + 8 + 8 + 1

type inboundMessage struct {
	Type MessageType

	// NewOrder fields.
	Order order.Order
	Owner string

	// Query fields.
	Symbol string
	Depth  uint8
}

func fixedSymbol(s string) string {
	return strings.TrimRight(s, "\x00")
}

func putSymbol(buf []byte, symbol string) {
	copy(buf, symbol)
}

// parseMessage decodes one client message off the wire.
func parseMessage(buf []byte) (inboundMessage, error) {
	if len(buf) < headerLen {
		return inboundMessage{}, ErrMessageTooShort
	}
	t := MessageType(binary.BigEndian.Uint16(buf[0:2]))
	body := buf[headerLen:]

	switch t {
	case MsgNewOrder:
		return parseNewOrder(body)
	case MsgBBOQuery:
		if len(body) < symbolFieldLen {
			return inboundMessage{}, ErrMessageTooShort
		}
		return inboundMessage{Type: MsgBBOQuery, Symbol: fixedSymbol(string(body[:symbolFieldLen]))}, nil
	case MsgL2Query:
		if len(body) < symbolFieldLen+1 {
			return inboundMessage{}, ErrMessageTooShort
		}
		return inboundMessage{
			Type:   MsgL2Query,
			Symbol: fixedSymbol(string(body[:symbolFieldLen])),
			Depth:  body[symbolFieldLen],
		}, nil
	default:
		return inboundMessage{}, ErrUnknownMessage
	}
}

func parseNewOrder(body []byte) (inboundMessage, error) {
	if len(body) < newOrderLen {
		return inboundMessage{}, ErrMessageTooShort
	}
	orderType := order.Type(binary.BigEndian.Uint16(body[0:2]))
	side := order.Side(body[2])
	symbol := fixedSymbol(string(body[3 : 3+symbolFieldLen]))
	off := 3 + symbolFieldLen
	price := math.Float64frombits(binary.BigEndian.Uint64(body[off : off+8]))
	off += 8
	qty := math.Float64frombits(binary.BigEndian.Uint64(body[off : off+8]))
	off += 8
	ownerLen := int(body[off])
	off++
	if len(body) < off+ownerLen {
		return inboundMessage{}, ErrMessageTooShort
	}
	owner := string(body[off : off+ownerLen])

	return inboundMessage{
		Type: MsgNewOrder,
		Order: order.Order{
			ID:       uuid.NewString(),
			Symbol:   symbol,
			Side:     side,
			Type:     orderType,
			Price:    price,
			Quantity: qty,
		},
		Owner: owner,
	}, nil
}

// ReportType identifies an outbound server message.
type ReportType uint8

const (
	ReportExecution ReportType = iota
	ReportError
	ReportBBO
	ReportL2
)

func putLenPrefixed(buf *[]byte, s string) {
	*buf = append(*buf, byte(len(s)))
	*buf = append(*buf, s...)
}

// encodeExecutionReport serializes one TradeReport for the side (maker
// or taker) identified by forOrderID.
func encodeExecutionReport(forOrderID string, t engine.TradeReport) []byte {
	buf := make([]byte, 0, 64)
	buf = append(buf, byte(ReportExecution))
	priceBits := make([]byte, 8)
	binary.BigEndian.PutUint64(priceBits, math.Float64bits(t.Price))
	buf = append(buf, priceBits...)
	qtyBits := make([]byte, 8)
	binary.BigEndian.PutUint64(qtyBits, math.Float64bits(t.Quantity))
	buf = append(buf, qtyBits...)
	buf = append(buf, byte(t.Aggressor))
	putLenPrefixed(&buf, t.TradeID)
	putLenPrefixed(&buf, forOrderID)
	return buf
}

func encodeErrorReport(msg string) []byte {
	buf := make([]byte, 0, 4+len(msg))
	buf = append(buf, byte(ReportError))
	putLenPrefixed(&buf, msg)
	return buf
}

func encodeBBOReport(symbol string, bid, ask float64) []byte {
	buf := make([]byte, 1+symbolFieldLen+16)
	buf[0] = byte(ReportBBO)
	putSymbol(buf[1:1+symbolFieldLen], symbol)
	off := 1 + symbolFieldLen
	binary.BigEndian.PutUint64(buf[off:off+8], math.Float64bits(bid))
	binary.BigEndian.PutUint64(buf[off+8:off+16], math.Float64bits(ask))
	return buf
}
