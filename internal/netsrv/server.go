// Package netsrv is the engine's TCP wire adapter: a thin external
// collaborator (per spec §1) translating a small binary protocol into
// Engine.Submit/BBO calls and relaying trade feed events back to
// connected sessions. L2 queries are parsed but not answered, and L2
// feed updates are not relayed. It carries no matching semantics of its
// own.
//
// Adapted from the teacher's internal/net/server.go and internal/worker.go:
// a tomb-supervised accept loop handing connections to a fixed worker
// pool, with a dedicated goroutine draining a channel of parsed client
// messages so connection handling never blocks on engine dispatch. Each
// accepted connection is re-queued onto the pool after every message,
// exactly as the teacher's server does, so one session keeps being
// served by the pool across many requests instead of closing after one.
package netsrv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"github.com/matchcore/matchcore/internal/engine"
)

const (
	maxRecvSize        = 4 * 1024
	defaultNWorkers    = 10
	defaultConnTimeout = 5 * time.Second
)

var errImproperConversion = errors.New("netsrv: improper task type")

type clientSession struct {
	conn net.Conn
}

type clientMessage struct {
	owner   string
	message inboundMessage
}

// Server is the TCP adapter in front of an *engine.Engine.
type Server struct {
	addr   string
	engine *engine.Engine

	pool   WorkerPool
	cancel context.CancelFunc

	mu          sync.Mutex
	sessions    map[string]clientSession // owner -> session
	orderOwners map[string]string        // order id -> owner, for trade routing

	inbound chan clientMessage
}

// New constructs a Server listening on addr and dispatching to eng.
func New(addr string, eng *engine.Engine) *Server {
	s := &Server{
		addr:        addr,
		engine:      eng,
		pool:        NewWorkerPool(defaultNWorkers),
		sessions:    make(map[string]clientSession),
		orderOwners: make(map[string]string),
		inbound:     make(chan clientMessage, 64),
	}
	eng.SubscribeTrades(s.onTrade)
	return s
}

// Run accepts connections until ctx is canceled, then winds the whole
// adapter down via its tomb.
func (s *Server) Run(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	defer s.cancel()

	t, ctx := tomb.WithContext(ctx)

	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("netsrv: listen: %w", err)
	}
	defer listener.Close()

	// Close the listener on cancellation so a blocked Accept returns.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.pool.Setup(t, s.handleConnection)
	t.Go(func() error { return s.drainInbound(t) })

	log.Info().Str("addr", s.addr).Msg("matchcore server listening")

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Error().Err(err).Msg("accept failed")
				continue
			}
			s.pool.AddTask(conn)
		}
	}
}

// Shutdown stops the accept loop and lets the tomb's workers drain.
func (s *Server) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

// handleConnection reads and handles exactly one message off conn, then
// re-queues conn for its next message — mirroring the teacher's
// session-keeping pattern rather than one-shot per-connection handling.
func (s *Server) handleConnection(t *tomb.Tomb, task any) error {
	conn, ok := task.(net.Conn)
	if !ok {
		return errImproperConversion
	}

	select {
	case <-t.Dying():
		conn.Close()
		return nil
	default:
	}

	if err := conn.SetReadDeadline(time.Now().Add(defaultConnTimeout)); err != nil {
		log.Error().Err(err).Msg("failed to set connection deadline")
		conn.Close()
		return nil
	}

	buf := make([]byte, maxRecvSize)
	n, err := conn.Read(buf)
	if err != nil {
		log.Debug().Err(err).Msg("connection read failed, closing session")
		conn.Close()
		return nil
	}

	msg, err := parseMessage(buf[:n])
	if err != nil {
		log.Error().Err(err).Msg("failed to parse client message")
		conn.Write(encodeErrorReport(err.Error()))
		s.pool.AddTask(conn)
		return nil
	}

	owner := msg.Owner
	if owner != "" {
		s.addSession(owner, conn)
	}

	select {
	case s.inbound <- clientMessage{owner: owner, message: msg}:
	case <-t.Dying():
		conn.Close()
		return nil
	}

	// Keep serving this connection's subsequent messages.
	s.pool.AddTask(conn)
	return nil
}

func (s *Server) drainInbound(t *tomb.Tomb) error {
	for {
		select {
		case <-t.Dying():
			return nil
		case cm := <-s.inbound:
			s.handleMessage(cm)
		}
	}
}

func (s *Server) handleMessage(cm clientMessage) {
	switch cm.message.Type {
	case MsgNewOrder:
		o := cm.message.Order
		if cm.owner != "" {
			s.trackOrderOwner(o.ID, cm.owner)
		}
		resp := s.engine.Submit(&o)
		switch resp.Result {
		case engine.RejectedInvalidParams, engine.RejectedTradeThrough, engine.RejectedFOKUnfillable:
			s.reply(cm.owner, encodeErrorReport(resp.Message))
		}
	case MsgBBOQuery:
		bid, ask := s.engine.BBO(cm.message.Symbol)
		s.reply(cm.owner, encodeBBOReport(cm.message.Symbol, bid, ask))
	case MsgL2Query:
		// The query is logged and not answered: this adapter has no
		// wire encoding for variable-depth book sides and does not
		// subscribe to the engine's L2 feed (see DESIGN.md).
		log.Debug().Str("symbol", cm.message.Symbol).Msg("L2 query received")
	}
}

func (s *Server) onTrade(t engine.TradeReport) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.orderOwners[t.TakerOrderID]; ok {
		if sess, ok := s.sessions[owner]; ok {
			sess.conn.Write(encodeExecutionReport(t.TakerOrderID, t))
		}
	}
	if owner, ok := s.orderOwners[t.MakerOrderID]; ok {
		if sess, ok := s.sessions[owner]; ok {
			sess.conn.Write(encodeExecutionReport(t.MakerOrderID, t))
		}
	}
}

func (s *Server) addSession(owner string, conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[owner] = clientSession{conn: conn}
}

func (s *Server) trackOrderOwner(orderID, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderOwners[orderID] = owner
}

func (s *Server) reply(owner string, payload []byte) {
	s.mu.Lock()
	sess, ok := s.sessions[owner]
	s.mu.Unlock()
	if !ok {
		return
	}
	sess.conn.Write(payload)
}
