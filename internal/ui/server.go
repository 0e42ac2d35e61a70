package ui

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/kapu/chessdesk/internal/rules"
	"github.com/kapu/chessdesk/internal/session"
	"github.com/kapu/chessdesk/pkg/gamedto"
)

// Server bridges websocket board clients to the controller. Incoming
// client events are forwarded to the events channel; Publish fans the
// latest snapshot out to every connected client.
type Server struct {
	addr   string
	events chan<- session.Event
	logger *zap.Logger

	connM   sync.RWMutex
	conns   map[*websocket.Conn]struct{}
	last    gamedto.Snapshot
	hasLast bool

	httpSrv  *http.Server
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewServer(addr string, events chan<- session.Event, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		addr:   addr,
		events: events,
		logger: logger,
		conns:  make(map[*websocket.Conn]struct{}),
		stopCh: make(chan struct{}),
	}
}

// Start begins listening and serving websocket upgrades at /ws. It
// returns once the listener is bound.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.httpSrv = &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("ui server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("ui server listening", zap.String("addr", ln.Addr().String()))
	return nil
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}

	s.connM.Lock()
	s.conns[conn] = struct{}{}
	last, hasLast := s.last, s.hasLast
	s.connM.Unlock()

	ctx := r.Context()
	if hasLast {
		writeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		_ = wsjson.Write(writeCtx, conn, last)
		cancel()
	}

	s.readLoop(ctx, conn)

	s.connM.Lock()
	delete(s.conns, conn)
	s.connM.Unlock()
	_ = conn.Close(websocket.StatusNormalClosure, "bye")
}

func (s *Server) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		var raw gamedto.Event
		if err := wsjson.Read(ctx, conn, &raw); err != nil {
			return
		}

		ev, err := translateEvent(raw)
		if err != nil {
			s.logger.Debug("dropping malformed client event",
				zap.String("kind", raw.Kind), zap.String("square", raw.Square), zap.Error(err))
			continue
		}

		select {
		case s.events <- ev:
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

var errUnknownEvent = errors.New("unknown event kind")

func translateEvent(raw gamedto.Event) (session.Event, error) {
	switch raw.Kind {
	case "square":
		sq, err := rules.ParseSquare(raw.Square)
		if err != nil {
			return session.Event{}, err
		}
		return session.Event{Kind: session.EventSquareClicked, Square: sq}, nil
	case "hint":
		return session.Event{Kind: session.EventHintRequested}, nil
	case "undo":
		return session.Event{Kind: session.EventUndoRequested}, nil
	case "quit":
		return session.Event{Kind: session.EventQuitRequested}, nil
	default:
		return session.Event{}, errUnknownEvent
	}
}

// Publish broadcasts the snapshot to every connected client and retains
// it for clients that connect later.
func (s *Server) Publish(snap gamedto.Snapshot) {
	s.connM.Lock()
	s.last = snap
	s.hasLast = true
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.connM.Unlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := wsjson.Write(ctx, c, snap); err != nil {
			s.logger.Debug("snapshot write failed", zap.Error(err))
		}
		cancel()
	}
}

func (s *Server) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	s.connM.Lock()
	for c := range s.conns {
		_ = c.Close(websocket.StatusGoingAway, "shutdown")
	}
	s.conns = make(map[*websocket.Conn]struct{})
	s.connM.Unlock()

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return err
	}
}
