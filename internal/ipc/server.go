package ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sandeepkv93/intervald/internal/engine"
	"github.com/sandeepkv93/intervald/internal/host"
	"github.com/sandeepkv93/intervald/internal/logfields"
	"github.com/sandeepkv93/intervald/internal/model"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 20 * time.Second

	maxCommandBytes = 4 << 10
)

// Controller is the part of host.Host the server needs.
type Controller interface {
	Issue(ctx context.Context, cmd host.Command) error
	State() model.TimerState
	Subscribe() (<-chan model.TimerState, func())
}

// Response is the body of every non-stream reply.
type Response struct {
	Status string            `json:"status"`
	Error  string            `json:"error,omitempty"`
	State  *model.TimerState `json:"state,omitempty"`
}

// Envelope frames each websocket message.
type Envelope struct {
	Type string           `json:"type"`
	Ts   time.Time        `json:"ts"`
	Data model.TimerState `json:"data"`
}

type ServerOptions struct {
	Logger  *slog.Logger
	Metrics http.Handler
}

type Server struct {
	ctl      Controller
	log      *slog.Logger
	metrics  http.Handler
	upgrader websocket.Upgrader
}

func NewServer(ctl Controller, opts ServerOptions) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		ctl:     ctl,
		log:     log.With(slog.String("component", "ipc")),
		metrics: opts.Metrics,
		upgrader: websocket.Upgrader{
			// Only local processes can reach the socket.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /command", s.handleCommand)
	mux.HandleFunc("GET /state", s.handleState)
	mux.HandleFunc("GET /stream", s.handleStream)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return mux
}

// Serve listens on socketPath until ctx is cancelled. A stale socket file is
// removed first.
func (s *Server) Serve(ctx context.Context, socketPath string) error {
	if err := os.RemoveAll(socketPath); err != nil {
		return fmt.Errorf("remove existing socket: %w", err)
	}
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", socketPath, err)
	}
	defer os.Remove(socketPath)
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}
	return s.serve(ctx, listener)
}

func (s *Server) serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(listener) }()
	s.log.Info("ipc listening", logfields.Path(listener.Addr().String()))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
		<-errCh
		s.log.Debug("ipc stopped")
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	var cmd host.Command
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cmd); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Status: "error", Error: fmt.Sprintf("decode command: %v", err)})
		return
	}
	if err := s.ctl.Issue(r.Context(), cmd); err != nil {
		s.log.Debug("command failed", logfields.Command(string(cmd.Kind)), logfields.Error(err))
		writeJSON(w, statusFor(err), Response{Status: "error", Error: err.Error()})
		return
	}
	state := s.ctl.State()
	writeJSON(w, http.StatusOK, Response{Status: "ok", State: &state})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	state := s.ctl.State()
	writeJSON(w, http.StatusOK, Response{Status: "ok", State: &state})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidConfig), errors.Is(err, host.ErrInvalidCommand):
		return http.StatusBadRequest
	case errors.Is(err, engine.ErrNotIdle):
		return http.StatusConflict
	case errors.Is(err, engine.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", logfields.Error(err))
		return
	}
	updates, cancel := s.ctl.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(r.Context())
	defer stop()
	go func() {
		readPump(conn)
		stop()
	}()
	s.writePump(ctx, conn, updates)
}

// writePump sends every snapshot until the subscription ends or the peer
// goes away.
func (s *Server) writePump(ctx context.Context, conn *websocket.Conn, updates <-chan model.TimerState) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "engine closed"))
				return
			}
			if err := conn.WriteJSON(Envelope{Type: "state", Ts: time.Now().UTC(), Data: state}); err != nil {
				s.log.Debug("ws write failed", logfields.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards client frames so control frames are processed and
// disconnects are noticed.
func readPump(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
