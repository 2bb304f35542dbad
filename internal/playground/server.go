// Package playground serves the interpreter over WebSocket. Every connection
// gets its own session id and interpreter; globals persist between the runs
// of one connection.
package playground

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"taglox/internal/config"
	"taglox/internal/errors"
	"taglox/internal/interpreter"
	"taglox/internal/runner"
)

const shutdownTimeout = 5 * time.Second

// Request is one text frame sent by a client.
type Request struct {
	Source string `json:"source"`
}

// Response answers a Request.
type Response struct {
	Session     string             `json:"session"`
	Output      string             `json:"output"`
	Diagnostics []*errors.LoxError `json:"diagnostics"`
}

type Option func(*Server)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

func WithTagSource(src interpreter.TagSource) Option {
	return func(s *Server) { s.tags = src }
}

type Server struct {
	addr      string
	maxSource int
	tags      interpreter.TagSource
	logger    *slog.Logger
	upgrader  websocket.Upgrader
	http      *http.Server

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id      string
	conn    *websocket.Conn
	out     bytes.Buffer
	session *runner.Session
}

func New(cfg config.Serve, opts ...Option) *Server {
	s := &Server{
		addr:      cfg.Addr,
		maxSource: cfg.MaxSourceBytes,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.http = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler routes /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.serveWS)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprint(w, "ok")
	})
	return mux
}

// ListenAndServe listens on the configured address until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return pkgerrors.Wrapf(err, "listen on %s", s.addr)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down and
// closes every open WebSocket.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("playground listening", "addr", ln.Addr().String())
		if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
			return pkgerrors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.closeClients()
		s.logger.Info("playground shutting down")
		return s.http.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Clients returns the number of open connections.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn}
	c.session = s.newSession(&c.out)
	if s.maxSource > 0 {
		// JSON escaping can grow the source several times over.
		conn.SetReadLimit(int64(s.maxSource)*6 + 1024)
	}

	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()
	s.logger.Info("client connected", "session", c.id, "remote", r.RemoteAddr)

	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		conn.Close()
		s.logger.Info("client disconnected", "session", c.id)
	}()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("read failed", "session", c.id, "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		resp := s.handle(c, data)
		if err := conn.WriteJSON(resp); err != nil {
			s.logger.Debug("write failed", "session", c.id, "error", err)
			return
		}
	}
}

func (s *Server) newSession(out io.Writer) *runner.Session {
	opts := []runner.Option{
		runner.WithOutput(out),
		runner.WithLogger(s.logger),
	}
	if s.tags != nil {
		opts = append(opts, runner.WithTagSource(s.tags))
	}
	return runner.NewSession(opts...)
}

func (s *Server) handle(c *client, data []byte) Response {
	resp := Response{Session: c.id, Diagnostics: []*errors.LoxError{}}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		resp.Diagnostics = append(resp.Diagnostics, errors.NewRequestError("Invalid request: "+err.Error()))
		return resp
	}
	if s.maxSource > 0 && len(req.Source) > s.maxSource {
		msg := fmt.Sprintf("Source is %s, the limit is %s.",
			humanize.Bytes(uint64(len(req.Source))), humanize.Bytes(uint64(s.maxSource)))
		resp.Diagnostics = append(resp.Diagnostics, errors.NewRequestError(msg))
		return resp
	}

	c.out.Reset()
	start := time.Now()
	_, err := c.session.Execute(req.Source)
	resp.Output = c.out.String()

	var static *runner.StaticError
	switch {
	case err == nil:
	case pkgerrors.As(err, &static):
		resp.Diagnostics = append(resp.Diagnostics, static.Diagnostics...)
	default:
		le, ok := errors.As(err)
		if !ok {
			le = errors.NewRuntimeError(err.Error(), "", 0, 0, 0)
		}
		resp.Diagnostics = append(resp.Diagnostics, le)
	}
	s.logger.Info("run finished", "session", c.id, "bytes", len(req.Source),
		"diagnostics", len(resp.Diagnostics), "duration", time.Since(start))
	return resp
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.conn.Close()
	}
}
