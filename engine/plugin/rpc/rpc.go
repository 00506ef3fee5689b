// Package rpc is a websocket remote control for the engine. Editor integrations connect to it to
// switch the displayed scene.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Carmen-Shannon/cubensis-go/common"
	"github.com/Carmen-Shannon/cubensis-go/engine/event"
	"github.com/Carmen-Shannon/cubensis-go/engine/plugin"
	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// server is the implementation of the Server interface.
type server struct {
	mu *sync.Mutex

	address  string
	lookup   func(name string) bool
	upgrader websocket.Upgrader

	listener net.Listener
	http     *http.Server
	sink     event.Sink
	conns    map[*websocket.Conn]struct{}
	wg       sync.WaitGroup
}

// Server accepts websocket clients on a single address.
type Server interface {
	plugin.Plugin

	// Addr returns the bound listener address, or nil before Start.
	Addr() net.Addr
}

var _ Server = &server{}

// NewServer creates a server that listens on address once started.
//
// Parameters:
//   - address: host:port to listen on, port 0 picks a free port
//   - options: functional options to configure the server
//
// Returns:
//   - Server: the server plugin
func NewServer(address string, options ...ServerBuilderOption) Server {
	s := &server{
		mu:      &sync.Mutex{},
		address: address,
		conns:   make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			// Clients are editor extensions, which send arbitrary or no origins.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, option := range options {
		option(s)
	}
	return s
}

func (s *server) Name() string {
	return "rpc server"
}

func (s *server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *server) Start(ctx context.Context, sink event.Sink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return errors.New("rpc server already started")
	}

	ln, err := net.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveWS)

	s.listener = ln
	s.sink = sink
	s.http = &http.Server{Handler: mux, ReadHeaderTimeout: writeTimeout}
	log.Printf("[RPC] listening on ws://%s", ln.Addr())

	srv := s.http
	stopped := make(chan struct{})
	srv.RegisterOnShutdown(func() { close(stopped) })
	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[RPC] server stopped: %v", err)
		}
	}()
	go func() {
		defer s.wg.Done()
		select {
		case <-ctx.Done():
			s.closeAll()
		case <-stopped:
		}
	}()
	return nil
}

func (s *server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[RPC] upgrade failed: %v", err)
		return
	}
	if !s.track(conn) {
		conn.Close()
		return
	}
	defer s.untrack(conn)
	common.Debugf("[RPC] client connected from %s", conn.RemoteAddr())

	for {
		typ, msg, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				common.Debugf("[RPC] client %s: %v", conn.RemoteAddr(), err)
			}
			return
		}
		if typ != websocket.TextMessage && typ != websocket.BinaryMessage {
			continue
		}

		var req Request
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Printf("[RPC] ignoring invalid request: %v", err)
			continue
		}
		resp, ok := s.handle(req)
		if !ok {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(resp); err != nil {
			log.Printf("[RPC] failed to reply: %v", err)
			return
		}
	}
}

// handle applies req and returns the reply. ok is false for requests that get no reply.
func (s *server) handle(req Request) (resp Response, ok bool) {
	if req.SetProject == nil {
		return Response{}, false
	}
	name := req.SetProject.SceneName()
	if name == "" {
		return Failure("No scene name given", SeverityError), true
	}
	if s.lookup != nil && !s.lookup(name) {
		return Failure(fmt.Sprintf("Scene %q not found", name), SeverityError), true
	}

	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink == nil || !sink.Push(event.SceneChange{Name: name}) {
		return Failure("Engine is shutting down", SeverityWarning), true
	}
	log.Printf("[RPC] switching to scene %q", name)
	return Success("Successfully loaded scene", SeverityInfo), true
}

func (s *server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.http == nil {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

func (s *server) HandleEvent(event.App) {}

// closeAll stops the listener and drops every client. It reports whether anything was running.
func (s *server) closeAll() (bool, error) {
	s.mu.Lock()
	srv := s.http
	if srv == nil {
		s.mu.Unlock()
		return false, nil
	}
	s.http = nil
	s.sink = nil
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	err := srv.Shutdown(ctx)
	for _, c := range conns {
		c.Close()
	}
	return true, err
}

func (s *server) Shutdown() error {
	stopped, err := s.closeAll()
	if stopped {
		log.Printf("[RPC] stopped")
	}
	s.wg.Wait()
	return err
}
