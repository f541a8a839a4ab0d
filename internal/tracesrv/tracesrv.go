// Package tracesrv broadcasts diagnostics over a websocket connection for
// verbose-mode fold tracing: an upgrade/register/broadcast/unregister
// server aimed at fold diagnostics.
package tracesrv

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"nvcfold/internal/diag"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is a diag.Sink that fans every emitted diagnostic out to all
// currently-connected trace clients as JSON.
type Server struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan diag.Diagnostic
}

// New constructs an empty Server, ready to register as a diag.Reporter
// sink via AddSink.
func New() *Server {
	return &Server{clients: make(map[*websocket.Conn]chan diag.Diagnostic)}
}

// Emit implements diag.Sink: it never blocks on a slow client — a client
// whose outbound channel is full drops the message rather than stalling
// the fold that produced it.
func (s *Server) Emit(d diag.Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.clients {
		select {
		case ch <- d:
		default:
		}
	}
}

// ServeHTTP upgrades the request to a websocket and streams diagnostics to
// it until the client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("tracesrv: upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := make(chan diag.Diagnostic, 64)
	s.mu.Lock()
	s.clients[conn] = ch
	s.mu.Unlock()
	defer s.unregister(conn)

	for d := range ch {
		payload, err := json.Marshal(d)
		if err != nil {
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}

func (s *Server) unregister(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.clients[conn]; ok {
		close(ch)
		delete(s.clients, conn)
	}
}

// ClientCount reports the number of currently-connected trace clients,
// used by the tests.
func (s *Server) ClientCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
