package rpc

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/plurality-game/plurality/events"
)

// Server is a JSON-RPC 2.0 HTTP server with a WebSocket event feed.
type Server struct {
	handler   *Handler
	hub       *wsHub
	addr      string
	authToken string      // empty → no auth required
	tlsConfig *tls.Config // nil → plain TCP
	srv       *http.Server
}

// NewServer creates a Server on addr. If authToken is non-empty, every
// request must carry a matching "Authorization: Bearer <token>" header.
// If tlsConfig is non-nil the listener is wrapped in TLS.
func NewServer(addr string, handler *Handler, emitter *events.Emitter, authToken string, tlsConfig *tls.Config) *Server {
	s := &Server{
		handler:   handler,
		hub:       newWSHub(emitter),
		addr:      addr,
		authToken: authToken,
		tlsConfig: tlsConfig,
	}
	r := mux.NewRouter()
	r.HandleFunc("/", s.serveRPC).Methods(http.MethodPost)
	r.HandleFunc("/events", s.hub.serveWS).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.serveHealth).Methods(http.MethodGet)
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Start binds the port synchronously (so callers know immediately if binding
// fails) then serves requests in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[rpc] server error: %v", err)
		}
	}()
	return nil
}

// Stop closes all WebSocket subscribers and gracefully shuts down the HTTP
// server, waiting up to 5 seconds for in-flight requests to complete.
func (s *Server) Stop() error {
	s.hub.close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}

func (s *Server) serveRPC(w http.ResponseWriter, r *http.Request) {
	if s.authToken != "" {
		if r.Header.Get("Authorization") != "Bearer "+s.authToken {
			writeJSON(w, errResponse(nil, CodeUnauthorized, "unauthorized"))
			return
		}
	}

	// Limit request body to 1 MB to prevent memory exhaustion.
	r.Body = http.MaxBytesReader(w, r.Body, 1*1024*1024)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, errResponse(nil, CodeParseError, err.Error()))
		return
	}
	if req.JSONRPC != "2.0" {
		writeJSON(w, errResponse(req.ID, CodeInvalidRequest, "jsonrpc must be '2.0'"))
		return
	}
	// Collaborator rebinding is only reachable on nodes that require auth.
	if req.Method == "rebindCollaborators" && s.authToken == "" {
		writeJSON(w, errResponse(req.ID, CodeUnauthorized, "rebindCollaborators requires an RPC auth token"))
		return
	}

	resp := s.handler.Dispatch(r.Context(), req)
	writeJSON(w, resp)
}

func (s *Server) serveHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
