package rpcserver

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"cosmossdk.io/log"

	"github.com/hiero-ledger/hiero-json-rpc-relay-go/internal/rpcerr"
)

// request is one JSON-RPC 2.0 call envelope.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  []interface{}   `json:"params,omitempty"`
}

// rpcError is the {code, message} error object of spec.md §7.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// response is one JSON-RPC 2.0 result/error envelope.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// Server serves a Registry over HTTP POST and WebSocket, the same
// gorilla/mux + rs/cors outer transport and errgroup-driven graceful
// shutdown shape as the teacher's server/json_rpc.go StartJSONRPC, with the
// reflection-based ethrpc.Server dispatch it used there replaced by
// Registry.Dispatch.
type Server struct {
	logger   log.Logger
	registry *Registry
	httpSrv  *http.Server
	upgrader websocket.Upgrader
}

// New builds a Server listening on addr. corsAllowAll mirrors the teacher's
// choice between cors.Default() (same-origin only) and cors.AllowAll(),
// driven by the same "allow all" toggle server/json_rpc.go reads from its
// config.
func New(logger log.Logger, registry *Registry, addr string, corsAllowAll bool) *Server {
	s := &Server{
		logger:   logger.With(log.ModuleKey, "rpcServer"),
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}

	router := mux.NewRouter()
	router.HandleFunc("/", s.serveHTTP).Methods(http.MethodPost)
	router.HandleFunc("/", s.serveWS).Methods(http.MethodGet)

	var handler http.Handler = router
	if corsAllowAll {
		handler = cors.AllowAll().Handler(router)
	} else {
		handler = cors.Default().Handler(router)
	}

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Run serves until ctx is canceled, then gracefully shuts the listener
// down, mirroring server/json_rpc.go's errgroup g.Go(...)/select on
// ctx.Done() vs. a serve-error channel.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting JSON-RPC server", "address", s.httpSrv.Addr)
		errCh <- s.httpSrv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("stopping JSON-RPC server", "address", s.httpSrv.Addr)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error("JSON-RPC server stopped unexpectedly", "error", err)
			return err
		}
		return nil
	}
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	ctx := withClientIP(r.Context(), r)

	trimmed := firstNonSpace(body)
	if trimmed == '[' {
		var reqs []request
		if err := json.Unmarshal(body, &reqs); err != nil {
			s.writeJSON(w, errorResponse(nil, -32700, "Parse error"))
			return
		}
		out := make([]response, 0, len(reqs))
		for _, req := range reqs {
			out = append(out, s.handleOne(ctx, req))
		}
		s.writeJSON(w, out)
		return
	}

	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeJSON(w, errorResponse(nil, -32700, "Parse error"))
		return
	}
	s.writeJSON(w, s.handleOne(ctx, req))
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// The connection, not the originating HTTP request, bounds each call's
	// lifetime: r.Context() is canceled once the handshake completes. The
	// client IP is captured once, from the upgrade request.
	ctx := withClientIP(context.Background(), r)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req request
		if err := json.Unmarshal(msg, &req); err != nil {
			_ = conn.WriteJSON(errorResponse(nil, -32700, "Parse error"))
			continue
		}
		resp := s.handleOne(ctx, req)
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func (s *Server) handleOne(ctx context.Context, req request) response {
	if req.Method == "" {
		return errorResponse(req.ID, -32600, "Invalid Request")
	}
	result, err := s.registry.Dispatch(ctx, req.Method, req.Params)
	if err != nil {
		return response{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &rpcError{Code: rpcerr.JSONRPCCode(err), Message: err.Error()},
		}
	}
	return response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode JSON-RPC response", "error", err)
	}
}

func errorResponse(id json.RawMessage, code int, message string) response {
	return response{JSONRPC: "2.0", ID: id, Error: &rpcError{Code: code, Message: message}}
}

func firstNonSpace(b []byte) byte {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return c
		}
	}
	return 0
}

type clientIPKey struct{}

// withClientIP carries the caller's address on ctx: the request_context of
// spec.md §3 ("client_ip, masked_client_ip"), read by eth_sendRawTransaction,
// which passes it to the transaction service. The budget limiter does not
// read it: its check is keyed by sender address only.
func withClientIP(ctx context.Context, r *http.Request) context.Context {
	ip := r.Header.Get("X-Forwarded-For")
	if ip == "" {
		ip, _, _ = net.SplitHostPort(r.RemoteAddr)
	}
	if ip == "" {
		ip = r.RemoteAddr
	}
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP reads the caller's address stashed by withClientIP, or "" if
// ctx didn't come through this server (e.g. a unit test).
func ClientIP(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}
