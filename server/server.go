package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	"github.com/chazu/clox/cache"
	"github.com/chazu/clox/vm"
)

var log = commonlog.GetLogger("clox.server")

// MaxRequestBytes caps the size of a request message.
const MaxRequestBytes = 1 << 20

// CloxServer is the evaluation server wrapping a VM. It serves the Connect
// protocol with a CBOR codec.
type CloxServer struct {
	worker *VMWorker
	mux    *http.ServeMux

	mu         sync.Mutex
	httpServer *http.Server
}

// ServerOption configures a CloxServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	store *cache.Store
}

// WithCache makes the server look up and store compiled chunks in store.
func WithCache(store *cache.Store) ServerOption {
	return func(c *serverConfig) { c.store = store }
}

// New creates a CloxServer wrapping the given VM.
func New(v *vm.VM, opts ...ServerOption) *CloxServer {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	worker := NewVMWorker(v)

	s := &CloxServer{
		worker: worker,
		mux:    http.NewServeMux(),
	}

	evalSvc := NewEvalService(worker, cfg.store)
	evalSvc.register(s.mux,
		connect.WithCodec(newCBORCodec()),
		connect.WithReadMaxBytes(MaxRequestBytes),
	)

	return s
}

// Handler returns the HTTP handler serving all procedures.
func (s *CloxServer) Handler() http.Handler {
	return s.mux
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
// It returns nil once Stop has shut the server down.
func (s *CloxServer) ListenAndServe(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	log.Noticef("clox server listening on %s", addr)
	log.Infof("  Connect (CBOR): http://%s%s", addr, EvaluateProcedure)

	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop shuts down the server.
func (s *CloxServer) Stop() {
	s.mu.Lock()
	srv := s.httpServer
	s.mu.Unlock()

	if srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Warningf("shutdown: %s", err)
		}
	}
	s.worker.Stop()
}
