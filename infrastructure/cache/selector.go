package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"splaro/pkg/observability"
)

// Backend names
const (
	BackendMemory = "memory"
	BackendREST   = "rest"
	BackendValkey = "valkey"
)

const defaultCloseGrace = 30 * time.Second

// SelectorConfig decides which backend a Selector builds.
// REST wins when both RESTURL and RESTToken are set, then URL, then memory.
type SelectorConfig struct {
	RESTURL   string
	RESTToken string
	URL       string
	KeyPrefix string

	REST RESTConfig

	// CloseGrace delays closing a store replaced by Reset so in-flight
	// callers can finish with it
	CloseGrace time.Duration
}

// Selector lazily picks and memoizes one Store per generation
type Selector struct {
	logger  *zap.Logger
	metrics *observability.Collector

	mu  sync.Mutex
	cfg SelectorConfig
	gen *generation

	newREST   func(cfg RESTConfig) Store
	newValkey func(ctx context.Context, url string) (Store, error)
}

// generation holds one selection. A retired generation never builds; a
// caller that reaches one moves on to the selector's current generation.
type generation struct {
	mu      sync.Mutex
	ready   atomic.Bool
	retired bool
	cfg     SelectorConfig
	store   Store
}

// NewSelector creates a selector. No backend is built until the first Store call.
func NewSelector(cfg SelectorConfig, logger *zap.Logger, metrics *observability.Collector) *Selector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.CloseGrace <= 0 {
		cfg.CloseGrace = defaultCloseGrace
	}

	s := &Selector{
		logger:  logger.Named("cache.selector"),
		metrics: metrics,
		cfg:     cfg,
	}
	s.newREST = func(rc RESTConfig) Store {
		return NewRESTStore(rc, logger, metrics)
	}
	s.newValkey = func(ctx context.Context, url string) (Store, error) {
		return NewValkeyStore(ctx, url, logger, metrics)
	}
	return s
}

// Store returns the backend for the current generation, selecting it on
// first use. Concurrent first callers share a single selection.
func (s *Selector) Store(ctx context.Context) Store {
	for {
		if store, ok := s.storeFrom(ctx, s.current()); ok {
			return store
		}
	}
}

func (s *Selector) current() *generation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen == nil {
		s.gen = &generation{cfg: s.cfg}
	}
	return s.gen
}

// storeFrom builds g on first use. It reports false when g was retired
// before anything was built.
func (s *Selector) storeFrom(ctx context.Context, g *generation) (Store, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.store == nil {
		if g.retired {
			return nil, false
		}
		// selection outlives the caller that happened to trigger it
		g.store = s.build(context.WithoutCancel(ctx), g.cfg)
		g.ready.Store(true)
	}
	return g.store, true
}

// Reset discards the current generation. The next Store call selects again;
// the replaced store is closed after the grace period.
func (s *Selector) Reset() {
	s.mu.Lock()
	old := s.gen
	s.gen = nil
	grace := s.cfg.CloseGrace
	s.mu.Unlock()

	if old != nil {
		go s.retire(old, grace)
	}
}

// Reconfigure replaces the selection inputs and resets the selector
func (s *Selector) Reconfigure(cfg SelectorConfig) {
	s.mu.Lock()
	if cfg.CloseGrace <= 0 {
		cfg.CloseGrace = s.cfg.CloseGrace
	}
	s.cfg = cfg
	s.mu.Unlock()

	s.Reset()
}

// Current reports the selected backend name, or "" before selection
func (s *Selector) Current() string {
	s.mu.Lock()
	g := s.gen
	s.mu.Unlock()
	if g == nil || !g.ready.Load() {
		return ""
	}
	return g.store.Name()
}

// Close closes the current store immediately
func (s *Selector) Close() error {
	s.mu.Lock()
	g := s.gen
	s.gen = nil
	s.mu.Unlock()

	if g == nil {
		return nil
	}
	store := g.retire()
	if store == nil {
		return nil
	}
	return store.Close()
}

func (s *Selector) retire(g *generation, grace time.Duration) {
	store := g.retire()
	if store == nil {
		return
	}

	time.Sleep(grace)
	if err := store.Close(); err != nil {
		s.logger.Warn("Failed to close replaced cache store",
			zap.String("backend", store.Name()),
			zap.Error(err))
	}
}

// retire waits for an in-flight selection and returns what it built, if anything
func (g *generation) retire() Store {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retired = true
	return g.store
}

func (s *Selector) build(ctx context.Context, cfg SelectorConfig) Store {
	var store Store

	switch {
	case cfg.RESTURL != "" && cfg.RESTToken != "":
		rc := cfg.REST
		rc.BaseURL = cfg.RESTURL
		rc.Token = cfg.RESTToken
		store = s.newREST(rc)

	case cfg.URL != "":
		vs, err := s.newValkey(ctx, cfg.URL)
		if err != nil {
			s.logger.Warn("Remote cache unavailable, falling back to memory", zap.Error(err))
			break
		}
		store = vs
	}

	if store == nil {
		store = NewMemoryStore()
	}

	s.logger.Info("Cache backend selected", zap.String("backend", store.Name()))
	s.metrics.RecordBackendSelected(store.Name(), BackendMemory, BackendREST, BackendValkey)

	if cfg.KeyPrefix != "" {
		store = WithPrefix(store, cfg.KeyPrefix)
	}
	return store
}
