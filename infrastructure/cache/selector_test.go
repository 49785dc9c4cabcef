package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type closeTrackingStore struct {
	*MemoryStore
	name   string
	closed atomic.Bool
}

func (c *closeTrackingStore) Name() string { return c.name }

func (c *closeTrackingStore) Close() error {
	c.closed.Store(true)
	return nil
}

func TestSelector_Precedence(t *testing.T) {
	tests := []struct {
		name      string
		cfg       SelectorConfig
		want      string
		valkeyErr error
	}{
		{name: "nothing configured", cfg: SelectorConfig{}, want: BackendMemory},
		{name: "rest url and token", cfg: SelectorConfig{RESTURL: "https://kv.example", RESTToken: "t", URL: "redis://x"}, want: BackendREST},
		{name: "rest url without token", cfg: SelectorConfig{RESTURL: "https://kv.example"}, want: BackendMemory},
		{name: "connection url", cfg: SelectorConfig{URL: "redis://cache:6379"}, want: BackendValkey},
		{name: "connection url unreachable", cfg: SelectorConfig{URL: "redis://cache:6379"}, valkeyErr: errors.New("dial tcp: refused"), want: BackendMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelector(tt.cfg, zap.NewNop(), nil)
			s.newREST = func(RESTConfig) Store {
				return &closeTrackingStore{MemoryStore: NewMemoryStore(), name: BackendREST}
			}
			s.newValkey = func(context.Context, string) (Store, error) {
				if tt.valkeyErr != nil {
					return nil, tt.valkeyErr
				}
				return &closeTrackingStore{MemoryStore: NewMemoryStore(), name: BackendValkey}, nil
			}

			got := s.Store(context.Background())

			assert.Equal(t, tt.want, got.Name())
			assert.Equal(t, tt.want, s.Current())
		})
	}
}

func TestSelector_BadURLFallsThroughToMemory(t *testing.T) {
	s := NewSelector(SelectorConfig{URL: "://not a url"}, zap.NewNop(), nil)

	store := s.Store(context.Background())

	assert.Equal(t, BackendMemory, store.Name())
}

func TestSelector_ConcurrentFirstCallersShareOneStore(t *testing.T) {
	// Arrange
	var builds atomic.Int32
	s := NewSelector(SelectorConfig{URL: "redis://cache:6379"}, zap.NewNop(), nil)
	s.newValkey = func(context.Context, string) (Store, error) {
		builds.Add(1)
		time.Sleep(20 * time.Millisecond)
		return &closeTrackingStore{MemoryStore: NewMemoryStore(), name: BackendValkey}, nil
	}

	// Act
	const callers = 16
	stores := make([]Store, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i] = s.Store(context.Background())
		}(i)
	}
	wg.Wait()

	// Assert
	assert.Equal(t, int32(1), builds.Load())
	for _, st := range stores {
		assert.Same(t, stores[0], st)
	}
}

func TestSelector_ResetReselectsAndClosesOldStore(t *testing.T) {
	s := NewSelector(SelectorConfig{CloseGrace: time.Millisecond}, zap.NewNop(), nil)
	var created []*closeTrackingStore
	s.newREST = func(RESTConfig) Store {
		st := &closeTrackingStore{MemoryStore: NewMemoryStore(), name: BackendREST}
		created = append(created, st)
		return st
	}
	s.Reconfigure(SelectorConfig{RESTURL: "https://kv.example", RESTToken: "t"})

	first := s.Store(context.Background())
	first.Set(context.Background(), "orders:count", []byte("1"), time.Minute)

	s.Reset()
	second := s.Store(context.Background())

	require.Len(t, created, 2)
	assert.NotSame(t, first, second)
	_, ok := second.Get(context.Background(), "orders:count")
	assert.False(t, ok, "new generation starts empty")
	assert.Eventually(t, created[0].closed.Load, time.Second, 5*time.Millisecond)
	assert.False(t, created[1].closed.Load())
}

func TestSelector_ResetBeforeFirstUse(t *testing.T) {
	s := NewSelector(SelectorConfig{}, zap.NewNop(), nil)

	assert.NotPanics(t, s.Reset)
	assert.Equal(t, "", s.Current())
	assert.Equal(t, BackendMemory, s.Store(context.Background()).Name())
}

func TestSelector_KeyPrefix(t *testing.T) {
	s := NewSelector(SelectorConfig{KeyPrefix: "splaro"}, zap.NewNop(), nil)
	store := s.Store(context.Background())

	store.Set(context.Background(), "users:count", []byte("1"), time.Minute)
	_, ok := store.Get(context.Background(), "users:count")

	assert.True(t, ok)
	assert.Equal(t, BackendMemory, store.Name())
	require.NoError(t, s.Close())
}

func TestSelector_RetiredGenerationIsNeverHandedOut(t *testing.T) {
	// Arrange: a caller holds the generation while Reset retires it
	s := NewSelector(SelectorConfig{CloseGrace: time.Millisecond}, zap.NewNop(), nil)
	held := s.current()
	s.Reset()
	s.retire(held, 0)

	// Act
	_, ok := s.storeFrom(context.Background(), held)
	store := s.Store(context.Background())

	// Assert
	assert.False(t, ok, "retired generation must not build")
	require.NotNil(t, store)
	assert.Equal(t, BackendMemory, store.Name())
	assert.Equal(t, BackendMemory, s.Current())
}

func TestSelector_StoreAfterCloseSelectsAgain(t *testing.T) {
	s := NewSelector(SelectorConfig{}, zap.NewNop(), nil)
	held := s.current()

	require.NoError(t, s.Close())
	_, ok := s.storeFrom(context.Background(), held)
	store := s.Store(context.Background())

	assert.False(t, ok)
	require.NotNil(t, store)
	assert.Equal(t, BackendMemory, store.Name())
}

func TestSelector_ConcurrentStoreAndReset(t *testing.T) {
	s := NewSelector(SelectorConfig{CloseGrace: time.Millisecond}, zap.NewNop(), nil)

	var wg sync.WaitGroup
	var nils atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if s.Store(context.Background()) == nil {
					nils.Add(1)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				s.Reset()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(0), nils.Load())
}
