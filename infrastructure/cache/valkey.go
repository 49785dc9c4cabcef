package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"

	"splaro/pkg/observability"
)

const (
	valkeyDialTimeout = 2 * time.Second
	valkeyPingTimeout = 2 * time.Second
)

// ValkeyStore is backed by a Valkey/Redis server
type ValkeyStore struct {
	client  valkey.Client
	logger  *zap.Logger
	metrics *observability.Collector
}

// NewValkeyStore connects to connURL (redis://, rediss:// or valkey://) and
// verifies the connection with PING.
func NewValkeyStore(ctx context.Context, connURL string, logger *zap.Logger, metrics *observability.Collector) (*ValkeyStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opt, err := valkey.ParseURL(connURL)
	if err != nil {
		return nil, fmt.Errorf("parse valkey url: %w", err)
	}
	// client-side caching needs RESP3 server support; plain GET/SET is enough here
	opt.DisableCache = true
	opt.Dialer.Timeout = valkeyDialTimeout

	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("create valkey client: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, valkeyPingTimeout)
	defer cancel()
	if err := client.Do(pingCtx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("valkey ping failed: %w", err)
	}

	return &ValkeyStore{
		client:  client,
		logger:  logger.Named("cache.valkey"),
		metrics: metrics,
	}, nil
}

func (v *ValkeyStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := v.client.Do(ctx, v.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			v.metrics.RecordBackendOp(BackendValkey, "get", "miss")
			return nil, false
		}
		v.fail("get", key, err)
		return nil, false
	}
	v.metrics.RecordBackendOp(BackendValkey, "get", "hit")
	return data, true
}

func (v *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	cmd := v.client.B().Set().Key(key).Value(string(value)).Px(clampTTL(ttl)).Build()
	if err := v.client.Do(ctx, cmd).Error(); err != nil {
		v.fail("set", key, err)
		return
	}
	v.metrics.RecordBackendOp(BackendValkey, "set", "ok")
}

func (v *ValkeyStore) Del(ctx context.Context, key string) {
	if err := v.client.Do(ctx, v.client.B().Del().Key(key).Build()).Error(); err != nil {
		v.fail("del", key, err)
		return
	}
	v.metrics.RecordBackendOp(BackendValkey, "del", "ok")
}

func (v *ValkeyStore) Name() string { return BackendValkey }

func (v *ValkeyStore) Close() error {
	v.client.Close()
	return nil
}

func (v *ValkeyStore) fail(op, key string, err error) {
	v.metrics.RecordBackendOp(BackendValkey, op, "error")
	v.logger.Warn("Valkey command failed",
		zap.String("operation", op),
		zap.String("key", key),
		zap.Error(err))
}
