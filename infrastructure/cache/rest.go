package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"splaro/pkg/observability"
)

const maxRESTResponseBytes = 8 << 20

// RESTConfig configures the HTTP key/value endpoint
type RESTConfig struct {
	BaseURL string
	Token   string

	// Timeout bounds a single attempt
	Timeout        time.Duration
	MaxAttempts    uint
	InitialBackoff time.Duration

	// Breaker opens after this many consecutive failed operations
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	HTTPClient *http.Client
}

// DefaultRESTConfig returns the retry and breaker defaults
func DefaultRESTConfig(baseURL, token string) RESTConfig {
	return RESTConfig{
		BaseURL:         baseURL,
		Token:           token,
		Timeout:         3 * time.Second,
		MaxAttempts:     3,
		InitialBackoff:  150 * time.Millisecond,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// RESTStore talks to an Upstash-style REST key/value endpoint:
// GET {base}/get/{key}, POST {base}/set/{key}?EX={seconds}, POST {base}/del/{key}.
type RESTStore struct {
	cfg     RESTConfig
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
	metrics *observability.Collector
}

type restResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error,omitempty"`
}

// NewRESTStore creates a REST-backed store
func NewRESTStore(cfg RESTConfig, logger *zap.Logger, metrics *observability.Collector) *RESTStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	defaults := DefaultRESTConfig(cfg.BaseURL, cfg.Token)
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaults.InitialBackoff
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaults.BreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = defaults.BreakerTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	s := &RESTStore{
		cfg:     cfg,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		logger:  logger.Named("cache.rest"),
		metrics: metrics,
	}

	s.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "cache-rest",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn("Cache endpoint circuit state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})

	return s
}

func (s *RESTStore) Get(ctx context.Context, key string) ([]byte, bool) {
	result, err := s.call(ctx, "get", http.MethodGet, "/get/"+url.PathEscape(key), nil)
	if err != nil {
		s.fail("get", key, err)
		return nil, false
	}

	value, ok := decodeResult(result)
	if !ok {
		s.metrics.RecordBackendOp(BackendREST, "get", "miss")
		return nil, false
	}
	s.metrics.RecordBackendOp(BackendREST, "get", "hit")
	return value, true
}

func (s *RESTStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	seconds := int64(clampTTL(ttl) / time.Second)
	path := "/set/" + url.PathEscape(key) + "?EX=" + strconv.FormatInt(seconds, 10)
	if _, err := s.call(ctx, "set", http.MethodPost, path, value); err != nil {
		s.fail("set", key, err)
		return
	}
	s.metrics.RecordBackendOp(BackendREST, "set", "ok")
}

func (s *RESTStore) Del(ctx context.Context, key string) {
	if _, err := s.call(ctx, "del", http.MethodPost, "/del/"+url.PathEscape(key), nil); err != nil {
		s.fail("del", key, err)
		return
	}
	s.metrics.RecordBackendOp(BackendREST, "del", "ok")
}

func (s *RESTStore) Name() string { return BackendREST }

func (s *RESTStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *RESTStore) call(ctx context.Context, op, method, path string, body []byte) (json.RawMessage, error) {
	endpoint := s.baseURL + path

	res, err := s.breaker.Execute(func() (interface{}, error) {
		return backoff.Retry(ctx,
			func() (json.RawMessage, error) {
				return s.attempt(ctx, method, endpoint, body)
			},
			backoff.WithBackOff(s.newBackOff()),
			backoff.WithMaxTries(s.cfg.MaxAttempts),
			backoff.WithNotify(func(err error, wait time.Duration) {
				s.metrics.RecordRESTRetry()
				s.logger.Debug("Retrying cache request",
					zap.String("operation", op),
					zap.Duration("wait", wait),
					zap.Error(err))
			}),
		)
	})
	if err != nil {
		return nil, err
	}
	return res.(json.RawMessage), nil
}

func (s *RESTStore) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.InitialBackoff
	b.RandomizationFactor = 0
	b.Multiplier = 2
	return b
}

func (s *RESTStore) attempt(ctx context.Context, method, endpoint string, body []byte) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.Token)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxRESTResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("cache endpoint returned status %d", resp.StatusCode)
	}

	var out restResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if out.Error != "" {
		return nil, backoff.Permanent(errors.New(out.Error))
	}
	return out.Result, nil
}

func (s *RESTStore) fail(op, key string, err error) {
	outcome := "error"
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		outcome = "circuit_open"
	}
	s.metrics.RecordBackendOp(BackendREST, op, outcome)
	s.logger.Warn("Cache request failed",
		zap.String("operation", op),
		zap.String("key", key),
		zap.Error(err))
}

// decodeResult unwraps the "result" field. Null or empty means absent.
// String results carry the stored bytes; anything else is passed through raw.
func decodeResult(raw json.RawMessage) ([]byte, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}

	var str string
	if err := json.Unmarshal(trimmed, &str); err == nil {
		if str == "" {
			return nil, false
		}
		return []byte(str), true
	}
	return []byte(trimmed), true
}
