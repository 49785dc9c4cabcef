// Package snapshot provides a file-backed snapshot producer for local runs.
// It stands in for the external sync job that materializes operational data.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	domain "splaro/domain/snapshot"
	apperrors "splaro/pkg/errors"
)

// ProducerConfig configures a FileProducer
type ProducerConfig struct {
	Path            string
	MaxAge          time.Duration
	RefreshInterval time.Duration
}

// FileProducer materializes snapshots from a YAML fixture of rows.
// Status writes are kept as overrides on top of the fixture and become
// visible with the next refresh.
type FileProducer struct {
	cfg    ProducerConfig
	logger *zap.Logger
	now    func() time.Time

	current atomic.Pointer[domain.Snapshot]
	stale   atomic.Bool
	group   singleflight.Group

	mu        sync.Mutex
	overrides map[string]string

	schedulerOnce sync.Once
}

// NewFileProducer creates a producer. Nothing is read until the first
// GetSnapshot or Refresh.
func NewFileProducer(cfg ProducerConfig, logger *zap.Logger) *FileProducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = 5 * time.Minute
	}
	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = time.Minute
	}
	return &FileProducer{
		cfg:       cfg,
		logger:    logger.Named("snapshot.producer"),
		now:       time.Now,
		overrides: make(map[string]string),
	}
}

// GetSnapshot returns the current snapshot, loading it on first use
func (p *FileProducer) GetSnapshot(ctx context.Context) (*domain.Snapshot, error) {
	if s := p.current.Load(); s != nil {
		return s, nil
	}
	return p.Refresh(ctx)
}

// SnapshotAgeSeconds reports how long ago s was synced
func (p *FileProducer) SnapshotAgeSeconds(s *domain.Snapshot) float64 {
	if s == nil {
		return 0
	}
	age := p.now().Sub(s.LastSyncTime).Seconds()
	if age < 0 {
		return 0
	}
	return age
}

// TriggerRefreshIfStale refreshes when the snapshot is missing, older than
// MaxAge, or marked stale by a write
func (p *FileProducer) TriggerRefreshIfStale(ctx context.Context) error {
	s := p.current.Load()
	if s != nil && !p.stale.Load() && p.now().Sub(s.LastSyncTime) < p.cfg.MaxAge {
		return nil
	}
	_, err := p.Refresh(ctx)
	return err
}

// Refresh rebuilds the snapshot from the fixture. Concurrent callers share
// one load and its result.
func (p *FileProducer) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, shared := p.group.Do("refresh", func() (interface{}, error) {
		return p.load()
	})
	if err != nil {
		return nil, err
	}
	if shared {
		p.logger.Debug("Joined in-flight snapshot refresh")
	}
	return v.(*domain.Snapshot), nil
}

func (p *FileProducer) load() (*domain.Snapshot, error) {
	start := p.now()

	file, err := os.Open(p.cfg.Path)
	if err != nil {
		return nil, apperrors.NewUnavailableError("snapshot").
			WithCode(apperrors.CodeSnapshotUnavailable).
			WithCause(err)
	}
	defer file.Close()

	var data domain.Data
	if err := yaml.NewDecoder(file).Decode(&data); err != nil && !errors.Is(err, io.EOF) {
		return nil, apperrors.NewUnavailableError("snapshot").
			WithCode(apperrors.CodeSnapshotUnavailable).
			WithCause(fmt.Errorf("decode %s: %w", p.cfg.Path, err))
	}

	p.mu.Lock()
	for i := range data.Orders {
		if status, ok := p.overrides[domain.NormalizeKey(data.Orders[i].ID)]; ok {
			data.Orders[i].Status = status
		}
	}
	p.stale.Store(false)
	p.mu.Unlock()

	s := domain.Build(data, p.now())
	p.current.Store(s)

	orders, users, subs := s.Counts()
	p.logger.Info("Snapshot refreshed",
		zap.String("generation", s.Generation),
		zap.Int("orders", orders),
		zap.Int("users", users),
		zap.Int("subscriptions", subs),
		zap.Duration("duration", p.now().Sub(start)))
	return s, nil
}

// StartScheduler refreshes on a ticker until ctx is done. Later calls are no-ops.
func (p *FileProducer) StartScheduler(ctx context.Context) {
	p.schedulerOnce.Do(func() {
		go p.schedule(ctx)
	})
}

func (p *FileProducer) schedule(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.RefreshInterval)
	defer ticker.Stop()

	p.logger.Info("Snapshot scheduler started", zap.Duration("interval", p.cfg.RefreshInterval))
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Snapshot scheduler stopped")
			return
		case <-ticker.C:
			if _, err := p.Refresh(ctx); err != nil {
				p.logger.Warn("Scheduled snapshot refresh failed", zap.Error(err))
			}
		}
	}
}

// UpdateOrderStatus records a status change for an order in the current
// snapshot and marks the snapshot stale
func (p *FileProducer) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	s, err := p.GetSnapshot(ctx)
	if err != nil {
		return err
	}
	if _, ok := s.OrderByID(orderID); !ok {
		return apperrors.NewNotFoundError("order").
			WithCode(apperrors.CodeOrderNotFound).
			WithDetail("orderId", orderID)
	}

	p.mu.Lock()
	p.overrides[domain.NormalizeKey(orderID)] = status
	p.stale.Store(true)
	p.mu.Unlock()

	p.logger.Debug("Order status override recorded",
		zap.String("order_id", orderID),
		zap.String("status", status))
	return nil
}
