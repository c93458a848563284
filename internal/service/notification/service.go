// Package notification keeps the durable notification log: a
// newest-first sequence of records that survives reloads until removed.
package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/maintenance-desk/internal/model"
	"github.com/jwalitptl/maintenance-desk/internal/repository"
	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
	"github.com/jwalitptl/maintenance-desk/pkg/logger"
	"github.com/jwalitptl/maintenance-desk/pkg/metrics"
)

const keyPrefix = "notifications"

// StorageKey is the KV key holding the log of one user.
func StorageKey(userID string) string {
	return keyPrefix + ":" + userID
}

type Service interface {
	Add(ctx context.Context, title, description string) (model.NotificationRecord, error)
	Remove(ctx context.Context, id uuid.UUID) error
	List() []model.NotificationRecord
	Reset(ctx context.Context) error
}

type service struct {
	kv      repository.KVStore
	key     string
	logger  *logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time

	mu      sync.Mutex
	records []model.NotificationRecord
}

// NewService hydrates the log stored under key. A missing, unreadable or
// corrupt value starts an empty log.
func NewService(ctx context.Context, kv repository.KVStore, key string, logger *logger.Logger, metrics *metrics.Metrics) Service {
	s := &service{
		kv:      kv,
		key:     key,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
		records: []model.NotificationRecord{},
	}
	s.hydrate(ctx)
	return s
}

func (s *service) hydrate(ctx context.Context) {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Error(err, "Failed to read notification log, starting empty", "key", s.key)
		}
		return
	}

	var records []model.NotificationRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		s.logger.Warn("Corrupt notification log, starting empty", "key", s.key, "error", err.Error())
		return
	}
	if records != nil {
		s.records = records
	}
}

// Add prepends a new record and persists the log before returning. If the
// write fails the record is not kept and a persistence error is returned.
func (s *service) Add(ctx context.Context, title, description string) (model.NotificationRecord, error) {
	record := model.NotificationRecord{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]model.NotificationRecord, 0, len(s.records)+1)
	next = append(next, record)
	next = append(next, s.records...)

	if err := s.persist(ctx, next); err != nil {
		return model.NotificationRecord{}, err
	}
	s.records = next
	return record, nil
}

// Remove deletes the record with id. Unknown ids are ignored.
func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}

	next := make([]model.NotificationRecord, 0, len(s.records)-1)
	next = append(next, s.records[:idx]...)
	next = append(next, s.records[idx+1:]...)

	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// List returns a copy of the log, newest first.
func (s *service) List() []model.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.NotificationRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Reset empties the log.
func (s *service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := []model.NotificationRecord{}
	if err := s.persist(ctx, next); err != nil {
		return err
	}
	s.records = next
	return nil
}

func (s *service) persist(ctx context.Context, records []model.NotificationRecord) error {
	payload, err := json.Marshal(records)
	if err != nil {
		s.metrics.NotificationWrites.WithLabelValues("error").Inc()
		return apperrors.NewPersistence(s.key, err)
	}

	if err := s.kv.Set(ctx, s.key, string(payload)); err != nil {
		s.metrics.NotificationWrites.WithLabelValues("error").Inc()
		s.logger.Error(err, "Failed to persist notification log", "key", s.key)
		return apperrors.NewPersistence(s.key, err)
	}

	s.metrics.NotificationWrites.WithLabelValues("success").Inc()
	return nil
}
