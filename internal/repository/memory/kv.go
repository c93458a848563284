// Package memory keeps key-value entries in process memory.
package memory

import (
	"context"

	"github.com/patrickmn/go-cache"

	apperrors "github.com/jwalitptl/maintenance-desk/pkg/errors"
)

// KVStore implements repository.KVStore on go-cache. Entries never
// expire; the store lives as long as the process.
type KVStore struct {
	cache *cache.Cache
}

func NewKVStore() *KVStore {
	return &KVStore{cache: cache.New(cache.NoExpiration, 0)}
}

func (s *KVStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.cache.Get(key)
	if !ok {
		return "", apperrors.ErrRecordNotFound
	}
	return value.(string), nil
}

func (s *KVStore) Set(_ context.Context, key, value string) error {
	s.cache.Set(key, value, cache.NoExpiration)
	return nil
}
