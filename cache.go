package main

import (
	"encoding/json"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionCache holds API reads for the lifetime of a login.
// Entries are populated on first read and dropped by Invalidate or, on logout, Clear.
type SessionCache struct {
	db *badger.DB
}

// OpenSessionCache opens the cache under dir. An empty dir keeps it in memory.
// Badger holds a lock on dir until Close, so only one process can have it open.
func OpenSessionCache(dir string, level zerolog.Level) (*SessionCache, error) {
	options := badger.DefaultOptions(dir).WithLogger(badgerLogger{level: level})
	if dir == "" {
		options = options.WithInMemory(true)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open session cache")
	}
	return &SessionCache{db: db}, nil
}

func (c *SessionCache) Close() error {
	return c.db.Close()
}

// Load reads key into out, reporting whether it was present.
func (c *SessionCache) Load(key string, out interface{}) (bool, error) {
	var found bool
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))

		// Check if key was found
		if err == badger.ErrKeyNotFound {
			log.Debug().Str("key", key).Msg("Cache Miss")
			return nil
		} else if err != nil {
			return errors.Wrap(err, "failed to get cache entry")
		}

		return item.Value(func(val []byte) error {
			if err := json.Unmarshal(val, out); err != nil {
				return errors.Wrap(err, "failed to unmarshal cache entry")
			}
			found = true
			return nil
		})
	})
	return found, err
}

func (c *SessionCache) Store(key string, value interface{}) error {
	return c.db.Update(func(txn *badger.Txn) error {
		marshalled, err := json.Marshal(value)
		if err != nil {
			return errors.Wrap(err, "failed to marshal cache entry")
		}

		log.Debug().Str("key", key).Msg("Saving to Cache")
		return txn.Set([]byte(key), marshalled)
	})
}

func (c *SessionCache) Invalidate(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Clear drops every entry. Called on logout.
func (c *SessionCache) Clear() error {
	return errors.Wrap(c.db.DropAll(), "failed to clear session cache")
}

// ClearSessionCache empties the cache under dir, holding its lock only for the call.
// Long-running commands use it so other commands can open the cache meanwhile.
func ClearSessionCache(dir string, level zerolog.Level) error {
	cache, err := OpenSessionCache(dir, level)
	if err != nil {
		return err
	}
	defer cache.Close()
	return cache.Clear()
}

// Cached returns the value stored under key, calling fetch and storing its result on a miss.
// Cache failures are logged and never fail the read; a nil cache always fetches.
func Cached[T any](c *SessionCache, key string, fetch func() (T, error)) (T, error) {
	if c == nil {
		return fetch()
	}

	var value T
	found, err := c.Load(key, &value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to load from cache")
	}
	if found {
		return value, nil
	}

	value, err = fetch()
	if err != nil {
		return value, err
	}

	if err := c.Store(key, value); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to save to cache")
	}
	return value, nil
}
