package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/rs/zerolog/log"
)

// ErrKeyExists is returned by PutIfAbsent when the key is already set.
var ErrKeyExists = errors.New("key already exists")

type DBMetrics struct {
	PutCount         int64
	GetCount         int64
	DeleteCount      int64
	GetByPrefixCount int64
	Errors           int64
}

func (s *DBStorage) recordMetric(name string) {
	switch name {
	case "put":
		atomic.AddInt64(&s.metrics.PutCount, 1)
	case "get":
		atomic.AddInt64(&s.metrics.GetCount, 1)
	case "delete":
		atomic.AddInt64(&s.metrics.DeleteCount, 1)
	case "prefix":
		atomic.AddInt64(&s.metrics.GetByPrefixCount, 1)
	}
}

func (s *DBStorage) logOperation(op string, key string, err error) {
	if err != nil {
		log.Error().Err(err).Str("op", op).Str("key", key).Msg("BadgerDB operation failed")
		atomic.AddInt64(&s.metrics.Errors, 1)
	}
}

// DBStorage is a key-value store backed by BadgerDB. Values written through
// PutObject are JSON.
type DBStorage struct {
	db      *badger.DB
	config  BadgerDBConfig
	metrics DBMetrics

	stopGC    chan struct{}
	closeOnce sync.Once
}

// NewDBStorage opens a BadgerDB at config.DataDir/badgerdb, or in memory.
func NewDBStorage(config BadgerDBConfig) (*DBStorage, error) {
	opts := badger.DefaultOptions(filepath.Join(config.DataDir, "badgerdb"))
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	if config.DisableLogging {
		opts.Logger = nil
	}
	opts.SyncWrites = config.SyncWrites

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	s := &DBStorage{
		db:     db,
		config: config,
		stopGC: make(chan struct{}),
	}
	if config.GCInterval > 0 && !config.InMemory {
		go s.startGCRoutine(time.Duration(config.GCInterval) * time.Second)
	}
	return s, nil
}

func (s *DBStorage) startGCRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			if err := s.RunGC(); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				log.Warn().Err(err).Msg("BadgerDB GC failed")
			}
		}
	}
}

// Close stops GC and closes the database
func (s *DBStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopGC)
		err = s.db.Close()
	})
	return err
}

// Metrics returns a snapshot of the operation counters.
func (s *DBStorage) Metrics() DBMetrics {
	return DBMetrics{
		PutCount:         atomic.LoadInt64(&s.metrics.PutCount),
		GetCount:         atomic.LoadInt64(&s.metrics.GetCount),
		DeleteCount:      atomic.LoadInt64(&s.metrics.DeleteCount),
		GetByPrefixCount: atomic.LoadInt64(&s.metrics.GetByPrefixCount),
		Errors:           atomic.LoadInt64(&s.metrics.Errors),
	}
}

// Put stores a key-value pair in the database
func (s *DBStorage) Put(key string, value []byte) error {
	s.recordMetric("put")
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	s.logOperation("put", key, err)
	return err
}

// PutIfAbsent stores value only when key is not set yet. The check and the
// write happen in one transaction.
func (s *DBStorage) PutIfAbsent(key string, value []byte) error {
	s.recordMetric("put")
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(key))
		if err == nil {
			return ErrKeyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set([]byte(key), value)
	})
	if !errors.Is(err, ErrKeyExists) {
		s.logOperation("put", key, err)
	}
	return err
}

// Get retrieves a value by key. A missing key yields a nil value and no error.
func (s *DBStorage) Get(key string) ([]byte, error) {
	s.recordMetric("get")

	var valCopy []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		valCopy, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		s.logOperation("get", key, err)
		return nil, fmt.Errorf("failed to get value: %w", err)
	}
	return valCopy, nil
}

// Delete removes a key and reports whether it existed.
func (s *DBStorage) Delete(key string) (bool, error) {
	s.recordMetric("delete")

	existed := false
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		existed = true
		return txn.Delete([]byte(key))
	})
	s.logOperation("delete", key, err)
	return existed, err
}

// GetByPrefix retrieves all key-value pairs with a given prefix
func (s *DBStorage) GetByPrefix(prefix string) (map[string][]byte, error) {
	s.recordMetric("prefix")

	result := make(map[string][]byte)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefixBytes := []byte(prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			result[string(item.KeyCopy(nil))] = val
		}
		return nil
	})
	if err != nil {
		s.logOperation("prefix", prefix, err)
		return nil, fmt.Errorf("failed to get values by prefix: %w", err)
	}
	return result, nil
}

// PutObject serializes and stores an object in the database
func (s *DBStorage) PutObject(key string, obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to marshal object: %w", err)
	}
	return s.Put(key, data)
}

// GetObject retrieves and deserializes an object. found is false when the
// key is missing.
func (s *DBStorage) GetObject(key string, obj interface{}) (found bool, err error) {
	data, err := s.Get(key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, obj); err != nil {
		return true, fmt.Errorf("failed to unmarshal object: %w", err)
	}
	return true, nil
}

// UpdateObject reads, mutates and writes back a JSON object in one
// transaction. found is false when the key is missing.
func (s *DBStorage) UpdateObject(key string, obj interface{}, mutate func() error) (found bool, err error) {
	err = s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		found = true
		val, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(val, obj); err != nil {
			return fmt.Errorf("failed to unmarshal object: %w", err)
		}
		if err := mutate(); err != nil {
			return err
		}
		data, err := json.Marshal(obj)
		if err != nil {
			return fmt.Errorf("failed to marshal object: %w", err)
		}
		return txn.Set([]byte(key), data)
	})
	s.logOperation("update", key, err)
	return found, err
}

// RunGC runs garbage collection on the database
func (s *DBStorage) RunGC() error {
	return s.db.RunValueLogGC(0.5) // Clean up if at least 50% can be discarded
}
