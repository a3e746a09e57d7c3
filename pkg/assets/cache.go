package assets

import (
	"errors"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Cache stores downloaded texture bytes keyed by source URL so restarts do not hit the
// network again.
type Cache struct {
	db *badger.DB

	mu     sync.Mutex
	hits   int
	misses int
}

// OpenCache opens (or creates) a badger store under path.
func OpenCache(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path)
	// Decrease logging verbosity
	opts.Logger = nil
	return openCache(opts)
}

// OpenMemoryCache returns a cache that lives only as long as the process.
func OpenMemoryCache() (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openCache(opts)
}

func openCache(opts badger.Options) (*Cache, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the bytes stored under key, or nil if there are none or they expired.
func (c *Cache) Get(key string) ([]byte, error) {
	var val []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		c.count(false)
		return nil, nil
	}
	if err == nil {
		c.count(true)
	}
	return val, err
}

// Put stores val under key. A zero ttl keeps it forever.
func (c *Cache) Put(key string, val []byte, ttl time.Duration) error {
	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), val)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
}

// Delete drops key. Deleting a missing key is not an error.
func (c *Cache) Delete(key string) error {
	return c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// ForEach visits every live entry in key order.
func (c *Cache) ForEach(fn func(key string, size int) error) error {
	return c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			if err := fn(string(item.KeyCopy(nil)), int(item.ValueSize())); err != nil {
				return err
			}
		}
		return nil
	})
}

// Stats returns the number of Get hits and misses since the cache was opened.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}
