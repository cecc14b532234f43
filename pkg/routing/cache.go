package routing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/buntdb"

	"campus_router/pkg/graph"
)

// Cache memoizes contracted routes by building pair in an in-memory buntdb
// store. The map is immutable after load, so entries never go stale; a TTL
// only bounds memory on long-running servers.
type Cache struct {
	db  *buntdb.DB
	ttl time.Duration
}

// NewCache opens an empty in-memory cache. ttl <= 0 keeps entries forever.
func NewCache(ttl time.Duration) (*Cache, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening route cache: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

func cacheKey(from, to graph.BuildingID) string {
	return fmt.Sprintf("route:%d:%d", from, to)
}

// Get returns the cached route for from → to. Each call returns a fresh copy.
func (c *Cache) Get(from, to graph.BuildingID) (*Route, bool, error) {
	var raw string
	err := c.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(cacheKey(from, to))
		if err != nil {
			return err
		}
		raw = v
		return nil
	})
	if errors.Is(err, buntdb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var r Route
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, false, fmt.Errorf("decoding cached route %d→%d: %w", from, to, err)
	}
	return &r, true, nil
}

// Put stores r under its endpoints.
func (c *Cache) Put(r *Route) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	var opts *buntdb.SetOptions
	if c.ttl > 0 {
		opts = &buntdb.SetOptions{Expires: true, TTL: c.ttl}
	}
	return c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(cacheKey(r.From, r.To), string(data), opts)
		return err
	})
}

// Len returns the number of cached routes.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.db.View(func(tx *buntdb.Tx) error {
		var err error
		n, err = tx.Len()
		return err
	})
	return n, err
}

// Close releases the store.
func (c *Cache) Close() error {
	return c.db.Close()
}
