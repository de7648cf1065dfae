package kvs

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"github.com/google/uuid"
)

// CatalogCacheKey scopes a cached catalog entity the way spec §4.2
// describes: namespace, database, table, the entity subkind
// ("table", "field", "index", ...), and the catalog version uuid the
// entry was read under, so a DEFINE/REMOVE that bumps the version
// never serves a stale cached read.
type CatalogCacheKey struct {
	NS, DB, Table, Subkind string
	Version                uuid.UUID
}

func (k CatalogCacheKey) string() string {
	return fmt.Sprintf("%s/%s/%s/%s@%s", k.NS, k.DB, k.Table, k.Subkind, k.Version)
}

// CatalogCache is the scoped LRU cache a Transaction consults before
// re-reading a catalog entity from the engine (spec §4.2). It holds
// opaque values; internal/catalog owns decoding.
type CatalogCache struct {
	lru *lru.Cache
}

// NewCatalogCache creates a cache holding up to size entries.
func NewCatalogCache(size int) *CatalogCache {
	c, _ := lru.New(size)
	return &CatalogCache{lru: c}
}

func (c *CatalogCache) Get(key CatalogCacheKey) (any, bool) {
	return c.lru.Get(key.string())
}

func (c *CatalogCache) Put(key CatalogCacheKey, value any) {
	c.lru.Add(key.string(), value)
}

// InvalidateTable drops every cached entry whose key currently lives
// in the cache for the given (ns, db, table) regardless of version,
// used when a DEFINE/REMOVE changes that table's catalog version.
func (c *CatalogCache) InvalidateTable(ns, db, table string) {
	prefix := fmt.Sprintf("%s/%s/%s/", ns, db, table)
	for _, k := range c.lru.Keys() {
		ks, ok := k.(string)
		if !ok {
			continue
		}
		if len(ks) >= len(prefix) && ks[:len(prefix)] == prefix {
			c.lru.Remove(k)
		}
	}
}
