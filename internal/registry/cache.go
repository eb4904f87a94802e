package registry

import (
	"slices"

	"github.com/flowsilicon/keyconsole/internal/keys"
)

// Cache is the local copy of the key registry.
type Cache struct {
	records   []keys.Record
	index     map[string]int
	selection *Selection
	loaded    bool

	// issued is the last stamp handed out by Begin
	issued uint64
	// applied is the stamp of the snapshot currently held
	applied uint64
	// floor is the last stamp issued before the most recent acknowledged mutation
	floor uint64
}

// NewCache returns an empty cache with an empty selection.
func NewCache() *Cache {
	return &Cache{
		index:     make(map[string]int),
		selection: NewSelection(),
	}
}

// Begin stamps a refresh that is about to fetch a snapshot.
func (c *Cache) Begin() uint64 {
	c.issued++
	return c.issued
}

// Acknowledge records that the backend confirmed a mutation. Snapshots from
// refreshes begun before this call are rejected by Replace.
func (c *Cache) Acknowledge() {
	c.floor = c.issued
}

// Stale reports whether a snapshot stamped with stamp would be rejected.
func (c *Cache) Stale(stamp uint64) bool {
	return stamp <= c.floor || stamp < c.applied
}

// Replace applies a fetched snapshot. It returns false, leaving the cache
// untouched, when the stamp is stale.
func (c *Cache) Replace(stamp uint64, fetched []keys.Record) bool {
	if c.Stale(stamp) {
		return false
	}

	enabled, disabled := keys.Partition(fetched)
	records := make([]keys.Record, 0, len(fetched))
	records = append(records, enabled...)
	records = append(records, disabled...)

	index := make(map[string]int, len(records))
	for i := range records {
		index[records[i].ID] = i
	}
	c.selection.Retain(func(id string) bool {
		_, ok := index[id]
		return ok
	})
	for i := range records {
		records[i].Selected = c.selection.Has(records[i].ID)
	}

	c.records = records
	c.index = index
	c.applied = stamp
	c.loaded = true
	return true
}

// Loaded reports whether any snapshot has been applied.
func (c *Cache) Loaded() bool {
	return c.loaded
}

// Len returns the number of cached records.
func (c *Cache) Len() int {
	return len(c.records)
}

// Records returns a copy of the cached records, enabled first, in fetch order.
func (c *Cache) Records() []keys.Record {
	return slices.Clone(c.records)
}

// Get returns the record with the given identifier.
func (c *Cache) Get(id string) (keys.Record, bool) {
	i, ok := c.index[id]
	if !ok {
		return keys.Record{}, false
	}
	return c.records[i], true
}

// Contains reports whether id is in the cache.
func (c *Cache) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

// Toggle flips the selection of a cached record. ok is false when id is not cached.
func (c *Cache) Toggle(id string) (selected, ok bool) {
	i, ok := c.index[id]
	if !ok {
		return false, false
	}
	selected = c.selection.Toggle(id)
	c.records[i].Selected = selected
	return selected, true
}

// Select overwrites the selection with ids.
func (c *Cache) Select(ids []string) {
	c.selection.Set(ids)
	for i := range c.records {
		c.records[i].Selected = c.selection.Has(c.records[i].ID)
	}
}

// SelectedIDs returns the identifiers of cached records flagged as selected,
// in cache order.
func (c *Cache) SelectedIDs() []string {
	var out []string
	for _, r := range c.records {
		if r.Selected {
			out = append(out, r.ID)
		}
	}
	return out
}

// Selection returns the selected identifiers in selection order, including
// identifiers selected by the backend that have not been fetched yet.
func (c *Cache) Selection() []string {
	return c.selection.IDs()
}
