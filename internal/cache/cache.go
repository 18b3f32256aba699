// Package cache provides a bounded, most-recently-used ordered cache.
package cache

// Cache defines a generic cache interface
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Values returns the entries, most recently used first.
	Values() []T
	Clear()
	Size() int
}

var _ Cache[string] = (*LRUCache[string])(nil)
