// Package cache provides the bounded LRU cache used to keep compiled
// shader modules across pipeline rebuilds.
//
//	c := cache.New[string, []uint32](8)
//	words, err := c.GetOrCreate(src, func() ([]uint32, error) {
//	    return compile(src)
//	})
//
// Failed creations are not cached, so a later call retries.
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
