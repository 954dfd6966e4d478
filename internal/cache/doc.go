// Package cache provides a small generic LRU cache.
//
//	handles := cache.New[fontKey, *Font](64)
//	f := handles.GetOrCreate(key, func() *Font { return open(key) })
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
