// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a small generic LRU cache with a soft limit.
//
//	c := cache.New[string, int](100)
//	c.Set("key", 42)
//	value, ok := c.Get("key")
//
// When an insert pushes the cache past its limit, the least recently used
// quarter of the entries is evicted. A limit of 0 means unlimited.
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
