package tokens

import (
	"hash/fnv"
	"sync"
)

// defaultCacheSize bounds the memo map before it is cleared wholesale.
// Fragments are immutable so a full clear only costs recomputation.
const defaultCacheSize = 4096

// Cached wraps a Counter with a bounded memo keyed by content hash.
// Safe for concurrent use.
func Cached(inner Counter, maxEntries int) Counter {
	if maxEntries <= 0 {
		maxEntries = defaultCacheSize
	}

	var mu sync.Mutex
	memo := make(map[uint64]int, maxEntries)

	return func(text string) int {
		h := fnv.New64a()
		_, _ = h.Write([]byte(text))
		key := h.Sum64()

		mu.Lock()
		if n, ok := memo[key]; ok {
			mu.Unlock()
			return n
		}
		mu.Unlock()

		n := inner(text)

		mu.Lock()
		if len(memo) >= maxEntries {
			memo = make(map[uint64]int, maxEntries)
		}
		memo[key] = n
		mu.Unlock()

		return n
	}
}
