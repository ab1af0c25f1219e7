package app

import "math/rand"

// sampleQuestionIDs picks up to n distinct IDs uniformly at random without
// replacement. The input slice is never modified.
func sampleQuestionIDs(rnd *rand.Rand, ids []int64, n int) []int64 {
	pool := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		pool = append(pool, id)
	}

	if n <= 0 || n > len(pool) {
		n = len(pool)
	}
	// partial Fisher-Yates: only the first n slots need to be settled
	for i := 0; i < n; i++ {
		j := i + rnd.Intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
