package identity

import (
	"fmt"
	"hash/fnv"
	"math/rand/v2"
)

// PickUserAgent deterministically selects a user agent for address.
// Returns "" when the pool is empty.
func PickUserAgent(address string, pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(address))
	return pool[h.Sum32()%uint32(len(pool))]
}

// GenerateUserAgents produces n desktop Chrome user agents from seed.
// The same seed yields the same list.
func GenerateUserAgents(n int, seed uint64) []string {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]string, n)
	for i := range out {
		major := 70 + rng.IntN(50)
		build := rng.IntN(5000)
		out[i] = fmt.Sprintf("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/%d.0.%d.0 Safari/537.36", major, build)
	}
	return out
}
