package worker

import (
	"fmt"
	"math/rand/v2"
)

// PickRefCode chooses one code uniformly from pool, falling back to def, then FallbackRefCode.
func PickRefCode(pool []string, def string, intn func(int) int) string {
	if len(pool) > 0 {
		if intn == nil {
			intn = rand.IntN
		}
		if code := pool[intn(len(pool))]; code != "" {
			return code
		}
	}
	if def != "" {
		return def
	}
	return FallbackRefCode
}

// displayName returns user_ followed by six random digits.
func displayName() string {
	return fmt.Sprintf("user_%06d", rand.IntN(1_000_000))
}
