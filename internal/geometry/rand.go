package geometry

import (
	"math/rand/v2"
	"time"
)

// NewRand returns the PCG source used for random orders and reshuffles. The
// same seed yields the same sequence on every surface; seed 0 seeds from the
// clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
