package sim

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names for partitioned random sampling. Each subsystem draws from
// its own deterministically derived stream, so changing how one sampler
// consumes randomness never shifts another subsystem's draws.
const (
	SubsystemArrivals  = "arrivals"
	SubsystemDurations = "durations"
	SubsystemRouting   = "routing"
	SubsystemPlanner   = "planner"
	SubsystemOptimizer = "optimizer"
)

// PartitionedRNG derives one RNG per subsystem from a master seed. The
// arrivals stream uses the seed directly, so the seed alone pins the patient
// population; every other subsystem folds a hash of its name into the seed.
// Not safe for concurrent use.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG over the master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the RNG of the named subsystem, creating it on first
// use. Repeated calls return the same instance.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	seed := p.seed
	if name != SubsystemArrivals {
		seed ^= fnv1a64(name)
	}
	rng := rand.New(rand.NewSource(seed))
	p.subsystems[name] = rng
	return rng
}

func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
