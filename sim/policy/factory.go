package policy

import (
	"fmt"
	"math/rand"

	"github.com/admission-sim/admission-sim/sim"
)

var (
	_ sim.Planner = (*NaivePlanner)(nil)
	_ sim.Planner = (*WavePlanner)(nil)
	_ sim.Planner = (*BanditPlanner)(nil)
	_ sim.Planner = (*FixedPlanner)(nil)
)

// NewPlanner creates a planner by name.
// Valid names: "naive", "wave", "bandit".
// epsilon and rng only apply to the bandit.
func NewPlanner(name string, epsilon float64, rng *rand.Rand) sim.Planner {
	switch name {
	case "naive":
		return NewNaivePlanner()
	case "wave":
		return NewWavePlanner()
	case "bandit":
		return NewBanditPlanner(epsilon, rng)
	default:
		panic(fmt.Sprintf("unknown planner %q; valid planners: [naive, wave, bandit]", name))
	}
}
