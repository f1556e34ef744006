package opt

import (
	"math"

	"github.com/admission-sim/admission-sim/sim"
	"github.com/admission-sim/admission-sim/sim/policy"
)

// SimulationEvaluator scores a candidate schedule by replaying it with a
// FixedPlanner over a short simulation and returning the waiting time for
// admission. When overrides is non-nil the run uses mined activity durations.
// A failing run (a broken schedule) scores +Inf so the search discards it.
func SimulationEvaluator(seed int64, horizonHours float64, overrides sim.DurationOverrides) Evaluator {
	return func(admissions map[int]float64) float64 {
		problem, err := newProblem(seed, overrides)
		if err != nil {
			return math.Inf(1)
		}
		s := sim.NewSimulator(problem, policy.NewFixedPlanner(admissions))
		report, err := s.Run(horizonHours)
		if err != nil {
			return math.Inf(1)
		}
		return report.WaitingTimeForAdmission
	}
}

func newProblem(seed int64, overrides sim.DurationOverrides) (sim.Problem, error) {
	if overrides != nil {
		return sim.NewCalibratedProblem(seed, overrides)
	}
	return sim.NewHealthcareProblem(seed)
}
