package policy

import (
	"github.com/admission-sim/admission-sim/sim"
)

// FixedPlanner admits each case at a predetermined hour. It is the execution
// vehicle for offline-optimized admission schedules: the optimizer searches
// over per-case hours and a FixedPlanner replays a candidate inside a
// simulation run. Cases without an entry fall back to now+24, and staffing is
// left untouched.
type FixedPlanner struct {
	Reporting
	admissions map[int]float64
}

// NewFixedPlanner returns a planner replaying the given case-to-hour
// schedule. The map is used as-is, not copied.
func NewFixedPlanner(admissions map[int]float64) *FixedPlanner {
	return &FixedPlanner{admissions: admissions}
}

// Plan admits every plannable case at its scheduled hour, never earlier than
// the 24-hour lead the simulation enforces.
func (p *FixedPlanner) Plan(toPlan, toReplan []int, now float64) []sim.PlannedAdmission {
	out := make([]sim.PlannedAdmission, 0, len(toPlan))
	for _, id := range toPlan {
		hour, ok := p.admissions[id]
		if !ok || hour < now+24 {
			hour = now + 24
		}
		out = append(out, sim.PlannedAdmission{CaseID: id, Hour: hour})
	}
	return out
}

// Schedule leaves staffing levels alone.
func (p *FixedPlanner) Schedule(now float64) []sim.ResourceAdjustment {
	return nil
}
