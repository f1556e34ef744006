package policy

import (
	"math"

	"github.com/admission-sim/admission-sim/sim"
	"github.com/admission-sim/admission-sim/sim/calendar"
)

// NaivePlanner is the reference baseline: every new case is admitted 48 hours
// after it becomes plannable, already-planned cases are moved forward once to
// 24 hours out, and weekday staffing alternates between full day levels and a
// minimal night crew. The baseline KPIs in sim.Baseline come from a year-long
// run of this planner.
type NaivePlanner struct {
	Reporting
	replanned map[int]struct{}
}

// NewNaivePlanner returns the baseline planner.
func NewNaivePlanner() *NaivePlanner {
	return &NaivePlanner{replanned: make(map[int]struct{})}
}

// Plan admits new cases at now+48 and moves each planned case once to now+24.
func (p *NaivePlanner) Plan(toPlan, toReplan []int, now float64) []sim.PlannedAdmission {
	out := make([]sim.PlannedAdmission, 0, len(toPlan)+len(toReplan))
	planAt := math.Round(now + 48)
	replanAt := math.Round(now + 24 + 0.5)
	for _, id := range toPlan {
		out = append(out, sim.PlannedAdmission{CaseID: id, Hour: planAt})
	}
	for _, id := range toReplan {
		if _, done := p.replanned[id]; done {
			continue
		}
		out = append(out, sim.PlannedAdmission{CaseID: id, Hour: replanAt})
		p.replanned[id] = struct{}{}
	}
	return out
}

// Schedule sets full staffing a week ahead at 08:00 on weekdays and cuts
// operating rooms and intake to one from 18:00. Weekends keep Friday's
// evening levels.
func (p *NaivePlanner) Schedule(now float64) []sim.ResourceAdjustment {
	if calendar.IsWeekend(now) {
		return nil
	}
	morning := now + 158
	evening := now + 168
	out := make([]sim.ResourceAdjustment, 0, len(sim.AllResourceTypes)+2)
	for _, rt := range sim.AllResourceTypes {
		out = append(out, sim.ResourceAdjustment{Type: rt, Hour: morning, Level: sim.MaxResources[rt]})
	}
	out = append(out,
		sim.ResourceAdjustment{Type: sim.ResourceOR, Hour: evening, Level: 1},
		sim.ResourceAdjustment{Type: sim.ResourceIntake, Hour: evening, Level: 1},
	)
	return out
}
