// Package policy implements the admission planners that drive the hospital
// simulation: a naive baseline, a wave-based heuristic, a contextual-bandit
// staffing controller and a fixed-schedule planner for optimizer runs.
package policy

import (
	"github.com/admission-sim/admission-sim/sim"
)

// Reporter consumes the simulation event stream. It has the same shape as
// the Report method of sim.Planner, so event log writers and occupancy
// aggregators can be attached to any planner.
type Reporter interface {
	Report(caseID int, el *sim.Element, hour float64, res *sim.Resource, kind sim.EventKind, data sim.ReportData)
}

// Reporting fans simulation reports out to attached reporters. Planners embed
// it and call Forward from their Report method (or use the Report it provides
// when they do not consume events themselves).
type Reporting struct {
	reporters []Reporter
}

// Attach registers an additional reporter.
func (r *Reporting) Attach(rep Reporter) {
	r.reporters = append(r.reporters, rep)
}

// Forward passes a report to all attached reporters.
func (r *Reporting) Forward(caseID int, el *sim.Element, hour float64, res *sim.Resource, kind sim.EventKind, data sim.ReportData) {
	for _, rep := range r.reporters {
		rep.Report(caseID, el, hour, res, kind, data)
	}
}

// Report satisfies the sim.Planner reporting contract by forwarding.
func (r *Reporting) Report(caseID int, el *sim.Element, hour float64, res *sim.Resource, kind sim.EventKind, data sim.ReportData) {
	r.Forward(caseID, el, hour, res, kind, data)
}
