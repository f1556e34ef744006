package sim

// NoCase is the case ID reported for simulation-wide events that are not
// tied to a patient.
const NoCase = -1

// PlannedAdmission is a planner decision to admit a case at a given hour.
type PlannedAdmission struct {
	CaseID int
	Hour   float64
}

// ResourceAdjustment is a planner decision to change the staffing level of a
// resource type from a given hour onward.
type ResourceAdjustment struct {
	Type  ResourceType
	Hour  float64
	Level int
}

// ReportData carries event-specific counters alongside a report callback.
type ReportData map[string]int

// Keys used in ReportData of SCHEDULE_RESOURCES reports.
const (
	DataAvailableResources = "available_resources"
	DataBusyResources      = "busy_resources"
	DataAwayResources      = "away_resources"
	DataOvertime           = "overtime"
)

// Planner decides when patients are admitted and how future staffing levels
// change. Planners never touch the simulator or problem directly; everything
// they know arrives through Report.
type Planner interface {
	// Plan is invoked whenever there are admissions to plan. toPlan holds
	// case IDs awaiting a first plan, toReplan case IDs whose planned
	// admission may still be moved. Returned admissions must lie at least
	// 24 hours in the future. Cases may be left unplanned; they come back
	// at the next planning opportunity.
	Plan(toPlan, toReplan []int, now float64) []PlannedAdmission

	// Schedule is invoked at the daily 18:00 planning moment. Returned
	// adjustments must lie at least 14 hours in the future, must not
	// exceed the resource maxima, and may only increase levels when less
	// than 158 hours ahead.
	Schedule(now float64) []ResourceAdjustment

	// Report is invoked on every simulation event. caseID is NoCase for
	// events without a patient; element, resource and data may be nil.
	Report(caseID int, element *Element, hour float64, resource *Resource, kind EventKind, data ReportData)
}
