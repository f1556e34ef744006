package sim

// EventKind enumerates the simulation event classes.
type EventKind int

const (
	EventCaseArrival EventKind = iota
	EventActivateTask
	EventActivateEvent
	EventStartTask
	EventCompleteTask
	EventCompleteEvent
	EventPlanEvents
	EventCompleteCase
	EventScheduleResources
	EventAssignResources
	EventPlanningMoment
	// EventReplan is never queued; it only appears in planner reports when a
	// planned admission is moved.
	EventReplan
)

var eventKindNames = map[EventKind]string{
	EventCaseArrival:       "CASE_ARRIVAL",
	EventActivateTask:      "ACTIVATE_TASK",
	EventActivateEvent:     "ACTIVATE_EVENT",
	EventStartTask:         "START_TASK",
	EventCompleteTask:      "COMPLETE_TASK",
	EventCompleteEvent:     "COMPLETE_EVENT",
	EventPlanEvents:        "PLAN_EVENTS",
	EventCompleteCase:      "COMPLETE_CASE",
	EventScheduleResources: "SCHEDULE_RESOURCES",
	EventAssignResources:   "ASSIGN_RESOURCES",
	EventPlanningMoment:    "REGULAR_PLANNING_MOMENT",
	EventReplan:            "REPLAN",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return "UNKNOWN"
}

// eventKindPriority breaks timestamp ties. Planned admissions may only
// complete after tasks at the same moment had their chance to claim
// resources, so EventCompleteEvent sorts after everything else.
var eventKindPriority = map[EventKind]int{
	EventCompleteEvent: 1,
}

// Event is a scheduled simulation occurrence. Executing it advances the
// simulator state.
type Event interface {
	Hour() float64
	Seq() uint64
	Kind() EventKind
	Execute(sim *Simulator) error
}

// baseEvent provides the common timestamp/sequence/kind fields.
type baseEvent struct {
	hour float64
	seq  uint64
	kind EventKind
}

func (e *baseEvent) Hour() float64   { return e.hour }
func (e *baseEvent) Seq() uint64     { return e.seq }
func (e *baseEvent) Kind() EventKind { return e.kind }

// caseArrivalEvent brings a new patient case into the simulation.
type caseArrivalEvent struct {
	baseEvent
	element *Element
}

func (e *caseArrivalEvent) Execute(sim *Simulator) error {
	return sim.handleCaseArrival(e)
}

// startTaskEvent starts a task on an assigned resource.
type startTaskEvent struct {
	baseEvent
	task     *Element
	resource *Resource
}

func (e *startTaskEvent) Execute(sim *Simulator) error {
	return sim.handleStartTask(e)
}

// completeTaskEvent finishes a running task and frees its resource.
type completeTaskEvent struct {
	baseEvent
	task     *Element
	resource *Resource
}

func (e *completeTaskEvent) Execute(sim *Simulator) error {
	return sim.handleCompleteElement(e.task, e.resource, EventCompleteTask)
}

// completeEventEvent fires a timed event element (a planned admission).
type completeEventEvent struct {
	baseEvent
	element *Element
}

func (e *completeEventEvent) Execute(sim *Simulator) error {
	return sim.handleCompleteElement(e.element, nil, EventCompleteEvent)
}

// planEventsEvent gives the planner a chance to plan pending admissions.
type planEventsEvent struct {
	baseEvent
}

func (e *planEventsEvent) Execute(sim *Simulator) error {
	return sim.handlePlanEvents(e)
}

// completeCaseEvent finalizes a case with no pending elements left.
type completeCaseEvent struct {
	baseEvent
	element *Element
}

func (e *completeCaseEvent) Execute(sim *Simulator) error {
	return sim.handleCompleteCase(e)
}

// scheduleResourcesEvent reconciles the resource pool with the staffing
// schedule. Fires every simulation hour.
type scheduleResourcesEvent struct {
	baseEvent
}

func (e *scheduleResourcesEvent) Execute(sim *Simulator) error {
	return sim.handleScheduleResources(e)
}

// assignResourcesEvent matches unassigned tasks to available resources.
type assignResourcesEvent struct {
	baseEvent
}

func (e *assignResourcesEvent) Execute(sim *Simulator) error {
	return sim.handleAssignResources(e)
}

// planningMomentEvent is the daily 18:00 moment at which planners may adjust
// future staffing levels.
type planningMomentEvent struct {
	baseEvent
}

func (e *planningMomentEvent) Execute(sim *Simulator) error {
	return sim.handlePlanningMoment(e)
}
