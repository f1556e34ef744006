// The event loop: pops events in deterministic order, advances the clock,
// keeps the resource pool in sync with the staffing schedule, and drives the
// planner through its Plan/Schedule/Report callbacks.

package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// minScheduleLead is the minimum number of hours between a staffing decision
// and the hour it takes effect.
const minScheduleLead = 14

// increaseOnlyWindow is the window within which staffing levels may only be
// raised, never lowered.
const increaseOnlyWindow = 158

type busyEntry struct {
	task  *Element
	since float64
}

// Simulator owns simulation time, the event queue, the resource pool and the
// staffing schedule. The process logic lives in the Problem, the decisions in
// the Planner.
type Simulator struct {
	Clock   float64
	Horizon float64

	Schedule *ResourceSchedule

	problem Problem
	planner Planner

	queue *EventQueue
	seq   uint64

	unassignedTasks map[int]*Element
	assignedTasks   map[int]Assignment
	available       []*Resource
	away            []*Resource
	busy            map[*Resource]busyEntry
	busyCases       map[int][]*Element

	caseStarts     map[int]float64
	finalizedCases int
	totalCycleTime float64

	// levels captured at the last hourly resource check
	scheduledNow map[ResourceType]int
	workingNow   map[ResourceType]int
}

// NewSimulator creates a simulator over the given problem and planner and
// initializes the first events.
func NewSimulator(problem Problem, planner Planner) *Simulator {
	s := &Simulator{
		problem: problem,
		planner: planner,
	}
	s.Restart()
	return s
}

// Restart resets simulator and problem state for a fresh run.
func (s *Simulator) Restart() {
	s.Clock = 0
	s.queue = NewEventQueue()
	s.seq = 0
	s.unassignedTasks = make(map[int]*Element)
	s.assignedTasks = make(map[int]Assignment)
	s.available = nil
	s.away = nil
	s.busy = make(map[*Resource]busyEntry)
	s.busyCases = make(map[int][]*Element)
	s.caseStarts = make(map[int]float64)
	s.finalizedCases = 0
	s.totalCycleTime = 0
	s.Schedule = NewResourceSchedule()

	s.problem.Restart()
	s.init()
}

func (s *Simulator) init() {
	resources := s.problem.Resources()
	s.available = append(s.available, resources...)
	s.Schedule.Init(resources)
	s.scheduledNow = s.Schedule.Levels(0)
	s.workingNow = s.Schedule.ResourceCounts()

	arrival, first := s.problem.NextCase()
	s.schedule(&caseArrivalEvent{baseEvent: s.newBase(arrival, EventCaseArrival), element: first})

	moment := s.problem.NextPlanningMoment(0)
	s.schedule(&planningMomentEvent{baseEvent: s.newBase(moment, EventPlanningMoment)})

	s.schedule(&scheduleResourcesEvent{baseEvent: s.newBase(0, EventScheduleResources)})
}

func (s *Simulator) newBase(hour float64, kind EventKind) baseEvent {
	s.seq++
	return baseEvent{hour: hour, seq: s.seq, kind: kind}
}

func (s *Simulator) schedule(e Event) {
	s.queue.Schedule(e)
}

// Run executes the simulation for the given number of hours and returns the
// KPI report. Planner constraint violations abort the run with an error.
func (s *Simulator) Run(runningHours float64) (KPIReport, error) {
	s.Horizon = runningHours
	if s.Horizon <= 0 {
		return KPIReport{}, nil
	}
	for s.queue.Len() > 0 {
		ev := s.queue.PopNext()
		if ev.Hour() > s.Horizon {
			break
		}
		if ev.Hour() < s.Clock {
			return KPIReport{}, fmt.Errorf("clock went backwards: %.4f < %.4f", ev.Hour(), s.Clock)
		}
		s.Clock = ev.Hour()
		logrus.Debugf("[%09.2f] %s %s", s.Clock, ev.Kind(), describe(ev))
		if err := ev.Execute(s); err != nil {
			return KPIReport{}, err
		}
	}

	report := s.problem.Evaluate(math.Min(s.Clock, s.Horizon), s.Schedule.TotalCost())
	report.CompletedCases = s.finalizedCases
	report.TotalCycleTime = s.totalCycleTime
	return report, nil
}

func describe(ev Event) string {
	switch e := ev.(type) {
	case *caseArrivalEvent:
		return e.element.String()
	case *startTaskEvent:
		return fmt.Sprintf("%s on %s", e.task, e.resource)
	case *completeTaskEvent:
		return fmt.Sprintf("%s on %s", e.task, e.resource)
	case *completeEventEvent:
		return e.element.String()
	}
	return ""
}

// activate makes an element pending. Events schedule their occurrence; tasks
// wait for a resource. Both give the planner a chance to plan.
func (s *Simulator) activate(el *Element, now float64) {
	el.ActivationTime = now
	s.busyCases[el.CaseID] = append(s.busyCases[el.CaseID], el)
	if el.IsEvent() {
		s.planner.Report(el.CaseID, el, now, nil, EventActivateEvent, nil)
		s.schedule(&completeEventEvent{baseEvent: s.newBase(el.OccurrenceTime, EventCompleteEvent), element: el})
	} else {
		s.planner.Report(el.CaseID, el, now, nil, EventActivateTask, nil)
		s.unassignedTasks[el.ID] = el
		s.schedule(&assignResourcesEvent{baseEvent: s.newBase(now, EventAssignResources)})
	}
	s.schedule(&planEventsEvent{baseEvent: s.newBase(now, EventPlanEvents)})
}

// cancel removes the pending event of a case with the given label from the
// queue and from the case's pending elements.
func (s *Simulator) cancel(caseID int, label Activity) {
	removed := s.queue.Remove(func(ev Event) bool {
		ce, ok := ev.(*completeEventEvent)
		return ok && ce.element.CaseID == caseID && ce.element.Label == label
	})
	if removed == nil {
		return
	}
	el := removed.(*completeEventEvent).element
	s.busyCases[caseID] = removeElement(s.busyCases[caseID], el.ID)
}

// replan moves a pending event to a new occurrence time.
func (s *Simulator) replan(el *Element, hour float64) {
	s.cancel(el.CaseID, el.Label)
	el.OccurrenceTime = hour
	s.busyCases[el.CaseID] = append(s.busyCases[el.CaseID], el)
	s.schedule(&completeEventEvent{baseEvent: s.newBase(hour, EventCompleteEvent), element: el})
	s.planner.Report(el.CaseID, el, s.Clock, nil, EventReplan, nil)
}

func removeElement(els []*Element, id int) []*Element {
	out := els[:0]
	for _, e := range els {
		if e.ID != id {
			out = append(out, e)
		}
	}
	return out
}

func (s *Simulator) handleCaseArrival(e *caseArrivalEvent) error {
	now := e.Hour()
	s.planner.Report(e.element.CaseID, nil, now, nil, EventCaseArrival, nil)
	s.caseStarts[e.element.CaseID] = now
	s.busyCases[e.element.CaseID] = nil
	s.activate(e.element, now)

	arrival, first := s.problem.NextCase()
	s.schedule(&caseArrivalEvent{baseEvent: s.newBase(arrival, EventCaseArrival), element: first})
	return nil
}

func (s *Simulator) handleStartTask(e *startTaskEvent) error {
	now := e.Hour()
	s.planner.Report(e.task.CaseID, e.task, now, e.resource, EventStartTask, nil)
	s.problem.StartTask(e.task, now)
	s.busy[e.resource] = busyEntry{task: e.task, since: now}

	end := now + s.problem.ProcessingTime(e.resource, e.task, now)
	s.schedule(&completeTaskEvent{baseEvent: s.newBase(end, EventCompleteTask), task: e.task, resource: e.resource})
	return nil
}

func (s *Simulator) handleCompleteElement(el *Element, resource *Resource, kind EventKind) error {
	now := s.Clock
	s.planner.Report(el.CaseID, el, now, resource, kind, nil)

	if kind == EventCompleteTask {
		delete(s.busy, resource)
		// a resource beyond the scheduled level leaves instead of
		// returning to the pool
		if s.workingNow[resource.Type] > s.scheduledNow[resource.Type] {
			s.away = append(s.away, resource)
		} else {
			s.available = append(s.available, resource)
			s.schedule(&assignResourcesEvent{baseEvent: s.newBase(now, EventAssignResources)})
		}
		delete(s.assignedTasks, el.ID)
	}

	s.busyCases[el.CaseID] = removeElement(s.busyCases[el.CaseID], el.ID)
	for _, next := range s.problem.CompleteElement(el, now) {
		s.activate(next, now)
	}
	if len(s.busyCases[el.CaseID]) == 0 && !s.problem.Open(el.CaseID) {
		s.schedule(&completeCaseEvent{baseEvent: s.newBase(now, EventCompleteCase), element: el})
	}
	return nil
}

func (s *Simulator) handleScheduleResources(e *scheduleResourcesEvent) error {
	now := e.Hour()
	s.scheduledNow = s.Schedule.Levels(now)

	// working = all resources minus the away ones (busy resources are
	// still working)
	s.workingNow = s.Schedule.ResourceCounts()
	for _, r := range s.away {
		s.workingNow[r.Type]--
	}

	// bring back away resources where the schedule asks for more
	var stillAway []*Resource
	recalled := false
	for _, r := range s.away {
		if s.workingNow[r.Type] < s.scheduledNow[r.Type] {
			s.workingNow[r.Type]++
			s.available = append(s.available, r)
			recalled = true
		} else {
			stillAway = append(stillAway, r)
		}
	}
	s.away = stillAway
	if recalled {
		s.schedule(&assignResourcesEvent{baseEvent: s.newBase(now, EventAssignResources)})
	}

	// send home idle resources beyond the schedule
	var stillAvailable []*Resource
	for _, r := range s.available {
		if s.workingNow[r.Type] > s.scheduledNow[r.Type] {
			s.workingNow[r.Type]--
			s.away = append(s.away, r)
		} else {
			stillAvailable = append(stillAvailable, r)
		}
	}
	s.available = stillAvailable

	busyResources := make([]*Resource, 0, len(s.busy))
	busyCounts := make(map[ResourceType]int)
	for r := range s.busy {
		busyResources = append(busyResources, r)
		busyCounts[r.Type]++
	}
	s.Schedule.AddCostMeasurement(now, busyResources)

	s.schedule(&scheduleResourcesEvent{baseEvent: s.newBase(now+1, EventScheduleResources)})

	overtime := 0
	for rt, n := range busyCounts {
		if n > s.scheduledNow[rt] {
			overtime = 1
		}
	}
	data := ReportData{
		DataAvailableResources: len(s.available),
		DataBusyResources:      len(s.busy),
		DataAwayResources:      len(s.away),
		DataOvertime:           overtime,
	}
	s.planner.Report(NoCase, nil, now, nil, EventScheduleResources, data)
	return nil
}

func (s *Simulator) handleAssignResources(e *assignResourcesEvent) error {
	now := e.Hour()
	if len(s.unassignedTasks) == 0 || len(s.available) == 0 {
		return nil
	}
	assignments := s.problem.AssignResources(s.unassignedTasks, s.available)
	for _, a := range assignments {
		s.schedule(&startTaskEvent{baseEvent: s.newBase(now, EventStartTask), task: a.Task, resource: a.Resource})
		delete(s.unassignedTasks, a.Task.ID)
		s.assignedTasks[a.Task.ID] = a
		s.available = removeResource(s.available, a.Resource)
	}
	return nil
}

func removeResource(rs []*Resource, r *Resource) []*Resource {
	out := rs[:0]
	for _, x := range rs {
		if x != r {
			out = append(out, x)
		}
	}
	return out
}

func (s *Simulator) handlePlanningMoment(e *planningMomentEvent) error {
	now := e.Hour()
	s.schedule(&planEventsEvent{baseEvent: s.newBase(now, EventPlanEvents)})

	for _, adj := range s.planner.Schedule(now) {
		if err := s.validateAdjustment(adj, now); err != nil {
			return err
		}
		s.Schedule.SetLevel(adj.Type, adj.Hour, adj.Level)
	}

	moment := s.problem.NextPlanningMoment(now)
	s.schedule(&planningMomentEvent{baseEvent: s.newBase(moment, EventPlanningMoment)})
	return nil
}

// validateAdjustment enforces the staffing constraints: at least
// minScheduleLead hours ahead, within the resource maximum, and
// increase-only inside the increaseOnlyWindow.
func (s *Simulator) validateAdjustment(adj ResourceAdjustment, now float64) error {
	maxLevel, ok := MaxResources[adj.Type]
	if !ok {
		return fmt.Errorf("schedule: unknown resource type %q", adj.Type)
	}
	if adj.Hour < now+minScheduleLead {
		return fmt.Errorf("schedule: %s at hour %.2f is less than %dh after now (%.2f)", adj.Type, adj.Hour, minScheduleLead, now)
	}
	if adj.Level < 0 || adj.Level > maxLevel {
		return fmt.Errorf("schedule: %d %s outside [0, %d]", adj.Level, adj.Type, maxLevel)
	}
	if adj.Hour-now < increaseOnlyWindow && adj.Level < s.Schedule.Level(adj.Type, adj.Hour) {
		return fmt.Errorf("schedule: lowering %s to %d at hour %.2f within the %dh window", adj.Type, adj.Level, adj.Hour, increaseOnlyWindow)
	}
	return nil
}

func (s *Simulator) handlePlanEvents(e *planEventsEvent) error {
	now := e.Hour()
	plannable := s.problem.Plannable()
	if len(plannable) == 0 {
		return nil
	}
	replannable := s.problem.Replannable()

	planned := s.planner.Plan(sortedCaseIDs(plannable), sortedCaseIDs(replannable), now)
	for _, pa := range planned {
		switch {
		case len(plannable[pa.CaseID]) > 0:
			if len(plannable[pa.CaseID]) != 1 {
				return fmt.Errorf("case %d: only one event can be planned at a time", pa.CaseID)
			}
			el, err := s.problem.Plan(pa.CaseID, plannable[pa.CaseID][0], pa.Hour, now)
			if err != nil {
				return err
			}
			if !el.IsEvent() {
				return fmt.Errorf("case %d: planned element is not an event", pa.CaseID)
			}
			s.activate(el, now)

		case len(replannable[pa.CaseID]) > 0:
			if len(replannable[pa.CaseID]) != 1 {
				return fmt.Errorf("case %d: only one event can be replanned at a time", pa.CaseID)
			}
			el, err := s.problem.Plan(pa.CaseID, replannable[pa.CaseID][0], pa.Hour, now)
			if err != nil {
				return err
			}
			if !el.IsEvent() {
				return fmt.Errorf("case %d: replanned element is not an event", pa.CaseID)
			}
			s.replan(el, pa.Hour)

		default:
			return fmt.Errorf("case %d: not in plannable or replannable cases", pa.CaseID)
		}
	}
	return nil
}

func sortedCaseIDs(m map[int][]Activity) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	// deterministic order for the planner
	sort.Ints(ids)
	return ids
}

func (s *Simulator) handleCompleteCase(e *completeCaseEvent) error {
	now := e.Hour()
	s.planner.Report(e.element.CaseID, nil, now, nil, EventCompleteCase, nil)
	s.totalCycleTime += now - s.caseStarts[e.element.CaseID]
	s.finalizedCases++
	delete(s.busyCases, e.element.CaseID)
	return nil
}
