// Defines the Problem interface the simulator drives, and HealthcareProblem,
// the hospital admission process: who arrives when, which activities follow
// which, how long they take, and how the KPIs accumulate.

package sim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/admission-sim/admission-sim/sim/calendar"
	"github.com/admission-sim/admission-sim/sim/workload"
)

// Assignment pairs an unassigned task with the resource that will execute it.
type Assignment struct {
	Task     *Element
	Resource *Resource
}

// Problem is the process being simulated. The simulator owns the clock, the
// event queue and the resource pool; the problem owns the process logic.
type Problem interface {
	// Resources returns all resource units of the problem.
	Resources() []*Resource

	// Restart resets all process state for a fresh run.
	Restart()

	// NextCase samples the next arriving case and returns its arrival hour
	// together with the case's first element.
	NextCase() (float64, *Element)

	// NextPlanningMoment returns the first regular planning moment strictly
	// after the given hour.
	NextPlanningMoment(now float64) float64

	// ProcessingTime samples the duration of a task on a resource.
	ProcessingTime(resource *Resource, task *Element, now float64) float64

	// StartTask is invoked when a task starts executing.
	StartTask(task *Element, now float64)

	// CompleteElement is invoked when an element finishes and returns the
	// elements that become pending next.
	CompleteElement(el *Element, now float64) []*Element

	// AssignResources matches unassigned tasks to available resources.
	AssignResources(unassigned map[int]*Element, available []*Resource) []Assignment

	// Plannable returns, per case, the event labels awaiting a first plan.
	Plannable() map[int][]Activity

	// Replannable returns, per case, the planned event labels that may
	// still be moved.
	Replannable() map[int][]Activity

	// Plan plans or replans an event of a case for the given hour and
	// returns the event element.
	Plan(caseID int, label Activity, hour, now float64) (*Element, error)

	// Open reports whether a case still expects future elements beyond the
	// currently pending ones (an admission awaiting planning).
	Open(caseID int) bool

	// Evaluate computes the KPI report at the given hour. personnelCost is
	// the accumulated staffing cost measured by the simulator.
	Evaluate(now float64, personnelCost int) KPIReport
}

// minPlanLead is the minimum number of hours between planning an admission
// and the admission itself.
const minPlanLead = 24

// activityDuration holds the normal duration parameters of an activity, in
// hours.
type activityDuration struct {
	mean, stdDev float64
}

// Default duration model. The calibrated problem variant overrides these
// with mined values.
var defaultDurations = map[Activity]activityDuration{
	ActivityIntake:      {mean: 1, stdDev: 0.125},
	ActivityERTreatment: {mean: 2, stdDev: 0.5},
}

var surgeryDurations = map[Diagnosis]activityDuration{
	DiagnosisA1: {mean: 2, stdDev: 0.25},
	DiagnosisA2: {mean: 2.5, stdDev: 0.5},
	DiagnosisA3: {mean: 3.25, stdDev: 0.5},
	DiagnosisA4: {mean: 4, stdDev: 0.5},
}

var nursingDurations = map[Diagnosis]activityDuration{
	DiagnosisA1: {mean: 8, stdDev: 2},
	DiagnosisA2: {mean: 16, stdDev: 2},
	DiagnosisA3: {mean: 16, stdDev: 3},
	DiagnosisA4: {mean: 24, stdDev: 4},
	DiagnosisB1: {mean: 8, stdDev: 2},
	DiagnosisB2: {mean: 16, stdDev: 2},
	DiagnosisB3: {mean: 16, stdDev: 3},
	DiagnosisB4: {mean: 24, stdDev: 4},
}

// complicationProb is the chance that nursing ends with a complication that
// sends the patient back into treatment.
var complicationProb = map[Diagnosis]float64{
	DiagnosisA1: 0.01,
	DiagnosisA2: 0.02,
	DiagnosisA3: 0.02,
	DiagnosisA4: 0.05,
	DiagnosisB1: 0.001,
	DiagnosisB2: 0.01,
	DiagnosisB3: 0.02,
	DiagnosisB4: 0.05,
}

// diagnosisWeights is the per-stream diagnosis mix, heaviest first.
var diagnosisWeights = []float64{0.5, 0.25, 0.125, 0.125}

var aDiagnoses = []Diagnosis{DiagnosisA1, DiagnosisA2, DiagnosisA3, DiagnosisA4}
var bDiagnoses = []Diagnosis{DiagnosisB1, DiagnosisB2, DiagnosisB3, DiagnosisB4}

// emergencyReleaseProb is the chance an emergency patient is sent home
// directly after treatment.
const emergencyReleaseProb = 0.5

// arrivalStream tracks a pending arrival of one patient stream.
type arrivalStream struct {
	kind     CaseKind
	surgical bool // elective A stream vs elective B stream
	next     float64
}

// HealthcareProblem implements Problem for the hospital admission process.
type HealthcareProblem struct {
	seed      int64
	rng       *PartitionedRNG
	arrivals  *workload.ArrivalModel
	resources []*Resource

	streams []*arrivalStream

	cases          map[int]*Case
	caseSeq        int
	elementSeq     int
	plannable      map[int]struct{}
	replannable    map[int]struct{}
	admissionElems map[int]*Element

	waitingInHospital float64
	nervousness       float64
}

// NewHealthcareProblem creates the problem with a fitted arrival model and
// all resources at their maximum counts.
func NewHealthcareProblem(seed int64) (*HealthcareProblem, error) {
	arrivals, err := workload.NewArrivalModel()
	if err != nil {
		return nil, fmt.Errorf("arrival model: %w", err)
	}
	p := &HealthcareProblem{
		seed:     seed,
		arrivals: arrivals,
	}
	id := 0
	for _, rt := range AllResourceTypes {
		for i := 0; i < MaxResources[rt]; i++ {
			id++
			p.resources = append(p.resources, &Resource{ID: id, Type: rt})
		}
	}
	p.Restart()
	return p, nil
}

// Resources returns all resource units.
func (p *HealthcareProblem) Resources() []*Resource {
	return p.resources
}

// Restart resets all process state. The same seed reproduces the same
// arrival and duration streams.
func (p *HealthcareProblem) Restart() {
	p.rng = NewPartitionedRNG(p.seed)
	p.cases = make(map[int]*Case)
	p.caseSeq = 0
	p.elementSeq = 0
	p.plannable = make(map[int]struct{})
	p.replannable = make(map[int]struct{})
	p.admissionElems = make(map[int]*Element)
	p.waitingInHospital = 0
	p.nervousness = 0

	rng := p.rng.ForSubsystem(SubsystemArrivals)
	p.streams = []*arrivalStream{
		{kind: CaseEmergency, next: p.arrivals.SampleEmergency(rng, 0)},
		{kind: CaseElective, surgical: true, next: p.arrivals.SampleElective(rng, 0)},
		{kind: CaseElective, surgical: false, next: p.arrivals.SampleElective(rng, 0)},
	}
}

func (p *HealthcareProblem) newElement(caseID int, label Activity, typ ElementType) *Element {
	p.elementSeq++
	el := &Element{
		ID:     p.elementSeq,
		CaseID: caseID,
		Label:  label,
		Type:   typ,
	}
	if c, ok := p.cases[caseID]; ok {
		el.Data = map[string]string{"diagnosis": string(c.Diagnosis)}
	}
	return el
}

func (p *HealthcareProblem) sampleDiagnosis(surgical bool) Diagnosis {
	rng := p.rng.ForSubsystem(SubsystemRouting)
	pool := bDiagnoses
	if surgical {
		pool = aDiagnoses
	}
	u := rng.Float64()
	acc := 0.0
	for i, w := range diagnosisWeights {
		acc += w
		if u < acc {
			return pool[i]
		}
	}
	return pool[len(pool)-1]
}

// NextCase returns the earliest pending arrival across the emergency and
// elective streams, creates the case, and resamples that stream.
func (p *HealthcareProblem) NextCase() (float64, *Element) {
	stream := p.streams[0]
	for _, s := range p.streams[1:] {
		if s.next < stream.next {
			stream = s
		}
	}
	arrival := stream.next

	p.caseSeq++
	c := &Case{
		ID:               p.caseSeq,
		Kind:             stream.kind,
		ArrivalHour:      arrival,
		PlannableSince:   -1,
		AdmittedHour:     -1,
		PlannedAdmission: -1,
	}

	if stream.kind == CaseEmergency {
		c.Diagnosis = p.sampleDiagnosis(p.rng.ForSubsystem(SubsystemRouting).Float64() < 0.5)
	} else {
		c.Diagnosis = p.sampleDiagnosis(stream.surgical)
	}
	p.cases[c.ID] = c

	var first *Element
	if stream.kind == CaseEmergency {
		first = p.newElement(c.ID, ActivityERTreatment, ElementTask)
	} else {
		first = p.newElement(c.ID, ActivityIntake, ElementTask)
	}

	rng := p.rng.ForSubsystem(SubsystemArrivals)
	if stream.kind == CaseEmergency {
		stream.next = arrival + p.arrivals.SampleEmergency(rng, arrival)
	} else {
		stream.next = arrival + p.arrivals.SampleElective(rng, arrival)
	}

	return arrival, first
}

// NextPlanningMoment returns the next daily 18:00 strictly after now.
func (p *HealthcareProblem) NextPlanningMoment(now float64) float64 {
	dayStart := now - calendar.HourOfDay(now)
	moment := dayStart + 18
	if moment <= now {
		moment += calendar.HoursPerDay
	}
	return moment
}

// requiredResourceType maps a task to the resource pool that executes it.
func (p *HealthcareProblem) requiredResourceType(task *Element) ResourceType {
	switch task.Label {
	case ActivityIntake:
		return ResourceIntake
	case ActivityERTreatment:
		return ResourceERPractitioner
	case ActivitySurgery:
		return ResourceOR
	case ActivityNursing:
		return p.cases[task.CaseID].Diagnosis.BedType()
	}
	panic(fmt.Sprintf("no resource type for activity %q", task.Label))
}

// ProcessingTime samples the duration of a task in hours, truncated at zero.
func (p *HealthcareProblem) ProcessingTime(resource *Resource, task *Element, now float64) float64 {
	d, ok := defaultDurations[task.Label]
	if !ok {
		diag := p.cases[task.CaseID].Diagnosis
		switch task.Label {
		case ActivitySurgery:
			d = surgeryDurations[diag]
		case ActivityNursing:
			d = nursingDurations[diag]
		default:
			panic(fmt.Sprintf("no duration model for activity %q", task.Label))
		}
	}
	return sampleTruncatedNormal(p.rng.ForSubsystem(SubsystemDurations), d.mean, d.stdDev)
}

func sampleTruncatedNormal(rng *rand.Rand, mean, stdDev float64) float64 {
	v := rng.NormFloat64()*stdDev + mean
	if v < 0 {
		return 0
	}
	return v
}

// StartTask accumulates the in-hospital waiting time of the starting task.
func (p *HealthcareProblem) StartTask(task *Element, now float64) {
	p.waitingInHospital += now - task.ActivationTime
}

// CompleteElement advances the patient flow after an element finishes.
func (p *HealthcareProblem) CompleteElement(el *Element, now float64) []*Element {
	c := p.cases[el.CaseID]
	routing := p.rng.ForSubsystem(SubsystemRouting)

	switch el.Label {
	case ActivityIntake:
		// the admission becomes plannable; the planner decides when
		c.PlannableSince = now
		p.plannable[c.ID] = struct{}{}
		return nil

	case ActivityAdmission:
		c.AdmittedHour = now
		delete(p.replannable, c.ID)
		delete(p.admissionElems, c.ID)
		return []*Element{p.afterAdmission(c)}

	case ActivityERTreatment:
		if routing.Float64() < emergencyReleaseProb {
			return []*Element{p.releaseElement(c.ID, now)}
		}
		c.AdmittedHour = now
		return []*Element{p.afterAdmission(c)}

	case ActivitySurgery:
		return []*Element{p.newElement(c.ID, ActivityNursing, ElementTask)}

	case ActivityNursing:
		if routing.Float64() < complicationProb[c.Diagnosis] {
			if c.Diagnosis.Surgical() {
				return []*Element{p.newElement(c.ID, ActivitySurgery, ElementTask)}
			}
			return []*Element{p.newElement(c.ID, ActivityNursing, ElementTask)}
		}
		return []*Element{p.releaseElement(c.ID, now)}

	case ActivityRelease:
		return nil
	}
	panic(fmt.Sprintf("complete: unknown activity %q", el.Label))
}

func (p *HealthcareProblem) afterAdmission(c *Case) *Element {
	if c.Diagnosis.Surgical() {
		return p.newElement(c.ID, ActivitySurgery, ElementTask)
	}
	return p.newElement(c.ID, ActivityNursing, ElementTask)
}

func (p *HealthcareProblem) releaseElement(caseID int, now float64) *Element {
	el := p.newElement(caseID, ActivityRelease, ElementEvent)
	el.OccurrenceTime = now
	return el
}

// AssignResources greedily matches tasks to available resources in
// activation order, breaking ties by element ID. Resources of a type are
// claimed in ID order to keep runs deterministic.
func (p *HealthcareProblem) AssignResources(unassigned map[int]*Element, available []*Resource) []Assignment {
	tasks := make([]*Element, 0, len(unassigned))
	for _, t := range unassigned {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].ActivationTime != tasks[j].ActivationTime {
			return tasks[i].ActivationTime < tasks[j].ActivationTime
		}
		return tasks[i].ID < tasks[j].ID
	})

	free := make(map[ResourceType][]*Resource)
	for _, r := range available {
		free[r.Type] = append(free[r.Type], r)
	}
	for rt := range free {
		sort.Slice(free[rt], func(i, j int) bool { return free[rt][i].ID < free[rt][j].ID })
	}

	var assignments []Assignment
	for _, task := range tasks {
		rt := p.requiredResourceType(task)
		pool := free[rt]
		if len(pool) == 0 {
			continue
		}
		assignments = append(assignments, Assignment{Task: task, Resource: pool[0]})
		free[rt] = pool[1:]
	}
	return assignments
}

// Plannable returns the cases whose admission awaits a first plan.
func (p *HealthcareProblem) Plannable() map[int][]Activity {
	out := make(map[int][]Activity, len(p.plannable))
	for id := range p.plannable {
		out[id] = []Activity{ActivityAdmission}
	}
	return out
}

// Replannable returns the cases whose planned admission may still be moved.
func (p *HealthcareProblem) Replannable() map[int][]Activity {
	out := make(map[int][]Activity, len(p.replannable))
	for id := range p.replannable {
		out[id] = []Activity{ActivityAdmission}
	}
	return out
}

// Plan plans or replans the admission of a case. Replanning accrues
// nervousness: the closer the change is to the previously planned admission,
// the higher the penalty, with a floor of 1.
func (p *HealthcareProblem) Plan(caseID int, label Activity, hour, now float64) (*Element, error) {
	if label != ActivityAdmission {
		return nil, fmt.Errorf("case %d: cannot plan activity %q", caseID, label)
	}
	if hour < now+minPlanLead {
		return nil, fmt.Errorf("case %d: admission at hour %.2f is less than %dh after now (%.2f)", caseID, hour, minPlanLead, now)
	}
	c, ok := p.cases[caseID]
	if !ok {
		return nil, fmt.Errorf("case %d: unknown case", caseID)
	}

	if _, ok := p.plannable[caseID]; ok {
		el := p.newElement(caseID, ActivityAdmission, ElementEvent)
		el.OccurrenceTime = hour
		c.PlannedAdmission = hour
		delete(p.plannable, caseID)
		p.replannable[caseID] = struct{}{}
		p.admissionElems[caseID] = el
		return el, nil
	}

	if _, ok := p.replannable[caseID]; ok {
		el := p.admissionElems[caseID]
		penalty := float64(calendar.HoursPerWeek) - (el.OccurrenceTime - now)
		if penalty < 1 {
			penalty = 1
		}
		p.nervousness += penalty
		el.OccurrenceTime = hour
		c.PlannedAdmission = hour
		return el, nil
	}

	return nil, fmt.Errorf("case %d: not plannable or replannable", caseID)
}

// Open reports whether the case still awaits admission planning.
func (p *HealthcareProblem) Open(caseID int) bool {
	if _, ok := p.plannable[caseID]; ok {
		return true
	}
	_, ok := p.replannable[caseID]
	return ok
}

// Evaluate computes the KPI report. Patients still waiting for admission at
// the end of the run accrue waiting time up to the evaluation hour.
func (p *HealthcareProblem) Evaluate(now float64, personnelCost int) KPIReport {
	// summation order must not depend on map iteration, or same-seed runs
	// drift in the last bits
	ids := make([]int, 0, len(p.cases))
	for id := range p.cases {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	wta := 0.0
	for _, id := range ids {
		c := p.cases[id]
		if c.PlannableSince < 0 {
			continue
		}
		if c.AdmittedHour >= 0 {
			wta += c.AdmittedHour - c.PlannableSince
		} else {
			wta += now - c.PlannableSince
		}
	}
	return KPIReport{
		WaitingTimeForAdmission: wta,
		WaitingTimeInHospital:   p.waitingInHospital,
		Nervousness:             p.nervousness,
		PersonnelCost:           float64(personnelCost),
	}
}
