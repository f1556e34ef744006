// Defines the process elements flowing through the simulation: tasks that
// occupy a resource and timed events (planned admissions), plus the patient
// case record and the staffed resource types.

package sim

import "fmt"

// ResourceType identifies one of the five staffed resource pools.
type ResourceType string

const (
	ResourceOR             ResourceType = "OR"
	ResourceABed           ResourceType = "A_BED"
	ResourceBBed           ResourceType = "B_BED"
	ResourceIntake         ResourceType = "INTAKE"
	ResourceERPractitioner ResourceType = "ER_PRACTITIONER"
)

// MaxResources is the staffing ceiling per resource type. Planners may never
// schedule more than this.
var MaxResources = map[ResourceType]int{
	ResourceOR:             5,
	ResourceABed:           30,
	ResourceBBed:           40,
	ResourceIntake:         4,
	ResourceERPractitioner: 9,
}

// AllResourceTypes lists the resource types in a stable order.
var AllResourceTypes = []ResourceType{
	ResourceOR,
	ResourceABed,
	ResourceBBed,
	ResourceIntake,
	ResourceERPractitioner,
}

// Resource is a single staffable unit (one operating room, one bed, one
// practitioner).
type Resource struct {
	ID   int
	Type ResourceType
}

// Name renders the resource as it appears in event logs, e.g. "OR3".
func (r *Resource) Name() string {
	return fmt.Sprintf("%s%d", r.Type, r.ID)
}

func (r *Resource) String() string {
	return fmt.Sprintf("%s#%d", r.Type, r.ID)
}

// Activity labels the process steps patients go through.
type Activity string

const (
	ActivityIntake      Activity = "intake"
	ActivityAdmission   Activity = "time_for_admission"
	ActivitySurgery     Activity = "surgery"
	ActivityNursing     Activity = "nursing"
	ActivityERTreatment Activity = "er_treatment"
	ActivityRelease     Activity = "releasing"
)

// ElementType distinguishes tasks, which occupy a resource for a sampled
// duration, from events, which simply occur at a moment in time.
type ElementType int

const (
	ElementTask ElementType = iota
	ElementEvent
)

// Element is a single pending process step of a case.
type Element struct {
	ID     int
	CaseID int
	Label  Activity
	Type   ElementType

	// OccurrenceTime is when an event element happens. Zero for tasks.
	OccurrenceTime float64
	// ActivationTime is when the element became pending.
	ActivationTime float64

	// Data carries case attributes for event logging (diagnosis).
	Data map[string]string
}

// IsTask reports whether the element occupies a resource.
func (e *Element) IsTask() bool { return e.Type == ElementTask }

// IsEvent reports whether the element occurs at a planned moment.
func (e *Element) IsEvent() bool { return e.Type == ElementEvent }

func (e *Element) String() string {
	if e == nil {
		return "<none>"
	}
	return fmt.Sprintf("case %d/%s", e.CaseID, e.Label)
}

// Diagnosis classifies a patient. A-diagnoses require surgery before
// nursing on an A bed; B-diagnoses go straight to nursing on a B bed.
type Diagnosis string

const (
	DiagnosisA1 Diagnosis = "A1"
	DiagnosisA2 Diagnosis = "A2"
	DiagnosisA3 Diagnosis = "A3"
	DiagnosisA4 Diagnosis = "A4"
	DiagnosisB1 Diagnosis = "B1"
	DiagnosisB2 Diagnosis = "B2"
	DiagnosisB3 Diagnosis = "B3"
	DiagnosisB4 Diagnosis = "B4"
)

// Surgical reports whether the diagnosis requires surgery.
func (d Diagnosis) Surgical() bool {
	return d == DiagnosisA1 || d == DiagnosisA2 || d == DiagnosisA3 || d == DiagnosisA4
}

// BedType returns the bed resource used for nursing this diagnosis.
func (d Diagnosis) BedType() ResourceType {
	if d.Surgical() {
		return ResourceABed
	}
	return ResourceBBed
}

// CaseKind distinguishes how a patient enters the hospital.
type CaseKind int

const (
	// CaseElective patients are referred, go through intake, and wait for a
	// planned admission.
	CaseElective CaseKind = iota
	// CaseEmergency patients arrive around the clock and are treated
	// immediately.
	CaseEmergency
)

// Case is the per-patient record the problem keeps across the patient's stay.
type Case struct {
	ID        int
	Kind      CaseKind
	Diagnosis Diagnosis

	ArrivalHour float64

	// PlannableSince is when the admission became plannable (intake
	// completed). Negative while not applicable.
	PlannableSince float64
	// AdmittedHour is when the planned admission occurred. Negative while
	// the patient has not been admitted.
	AdmittedHour float64
	// PlannedAdmission is the currently planned admission hour. Negative
	// while no plan exists.
	PlannedAdmission float64
}
