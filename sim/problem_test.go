package sim

import (
	"strings"
	"testing"
)

func newTestProblem(t *testing.T) *HealthcareProblem {
	t.Helper()
	p, err := NewHealthcareProblem(42)
	if err != nil {
		t.Fatalf("NewHealthcareProblem: %v", err)
	}
	return p
}

func TestHealthcareProblem_ResourcePool(t *testing.T) {
	p := newTestProblem(t)

	counts := make(map[ResourceType]int)
	for _, r := range p.Resources() {
		counts[r.Type]++
	}
	for _, rt := range AllResourceTypes {
		if counts[rt] != MaxResources[rt] {
			t.Errorf("resource count %s: got %d, want %d", rt, counts[rt], MaxResources[rt])
		}
	}
}

func TestHealthcareProblem_SameSeedSameArrivals(t *testing.T) {
	// GIVEN two problems with the same seed
	p1 := newTestProblem(t)
	p2 := newTestProblem(t)

	// THEN the first ten arrivals are identical
	for i := 0; i < 10; i++ {
		h1, e1 := p1.NextCase()
		h2, e2 := p2.NextCase()
		if h1 != h2 || e1.Label != e2.Label || e1.CaseID != e2.CaseID {
			t.Fatalf("arrival %d differs: (%v, %v) vs (%v, %v)", i, h1, e1, h2, e2)
		}
	}
}

func TestHealthcareProblem_ArrivalsAdvanceAndCarryDiagnosis(t *testing.T) {
	p := newTestProblem(t)

	last := -1.0
	for i := 0; i < 50; i++ {
		hour, first := p.NextCase()
		if hour < last {
			t.Fatalf("arrival %d at %v before previous %v", i, hour, last)
		}
		last = hour

		if first.Label != ActivityIntake && first.Label != ActivityERTreatment {
			t.Fatalf("arrival %d: first element %q", i, first.Label)
		}
		if first.Data["diagnosis"] == "" {
			t.Fatalf("arrival %d: element carries no diagnosis", i)
		}
	}
}

func TestHealthcareProblem_IntakeMakesCasePlannable(t *testing.T) {
	// GIVEN an elective case whose intake just completed
	p := newTestProblem(t)
	el := electiveIntake(t, p)

	next := p.CompleteElement(el, 10)

	// THEN no element follows until the admission is planned
	if len(next) != 0 {
		t.Fatalf("after intake: got %d elements, want 0", len(next))
	}
	if _, ok := p.Plannable()[el.CaseID]; !ok {
		t.Errorf("case %d not plannable after intake", el.CaseID)
	}
	if !p.Open(el.CaseID) {
		t.Errorf("Open(%d): got false after intake", el.CaseID)
	}
}

// electiveIntake draws cases until an elective one arrives and returns its
// intake element.
func electiveIntake(t *testing.T, p *HealthcareProblem) *Element {
	t.Helper()
	for i := 0; i < 200; i++ {
		_, el := p.NextCase()
		if el.Label == ActivityIntake {
			return el
		}
	}
	t.Fatal("no elective case within 200 arrivals")
	return nil
}

func TestHealthcareProblem_PlanRejectsShortLead(t *testing.T) {
	p := newTestProblem(t)
	el := electiveIntake(t, p)
	p.CompleteElement(el, 10)

	_, err := p.Plan(el.CaseID, ActivityAdmission, 33.9, 10)
	if err == nil || !strings.Contains(err.Error(), "less than 24h") {
		t.Errorf("Plan 23.9h ahead: got err %v, want lead violation", err)
	}
}

func TestHealthcareProblem_PlanThenReplanAccruesNervousness(t *testing.T) {
	// GIVEN a planned admission at hour 40
	p := newTestProblem(t)
	el := electiveIntake(t, p)
	p.CompleteElement(el, 10)

	adm, err := p.Plan(el.CaseID, ActivityAdmission, 40, 10)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if adm.OccurrenceTime != 40 {
		t.Errorf("admission occurrence: got %v, want 40", adm.OccurrenceTime)
	}
	if _, ok := p.Plannable()[el.CaseID]; ok {
		t.Error("case still plannable after first plan")
	}
	if _, ok := p.Replannable()[el.CaseID]; !ok {
		t.Error("case not replannable after first plan")
	}

	// WHEN replanning at hour 12 (28 hours before the planned admission)
	before := p.Evaluate(12, 0).Nervousness
	adm2, err := p.Plan(el.CaseID, ActivityAdmission, 60, 12)
	if err != nil {
		t.Fatalf("replan: %v", err)
	}

	// THEN the same element moved and nervousness grew by 168-(40-12)
	if adm2 != adm {
		t.Error("replan created a new element")
	}
	if adm.OccurrenceTime != 60 {
		t.Errorf("occurrence after replan: got %v, want 60", adm.OccurrenceTime)
	}
	gained := p.Evaluate(12, 0).Nervousness - before
	if gained != 140 {
		t.Errorf("nervousness gained: got %v, want 140", gained)
	}
}

func TestHealthcareProblem_NervousnessFloorsAtOne(t *testing.T) {
	p := newTestProblem(t)
	el := electiveIntake(t, p)
	p.CompleteElement(el, 0)

	if _, err := p.Plan(el.CaseID, ActivityAdmission, 200, 0); err != nil {
		t.Fatalf("Plan: %v", err)
	}
	// replanning 200h ahead of the old slot would go negative without the floor
	if _, err := p.Plan(el.CaseID, ActivityAdmission, 230, 1); err != nil {
		t.Fatalf("replan: %v", err)
	}
	if got := p.Evaluate(1, 0).Nervousness; got != 1 {
		t.Errorf("nervousness: got %v, want floor 1", got)
	}
}

func TestHealthcareProblem_AdmissionFlow(t *testing.T) {
	// GIVEN a planned admission completing
	p := newTestProblem(t)
	el := electiveIntake(t, p)
	p.CompleteElement(el, 10)
	adm, err := p.Plan(el.CaseID, ActivityAdmission, 40, 10)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}

	next := p.CompleteElement(adm, 40)

	// THEN the case enters treatment matching its diagnosis and is no
	// longer open
	if len(next) != 1 {
		t.Fatalf("after admission: got %d elements, want 1", len(next))
	}
	diag := p.cases[el.CaseID].Diagnosis
	want := ActivityNursing
	if diag.Surgical() {
		want = ActivitySurgery
	}
	if next[0].Label != want {
		t.Errorf("after admission: got %q, want %q", next[0].Label, want)
	}
	if p.Open(el.CaseID) {
		t.Errorf("Open(%d): got true after admission", el.CaseID)
	}
}

func TestHealthcareProblem_SurgeryLeadsToNursing(t *testing.T) {
	p := newTestProblem(t)
	el := electiveIntake(t, p)
	surgery := p.newElement(el.CaseID, ActivitySurgery, ElementTask)

	next := p.CompleteElement(surgery, 50)
	if len(next) != 1 || next[0].Label != ActivityNursing {
		t.Fatalf("after surgery: got %v, want nursing", next)
	}
}

func TestHealthcareProblem_AssignResourcesMatchesTypesInOrder(t *testing.T) {
	p := newTestProblem(t)

	// two intake tasks activated at different times, one intake resource
	c1 := electiveIntake(t, p)
	c2 := electiveIntake(t, p)
	c1.ActivationTime = 5
	c2.ActivationTime = 3
	unassigned := map[int]*Element{c1.ID: c1, c2.ID: c2}
	available := []*Resource{
		{ID: 90, Type: ResourceIntake},
		{ID: 91, Type: ResourceOR},
	}

	assignments := p.AssignResources(unassigned, available)

	if len(assignments) != 1 {
		t.Fatalf("assignments: got %d, want 1", len(assignments))
	}
	if assignments[0].Task != c2 {
		t.Errorf("assigned task: got case %d, want the earlier activated %d", assignments[0].Task.CaseID, c2.CaseID)
	}
	if assignments[0].Resource.ID != 90 {
		t.Errorf("assigned resource: got %d, want intake 90", assignments[0].Resource.ID)
	}
}

func TestHealthcareProblem_EvaluateCountsPendingAdmissions(t *testing.T) {
	// GIVEN a case plannable since hour 10, never admitted
	p := newTestProblem(t)
	el := electiveIntake(t, p)
	p.CompleteElement(el, 10)

	got := p.Evaluate(50, 7)
	if got.WaitingTimeForAdmission != 40 {
		t.Errorf("WTA: got %v, want 40", got.WaitingTimeForAdmission)
	}
	if got.PersonnelCost != 7 {
		t.Errorf("cost: got %v, want 7", got.PersonnelCost)
	}
}

func TestHealthcareProblem_NextPlanningMomentDailyAtSix(t *testing.T) {
	p := newTestProblem(t)

	if got := p.NextPlanningMoment(0); got != 18 {
		t.Errorf("NextPlanningMoment(0): got %v, want 18", got)
	}
	if got := p.NextPlanningMoment(18); got != 42 {
		t.Errorf("NextPlanningMoment(18): got %v, want 42", got)
	}
	if got := p.NextPlanningMoment(20); got != 42 {
		t.Errorf("NextPlanningMoment(20): got %v, want 42", got)
	}
}
