package sim

import (
	"math"
	"strings"
	"testing"
)

// scriptedPlanner is a deterministic planner for simulator tests: first plans
// land at now+48, optional one-shot replans at now+72, and staffing
// adjustments are emitted once at the first planning moment.
type scriptedPlanner struct {
	replanOnce  bool
	adjustments []ResourceAdjustment

	replanned map[int]bool
	reports   map[EventKind]int
}

func newScriptedPlanner() *scriptedPlanner {
	return &scriptedPlanner{
		replanned: make(map[int]bool),
		reports:   make(map[EventKind]int),
	}
}

func (p *scriptedPlanner) Plan(toPlan, toReplan []int, now float64) []PlannedAdmission {
	var out []PlannedAdmission
	for _, id := range toPlan {
		out = append(out, PlannedAdmission{CaseID: id, Hour: math.Round(now + 48)})
	}
	if p.replanOnce {
		for _, id := range toReplan {
			if p.replanned[id] {
				continue
			}
			p.replanned[id] = true
			out = append(out, PlannedAdmission{CaseID: id, Hour: math.Round(now + 72)})
		}
	}
	return out
}

func (p *scriptedPlanner) Schedule(now float64) []ResourceAdjustment {
	adj := p.adjustments
	p.adjustments = nil
	return adj
}

func (p *scriptedPlanner) Report(caseID int, el *Element, hour float64, res *Resource, kind EventKind, data ReportData) {
	p.reports[kind]++
}

func newWeekSimulator(t *testing.T, planner Planner) *Simulator {
	t.Helper()
	problem, err := NewHealthcareProblem(42)
	if err != nil {
		t.Fatalf("NewHealthcareProblem: %v", err)
	}
	return NewSimulator(problem, planner)
}

func TestSimulator_RunWeek(t *testing.T) {
	planner := newScriptedPlanner()
	s := newWeekSimulator(t, planner)

	report, err := s.Run(168)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// patients arrived and waited for their admissions
	if planner.reports[EventCaseArrival] == 0 {
		t.Error("no case arrivals reported")
	}
	if report.WaitingTimeForAdmission <= 0 {
		t.Errorf("WTA: got %v, want > 0", report.WaitingTimeForAdmission)
	}
	if report.PersonnelCost <= 0 {
		t.Errorf("personnel cost: got %v, want > 0", report.PersonnelCost)
	}
	if report.Nervousness != 0 {
		t.Errorf("nervousness without replans: got %v, want 0", report.Nervousness)
	}

	// staffing was measured every hour including the horizon
	if got := s.Schedule.Measurements(); got != 169 {
		t.Errorf("cost measurements: got %d, want 169", got)
	}
	if planner.reports[EventScheduleResources] != 169 {
		t.Errorf("SCHEDULE_RESOURCES reports: got %d, want 169", planner.reports[EventScheduleResources])
	}
}

func TestSimulator_SameSeedSameReport(t *testing.T) {
	// repeated runs guard against iteration-order effects that only show
	// up in the last bits of the float KPIs
	first, err := newWeekSimulator(t, newScriptedPlanner()).Run(168)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	for i := 0; i < 20; i++ {
		next, err := newWeekSimulator(t, newScriptedPlanner()).Run(168)
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if next != first {
			t.Fatalf("run %d with the same seed differs:\n%+v\n%+v", i, next, first)
		}
	}
}

func TestSimulator_ReplansAccrueNervousness(t *testing.T) {
	planner := newScriptedPlanner()
	planner.replanOnce = true
	s := newWeekSimulator(t, planner)

	report, err := s.Run(168)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if planner.reports[EventReplan] == 0 {
		t.Error("no replans reported")
	}
	if report.Nervousness <= 0 {
		t.Errorf("nervousness with replans: got %v, want > 0", report.Nervousness)
	}
}

func TestSimulator_RejectsShortNoticeAdjustment(t *testing.T) {
	planner := newScriptedPlanner()
	planner.adjustments = []ResourceAdjustment{{Type: ResourceOR, Hour: 20, Level: 5}}
	s := newWeekSimulator(t, planner)

	// first planning moment is hour 18, so hour 20 is only 2h ahead
	_, err := s.Run(168)
	if err == nil || !strings.Contains(err.Error(), "less than 14h") {
		t.Errorf("Run: got err %v, want short-notice violation", err)
	}
}

func TestSimulator_RejectsLevelAboveMaximum(t *testing.T) {
	planner := newScriptedPlanner()
	planner.adjustments = []ResourceAdjustment{{Type: ResourceIntake, Hour: 40, Level: 99}}
	s := newWeekSimulator(t, planner)

	_, err := s.Run(168)
	if err == nil || !strings.Contains(err.Error(), "outside [0, 4]") {
		t.Errorf("Run: got err %v, want level violation", err)
	}
}

func TestSimulator_RejectsDecreaseInsideWindow(t *testing.T) {
	planner := newScriptedPlanner()
	planner.adjustments = []ResourceAdjustment{{Type: ResourceOR, Hour: 40, Level: 2}}
	s := newWeekSimulator(t, planner)

	// level is 5 at hour 40 and the adjustment is only 22h out
	_, err := s.Run(168)
	if err == nil || !strings.Contains(err.Error(), "lowering") {
		t.Errorf("Run: got err %v, want increase-only violation", err)
	}
}

func TestSimulator_AcceptsDecreaseBeyondWindow(t *testing.T) {
	planner := newScriptedPlanner()
	planner.adjustments = []ResourceAdjustment{{Type: ResourceOR, Hour: 18 + 158, Level: 2}}
	s := newWeekSimulator(t, planner)

	if _, err := s.Run(168); err != nil {
		t.Errorf("Run with week-ahead decrease: %v", err)
	}
}

func TestSimulator_RestartReproducesRun(t *testing.T) {
	planner := newScriptedPlanner()
	s := newWeekSimulator(t, planner)

	first, err := s.Run(168)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	s.Restart()
	second, err := s.Run(168)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != second {
		t.Errorf("restarted run differs:\n%+v\n%+v", first, second)
	}
}

func TestSimulator_RestartReproducesCalibratedRun(t *testing.T) {
	// GIVEN a problem with mined durations, whose sampling source must be
	// reseeded on restart along with the rest of the process state
	problem, err := NewCalibratedProblem(42, DurationOverrides{
		ActivityNursing: {MeanSeconds: 7200, StdDevSeconds: 1800},
		ActivitySurgery: {MeanSeconds: 5400, StdDevSeconds: 900},
	})
	if err != nil {
		t.Fatalf("NewCalibratedProblem: %v", err)
	}
	s := NewSimulator(problem, newScriptedPlanner())

	first, err := s.Run(168)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	s.Restart()
	second, err := s.Run(168)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != second {
		t.Errorf("restarted calibrated run differs:\n%+v\n%+v", first, second)
	}
}

func TestSimulator_ZeroHorizonEmptyReport(t *testing.T) {
	for _, horizon := range []float64{0, -24} {
		s := newWeekSimulator(t, newScriptedPlanner())

		report, err := s.Run(horizon)
		if err != nil {
			t.Fatalf("Run(%v): %v", horizon, err)
		}
		if report != (KPIReport{}) {
			t.Errorf("Run(%v): got %+v, want an empty report", horizon, report)
		}
		if got := s.Schedule.Measurements(); got != 0 {
			t.Errorf("Run(%v): %d cost measurements, want 0", horizon, got)
		}
	}
}
