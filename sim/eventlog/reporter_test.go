package eventlog

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/admission-sim/admission-sim/sim"
)

func taskElement(id, caseID int, label sim.Activity, diagnosis string) *sim.Element {
	return &sim.Element{
		ID:     id,
		CaseID: caseID,
		Label:  label,
		Type:   sim.ElementTask,
		Data:   map[string]string{"diagnosis": diagnosis},
	}
}

func TestWriter_CompletedTaskBecomesRow(t *testing.T) {
	// GIVEN a task started at 09:00 and completed at 11:30 on day one
	var buf bytes.Buffer
	w := NewWriter(&buf)
	el := taskElement(1, 7, sim.ActivitySurgery, "A2")
	or := &sim.Resource{ID: 1, Type: sim.ResourceOR}

	w.Report(7, el, 9, or, sim.EventStartTask, nil)
	w.Report(7, el, 11.5, or, sim.EventCompleteTask, nil)
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	records := readAll(t, buf.String())
	if len(records) != 2 {
		t.Fatalf("records: got %d, want header plus one row", len(records))
	}
	want := []string{"7", "A2", "surgery", "2018-01-01 09:00:00", "2018-01-01 11:30:00", "OR1"}
	for i, col := range want {
		if records[1][i] != col {
			t.Errorf("column %d: got %q, want %q", i, records[1][i], col)
		}
	}
	if w.Rows() != 1 {
		t.Errorf("Rows: got %d, want 1", w.Rows())
	}
}

func TestWriter_EventElementIsZeroDuration(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	el := &sim.Element{
		ID:     2,
		CaseID: 3,
		Label:  sim.ActivityAdmission,
		Type:   sim.ElementEvent,
		Data:   map[string]string{"diagnosis": "B1"},
	}

	w.Report(3, el, 48, nil, sim.EventCompleteEvent, nil)
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	records := readAll(t, buf.String())
	row := records[1]
	if row[3] != row[4] {
		t.Errorf("start %q differs from completion %q", row[3], row[4])
	}
	if row[5] != "" {
		t.Errorf("resource: got %q, want empty", row[5])
	}
}

func TestWriter_IgnoresUnstartedCompletion(t *testing.T) {
	// a completion without a matching start must not produce a row
	var buf bytes.Buffer
	w := NewWriter(&buf)
	el := taskElement(4, 1, sim.ActivityNursing, "A1")

	w.Report(1, el, 20, nil, sim.EventCompleteTask, nil)
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	if got := readAll(t, buf.String()); len(got) != 1 {
		t.Errorf("records: got %d, want header only", len(got))
	}
}

func TestWriter_InterleavedTasksKeepTheirResources(t *testing.T) {
	// GIVEN two tasks overlapping in time on different resources
	var buf bytes.Buffer
	w := NewWriter(&buf)
	a := taskElement(1, 1, sim.ActivityIntake, "A1")
	b := taskElement(2, 2, sim.ActivityIntake, "B2")
	r1 := &sim.Resource{ID: 1, Type: sim.ResourceIntake}
	r2 := &sim.Resource{ID: 2, Type: sim.ResourceIntake}

	w.Report(1, a, 9, r1, sim.EventStartTask, nil)
	w.Report(2, b, 9.5, r2, sim.EventStartTask, nil)
	w.Report(2, b, 10, r2, sim.EventCompleteTask, nil)
	w.Report(1, a, 11, r1, sim.EventCompleteTask, nil)
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	records := readAll(t, buf.String())
	if len(records) != 3 {
		t.Fatalf("records: got %d, want header plus two rows", len(records))
	}
	// rows appear in completion order
	if records[1][0] != "2" || records[1][5] != "INTAKE2" {
		t.Errorf("first row: got case %s on %s", records[1][0], records[1][5])
	}
	if records[2][0] != "1" || records[2][5] != "INTAKE1" {
		t.Errorf("second row: got case %s on %s", records[2][0], records[2][5])
	}
}

func TestParseTimestamp_RoundTrips(t *testing.T) {
	ts, err := ParseTimestamp(formatHour(33.25))
	if err != nil {
		t.Fatal(err)
	}
	if got := formatHour(33.25); ts.Format(timestampLayout) != got {
		t.Errorf("round trip: got %q, want %q", ts.Format(timestampLayout), got)
	}
}

func TestOccupancy_SummarizesHourlySnapshots(t *testing.T) {
	o := NewOccupancy()

	o.Report(sim.NoCase, nil, 0, nil, sim.EventScheduleResources, sim.ReportData{
		sim.DataBusyResources: 10, sim.DataAvailableResources: 60, sim.DataAwayResources: 2,
	})
	o.Report(sim.NoCase, nil, 1, nil, sim.EventScheduleResources, sim.ReportData{
		sim.DataBusyResources: 20, sim.DataAvailableResources: 50, sim.DataAwayResources: 0,
		sim.DataOvertime: 1,
	})
	// non-snapshot events must not contribute
	o.Report(1, nil, 1.5, nil, sim.EventStartTask, nil)

	s := o.Summary()
	if s.Samples != 2 {
		t.Fatalf("samples: got %d, want 2", s.Samples)
	}
	if s.MeanBusy != 15 || s.MeanAvailable != 55 || s.MeanAway != 1 {
		t.Errorf("means: got busy=%v available=%v away=%v", s.MeanBusy, s.MeanAvailable, s.MeanAway)
	}
	if s.PeakBusy != 20 {
		t.Errorf("peak busy: got %d, want 20", s.PeakBusy)
	}
	if s.OvertimeHours != 1 {
		t.Errorf("overtime hours: got %d, want 1", s.OvertimeHours)
	}
}

func TestOccupancy_EmptySummaryIsZero(t *testing.T) {
	s := NewOccupancy().Summary()
	if s.Samples != 0 || s.MeanBusy != 0 || s.PeakBusy != 0 {
		t.Errorf("empty summary not zero: %+v", s)
	}
}

func readAll(t *testing.T, raw string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(raw)).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return records
}
