// Package eventlog turns simulation reports into process-mining artifacts:
// a CSV event log of executed activities and an hourly occupancy summary of
// the resource pool. Both consume the same Report callback stream that
// planners receive, so they can be fanned out next to any planner.
package eventlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/admission-sim/admission-sim/sim"
	"github.com/admission-sim/admission-sim/sim/calendar"
)

// timestampLayout is the wall-clock format used for log rows.
const timestampLayout = "2006-01-02 15:04:05"

var header = []string{"case_id", "diagnosis", "activity", "start_time", "completion_time", "resource"}

// openRow tracks a started but not yet completed task.
type openRow struct {
	start    float64
	resource string
}

// Writer streams completed activities to a CSV event log. Tasks open a row
// when they start and emit it when they complete; event elements (planned
// admissions) emit a zero-duration row immediately.
type Writer struct {
	csv    *csv.Writer
	closer io.Closer
	open   map[int]openRow
	rows   int
	err    error
}

// NewWriter wraps w in an event log writer and emits the header row.
func NewWriter(w io.Writer) *Writer {
	lw := &Writer{
		csv:  csv.NewWriter(w),
		open: make(map[int]openRow),
	}
	lw.err = lw.csv.Write(header)
	return lw
}

// NewFileWriter creates path (truncating an existing file) and returns a
// Writer that owns the file handle.
func NewFileWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("event log: %w", err)
	}
	lw := NewWriter(f)
	lw.closer = f
	return lw, nil
}

// Report records one simulation event. It has the same shape as
// sim.Planner's Report so reporting planners can forward to it directly.
func (lw *Writer) Report(caseID int, el *sim.Element, hour float64, res *sim.Resource, kind sim.EventKind, _ sim.ReportData) {
	if lw.err != nil || el == nil {
		return
	}
	switch kind {
	case sim.EventStartTask:
		name := ""
		if res != nil {
			name = res.Name()
		}
		lw.open[el.ID] = openRow{start: hour, resource: name}

	case sim.EventCompleteTask:
		row, ok := lw.open[el.ID]
		if !ok {
			return
		}
		delete(lw.open, el.ID)
		lw.write(caseID, el, row.start, hour, row.resource)

	case sim.EventCompleteEvent:
		lw.write(caseID, el, hour, hour, "")
	}
}

func (lw *Writer) write(caseID int, el *sim.Element, start, end float64, resource string) {
	lw.err = lw.csv.Write([]string{
		strconv.Itoa(caseID),
		el.Data["diagnosis"],
		string(el.Label),
		formatHour(start),
		formatHour(end),
		resource,
	})
	lw.rows++
}

// Rows returns the number of data rows written so far.
func (lw *Writer) Rows() int { return lw.rows }

// Flush writes buffered rows through and returns the first error seen.
func (lw *Writer) Flush() error {
	lw.csv.Flush()
	if lw.err != nil {
		return lw.err
	}
	return lw.csv.Error()
}

// Close flushes and releases the underlying file, if any.
func (lw *Writer) Close() error {
	err := lw.Flush()
	if lw.closer != nil {
		if cerr := lw.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func formatHour(hour float64) string {
	return calendar.TimeOf(hour).Format(timestampLayout)
}

// ParseTimestamp reverses formatHour for log readers.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(timestampLayout, s)
}

// Occupancy aggregates the hourly SCHEDULE_RESOURCES snapshots into an
// average and peak utilization picture of the resource pool.
type Occupancy struct {
	samples       int
	busySum       int
	availableSum  int
	awaySum       int
	peakBusy      int
	overtimeHours int
}

// NewOccupancy returns an empty occupancy aggregator.
func NewOccupancy() *Occupancy {
	return &Occupancy{}
}

// Report consumes one simulation event; only hourly staffing snapshots
// contribute.
func (o *Occupancy) Report(_ int, _ *sim.Element, _ float64, _ *sim.Resource, kind sim.EventKind, data sim.ReportData) {
	if kind != sim.EventScheduleResources || data == nil {
		return
	}
	o.samples++
	busy := data[sim.DataBusyResources]
	o.busySum += busy
	o.availableSum += data[sim.DataAvailableResources]
	o.awaySum += data[sim.DataAwayResources]
	if busy > o.peakBusy {
		o.peakBusy = busy
	}
	if data[sim.DataOvertime] > 0 {
		o.overtimeHours++
	}
}

// OccupancySummary is the aggregate view over all recorded snapshots.
type OccupancySummary struct {
	Samples       int     `yaml:"samples"`
	MeanBusy      float64 `yaml:"mean_busy"`
	MeanAvailable float64 `yaml:"mean_available"`
	MeanAway      float64 `yaml:"mean_away"`
	PeakBusy      int     `yaml:"peak_busy"`
	OvertimeHours int     `yaml:"overtime_hours"`
}

// Summary computes the aggregate statistics seen so far.
func (o *Occupancy) Summary() OccupancySummary {
	s := OccupancySummary{
		Samples:       o.samples,
		PeakBusy:      o.peakBusy,
		OvertimeHours: o.overtimeHours,
	}
	if o.samples > 0 {
		n := float64(o.samples)
		s.MeanBusy = float64(o.busySum) / n
		s.MeanAvailable = float64(o.availableSum) / n
		s.MeanAway = float64(o.awaySum) / n
	}
	return s
}
