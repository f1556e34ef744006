// Package mining fits simulation calibration parameters to an event log:
// process variant probabilities and per-activity duration distributions. The
// resulting parameter file feeds a calibrated simulation problem.
package mining

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/admission-sim/admission-sim/sim"
	"github.com/admission-sim/admission-sim/sim/eventlog"
)

// Params holds the mined calibration parameters.
type Params struct {
	// Variants maps an activity sequence (comma-joined) to the fraction of
	// cases following it.
	Variants map[string]float64 `yaml:"variant_probs"`
	// Durations holds the normal-fit duration per activity, in seconds.
	Durations sim.DurationOverrides `yaml:"durations"`
}

// Overrides returns the duration table in the form the calibrated problem
// consumes.
func (p *Params) Overrides() sim.DurationOverrides {
	return p.Durations
}

// logRow is one parsed event log record.
type logRow struct {
	caseID   int
	activity sim.Activity
	start    float64 // unix seconds
	end      float64
}

// Mine parses an event log CSV and fits the calibration parameters.
func Mine(r io.Reader) (*Params, error) {
	rows, err := parseLog(r)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("event log is empty")
	}

	return &Params{
		Variants:  variantProbabilities(rows),
		Durations: fitDurations(rows),
	}, nil
}

// MineFile mines the event log at path.
func MineFile(path string) (*Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("event log: %w", err)
	}
	defer f.Close()
	return Mine(f)
}

func parseLog(r io.Reader) ([]logRow, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("event log header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, need := range []string{"case_id", "activity", "start_time", "completion_time"} {
		if _, ok := col[need]; !ok {
			return nil, fmt.Errorf("event log: missing column %q", need)
		}
	}

	var rows []logRow
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("event log line %d: %w", line, err)
		}
		caseID, err := strconv.Atoi(record[col["case_id"]])
		if err != nil {
			return nil, fmt.Errorf("event log line %d: case id: %w", line, err)
		}
		start, err := eventlog.ParseTimestamp(record[col["start_time"]])
		if err != nil {
			return nil, fmt.Errorf("event log line %d: start time: %w", line, err)
		}
		end, err := eventlog.ParseTimestamp(record[col["completion_time"]])
		if err != nil {
			return nil, fmt.Errorf("event log line %d: completion time: %w", line, err)
		}
		rows = append(rows, logRow{
			caseID:   caseID,
			activity: sim.Activity(record[col["activity"]]),
			start:    float64(start.Unix()),
			end:      float64(end.Unix()),
		})
	}
	return rows, nil
}

// variantProbabilities groups rows into per-case traces ordered by start time
// and counts how often each activity sequence occurs.
func variantProbabilities(rows []logRow) map[string]float64 {
	byCase := make(map[int][]logRow)
	for _, row := range rows {
		byCase[row.caseID] = append(byCase[row.caseID], row)
	}

	counts := make(map[string]int)
	for _, trace := range byCase {
		sort.SliceStable(trace, func(i, j int) bool { return trace[i].start < trace[j].start })
		labels := make([]string, len(trace))
		for i, row := range trace {
			labels[i] = string(row.activity)
		}
		counts[strings.Join(labels, ",")]++
	}

	total := float64(len(byCase))
	probs := make(map[string]float64, len(counts))
	for variant, n := range counts {
		probs[variant] = float64(n) / total
	}
	return probs
}

// fitDurations computes the sample mean and standard deviation of each
// activity's duration in seconds. Activities observed only once get zero
// spread.
func fitDurations(rows []logRow) sim.DurationOverrides {
	byActivity := make(map[sim.Activity][]float64)
	for _, row := range rows {
		byActivity[row.activity] = append(byActivity[row.activity], row.end-row.start)
	}

	out := make(sim.DurationOverrides, len(byActivity))
	for activity, durations := range byActivity {
		mean, std := stat.MeanStdDev(durations, nil)
		if math.IsNaN(std) {
			std = 0
		}
		out[activity] = sim.DurationStats{
			MeanSeconds:   mean,
			StdDevSeconds: std,
		}
	}
	return out
}

// Write marshals the parameters as YAML.
func (p *Params) Write(w io.Writer) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile writes the parameters to path.
func (p *Params) WriteFile(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Load reads parameters written by Write.
func Load(r io.Reader) (*Params, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var p Params
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("calibration params: %w", err)
	}
	return &p, nil
}

// LoadFile reads parameters from path.
func LoadFile(path string) (*Params, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("calibration params: %w", err)
	}
	defer f.Close()
	return Load(f)
}
