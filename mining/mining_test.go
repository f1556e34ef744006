package mining

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/admission-sim/admission-sim/sim"
	"github.com/admission-sim/admission-sim/sim/eventlog"
)

// writeLog authors a small event log through the same writer the simulator
// uses, so mining sees exactly the production CSV shape.
func writeLog(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	w := eventlog.NewWriter(&buf)

	task := func(id, caseID int, label sim.Activity) *sim.Element {
		return &sim.Element{
			ID:     id,
			CaseID: caseID,
			Label:  label,
			Type:   sim.ElementTask,
			Data:   map[string]string{"diagnosis": "A1"},
		}
	}
	res := &sim.Resource{ID: 1, Type: sim.ResourceIntake}
	emit := func(el *sim.Element, start, end float64) {
		w.Report(el.CaseID, el, start, res, sim.EventStartTask, nil)
		w.Report(el.CaseID, el, end, res, sim.EventCompleteTask, nil)
	}

	// two cases follow intake->nursing->releasing, one is an emergency
	emit(task(1, 1, sim.ActivityIntake), 9, 10)
	emit(task(2, 1, sim.ActivityNursing), 10, 12)
	emit(task(3, 1, sim.ActivityRelease), 12, 12.5)

	emit(task(4, 2, sim.ActivityIntake), 9, 10.5)
	emit(task(5, 2, sim.ActivityNursing), 11, 13)
	emit(task(6, 2, sim.ActivityRelease), 13, 13.5)

	emit(task(7, 3, sim.ActivityERTreatment), 8, 9)
	emit(task(8, 3, sim.ActivityRelease), 9, 9.25)

	require.NoError(t, w.Flush())
	return buf.String()
}

func TestMine_VariantProbabilities(t *testing.T) {
	params, err := Mine(strings.NewReader(writeLog(t)))
	require.NoError(t, err)

	sum := 0.0
	for _, p := range params.Variants {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "variant probabilities must sum to 1")
	assert.InDelta(t, 2.0/3.0, params.Variants["intake,nursing,releasing"], 1e-9)
	assert.InDelta(t, 1.0/3.0, params.Variants["er_treatment,releasing"], 1e-9)
}

func TestMine_FitsDurationsInSeconds(t *testing.T) {
	params, err := Mine(strings.NewReader(writeLog(t)))
	require.NoError(t, err)

	// intake observed at 1.0h and 1.5h
	intake := params.Durations[sim.ActivityIntake]
	assert.InDelta(t, 4500, intake.MeanSeconds, 1e-6)
	assert.InDelta(t, math.Sqrt(2*900*900), intake.StdDevSeconds, 1e-6)

	// a single observation must yield zero spread, not NaN
	er := params.Durations[sim.ActivityERTreatment]
	assert.Equal(t, 3600.0, er.MeanSeconds)
	assert.Equal(t, 0.0, er.StdDevSeconds)
}

func TestMine_RejectsIncompleteHeader(t *testing.T) {
	_, err := Mine(strings.NewReader("case_id,activity,start_time\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "completion_time")
}

func TestMine_RejectsEmptyLog(t *testing.T) {
	header := "case_id,diagnosis,activity,start_time,completion_time,resource\n"
	_, err := Mine(strings.NewReader(header))
	assert.Error(t, err)
}

func TestParams_WriteLoadRoundTrip(t *testing.T) {
	params, err := Mine(strings.NewReader(writeLog(t)))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, params.Write(&buf))
	loaded, err := Load(&buf)
	require.NoError(t, err)

	require.Len(t, loaded.Variants, len(params.Variants))
	for variant, p := range params.Variants {
		assert.InDelta(t, p, loaded.Variants[variant], 1e-9, variant)
	}
	got := loaded.Overrides()[sim.ActivityIntake]
	assert.InDelta(t, params.Durations[sim.ActivityIntake].MeanSeconds, got.MeanSeconds, 1e-6)
}
