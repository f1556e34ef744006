// CalibratedProblem replaces the built-in duration model with activity
// durations mined from an event log.

package sim

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DurationStats holds the mined duration distribution of one activity.
type DurationStats struct {
	MeanSeconds   float64 `yaml:"mean_sec"`
	StdDevSeconds float64 `yaml:"std_sec"`
}

// DurationOverrides maps activity labels to mined duration statistics.
type DurationOverrides map[Activity]DurationStats

// CalibratedProblem is a HealthcareProblem whose processing times for mined
// activities come from normal distributions fitted to an event log.
type CalibratedProblem struct {
	*HealthcareProblem
	src   rand.Source
	seed  uint64
	dists map[Activity]distuv.Normal
}

// NewCalibratedProblem creates a calibrated problem. Activities without an
// override keep the built-in duration model.
func NewCalibratedProblem(seed int64, overrides DurationOverrides) (*CalibratedProblem, error) {
	base, err := NewHealthcareProblem(seed)
	if err != nil {
		return nil, err
	}
	derived := uint64(seed) ^ uint64(fnv1a64(SubsystemDurations))
	src := rand.NewSource(derived)
	dists := make(map[Activity]distuv.Normal, len(overrides))
	for label, stats := range overrides {
		sigma := stats.StdDevSeconds / 3600
		if sigma <= 0 {
			// degenerate mined activity, keep a sliver of spread
			sigma = 1.0 / 3600
		}
		dists[label] = distuv.Normal{
			Mu:    stats.MeanSeconds / 3600,
			Sigma: sigma,
			Src:   src,
		}
	}
	return &CalibratedProblem{HealthcareProblem: base, src: src, seed: derived, dists: dists}, nil
}

// Restart resets the process state and reseeds the mined-duration source so a
// restarted run reproduces the previous one.
func (p *CalibratedProblem) Restart() {
	p.HealthcareProblem.Restart()
	p.src.Seed(p.seed)
}

// ProcessingTime samples the mined distribution when one exists for the
// task's activity, truncated at zero.
func (p *CalibratedProblem) ProcessingTime(resource *Resource, task *Element, now float64) float64 {
	if dist, ok := p.dists[task.Label]; ok {
		v := dist.Rand()
		if v < 0 {
			return 0
		}
		return v
	}
	return p.HealthcareProblem.ProcessingTime(resource, task, now)
}
