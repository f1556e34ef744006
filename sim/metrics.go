// Tracks the four scheduling KPIs and their normalization against the naive
// baseline.

package sim

import "fmt"

// KPIReport aggregates the four scheduling KPIs of a run.
type KPIReport struct {
	// WaitingTimeForAdmission (WTA) sums, over all referred patients, the
	// hours between the admission becoming plannable and the admission.
	WaitingTimeForAdmission float64 `yaml:"waiting_time_for_admission"`
	// WaitingTimeInHospital (WTH) sums the queueing delay before every
	// executed task.
	WaitingTimeInHospital float64 `yaml:"waiting_time_in_hospital"`
	// Nervousness (NERV) penalizes replanned admissions, more the closer
	// the change is to the previously planned slot.
	Nervousness float64 `yaml:"nervousness"`
	// PersonnelCost (COST) is the accumulated hourly staffing cost.
	PersonnelCost float64 `yaml:"personnel_cost"`

	// CompletedCases and TotalCycleTime summarize throughput.
	CompletedCases int     `yaml:"completed_cases"`
	TotalCycleTime float64 `yaml:"total_cycle_time"`
}

// Baseline holds the KPI values of the naive planner over a full year,
// used to normalize reports into percent deltas.
var Baseline = KPIReport{
	WaitingTimeForAdmission: 281013.6992142152,
	WaitingTimeInHospital:   4997561.385304505,
	Nervousness:             2932427.0,
	PersonnelCost:           733449.0,
}

// NormalizedReport holds percent deltas against a baseline, negative is
// better.
type NormalizedReport struct {
	WTAPercent  float64
	WTHPercent  float64
	NERVPercent float64
	COSTPercent float64
}

func percentDelta(value, base float64) float64 {
	if base == 0 {
		base = 1e-9
	}
	return 100 * (value - base) / base
}

// Normalize expresses the report as percent deltas against a baseline.
func (r KPIReport) Normalize(base KPIReport) NormalizedReport {
	return NormalizedReport{
		WTAPercent:  percentDelta(r.WaitingTimeForAdmission, base.WaitingTimeForAdmission),
		WTHPercent:  percentDelta(r.WaitingTimeInHospital, base.WaitingTimeInHospital),
		NERVPercent: percentDelta(r.Nervousness, base.Nervousness),
		COSTPercent: percentDelta(r.PersonnelCost, base.PersonnelCost),
	}
}

// FinalScore collapses a normalized report into a single number. Cost is
// weighted three times as heavily as the waiting and stability KPIs.
func (n NormalizedReport) FinalScore() float64 {
	return (n.WTAPercent + n.WTHPercent + n.NERVPercent + 3*n.COSTPercent) / 6
}

// Print displays the KPI report and its baseline-normalized score.
func (r KPIReport) Print() {
	fmt.Println("=== Simulation KPIs ===")
	fmt.Printf("Waiting time for admission : %.2f h\n", r.WaitingTimeForAdmission)
	fmt.Printf("Waiting time in hospital   : %.2f h\n", r.WaitingTimeInHospital)
	fmt.Printf("Nervousness                : %.2f\n", r.Nervousness)
	fmt.Printf("Personnel cost             : %.0f\n", r.PersonnelCost)
	fmt.Printf("Completed cases            : %d\n", r.CompletedCases)
	if r.CompletedCases > 0 {
		fmt.Printf("Average cycle time         : %.2f h\n", r.TotalCycleTime/float64(r.CompletedCases))
	}
	n := r.Normalize(Baseline)
	fmt.Printf("vs baseline: WTA %+.1f%%  WTH %+.1f%%  NERV %+.1f%%  COST %+.1f%%  score %+.2f\n",
		n.WTAPercent, n.WTHPercent, n.NERVPercent, n.COSTPercent, n.FinalScore())
}
