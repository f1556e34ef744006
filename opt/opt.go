// Package opt searches for good admission schedules offline. A genetic
// algorithm explores per-case admission hours against a short simulation
// horizon, then simulated annealing refines the best candidate. The result is
// a case-to-hour map a FixedPlanner can replay.
package opt

import (
	"fmt"
	"math/rand"
	"sort"
)

// Evaluator scores an admission schedule; lower is better. The production
// evaluator runs a one-week simulation and returns the waiting time for
// admission, but tests may substitute any cost function.
type Evaluator func(admissions map[int]float64) float64

// Params configures the GA and SA stages.
type Params struct {
	// HorizonHours bounds the admission hours being searched; genes live
	// in [MinLeadHours, HorizonHours].
	HorizonHours float64
	MinLeadHours float64

	PopulationSize int
	MaxGenerations int
	CrossoverRate  float64
	MutationRate   float64
	EliteCount     int

	// SA stage
	InitialTemperature float64
	CoolingRate        float64
	MinTemperature     float64
	IterationsPerTemp  int
	NeighborStepHours  float64
}

// DefaultParams returns a configuration that converges in a few seconds for
// around a hundred cases.
func DefaultParams() Params {
	return Params{
		HorizonHours:       168,
		MinLeadHours:       24,
		PopulationSize:     30,
		MaxGenerations:     40,
		CrossoverRate:      0.8,
		MutationRate:       0.1,
		EliteCount:         2,
		InitialTemperature: 50,
		CoolingRate:        0.95,
		MinTemperature:     0.5,
		IterationsPerTemp:  20,
		NeighborStepHours:  4,
	}
}

// Validate reports the first configuration error.
func (p Params) Validate() error {
	if p.PopulationSize < 2 {
		return fmt.Errorf("population size %d: need at least 2", p.PopulationSize)
	}
	if p.EliteCount >= p.PopulationSize {
		return fmt.Errorf("elite count %d must be below population size %d", p.EliteCount, p.PopulationSize)
	}
	if p.HorizonHours <= p.MinLeadHours {
		return fmt.Errorf("horizon %.0fh must exceed minimum lead %.0fh", p.HorizonHours, p.MinLeadHours)
	}
	if p.CoolingRate <= 0 || p.CoolingRate >= 1 {
		return fmt.Errorf("cooling rate %v: must be in (0, 1)", p.CoolingRate)
	}
	return nil
}

// Result is the outcome of an optimization run.
type Result struct {
	// Admissions maps case IDs to their optimized admission hour.
	Admissions map[int]float64
	// GACost is the best cost after the genetic stage, SACost after
	// annealing. SACost is never worse than GACost.
	GACost float64
	SACost float64
	// Evaluations counts evaluator invocations across both stages.
	Evaluations int
}

// Optimizer runs the two-stage search.
type Optimizer struct {
	params   Params
	caseIDs  []int
	evaluate Evaluator
	rng      *rand.Rand

	evaluations int
}

// New creates an Optimizer for the given case IDs. The evaluator is called
// with complete candidate schedules.
func New(params Params, caseIDs []int, evaluate Evaluator, rng *rand.Rand) (*Optimizer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if len(caseIDs) == 0 {
		return nil, fmt.Errorf("no cases to optimize")
	}
	ids := make([]int, len(caseIDs))
	copy(ids, caseIDs)
	sort.Ints(ids)
	return &Optimizer{
		params:   params,
		caseIDs:  ids,
		evaluate: evaluate,
		rng:      rng,
	}, nil
}

// Run executes the genetic stage followed by annealing refinement.
func (o *Optimizer) Run() Result {
	best, gaCost := o.runGA()
	refined, saCost := o.anneal(best, gaCost)
	return Result{
		Admissions:  o.toSchedule(refined),
		GACost:      gaCost,
		SACost:      saCost,
		Evaluations: o.evaluations,
	}
}

// cost evaluates a genome through the user evaluator.
func (o *Optimizer) cost(genes []float64) float64 {
	o.evaluations++
	return o.evaluate(o.toSchedule(genes))
}

// toSchedule pairs the sorted case IDs with the genome's hours.
func (o *Optimizer) toSchedule(genes []float64) map[int]float64 {
	m := make(map[int]float64, len(o.caseIDs))
	for i, id := range o.caseIDs {
		m[id] = genes[i]
	}
	return m
}

// randomHour samples an admission hour inside the search bounds.
func (o *Optimizer) randomHour() float64 {
	span := o.params.HorizonHours - o.params.MinLeadHours
	return o.params.MinLeadHours + o.rng.Float64()*span
}

// clampHour keeps a mutated hour inside the search bounds.
func (o *Optimizer) clampHour(h float64) float64 {
	if h < o.params.MinLeadHours {
		return o.params.MinLeadHours
	}
	if h > o.params.HorizonHours {
		return o.params.HorizonHours
	}
	return h
}
