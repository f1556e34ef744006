package opt

import (
	"math"
)

// anneal refines a genome with simulated annealing: random single-gene
// perturbations, Metropolis acceptance, geometric cooling.
func (o *Optimizer) anneal(genes []float64, cost float64) ([]float64, float64) {
	p := o.params

	current := make([]float64, len(genes))
	copy(current, genes)
	currentCost := cost

	best := make([]float64, len(genes))
	copy(best, genes)
	bestCost := cost

	for temp := p.InitialTemperature; temp > p.MinTemperature; temp *= p.CoolingRate {
		for i := 0; i < p.IterationsPerTemp; i++ {
			idx := o.rng.Intn(len(current))
			old := current[idx]
			step := (o.rng.Float64()*2 - 1) * p.NeighborStepHours
			current[idx] = o.clampHour(old + step)

			candidateCost := o.cost(current)
			delta := candidateCost - currentCost

			if delta <= 0 || o.rng.Float64() < math.Exp(-delta/temp) {
				currentCost = candidateCost
				if currentCost < bestCost {
					bestCost = currentCost
					copy(best, current)
				}
			} else {
				current[idx] = old
			}
		}
	}
	return best, bestCost
}
