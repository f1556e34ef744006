package opt

import (
	"sort"
)

// chromosome is one candidate admission schedule with its cached cost.
type chromosome struct {
	genes []float64
	cost  float64
}

func (c *chromosome) clone() *chromosome {
	genes := make([]float64, len(c.genes))
	copy(genes, c.genes)
	return &chromosome{genes: genes, cost: c.cost}
}

// runGA evolves a population of admission schedules and returns the best
// genome found and its cost.
func (o *Optimizer) runGA() ([]float64, float64) {
	p := o.params

	pop := make([]*chromosome, p.PopulationSize)
	for i := range pop {
		pop[i] = o.randomChromosome()
		pop[i].cost = o.cost(pop[i].genes)
	}

	best := pop[0].clone()
	for _, ch := range pop[1:] {
		if ch.cost < best.cost {
			best = ch.clone()
		}
	}

	for gen := 0; gen < p.MaxGenerations; gen++ {
		// elitism: the fittest carry over untouched
		sort.Slice(pop, func(i, j int) bool { return pop[i].cost < pop[j].cost })
		if pop[0].cost < best.cost {
			best = pop[0].clone()
		}

		next := make([]*chromosome, 0, p.PopulationSize)
		for i := 0; i < p.EliteCount; i++ {
			next = append(next, pop[i].clone())
		}

		for len(next) < p.PopulationSize {
			c1 := o.selectByRoulette(pop).clone()
			c2 := o.selectByRoulette(pop).clone()

			if o.rng.Float64() < p.CrossoverRate {
				o.singlePointCrossover(c1, c2)
			}
			o.mutate(c1)
			o.mutate(c2)

			c1.cost = o.cost(c1.genes)
			next = append(next, c1)
			if len(next) < p.PopulationSize {
				c2.cost = o.cost(c2.genes)
				next = append(next, c2)
			}
		}
		pop = next
	}

	for _, ch := range pop {
		if ch.cost < best.cost {
			best = ch.clone()
		}
	}
	return best.genes, best.cost
}

func (o *Optimizer) randomChromosome() *chromosome {
	genes := make([]float64, len(o.caseIDs))
	for i := range genes {
		genes[i] = o.randomHour()
	}
	return &chromosome{genes: genes}
}

// selectByRoulette picks a parent with probability proportional to its
// advantage over the worst chromosome in the population.
func (o *Optimizer) selectByRoulette(pop []*chromosome) *chromosome {
	worst := pop[0].cost
	for _, ch := range pop[1:] {
		if ch.cost > worst {
			worst = ch.cost
		}
	}

	sumFit := 0.0
	for _, ch := range pop {
		sumFit += worst - ch.cost
	}
	if sumFit == 0 {
		return pop[o.rng.Intn(len(pop))]
	}

	pick := o.rng.Float64() * sumFit
	partial := 0.0
	for _, ch := range pop {
		partial += worst - ch.cost
		if partial >= pick {
			return ch
		}
	}
	return pop[len(pop)-1]
}

// singlePointCrossover swaps the tails of two chromosomes at a random cut.
func (o *Optimizer) singlePointCrossover(c1, c2 *chromosome) {
	point := o.rng.Intn(len(c1.genes))
	for i := point; i < len(c1.genes); i++ {
		c1.genes[i], c2.genes[i] = c2.genes[i], c1.genes[i]
	}
}

// mutate resamples each gene with the mutation probability.
func (o *Optimizer) mutate(c *chromosome) {
	for i := range c.genes {
		if o.rng.Float64() < o.params.MutationRate {
			c.genes[i] = o.randomHour()
		}
	}
}
