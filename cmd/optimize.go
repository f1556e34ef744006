package cmd

import (
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/admission-sim/admission-sim/mining"
	"github.com/admission-sim/admission-sim/opt"
	"github.com/admission-sim/admission-sim/sim"
	"github.com/admission-sim/admission-sim/sim/policy"
)

func newOptimizeCmd(cfg *envConfig) *cobra.Command {
	var (
		seed      int64
		cases     int
		paramFile string
		outPath   string
		fullYear  bool

		params = opt.DefaultParams()
	)

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Search admission schedules with a genetic algorithm and annealing",
		Run: func(cmd *cobra.Command, args []string) {
			var overrides sim.DurationOverrides
			if paramFile != "" {
				mined, err := mining.LoadFile(paramFile)
				if err != nil {
					logrus.Fatalf("Cannot load mined parameters: %v", err)
				}
				overrides = mined.Overrides()
			}

			caseIDs := make([]int, cases)
			for i := range caseIDs {
				caseIDs[i] = i + 1
			}

			rng := sim.NewPartitionedRNG(seed)
			evaluator := opt.SimulationEvaluator(seed, params.HorizonHours, overrides)

			optimizer, err := opt.New(params, caseIDs, evaluator, rng.ForSubsystem(sim.SubsystemOptimizer))
			if err != nil {
				logrus.Fatalf("Cannot build optimizer: %v", err)
			}

			logrus.Infof("Optimizing admissions for %d cases over %.0fh", cases, params.HorizonHours)
			startTime := time.Now()
			result := optimizer.Run()
			logrus.Infof("Search done in %v: GA cost %.2f, SA cost %.2f, %d evaluations",
				time.Since(startTime), result.GACost, result.SACost, result.Evaluations)

			if outPath != "" {
				data, err := yaml.Marshal(result.Admissions)
				if err != nil {
					logrus.Fatalf("Cannot encode schedule: %v", err)
				}
				if err := os.WriteFile(outPath, data, 0o644); err != nil {
					logrus.Fatalf("Cannot write schedule: %v", err)
				}
				logrus.Infof("Optimized schedule written to %s", outPath)
			}

			if fullYear {
				problem, err := newProblem(seed, paramFile)
				if err != nil {
					logrus.Fatalf("Cannot build problem: %v", err)
				}
				s := sim.NewSimulator(problem, policy.NewFixedPlanner(result.Admissions))
				report, err := s.Run(365 * 24)
				if err != nil {
					logrus.Fatalf("Full-year run failed: %v", err)
				}
				report.Print()
			}
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", cfg.Seed, "Seed for evaluation runs and the search itself")
	cmd.Flags().IntVar(&cases, "cases", 100, "Number of case admissions to optimize")
	cmd.Flags().StringVar(&paramFile, "params", cfg.ParamFile, "Calibrate evaluation runs from this mined parameter file")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the optimized schedule YAML to this path")
	cmd.Flags().BoolVar(&fullYear, "full-year", false, "Replay the optimized schedule over a full year")

	cmd.Flags().Float64Var(&params.HorizonHours, "eval-horizon", params.HorizonHours, "Evaluation horizon per candidate in hours")
	cmd.Flags().IntVar(&params.PopulationSize, "population", params.PopulationSize, "GA population size")
	cmd.Flags().IntVar(&params.MaxGenerations, "generations", params.MaxGenerations, "GA generations")
	cmd.Flags().Float64Var(&params.CrossoverRate, "crossover-rate", params.CrossoverRate, "GA crossover probability")
	cmd.Flags().Float64Var(&params.MutationRate, "mutation-rate", params.MutationRate, "GA per-gene mutation probability")
	cmd.Flags().IntVar(&params.EliteCount, "elites", params.EliteCount, "GA chromosomes carried over unchanged")
	cmd.Flags().Float64Var(&params.InitialTemperature, "sa-temperature", params.InitialTemperature, "SA initial temperature")
	cmd.Flags().Float64Var(&params.CoolingRate, "sa-cooling", params.CoolingRate, "SA geometric cooling rate")
	return cmd
}
