package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/admission-sim/admission-sim/mining"
	"github.com/admission-sim/admission-sim/sim"
	"github.com/admission-sim/admission-sim/sim/eventlog"
	"github.com/admission-sim/admission-sim/sim/policy"
)

// attacher is satisfied by all planners that fan reports out.
type attacher interface {
	Attach(policy.Reporter)
}

// newProblem builds the simulation problem, calibrated from mined parameters
// when a parameter file is given.
func newProblem(seed int64, paramFile string) (sim.Problem, error) {
	if paramFile == "" {
		return sim.NewHealthcareProblem(seed)
	}
	params, err := mining.LoadFile(paramFile)
	if err != nil {
		return nil, err
	}
	return sim.NewCalibratedProblem(seed, params.Overrides())
}

func newRunCmd(cfg *envConfig) *cobra.Command {
	var (
		seed         int64
		horizonHours float64
		plannerName  string
		epsilon      float64
		eventLogPath string
		paramFile    string
		occupancy    bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hospital admission simulation",
		Run: func(cmd *cobra.Command, args []string) {
			rng := sim.NewPartitionedRNG(seed)
			planner := policy.NewPlanner(plannerName, epsilon, rng.ForSubsystem(sim.SubsystemPlanner))

			var logWriter *eventlog.Writer
			if eventLogPath != "" {
				var err error
				logWriter, err = eventlog.NewFileWriter(eventLogPath)
				if err != nil {
					logrus.Fatalf("Cannot open event log: %v", err)
				}
				defer logWriter.Close()
				planner.(attacher).Attach(logWriter)
			}

			var occ *eventlog.Occupancy
			if occupancy {
				occ = eventlog.NewOccupancy()
				planner.(attacher).Attach(occ)
			}

			problem, err := newProblem(seed, paramFile)
			if err != nil {
				logrus.Fatalf("Cannot build problem: %v", err)
			}

			logrus.Infof("Starting simulation: planner=%s horizon=%.0fh seed=%d", plannerName, horizonHours, seed)
			startTime := time.Now()

			s := sim.NewSimulator(problem, planner)
			report, err := s.Run(horizonHours)
			if err != nil {
				logrus.Fatalf("Simulation failed: %v", err)
			}

			report.Print()
			if logWriter != nil {
				if err := logWriter.Flush(); err != nil {
					logrus.Fatalf("Cannot write event log: %v", err)
				}
				logrus.Infof("Event log: %d rows written to %s", logWriter.Rows(), eventLogPath)
			}
			if occ != nil {
				sum := occ.Summary()
				logrus.Infof("Occupancy: mean busy %.1f, peak busy %d, overtime hours %d",
					sum.MeanBusy, sum.PeakBusy, sum.OvertimeHours)
			}
			logrus.Infof("Simulation complete in %v.", time.Since(startTime))
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", cfg.Seed, "Seed for arrival, duration and routing sampling")
	cmd.Flags().Float64Var(&horizonHours, "horizon", 365*24, "Simulation horizon in hours")
	cmd.Flags().StringVar(&plannerName, "planner", "naive", "Planner (naive, wave, bandit)")
	cmd.Flags().Float64Var(&epsilon, "epsilon", 0.1, "Exploration rate of the bandit planner")
	cmd.Flags().StringVar(&eventLogPath, "event-log", cfg.EventLog, "Write an event log CSV to this path")
	cmd.Flags().StringVar(&paramFile, "params", cfg.ParamFile, "Calibrate activity durations from this mined parameter file")
	cmd.Flags().BoolVar(&occupancy, "occupancy", false, "Log an occupancy summary after the run")
	return cmd
}
