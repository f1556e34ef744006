package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/admission-sim/admission-sim/mining"
)

func newMineCmd(cfg *envConfig) *cobra.Command {
	var (
		eventLogPath string
		outPath      string
	)

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine calibration parameters from an event log",
		Run: func(cmd *cobra.Command, args []string) {
			if eventLogPath == "" {
				logrus.Fatal("No event log given; run the simulation with --event-log first")
			}

			params, err := mining.MineFile(eventLogPath)
			if err != nil {
				logrus.Fatalf("Mining failed: %v", err)
			}
			logrus.Infof("Mined %d activities and %d process variants from %s",
				len(params.Durations), len(params.Variants), eventLogPath)

			if err := params.WriteFile(outPath); err != nil {
				logrus.Fatalf("Cannot write parameters: %v", err)
			}
			logrus.Infof("Calibration parameters written to %s", outPath)
		},
	}

	cmd.Flags().StringVar(&eventLogPath, "event-log", cfg.EventLog, "Event log CSV to mine")
	cmd.Flags().StringVar(&outPath, "out", "pm_params.yaml", "Output parameter file")
	return cmd
}
