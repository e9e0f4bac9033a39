// cmd/calibrate.go
package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/breathlab/respire/internal/config"
	"github.com/breathlab/respire/internal/device"
	"github.com/breathlab/respire/internal/session"
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Run the 20-second baseline calibration and print the profile",
	Long: `Connects the belt, collects force samples for the fixed calibration
window while the wearer breathes deeply, and prints the resulting
calibration profile.`,
	RunE: runCalibrate,
}

func init() {
	rootCmd.AddCommand(calibrateCmd)
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return err
	}

	belt, err := device.NewSim(device.SimConfig{
		SampleIntervalMs: settings.SimSampleIntervalMs,
		BreathsPerMinute: settings.SimBreathsPerMin,
		Depth:            settings.SimDepth,
		Baseline:         settings.SimBaseline,
		Noise:            settings.SimNoise,
		RateWarmupMs:     settings.SimRateWarmupMs,
	})
	if err != nil {
		return fmt.Errorf("create belt: %w", err)
	}

	proc := session.NewProcessor(belt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := proc.Connect(ctx); err != nil {
		return err
	}
	defer proc.Disconnect()

	if err := proc.StartCalibration(); err != nil {
		return err
	}
	fmt.Println("calibrating: breathe deeply into the belt")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for range ticker.C {
		st := proc.Snapshot()
		if !st.IsCalibrating {
			break
		}
		fmt.Printf("  progress: %3.0f%%\n", st.CalibrationProgress*100)
	}

	st := proc.Snapshot()
	if st.CalibrationProfile == nil {
		return fmt.Errorf("calibration failed: the collected force range was too narrow, breathe more deeply and retry")
	}

	p := st.CalibrationProfile
	fmt.Println("calibration complete:")
	fmt.Printf("  min force: %8.3f\n", p.MinForce)
	fmt.Printf("  max force: %8.3f\n", p.MaxForce)
	fmt.Printf("  baseline:  %8.3f\n", p.BaselineForce)
	fmt.Printf("  range:     %8.3f\n", p.ForceRange)
	return nil
}
