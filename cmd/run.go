// cmd/run.go
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/breathlab/respire/internal/config"
	"github.com/breathlab/respire/internal/device"
	"github.com/breathlab/respire/internal/recovery"
	"github.com/breathlab/respire/internal/session"
	"github.com/breathlab/respire/internal/stream"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect the belt and stream live breath state",
	Long: `Connects the (simulated) respiration belt, runs the signal core, and
publishes the live breath state over the configured transports until
interrupted.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
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
	defer recovery.HandlePanicFunc(proc.Disconnect)
	defer proc.Disconnect()

	if settings.MQTTEnabled {
		pub, err := stream.NewMQTTPublisher(stream.MQTTConfig{
			Broker:     settings.MQTTBroker,
			ClientID:   "respire-" + uuid.NewString()[:8],
			Topic:      settings.MQTTTopic,
			IntervalMs: settings.PublishIntervalMs,
		}, proc.Snapshot)
		if err != nil {
			return err
		}
		defer pub.Close()
		go pub.Run(ctx)
	}

	if settings.WebEnabled {
		web := stream.NewWebServer(stream.WebConfig{
			Addr:       settings.WebListen,
			IntervalMs: settings.PublishIntervalMs,
		}, proc.Snapshot)
		go func() {
			if err := web.Run(ctx); err != nil {
				log.Printf("respire: web server error: %v", err)
			}
		}()
	}

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("respire: shutting down")
	return nil
}
