// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/breathlab/respire/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "respire",
	Short: "Real-time breath signal processing from a respiration belt",
	Long: `respire turns a raw force stream from a respiration-belt sensor into a
normalized breath amplitude, a discrete breath phase, and a breathing-rate
estimate, with a one-shot calibration step personalizing the range to the
wearer. The live state is published over a JSON/WebSocket endpoint and
optionally MQTT.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags (override config file)
	rootCmd.PersistentFlags().BoolP("mqtt", "m", false, "publish live state over MQTT")
	rootCmd.PersistentFlags().StringP("broker", "b", "tcp://localhost:1883", "MQTT broker URL")
	rootCmd.PersistentFlags().StringP("listen", "l", ":8089", "web endpoint listen address")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")

	// Bind flags to viper
	viper.BindPFlag("mqtt_enabled", rootCmd.PersistentFlags().Lookup("mqtt"))
	viper.BindPFlag("mqtt_broker", rootCmd.PersistentFlags().Lookup("broker"))
	viper.BindPFlag("web_listen", rootCmd.PersistentFlags().Lookup("listen"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if err := config.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}
