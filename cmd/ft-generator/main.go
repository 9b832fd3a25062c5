// Command ft-generator reads a CSV flow table and a YAML configuration
// file, plans and builds each flow with the Flow Planner, and writes the
// resulting packets to a PCAP file while emitting a CSV traffic summary.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CESNET/ft-generator/internal/driver"
)

var cmd driver.Cmd

var rootCmd = &cobra.Command{
	Use:   "ft-generator",
	Short: "Synthetic network-traffic generator",
	Run: func(_ *cobra.Command, _ []string) {
		if err := driver.Run(cmd); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&cmd.ProfilesPath, "profiles", "p", "", "Path to the CSV flow profile table (required)")
	flags.StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to the YAML configuration file (required)")
	flags.StringVarP(&cmd.OutputPath, "output", "o", "out.pcap", "Path (or printf pattern, when rotating) for the PCAP output")
	flags.StringVarP(&cmd.ReportPath, "report", "r", "", "Path for the CSV traffic summary (disabled if unset)")
	flags.Uint32Var(&cmd.Seed, "seed", 0, "RandomGenerator seed (defaults to a time-derived value)")
	flags.Uint32Var(&cmd.AddressSeed, "address-seed", 1, "Address generator seed, in [1, 2^31-2]")
	flags.IntVar(&cmd.Parallelism, "parallelism", 1, "Number of flows to plan and build concurrently")

	rootCmd.MarkFlagRequired("profiles")
	rootCmd.MarkFlagRequired("config")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}
