package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/probe"
)

var probeTimeout time.Duration

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "List connected debug probes",
	Long: `Enumerate USB devices and list the recognised debug probes
(ST-Link, CMSIS-DAP, SEGGER J-Link) with the OpenOCD interface script that
drives them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), probeTimeout)
		defer cancel()

		probes, err := probe.Discover(ctx)
		if err != nil {
			return fmt.Errorf("probe discovery failed: %w", err)
		}
		if len(probes) == 0 {
			fmt.Println("No debug probes found")
			return nil
		}
		fmt.Printf("Found %d probe(s):\n", len(probes))
		for _, p := range probes {
			fmt.Printf("  %-36s %-8s interface/%s\n", p.Label(), p.Location(), p.OpenOCDInterface)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
	probeCmd.Flags().DurationVar(&probeTimeout, "timeout", 5*time.Second, "enumeration timeout")
}
