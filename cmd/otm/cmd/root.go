package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceMCU/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "otm",
	Short: "OpenTraceMCU - microcontroller project setup",
	Long: `OpenTraceMCU (otm) configures a microcontroller firmware project:
pick a chip from the catalog, choose register settings, and generate the
register constants, memory map, startup and system files, build
configuration and OpenOCD script.

Examples:
  otm chips --family STM32F4                  # List catalog chips
  otm show STM32F407VG                        # Show configurable fields
  otm generate STM32F407VG --clock 8          # Generate with defaults
  otm generate STM32F103C8 --set RCC_CR.HSEON=On --dry-run
  otm ui                                      # Launch the GUI`,
	Version:       "0.3.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if !flag.Parsed() {
			// glog refuses to honour its flags until the Go flag set is parsed.
			_ = flag.CommandLine.Parse(nil)
		}
		if verbose {
			if err := flag.Set("v", "1"); err != nil {
				return err
			}
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	defer glog.Flush()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		glog.Flush()
		os.Exit(1)
	}
}

func init() {
	// Log to stderr unless the user asks for log files.
	_ = flag.Set("logtostderr", "true")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)

	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "verbose output (same as --v=1)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFile, "project configuration file")
}
