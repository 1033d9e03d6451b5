package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var chipsFamily string

var chipsCmd = &cobra.Command{
	Use:   "chips",
	Short: "List the chips in the catalog",
	Long: `List every chip of the catalog with its family, compiler target and
clock profile. Chips without a register description are marked with '-'.

Examples:
  otm chips
  otm chips --family STM32F4`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}

		described := make(map[string]bool)
		if names, err := p.schemas.Available(); err == nil {
			for _, n := range names {
				described[n] = true
			}
		}

		count := 0
		fmt.Printf("%-2s %-14s %-9s %-24s %-10s %s\n", "", "NAME", "FAMILY", "TARGET", "SYSTEM", "DESCRIPTION")
		for _, c := range p.catalog.Chips() {
			if chipsFamily != "" && !strings.EqualFold(c.Family, chipsFamily) {
				continue
			}
			mark := "-"
			if described[c.Name] {
				mark = "*"
			}
			fmt.Printf("%-2s %-14s %-9s %-24s %-10s %s\n", mark, c.Name, c.Family, c.Target, c.SystemProfile, c.Description)
			count++
		}
		fmt.Printf("\n%d chip(s)\n", count)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chipsCmd)
	chipsCmd.Flags().StringVar(&chipsFamily, "family", "", "only list chips of this family")
}
