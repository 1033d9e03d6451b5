package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/codegen"
)

var (
	genClock       string
	genSets        []string
	genOut         string
	genStrict      bool
	genDirect      bool
	genMode        modeFlag
	genDryRun      bool
	genNoRegister  bool
	genInteractive bool
)

var generateCmd = &cobra.Command{
	Use:   "generate <chip>",
	Short: "Generate the register header and project files for a chip",
	Long: `Compose the register values of a chip from the default selections (and
any --set overrides), then write core_header.rs, memory.x, startup.s,
mcu.rs, reset.rs, system.rs, config.toml and openocd.cfg into the output
directory and register the chip's compiler target with rustup.

Fields are referenced as REG.FIELD or by their label; choices by option
label or value.

Examples:
  otm generate STM32F103C8 --clock 72
  otm generate STM32F103C8 --set RCC_CR.HSEON=On --set "PLL source=HSE"
  otm generate STM32F407VG --interactive
  otm generate STM32F407VG --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		s, err := p.open(args[0], sessionOptions{mode: genMode, direct: genDirect, strict: genStrict, noRegister: genNoRegister})
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}

		for _, a := range genSets {
			ref, choice, err := parseSet(a)
			if err != nil {
				return err
			}
			if err := s.Form.Set(ref, choice); err != nil {
				return err
			}
		}

		if genInteractive {
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				return errors.New("--interactive needs a terminal on stdin")
			}
			if err := promptFields(s.Form, os.Stdin, os.Stdout); err != nil {
				return err
			}
		}

		clock := genClock
		if clock == "" {
			clock = s.DefaultClock()
		}

		if genDryRun {
			arts, err := s.Render(clock)
			if err != nil {
				return err
			}
			printArtifacts(arts)
			return nil
		}

		out := genOut
		if out == "" {
			out = p.cfg.Resolve(p.cfg.Output)
		}
		rep, err := s.Save(cmd.Context(), clock, out)
		if err != nil {
			return err
		}

		fmt.Printf("Configured %s (%s), clock %d MHz\n", rep.Chip.Name, rep.Chip.Target, rep.ClockMHz)
		for _, e := range rep.Composed.Entries() {
			fmt.Printf("  %-16s @ %-10s = 0x%08X\n", e.Register(), e.Address(), e.Value)
		}
		fmt.Printf("Output written to %s\n", rep.OutputRoot)
		if rep.Warning != nil {
			fmt.Fprintf(os.Stderr, "Warning: target %s not registered: %v\n", rep.Chip.Target, rep.Warning)
		}
		return nil
	},
}

func printArtifacts(arts []codegen.Artifact) {
	for _, a := range arts {
		src := a.Source
		if src == "" {
			src = "generated"
		}
		fmt.Printf("%-16s %6d bytes  (%s)\n", a.Name, len(a.Data), src)
	}
	for _, a := range arts {
		if a.Name == codegen.CoreHeaderFile {
			fmt.Printf("\n--- %s ---\n%s", a.Name, a.Data)
		}
	}
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&genClock, "clock", "", "clock in MHz (default: the description's clock)")
	generateCmd.Flags().StringArrayVar(&genSets, "set", nil, "field choice as REG.FIELD=CHOICE (repeatable)")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "output directory (default: config output)")
	generateCmd.Flags().BoolVar(&genStrict, "strict", false, "fail when a field has no selection")
	generateCmd.Flags().BoolVar(&genDirect, "direct", false, "write each file as it is produced instead of staging")
	generateCmd.Flags().Var(&genMode, "mode", "write mode (default: config mode)")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "render in memory and print the result")
	generateCmd.Flags().BoolVar(&genNoRegister, "no-register", false, "skip rustup target registration")
	generateCmd.Flags().BoolVarP(&genInteractive, "interactive", "i", false, "prompt for every field")
}
