package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceMCU/internal/ui"
)

var (
	uiOut        string
	uiDirect     bool
	uiMode       modeFlag
	uiStrict     bool
	uiNoRegister bool
)

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Launch the graphical setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		opts, err := p.options(sessionOptions{
			mode:       uiMode,
			direct:     uiDirect,
			strict:     uiStrict,
			noRegister: uiNoRegister,
		})
		if err != nil {
			return err
		}
		out := uiOut
		if out == "" {
			out = p.cfg.Resolve(p.cfg.Output)
		}

		state := ui.NewState()
		state.SetAppVersion(rootCmd.Version)
		return ui.Run(ui.Env{
			Catalog:   p.catalog,
			Schemas:   p.schemas,
			Options:   opts,
			OutputDir: out,
		}, state)
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
	uiCmd.Flags().StringVarP(&uiOut, "out", "o", "", "output directory (default from config)")
	uiCmd.Flags().Var(&uiMode, "mode", "write mode (default: config mode)")
	uiCmd.Flags().BoolVar(&uiDirect, "direct", false, "write files one by one instead of staging")
	uiCmd.Flags().BoolVar(&uiStrict, "strict", false, "fail the save when a field has no selection")
	uiCmd.Flags().BoolVar(&uiNoRegister, "no-register", false, "skip toolchain target registration")
}
