package cmd

import (
	"github.com/spf13/pflag"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/codegen"
)

// modeFlag is a --mode value; unset keeps the mode from the config file.
type modeFlag struct {
	mode codegen.WriteMode
	set  bool
}

var _ pflag.Value = (*modeFlag)(nil)

func (m *modeFlag) String() string {
	if !m.set {
		return ""
	}
	return m.mode.String()
}

func (m *modeFlag) Set(s string) error {
	mode, err := codegen.ParseWriteMode(s)
	if err != nil {
		return err
	}
	m.mode, m.set = mode, true
	return nil
}

func (m *modeFlag) Type() string { return "staged|direct" }
