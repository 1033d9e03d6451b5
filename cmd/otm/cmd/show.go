package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/regform"
	"github.com/OpenTraceLab/OpenTraceMCU/pkg/setup"
)

var showJSON bool

// FieldInfo is the JSON form of a visible field.
type FieldInfo struct {
	Ref         string       `json:"ref"`
	Label       string       `json:"label"`
	CombinedKey string       `json:"combined_key"`
	Mask        string       `json:"mask"`
	Options     []OptionInfo `json:"options"`
	Default     *int         `json:"default,omitempty"`
}

// OptionInfo is one enumerated choice.
type OptionInfo struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// HiddenInfo is the JSON form of a hidden contribution.
type HiddenInfo struct {
	CombinedKey string `json:"combined_key"`
	Field       string `json:"field"`
	Mask        string `json:"mask"`
	Value       string `json:"value"`
}

// ChipInfo is the JSON document printed by show --json.
type ChipInfo struct {
	Name    string       `json:"name"`
	Vendor  string       `json:"vendor"`
	Family  string       `json:"family"`
	Target  string       `json:"target"`
	System  string       `json:"system"`
	OpenOCD string       `json:"openocd,omitempty"`
	Clock   string       `json:"clock"`
	Fields  []FieldInfo  `json:"fields"`
	Hidden  []HiddenInfo `json:"hidden"`
}

var showCmd = &cobra.Command{
	Use:   "show <chip>",
	Short: "Show the configurable register fields of a chip",
	Long: `Show the catalog entry of a chip, its editable register fields with their
options (the default is marked with '*'), and the fixed contributions of
hidden fields.

Examples:
  otm show STM32F103C8
  otm show STM32F103C8 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := loadProject()
		if err != nil {
			return err
		}
		s, err := setup.Open(p.catalog, p.schemas, args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		if showJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(chipInfo(s))
		}
		printSession(s)
		return nil
	},
}

func chipInfo(s *setup.Session) ChipInfo {
	info := ChipInfo{
		Name:    s.Chip.Name,
		Vendor:  s.Chip.Vendor,
		Family:  s.Chip.Family,
		Target:  s.Chip.Target,
		System:  s.Chip.SystemProfile,
		OpenOCD: s.Chip.OpenOCDTarget,
		Clock:   s.DefaultClock(),
		Fields:  []FieldInfo{},
		Hidden:  []HiddenInfo{},
	}
	for _, f := range s.Form.Fields() {
		fi := FieldInfo{Ref: f.Ref(), Label: f.Label, CombinedKey: f.CombinedKey.String(), Mask: f.Mask, Options: []OptionInfo{}}
		for _, o := range f.Options {
			fi.Options = append(fi.Options, OptionInfo{Label: o.Label, Value: o.Value})
		}
		if f.HasDefault() {
			d := f.DefaultIndex
			fi.Default = &d
		}
		info.Fields = append(info.Fields, fi)
	}
	hidden := s.Form.Hidden()
	for _, k := range hidden.Keys() {
		for _, h := range hidden.Get(k) {
			info.Hidden = append(info.Hidden, HiddenInfo{CombinedKey: k.String(), Field: h.Field, Mask: h.Mask, Value: h.Value})
		}
	}
	return info
}

func printSession(s *setup.Session) {
	c := s.Chip
	fmt.Printf("MCU:     %s\n", c.Name)
	fmt.Printf("Vendor:  %s\n", c.Vendor)
	fmt.Printf("Family:  %s\n", c.Family)
	fmt.Printf("Target:  %s\n", c.Target)
	fmt.Printf("System:  %s\n", c.SystemProfile)
	if c.OpenOCDTarget != "" {
		fmt.Printf("OpenOCD: %s\n", c.OpenOCDTarget)
	}
	fmt.Printf("Clock:   %s MHz\n", s.DefaultClock())

	fields := s.Form.Fields()
	fmt.Printf("\nFields (%d):\n", len(fields))
	for _, f := range fields {
		printField(f)
	}

	hidden := s.Form.Hidden()
	if hidden.Len() == 0 {
		return
	}
	fmt.Printf("\nHidden contributions:\n")
	for _, k := range hidden.Keys() {
		for _, h := range hidden.Get(k) {
			fmt.Printf("  %-24s %-12s = %s (mask %s)\n", k, h.Field, h.Value, h.Mask)
		}
	}
}

func printField(f regform.PresentedField) {
	fmt.Printf("  %-20s %s  [%s mask %s]\n", f.Ref(), f.Label, f.CombinedKey, f.Mask)
	if len(f.Options) == 0 {
		fmt.Printf("      (no settings)\n")
	}
	for i, o := range f.Options {
		mark := " "
		if i == f.DefaultIndex {
			mark = "*"
		}
		fmt.Printf("    %s %-20s %s\n", mark, o.Label, o.Value)
	}
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output as JSON")
}
