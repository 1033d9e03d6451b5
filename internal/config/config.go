// Package config reads and writes the project file (otm.yaml) that tells
// the wizard where its inputs live and where to write its output.
package config

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/OpenTraceLab/OpenTraceMCU/pkg/codegen"
)

// DefaultFile is the project file name looked up in the working directory.
const DefaultFile = "otm.yaml"

// Config stores the project settings.
type Config struct {
	// Definitions holds one register description per chip.
	Definitions string `yaml:"definitions"`
	// Catalog is a catalog file or directory; empty selects the built-in one.
	Catalog string `yaml:"catalog,omitempty"`
	// Sources is the root of the chip-specific memory/startup/mcu/system files.
	Sources string `yaml:"sources"`
	Output  string `yaml:"output"`

	// BuildTemplate is resolved against Sources unless absolute.
	BuildTemplate string `yaml:"build_template"`
	TargetToken   string `yaml:"target_token"`

	// Toolchain is the target registration command; the target is appended.
	Toolchain string `yaml:"toolchain"`
	// Mode is "staged" or "direct".
	Mode string `yaml:"mode"`

	OpenOCD OpenOCD `yaml:"openocd"`

	// path is where the config was loaded from; relative paths resolve
	// against its directory.
	path string
}

// OpenOCD configures the generated openocd.cfg.
type OpenOCD struct {
	Interface string `yaml:"interface"`
	Transport string `yaml:"transport"`
}

// Default returns the settings used when no project file exists.
func Default() *Config {
	return &Config{
		Definitions:   "definitions",
		Sources:       "sources",
		Output:        ".setup",
		BuildTemplate: "config.toml.in",
		TargetToken:   codegen.DefaultTargetToken,
		Toolchain:     "rustup target add",
		Mode:          codegen.Staged.String(),
		OpenOCD: OpenOCD{
			Interface: "stlink.cfg",
			Transport: "dapdirect_swd",
		},
	}
}

// LoadConfig reads path. A missing file yields the defaults; keys absent
// from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()
	cfg.path = path
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "config: read")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "config: parse %s", path)
	}
	if _, err := codegen.ParseWriteMode(cfg.Mode); err != nil {
		return nil, errors.Wrapf(err, "config: %s", path)
	}
	return cfg, nil
}

// SaveConfig writes cfg to path.
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "config: encode")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "config: create directory")
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Resolve returns p relative to the directory of the loaded file. Absolute
// and empty paths are returned unchanged.
func (c *Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.path), p)
}

// Layout returns the source layout for code generation.
func (c *Config) Layout() codegen.Layout {
	l := codegen.DefaultLayout(c.Resolve(c.Sources))
	if c.BuildTemplate != "" {
		l.BuildTemplate = c.BuildTemplate
	}
	if c.TargetToken != "" {
		l.TargetToken = c.TargetToken
	}
	return l
}

// GeneratorOptions returns the code generation options.
func (c *Config) GeneratorOptions() codegen.Options {
	mode, _ := codegen.ParseWriteMode(c.Mode)
	return codegen.Options{
		Mode:             mode,
		OpenOCDInterface: c.OpenOCD.Interface,
		OpenOCDTransport: c.OpenOCD.Transport,
	}
}
