// Package catalog resolves a microcontroller name to the metadata the setup
// pipeline needs: vendor, compiler target triple, family and clock profile.
package catalog

import (
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// ErrChipNotFound is returned by Lookup for unknown chip names.
var ErrChipNotFound = errors.New("catalog: chip not found")

// Family holds the attributes shared by every part of a family.
type Family struct {
	Name          string
	Vendor        string
	Target        string // compiler target triple, e.g. thumbv7em-none-eabihf
	OpenOCDTarget string // OpenOCD target script, e.g. stm32f4x.cfg (optional)
}

// Chip is a resolved catalog entry. It is immutable for a session.
type Chip struct {
	Name          string
	Vendor        string
	Target        string
	Family        string
	SystemProfile string // selects the clock-init routine
	OpenOCDTarget string
	Description   string
}

// Catalog knows how to look up chips by name.
type Catalog interface {
	Lookup(name string) (Chip, error)
	Chips() []Chip
}

// MemoryCatalog is an in-memory Catalog populated from catalog files or
// directly through AddFamily/AddChip.
type MemoryCatalog struct {
	mu       sync.RWMutex
	families map[string]Family
	chips    map[string]Chip
	order    []string
}

// NewMemoryCatalog creates an empty catalog.
func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		families: make(map[string]Family),
		chips:    make(map[string]Chip),
	}
}

// AddFamily registers a family. Names must be unique.
func (c *MemoryCatalog) AddFamily(f Family) error {
	if f.Name == "" {
		return errors.New("catalog: family without name")
	}
	if f.Target == "" {
		return errors.Errorf("catalog: family %s has no target", f.Name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.families[f.Name]; ok {
		return errors.Errorf("catalog: duplicate family %s", f.Name)
	}
	c.families[f.Name] = f
	return nil
}

// AddChip registers a chip. Vendor, Target and OpenOCDTarget are inherited
// from the chip's family when left empty.
func (c *MemoryCatalog) AddChip(chip Chip) error {
	if chip.Name == "" {
		return errors.New("catalog: chip without name")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fam, ok := c.families[chip.Family]
	if !ok {
		return errors.Errorf("catalog: chip %s references unknown family %q", chip.Name, chip.Family)
	}
	if _, dup := c.chips[chip.Name]; dup {
		return errors.Errorf("catalog: duplicate chip %s", chip.Name)
	}
	if chip.Vendor == "" {
		chip.Vendor = fam.Vendor
	}
	if chip.Target == "" {
		chip.Target = fam.Target
	}
	if chip.OpenOCDTarget == "" {
		chip.OpenOCDTarget = fam.OpenOCDTarget
	}
	c.chips[chip.Name] = chip
	c.order = append(c.order, chip.Name)
	return nil
}

// Lookup implements the Catalog interface. An exact match wins; otherwise a
// case-insensitive match is accepted so "stm32f407vg" resolves too.
func (c *MemoryCatalog) Lookup(name string) (Chip, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if chip, ok := c.chips[name]; ok {
		return chip, nil
	}
	for _, n := range c.order {
		if strings.EqualFold(n, name) {
			return c.chips[n], nil
		}
	}
	return Chip{}, errors.Wrapf(ErrChipNotFound, "%q", name)
}

// Chips returns every chip in declaration order.
func (c *MemoryCatalog) Chips() []Chip {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Chip, 0, len(c.order))
	for _, n := range c.order {
		out = append(out, c.chips[n])
	}
	return out
}

// Family returns a registered family by name.
func (c *MemoryCatalog) Family(name string) (Family, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.families[name]
	return f, ok
}

// Load adds every declaration of a parsed catalog file. Families are
// registered before chips so declaration order does not matter.
func (c *MemoryCatalog) Load(file *File) error {
	if file == nil {
		return errors.New("catalog: nil file")
	}
	for _, d := range file.Decls {
		if d.Family == nil {
			continue
		}
		f, err := familyFromDecl(d.Family)
		if err != nil {
			return err
		}
		if err := c.AddFamily(f); err != nil {
			return errors.Wrap(err, d.Family.Pos.String())
		}
	}
	for _, d := range file.Decls {
		if d.MCU == nil {
			continue
		}
		chip, err := chipFromDecl(d.MCU)
		if err != nil {
			return err
		}
		if err := c.AddChip(chip); err != nil {
			return errors.Wrap(err, d.MCU.Pos.String())
		}
	}
	return nil
}

// LoadFiles parses the provided catalog files and loads each of them.
func (c *MemoryCatalog) LoadFiles(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	parser, err := NewParser()
	if err != nil {
		return err
	}
	for _, path := range paths {
		file, err := parser.ParseFile(path)
		if err != nil {
			return errors.Wrapf(err, "catalog: %s", path)
		}
		if err := c.Load(file); err != nil {
			return errors.Wrapf(err, "catalog: %s", path)
		}
	}
	return nil
}

// LoadDir recursively loads every .cat file below root.
func (c *MemoryCatalog) LoadDir(root string) error {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".cat") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "catalog: walk")
	}
	return c.LoadFiles(paths...)
}

func familyFromDecl(d *FamilyDecl) (Family, error) {
	f := Family{Name: d.Name}
	for _, p := range d.Props {
		switch p.Key {
		case "vendor":
			f.Vendor = p.Value
		case "target":
			f.Target = p.Value
		case "openocd":
			f.OpenOCDTarget = p.Value
		default:
			return Family{}, errors.Errorf("%s: unknown family property %q", p.Pos, p.Key)
		}
	}
	m := props(d.Props)
	for _, req := range []string{"vendor", "target"} {
		if _, ok := m[req]; !ok {
			return Family{}, errors.Errorf("%s: family %s is missing %q", d.Pos, d.Name, req)
		}
	}
	return f, nil
}

func chipFromDecl(d *MCUDecl) (Chip, error) {
	chip := Chip{Name: d.Name}
	for _, p := range d.Props {
		switch p.Key {
		case "family":
			chip.Family = p.Value
		case "system":
			chip.SystemProfile = p.Value
		case "description":
			chip.Description = p.Value
		case "vendor":
			chip.Vendor = p.Value
		case "target":
			chip.Target = p.Value
		case "openocd":
			chip.OpenOCDTarget = p.Value
		default:
			return Chip{}, errors.Errorf("%s: unknown mcu property %q", p.Pos, p.Key)
		}
	}
	m := props(d.Props)
	for _, req := range []string{"family", "system"} {
		if _, ok := m[req]; !ok {
			return Chip{}, errors.Errorf("%s: mcu %s is missing %q", d.Pos, d.Name, req)
		}
	}
	return chip, nil
}
