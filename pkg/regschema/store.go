package regschema

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// extensions are probed in this order when looking up a chip.
var extensions = []string{".json", ".yaml", ".yml"}

// Store reads register descriptions from a directory holding one
// <chip>.json, <chip>.yaml or <chip>.yml file per chip.
type Store struct {
	Dir string
}

// NewStore returns a Store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Path returns the description file for chip and its format.
func (s *Store) Path(chip string) (string, Format, error) {
	for _, ext := range extensions {
		p := filepath.Join(s.Dir, chip+ext)
		info, err := os.Stat(p)
		if err == nil && !info.IsDir() {
			return p, FormatFor(p), nil
		}
	}
	return "", FormatJSON, errors.Wrapf(ErrSchemaNotFound, "%s in %s", chip, s.Dir)
}

// Load reads and parses the description for chip.
func (s *Store) Load(chip string) (*Schema, error) {
	path, format, err := s.Path(chip)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "regschema: read %s", path)
	}
	schema, err := Parse(filepath.Base(path), data, format)
	if err != nil {
		return nil, err
	}
	schema.Chip = chip
	return schema, nil
}

// Available lists the chips that have a description in the store.
func (s *Store) Available() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return nil, errors.Wrapf(err, "regschema: list %s", s.Dir)
	}
	seen := make(map[string]bool)
	var chips []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !isSchemaExt(ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		if !seen[name] {
			seen[name] = true
			chips = append(chips, name)
		}
	}
	sort.Strings(chips)
	return chips, nil
}

// FormatFor picks the format from a file extension; anything that is not
// .yaml/.yml is treated as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func isSchemaExt(ext string) bool {
	for _, e := range extensions {
		if e == ext {
			return true
		}
	}
	return false
}
