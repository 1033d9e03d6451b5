package catalog

import (
	_ "embed"
	"os"
)

//go:embed default.cat
var defaultCatalog string

// Default returns a fresh catalog holding the built-in STM32 entries.
func Default() (*MemoryCatalog, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, err
	}
	file, err := parser.ParseString("default.cat", defaultCatalog)
	if err != nil {
		return nil, err
	}
	c := NewMemoryCatalog()
	if err := c.Load(file); err != nil {
		return nil, err
	}
	return c, nil
}

// Open loads the catalog at path, or the built-in one when path is empty.
// A directory is walked for .cat files.
func Open(path string) (*MemoryCatalog, error) {
	if path == "" {
		return Default()
	}
	c := NewMemoryCatalog()
	var err error
	if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
		err = c.LoadDir(path)
	} else {
		err = c.LoadFiles(path)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}
