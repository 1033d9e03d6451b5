package codegen

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "codegen: write %s", path)
	}
	return nil
}

// writeStaged writes every artifact into a scratch directory inside
// outputRoot and renames them into place once all writes succeeded. Files
// in outputRoot that are not generated are left alone.
func writeStaged(outputRoot string, arts []Artifact) error {
	stage, err := os.MkdirTemp(outputRoot, ".stage-")
	if err != nil {
		return errors.Wrapf(err, "codegen: create staging directory in %s", outputRoot)
	}
	defer os.RemoveAll(stage)

	for _, a := range arts {
		if err := writeFile(filepath.Join(stage, a.Name), a.Data); err != nil {
			return err
		}
	}
	for _, a := range arts {
		if err := os.Rename(filepath.Join(stage, a.Name), filepath.Join(outputRoot, a.Name)); err != nil {
			return errors.Wrapf(err, "codegen: move %s into place", a.Name)
		}
	}
	return nil
}
