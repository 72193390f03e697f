package harness

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// GoldenDir is the directory, next to the scenario files, holding golden
// files.
const GoldenDir = "golden"

// FindScenarios returns the .yaml and .yml files under dir in lexical
// order. filter is a glob matched against the file name without its
// extension; empty matches everything.
func FindScenarios(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// GoldenPath returns where the golden file of the named scenario lives
// for scenarios stored in dir.
func GoldenPath(dir, name string) string {
	return filepath.Join(dir, GoldenDir, name+".golden")
}
