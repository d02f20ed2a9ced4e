package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	m "movemut.dev/pkg/movemut/internal/model"
)

// MutantsFileName is the catalog file an external mutant generator produces.
const MutantsFileName = "mutants.toml"

type mutantEntry struct {
	ID          string `toml:"id"`
	File        string `toml:"file"`
	Replacement string `toml:"replacement"`
}

type mutantsFile struct {
	Mutants []mutantEntry `toml:"mutants"`
}

// LoadMutants reads a mutant catalog. Each entry names the original file it
// replaces (absolute, or relative to packageRoot) and the path of the
// replacement source text (relative to the catalog file). The replacement
// text is loaded eagerly so a sweep never goes back to the catalog directory.
func LoadMutants(catalogPath, packageRoot m.Path) ([]m.Mutant, error) {
	var parsed mutantsFile

	if _, err := toml.DecodeFile(string(catalogPath), &parsed); err != nil {
		return nil, fmt.Errorf("parse mutant catalog %s: %w", catalogPath, err)
	}

	catalogDir := filepath.Dir(string(catalogPath))
	mutants := make([]m.Mutant, 0, len(parsed.Mutants))
	seen := map[string]bool{}

	for i, entry := range parsed.Mutants {
		if entry.ID == "" {
			return nil, fmt.Errorf("mutant catalog %s: entry %d has no id", catalogPath, i)
		}

		if seen[entry.ID] {
			return nil, fmt.Errorf("mutant catalog %s: duplicate id %q", catalogPath, entry.ID)
		}

		seen[entry.ID] = true

		original := entry.File
		if !filepath.IsAbs(original) {
			original = filepath.Join(string(packageRoot), original)
		}

		replacement := entry.Replacement
		if !filepath.IsAbs(replacement) {
			replacement = filepath.Join(catalogDir, replacement)
		}

		source, err := os.ReadFile(replacement)
		if err != nil {
			return nil, fmt.Errorf("mutant %s: read replacement: %w", entry.ID, err)
		}

		mutants = append(mutants, m.Mutant{
			ID:           entry.ID,
			OriginalFile: m.Path(original),
			Source:       source,
		})
	}

	return mutants, nil
}
