// Package manifest loads Move package manifests and resolves their dependency
// graphs into the inputs the model builder needs.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	m "movemut.dev/pkg/movemut/internal/model"
)

const (
	// FileName is the manifest marker at every Move package root.
	FileName = "Move.toml"

	// SourcesDir holds a package's Move sources.
	SourcesDir = "sources"

	// TestsDir holds a package's test-only sources.
	TestsDir = "tests"

	// buildDir holds pre-compiled artifacts for source-less dependencies.
	buildDir = "build"

	// bytecodeModulesDir is the per-package artifact directory under buildDir.
	bytecodeModulesDir = "bytecode_modules"
)

// Dependency is one entry of a manifest's [dependencies] table.
type Dependency struct {
	Local  string `toml:"local"`
	Git    string `toml:"git"`
	Rev    string `toml:"rev"`
	Subdir string `toml:"subdir"`
}

// PackageSection is the [package] table of a manifest.
type PackageSection struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Manifest is the parsed Move.toml.
type Manifest struct {
	Package         PackageSection        `toml:"package"`
	Addresses       map[string]string     `toml:"addresses"`
	DevAddresses    map[string]string     `toml:"dev-addresses"`
	Dependencies    map[string]Dependency `toml:"dependencies"`
	DevDependencies map[string]Dependency `toml:"dev-dependencies"`
}

// Load parses the manifest file at path.
func Load(path m.Path) (*Manifest, error) {
	var manifest Manifest

	if _, err := toml.DecodeFile(string(path), &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if manifest.Package.Name == "" {
		return nil, fmt.Errorf("manifest %s has no package name", path)
	}

	return &manifest, nil
}

// LoadFromRoot parses the manifest of the package rooted at dir.
func LoadFromRoot(dir m.Path) (*Manifest, error) {
	return Load(m.Path(filepath.Join(string(dir), FileName)))
}

// NamedAddresses returns the manifest's address bindings as an ordered map.
// Names are inserted alphabetically so the result is deterministic regardless
// of TOML table order. When devMode is set, [dev-addresses] entries override
// their [addresses] counterparts.
func (mf *Manifest) NamedAddresses(devMode bool) (m.NamedAddressMap, error) {
	addrs := m.NewNamedAddressMap()

	for _, name := range sortedKeys(mf.Addresses) {
		addr, err := m.ParseAddress(mf.Addresses[name])
		if err != nil {
			return m.NamedAddressMap{}, fmt.Errorf("package %s, address %s: %w", mf.Package.Name, name, err)
		}

		addrs.Set(name, addr)
	}

	if devMode {
		for _, name := range sortedKeys(mf.DevAddresses) {
			addr, err := m.ParseAddress(mf.DevAddresses[name])
			if err != nil {
				return m.NamedAddressMap{}, fmt.Errorf("package %s, dev-address %s: %w", mf.Package.Name, name, err)
			}

			addrs.Set(name, addr)
		}
	}

	return addrs, nil
}

// dependencyNames returns the dependency names in deterministic order, with
// dev-dependencies appended when devMode is set.
func (mf *Manifest) dependencyNames(devMode bool) []string {
	names := sortedKeys(mf.Dependencies)
	if devMode {
		names = append(names, sortedKeys(mf.DevDependencies)...)
	}

	return names
}

// dependency looks an entry up across [dependencies] and [dev-dependencies].
func (mf *Manifest) dependency(name string) (Dependency, bool) {
	if dep, ok := mf.Dependencies[name]; ok {
		return dep, true
	}

	dep, ok := mf.DevDependencies[name]

	return dep, ok
}

// FindRoot walks upward from start (a file or directory) until it finds a
// directory containing the manifest marker.
func FindRoot(start m.Path) (m.Path, error) {
	dir := string(start)

	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("locate package root: %w", err)
	}

	if !info.IsDir() {
		dir = filepath.Dir(dir)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return m.Path(dir), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s not found in any parent directory of %s", FileName, start)
		}

		dir = parent
	}
}

func sortedKeys[V any](table map[string]V) []string {
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
