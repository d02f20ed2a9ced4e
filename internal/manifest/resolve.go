package manifest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	m "movemut.dev/pkg/movemut/internal/model"
)

// MoveFileExt is the extension of Move source files.
const MoveFileExt = ".move"

// BytecodeFileExt is the extension of pre-compiled Move modules.
const BytecodeFileExt = ".mv"

// ResolvedPackage is one node of the resolved dependency graph.
type ResolvedPackage struct {
	Name     m.PackageName
	Root     m.Path
	Manifest *Manifest

	// Sources are the package's declared source files. Empty when the
	// package is resolved from pre-built artifacts only.
	Sources []m.Path

	// Bytecode are the pre-built artifacts used when no source is present.
	Bytecode []m.Path

	// SourceAvailable is false when the package fell back to bytecode, which
	// means it cannot be mutated or source-inspected.
	SourceAvailable bool

	NamedAddresses m.NamedAddressMap
}

// ResolvedGraph is the dependency graph of a package in resolution order: the
// root package first, then every transitive dependency in depth-first
// discovery order. Dependency names are visited alphabetically within each
// package, so the order is stable across runs.
type ResolvedGraph struct {
	Root     *ResolvedPackage
	Packages []*ResolvedPackage
}

// ResolveOptions controls graph resolution.
type ResolveOptions struct {
	// DevMode overlays dev-addresses and includes dev-dependencies.
	DevMode bool

	// TestMode includes the root package's tests directory in its sources.
	// Dependency tests are never included.
	TestMode bool

	// CacheDir is where fetched git dependencies live, keyed by dependency
	// name. Read-only here; the fetch itself is the toolchain's business.
	CacheDir m.Path
}

// Resolve loads the manifest at rootDir and resolves the whole local
// dependency graph. Cycles and unfetched dependencies fail resolution.
func Resolve(rootDir m.Path, opts ResolveOptions) (*ResolvedGraph, error) {
	resolver := &resolver{
		opts:    opts,
		visited: map[m.Path]*ResolvedPackage{},
		onStack: map[m.Path]bool{},
	}

	root, err := resolver.resolvePackage(rootDir, true)
	if err != nil {
		return nil, err
	}

	return &ResolvedGraph{Root: root, Packages: resolver.order}, nil
}

type resolver struct {
	opts    ResolveOptions
	visited map[m.Path]*ResolvedPackage
	onStack map[m.Path]bool
	order   []*ResolvedPackage
}

func (r *resolver) resolvePackage(dir m.Path, isRoot bool) (*ResolvedPackage, error) {
	abs, err := filepath.Abs(string(dir))
	if err != nil {
		return nil, fmt.Errorf("resolve package path %s: %w", dir, err)
	}

	key := m.Path(abs)

	if r.onStack[key] {
		return nil, fmt.Errorf("dependency cycle through %s", key)
	}

	if pkg, ok := r.visited[key]; ok {
		return pkg, nil
	}

	manifest, err := LoadFromRoot(key)
	if err != nil {
		return nil, err
	}

	addrs, err := manifest.NamedAddresses(r.opts.DevMode)
	if err != nil {
		return nil, err
	}

	pkg := &ResolvedPackage{
		Name:           m.PackageName(manifest.Package.Name),
		Root:           key,
		Manifest:       manifest,
		NamedAddresses: addrs,
	}

	if err := r.collectFiles(pkg, isRoot); err != nil {
		return nil, err
	}

	// Pre-order: a package precedes its own dependencies.
	r.order = append(r.order, pkg)
	r.onStack[key] = true

	defer func() { r.onStack[key] = false }()

	for _, name := range manifest.dependencyNames(r.opts.DevMode) {
		dep, _ := manifest.dependency(name)

		depRoot, err := r.dependencyRoot(key, name, dep)
		if err != nil {
			return nil, err
		}

		if _, err := r.resolvePackage(depRoot, false); err != nil {
			return nil, fmt.Errorf("dependency %s of %s: %w", name, manifest.Package.Name, err)
		}
	}

	// Only a fully resolved package is reusable by later back-references.
	r.visited[key] = pkg

	return pkg, nil
}

// dependencyRoot maps a manifest dependency entry to the directory holding its
// checkout. Local paths are relative to the declaring package; git entries are
// expected in the shared fetch cache.
func (r *resolver) dependencyRoot(pkgRoot m.Path, name string, dep Dependency) (m.Path, error) {
	if dep.Local != "" {
		return m.Path(filepath.Join(string(pkgRoot), dep.Local)), nil
	}

	if dep.Git != "" {
		if r.opts.CacheDir == "" {
			return "", fmt.Errorf("git dependency %s needs a dependency cache directory", name)
		}

		cached := filepath.Join(string(r.opts.CacheDir), name)
		if dep.Subdir != "" {
			cached = filepath.Join(cached, dep.Subdir)
		}

		if _, err := os.Stat(filepath.Join(cached, FileName)); err != nil {
			return "", fmt.Errorf("git dependency %s is not fetched (expected at %s)", name, cached)
		}

		return m.Path(cached), nil
	}

	return "", fmt.Errorf("dependency %s declares neither a local path nor a git source", name)
}

// collectFiles gathers the package's sources, falling back to pre-built
// bytecode artifacts when no source is present.
func (r *resolver) collectFiles(pkg *ResolvedPackage, isRoot bool) error {
	dirs := []string{SourcesDir}
	if isRoot && r.opts.TestMode {
		dirs = append(dirs, TestsDir)
	}

	for _, sub := range dirs {
		files, err := collectByExt(filepath.Join(string(pkg.Root), sub), MoveFileExt)
		if err != nil {
			return fmt.Errorf("scan %s of package %s: %w", sub, pkg.Name, err)
		}

		pkg.Sources = append(pkg.Sources, files...)
	}

	if len(pkg.Sources) > 0 {
		pkg.SourceAvailable = true
		return nil
	}

	artifactDir := filepath.Join(string(pkg.Root), buildDir, string(pkg.Name), bytecodeModulesDir)

	bytecode, err := collectByExt(artifactDir, BytecodeFileExt)
	if err != nil {
		return fmt.Errorf("scan artifacts of package %s: %w", pkg.Name, err)
	}

	if len(bytecode) == 0 {
		return fmt.Errorf("package %s at %s has neither sources nor pre-built artifacts", pkg.Name, pkg.Root)
	}

	slog.Debug("Package resolved from bytecode only", "package", pkg.Name, "artifacts", len(bytecode))

	pkg.Bytecode = bytecode

	return nil
}

// collectByExt returns all files under dir with the given extension, sorted by
// the walk order of filepath.WalkDir (lexical, hence deterministic). A missing
// directory yields an empty slice.
func collectByExt(dir, ext string) ([]m.Path, error) {
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var files []m.Path

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() || !strings.HasSuffix(path, ext) {
			return nil
		}

		files = append(files, m.Path(path))

		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}
