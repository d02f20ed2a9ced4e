package domain

import (
	"context"
	"errors"
	"log/slog"

	"movemut.dev/pkg/movemut/internal/adapter"
	"movemut.dev/pkg/movemut/internal/manifest"
	m "movemut.dev/pkg/movemut/internal/model"
)

// ModelBuilder turns a package directory or an explicit file list into a
// checked compiled model.
type ModelBuilder interface {
	// BuildPackageModel resolves the package's dependency graph from its
	// manifest and checks every contributing source.
	BuildPackageModel(ctx context.Context, cfg m.BuildConfig, packageRoot m.Path) (*m.CompiledModel, error)

	// BuildFileModel checks only the given files, with whatever named
	// addresses the configuration already carries. No dependency or name
	// resolution happens, so it must not be used on packages with
	// nontrivial intra-package dependencies.
	BuildFileModel(ctx context.Context, cfg m.BuildConfig, files []m.Path) (*m.CompiledModel, error)
}

type modelBuilder struct {
	toolchain adapter.Toolchain
	sink      adapter.DiagnosticSink
	cacheDir  m.Path
}

// NewModelBuilder constructs a ModelBuilder. Error-severity diagnostics are
// emitted to sink before the build fails. cacheDir is where fetched git
// dependencies are looked up.
func NewModelBuilder(toolchain adapter.Toolchain, sink adapter.DiagnosticSink, cacheDir m.Path) ModelBuilder {
	return &modelBuilder{
		toolchain: toolchain,
		sink:      sink,
		cacheDir:  cacheDir,
	}
}

func (b *modelBuilder) BuildPackageModel(ctx context.Context, cfg m.BuildConfig, packageRoot m.Path) (*m.CompiledModel, error) {
	graph, err := manifest.Resolve(packageRoot, manifest.ResolveOptions{
		DevMode:  cfg.DevMode,
		TestMode: cfg.TestMode,
		CacheDir: b.cacheDir,
	})
	if err != nil {
		return nil, &m.ModelBuildError{Reason: "dependency resolution", Err: err}
	}

	model := &m.CompiledModel{
		Root:           graph.Root.Name,
		FileOwner:      map[m.Path]m.PackageName{},
		NamedAddresses: mergeNamedAddresses(cfg, graph),
	}

	opts := m.CompilerOptions{
		NamedAddresses: model.NamedAddresses,
		TestMode:       cfg.TestMode,
		Compiler:       cfg.Compiler,
	}

	for _, pkg := range graph.Packages {
		for _, src := range pkg.Sources {
			model.Sources = append(model.Sources, src)
			model.FileOwner[src] = pkg.Name
		}

		if !pkg.SourceAvailable {
			model.BytecodeOnly = append(model.BytecodeOnly, pkg.Name)
			opts.Dependencies = append(opts.Dependencies, pkg.Bytecode...)

			for _, artifact := range pkg.Bytecode {
				model.FileOwner[artifact] = pkg.Name
			}
		}
	}

	opts.Sources = model.Sources

	slog.Debug("Checking package model",
		"package", model.Root,
		"sources", len(opts.Sources),
		"bytecodeDeps", len(opts.Dependencies),
		"addresses", model.NamedAddresses.Len(),
	)

	return b.check(ctx, model, opts)
}

func (b *modelBuilder) BuildFileModel(ctx context.Context, cfg m.BuildConfig, files []m.Path) (*m.CompiledModel, error) {
	if len(files) == 0 {
		return nil, &m.ModelBuildError{Reason: "no source files given", Err: errors.New("empty file list")}
	}

	model := &m.CompiledModel{
		Sources:        files,
		NamedAddresses: cfg.AdditionalNamedAddresses.Clone(),
	}

	opts := m.CompilerOptions{
		Sources:        files,
		NamedAddresses: model.NamedAddresses,
		TestMode:       cfg.TestMode,
		Compiler:       cfg.Compiler,
	}

	return b.check(ctx, model, opts)
}

// check invokes the toolchain's model-generation step and applies the
// error-severity policy: errors fail the build after being emitted to the
// sink, warnings pass.
func (b *modelBuilder) check(ctx context.Context, model *m.CompiledModel, opts m.CompilerOptions) (*m.CompiledModel, error) {
	diags, err := b.toolchain.BuildModel(ctx, opts)
	if err != nil {
		return nil, &m.ModelBuildError{Reason: "model check", Err: err}
	}

	model.Diagnostics = diags

	if model.HasErrors() {
		for _, diag := range diags {
			b.sink.Diagnostic(diag)
		}

		return nil, &m.ModelBuildError{Reason: "source check produced errors"}
	}

	return model, nil
}

// mergeNamedAddresses builds the global address map. Precedence is
// deterministic and deliberate: user-supplied overrides win over everything,
// the root package wins over its dependencies, and among dependencies the
// first occurrence in resolution order wins.
func mergeNamedAddresses(cfg m.BuildConfig, graph *manifest.ResolvedGraph) m.NamedAddressMap {
	merged := m.NewNamedAddressMap()

	for _, name := range cfg.AdditionalNamedAddresses.Names() {
		addr, _ := cfg.AdditionalNamedAddresses.Get(name)
		merged.Set(name, addr)
	}

	// graph.Packages starts with the root, then dependencies in resolution
	// order; SetDefault keeps the first binding seen.
	for _, pkg := range graph.Packages {
		for _, name := range pkg.NamedAddresses.Names() {
			addr, _ := pkg.NamedAddresses.Get(name)
			merged.SetDefault(name, addr)
		}
	}

	return merged
}
