// Package app implements the application layer for slim.
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.trai.ch/slim/internal/adapters/base"
	"go.trai.ch/slim/internal/adapters/cas"
	"go.trai.ch/slim/internal/adapters/installer"
	"go.trai.ch/slim/internal/adapters/telemetry"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/slim/internal/engine/depcache"
	"go.trai.ch/slim/internal/engine/pipeline"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader   ports.ConfigLoader
	manifestLoader ports.ManifestLoader
	filesystem     ports.Filesystem
	resolver       ports.InputResolver
	hasher         ports.Hasher
	reducer        ports.PrivilegeReducer
	executor       ports.Executor
	store          ports.BuildInfoStore
	tracer         ports.Tracer
	logger         ports.Logger
}

// New creates a new App instance.
func New(
	configLoader ports.ConfigLoader,
	manifestLoader ports.ManifestLoader,
	filesystem ports.Filesystem,
	resolver ports.InputResolver,
	hasher ports.Hasher,
	reducer ports.PrivilegeReducer,
	executor ports.Executor,
	store ports.BuildInfoStore,
	tracer ports.Tracer,
	log ports.Logger,
) *App {
	return &App{
		configLoader:   configLoader,
		manifestLoader: manifestLoader,
		filesystem:     filesystem,
		resolver:       resolver,
		hasher:         hasher,
		reducer:        reducer,
		executor:       executor,
		store:          store,
		tracer:         tracer,
		logger:         log,
	}
}

// Settings are the global options shared by every command.
type Settings struct {
	// Dir is the directory slim.yaml is searched from.
	Dir string
	// CacheDir overrides the dependency cache location. Empty means inside the project.
	CacheDir string
	// WorkDir overrides where stage workspaces are created. Empty means inside the project.
	WorkDir string
	// Parallelism bounds concurrent stages. Zero means one per CPU.
	Parallelism int
	// MetricsFile receives the build metrics in textfile-collector format.
	MetricsFile string
}

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	Settings
	// Out is the directory the final artifact set is exported into.
	Out string
	// Init is a supervisor binary copied to the init path of the export.
	Init string
	// KeepWorkspaces leaves stage roots on disk.
	KeepWorkspaces bool
}

// Build runs the project's stage graph and exports the runtime artifact set.
func (a *App) Build(ctx context.Context, opts BuildOptions) (*domain.BuildResult, error) {
	project, manifest, err := a.load(opts.Settings, false)
	if err != nil {
		return nil, err
	}

	if opts.Out != "" {
		if err := checkExportDir(opts.Out); err != nil {
			return nil, err
		}
	}

	inst, err := installer.New(project, a.filesystem, a.executor, a.logger)
	if err != nil {
		return nil, err
	}

	metrics := telemetry.NewPromMetrics()
	defer a.writeMetrics(metrics, opts.MetricsFile)

	cache := depcache.New(
		cas.NewDependencyStore(cacheDir(project, opts.Settings)),
		inst,
		a.tracer,
		metrics,
		a.logger,
	)

	executor := pipeline.New(pipeline.Deps{
		Filesystem: a.filesystem,
		Bases:      base.NewStore(project.BasesDir, a.filesystem, a.logger),
		Resolver:   a.resolver,
		Hasher:     a.hasher,
		Cache:      cache,
		Reducer:    a.reducer,
		Executor:   a.executor,
		Store:      a.store,
		Tracer:     a.tracer,
		Metrics:    metrics,
		Logger:     a.logger,
	})

	workDir := opts.WorkDir
	if workDir == "" {
		workDir = filepath.Join(project.Root, domain.DefaultWorkPath())
	}
	if err := os.MkdirAll(workDir, domain.DirPerm); err != nil {
		return nil, zerr.Wrap(err, domain.ErrMaterializeFailed.Error())
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	res, err := executor.Build(ctx, project.Graph, pipeline.Options{
		SourceRoot:     project.Source,
		WorkDir:        workDir,
		StateRoot:      project.Root,
		Manifest:       manifest,
		Parallelism:    parallelism,
		KeepWorkspaces: opts.KeepWorkspaces,
	})
	if err != nil {
		return nil, err
	}

	if opts.Out != "" {
		if err := a.export(res, opts.Out, opts.Init); err != nil {
			return nil, errors.Join(domain.ErrBuildFailed, err)
		}
		a.logger.Info("exported " + res.ID + " to " + opts.Out)
	}

	return res, nil
}

// Key loads the project's manifest and returns its cache key.
func (a *App) Key(_ context.Context, settings Settings) (domain.CacheKey, error) {
	_, manifest, err := a.load(settings, true)
	if err != nil {
		return "", err
	}
	return domain.ComputeKey(manifest), nil
}

// CacheList returns every cached dependency tree.
func (a *App) CacheList(_ context.Context, settings Settings) ([]domain.CacheEntry, error) {
	project, err := a.configLoader.Load(settings.dir())
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return cas.NewDependencyStore(cacheDir(project, settings)).List()
}

// PruneOptions configuration for the CachePrune method.
type PruneOptions struct {
	Settings
	// Key restricts pruning to entries whose key starts with it. Empty prunes everything.
	Key string
}

// CachePrune removes cached dependency trees and returns how many were removed.
func (a *App) CachePrune(ctx context.Context, opts PruneOptions) (int, error) {
	project, err := a.configLoader.Load(opts.dir())
	if err != nil {
		return 0, zerr.Wrap(err, "failed to load configuration")
	}

	store := cas.NewDependencyStore(cacheDir(project, opts.Settings))
	entries, err := store.List()
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())

	var removed int
	for _, entry := range entries {
		if !strings.HasPrefix(entry.Key.String(), opts.Key) {
			continue
		}
		removed++
		g.Go(func() error {
			unlock, err := store.Lock(ctx, entry.Key)
			if err != nil {
				return err
			}
			defer unlock()

			if err := store.Remove(entry.Key, entry.Subset); err != nil {
				return err
			}
			a.logger.Info("removed " + entry.Key.Short() + "/" + string(entry.Subset))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return removed, nil
}

// History returns the provenance records of the project's last build, ordered by stage.
func (a *App) History(_ context.Context, settings Settings) ([]domain.BuildInfo, error) {
	project, err := a.configLoader.Load(settings.dir())
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	return a.store.List(project.Root)
}

// load reads slim.yaml and, when the project declares one, its dependency manifest.
func (a *App) load(settings Settings, requireManifest bool) (*domain.Project, *domain.Manifest, error) {
	project, err := a.configLoader.Load(settings.dir())
	if err != nil {
		return nil, nil, zerr.Wrap(err, "failed to load configuration")
	}

	if project.DeclaredPath == "" {
		if requireManifest {
			return nil, nil, zerr.With(domain.ErrNoManifest, "project", project.Root)
		}
		return project, nil, nil
	}

	manifest, err := a.manifestLoader.Load(project.DeclaredPath, project.LockPath)
	if err != nil {
		return nil, nil, err
	}
	return project, manifest, nil
}

func (a *App) writeMetrics(metrics ports.Metrics, path string) {
	if path == "" {
		return
	}
	if err := metrics.WriteFile(path); err != nil {
		a.logger.Warn("failed to write metrics file: " + err.Error())
	}
}

func (s Settings) dir() string {
	if s.Dir == "" {
		return "."
	}
	return s.Dir
}

func cacheDir(project *domain.Project, settings Settings) string {
	if settings.CacheDir != "" {
		return settings.CacheDir
	}
	return filepath.Join(project.Root, domain.DefaultCachePath())
}
