// Package pipeline executes a validated stage graph into a minimal runtime artifact set.
package pipeline

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports"
	"go.trai.ch/zerr"
)

// Deps are the ports the executor drives.
type Deps struct {
	Filesystem ports.Filesystem
	Bases      ports.BaseStore
	Resolver   ports.InputResolver
	Hasher     ports.Hasher
	Cache      ports.DependencyCache
	Reducer    ports.PrivilegeReducer
	Executor   ports.Executor
	Store      ports.BuildInfoStore
	Tracer     ports.Tracer
	Metrics    ports.Metrics
	Logger     ports.Logger
}

// Options configure a single build.
type Options struct {
	// SourceRoot is the directory build-context paths are resolved against.
	SourceRoot string
	// WorkDir holds the per-stage workspaces.
	WorkDir string
	// StateRoot is the project root the provenance records are written under.
	StateRoot string
	// Manifest is the pinned dependency manifest. It is required when any stage installs dependencies.
	Manifest *domain.Manifest
	// Parallelism bounds how many stages run at once. Zero means one per CPU.
	Parallelism int
	// KeepWorkspaces leaves stage roots on disk for inspection.
	KeepWorkspaces bool
}

// Executor runs stage graphs.
type Executor struct {
	Deps
}

// New creates a new Executor.
func New(deps Deps) *Executor {
	return &Executor{Deps: deps}
}

// Build validates the graph and executes every stage in dependency order.
// On failure it returns no result: nothing of a failed stage or its dependents is produced.
func (e *Executor) Build(ctx context.Context, graph *domain.StageGraph, opts Options) (*domain.BuildResult, error) {
	if err := graph.Validate(); err != nil {
		return nil, err
	}

	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}

	buildID := uuid.NewString()

	ctx, span := e.Tracer.Start(ctx, "build", ports.WithAttribute("build_id", buildID))
	defer span.End()

	plan := make([]string, 0, graph.Len())
	for s := range graph.Walk() {
		plan = append(plan, s.Name)
	}
	e.Tracer.EmitPlan(ctx, plan)

	state := newRunState(ctx, e, graph, opts, buildID)
	defer state.cancel()

	if err := state.runExecutionLoop(); err != nil {
		span.RecordError(err)
		return nil, errors.Join(domain.ErrBuildFailed, err)
	}

	final := graph.Final()
	res := &domain.BuildResult{
		ID:     buildID,
		Stages: state.artifacts,
		Final:  state.artifacts[final.Name],
		Image:  imageConfig(final, state.runtimeUser),
	}

	e.Logger.Info("build " + buildID + " produced " + final.Name)
	return res, nil
}

func imageConfig(final *domain.Stage, id domain.ServiceIdentity) domain.ImageConfig {
	env := make([]string, 0, len(final.Env))
	for k, v := range final.Env {
		env = append(env, k+"="+v)
	}
	slices.Sort(env)

	cfg := domain.ImageConfig{
		Base:       final.Base.String(),
		User:       id.Owner(),
		Entrypoint: append([]string{domain.InitPath, "--"}, final.Entrypoint...),
		Env:        env,
	}
	if final.Workdir != "" {
		cfg.WorkingDir = "/" + final.Workdir
	}
	return cfg
}

type result struct {
	stage     string
	err       error
	artifacts domain.ArtifactSet
	info      domain.BuildInfo
	identity  *domain.ServiceIdentity
}

type runState struct {
	ctx    context.Context
	cancel context.CancelFunc
	e      *Executor
	graph  *domain.StageGraph
	opts   Options

	buildID     string
	inDegree    map[string]int
	ready       []string
	active      int
	resultsCh   chan result
	errs        error
	artifacts   map[string]domain.ArtifactSet
	runtimeUser domain.ServiceIdentity
}

func newRunState(ctx context.Context, e *Executor, graph *domain.StageGraph, opts Options, buildID string) *runState {
	ctx, cancel := context.WithCancel(ctx)

	state := &runState{
		ctx:       ctx,
		cancel:    cancel,
		e:         e,
		graph:     graph,
		opts:      opts,
		buildID:   buildID,
		inDegree:  make(map[string]int, graph.Len()),
		resultsCh: make(chan result, graph.Len()),
		artifacts: make(map[string]domain.ArtifactSet, graph.Len()),
	}

	for s := range graph.Walk() {
		state.inDegree[s.Name] = len(s.Sources())
		if state.inDegree[s.Name] == 0 {
			state.ready = append(state.ready, s.Name)
		}
	}

	return state
}

// runExecutionLoop schedules ready stages until the graph is done or a stage failed.
// After the first failure nothing new is started and in-flight stages are canceled.
func (state *runState) runExecutionLoop() error {
	for {
		state.schedule()
		if state.active == 0 {
			break
		}
		state.handleResult(<-state.resultsCh)
	}

	if state.errs != nil {
		return state.errs
	}
	if err := state.ctx.Err(); err != nil {
		return err
	}
	if len(state.artifacts) != state.graph.Len() {
		return zerr.With(domain.ErrStageFailed, "reason", "graph did not complete")
	}
	return nil
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.opts.Parallelism && state.ctx.Err() == nil {
		name := state.ready[0]
		state.ready = state.ready[1:]

		stage, _ := state.graph.Stage(name)
		imports := make(map[string]domain.ArtifactSet, len(stage.Copy))
		for _, src := range stage.Sources() {
			imports[src] = state.artifacts[src]
		}

		state.active++
		go state.executeStage(stage, imports)
	}
}

func (state *runState) executeStage(s *domain.Stage, imports map[string]domain.ArtifactSet) {
	// The span ends before the result is sent so it is recorded before the loop returns.
	res := func() result {
		ctx, span := state.e.Tracer.Start(state.ctx, s.Name,
			ports.WithAttribute("stage", s.Name),
			ports.WithAttribute("role", string(s.Role)),
		)
		defer span.End()

		start := time.Now()
		run := &stageRun{
			e:       state.e,
			stage:   s,
			opts:    state.opts,
			target:  state.graph.DepsTarget(),
			imports: imports,
			span:    span,
		}

		set, err := run.execute(ctx)
		if err != nil {
			span.RecordError(err)
			state.e.Metrics.StageFailed(s.Name, s.Role)
			return result{stage: s.Name, err: err}
		}

		d := time.Since(start)
		state.e.Metrics.StageCompleted(s.Name, s.Role, d)

		outputs := make(map[string]string, len(set))
		for _, a := range set {
			outputs[a.Path] = a.Digest.String()
		}

		return result{
			stage:     s.Name,
			artifacts: set,
			identity:  run.identity,
			info: domain.BuildInfo{
				BuildID:   state.buildID,
				Stage:     s.Name,
				Role:      s.Role,
				Base:      s.Base.String(),
				InputHash: run.inputHash,
				CacheKey:  run.cacheKey,
				Outputs:   outputs,
				Duration:  d,
				Timestamp: time.Now().UTC(),
			},
		}
	}()

	state.resultsCh <- res
}

func (state *runState) handleResult(res result) {
	state.active--

	if res.err != nil {
		err := zerr.With(zerr.Wrap(res.err, domain.ErrStageFailed.Error()), "stage", res.stage)
		state.errs = errors.Join(state.errs, err)
		state.cancel()
		return
	}

	// A stage that finished after the build already failed produces nothing.
	if state.errs != nil {
		return
	}

	state.artifacts[res.stage] = res.artifacts
	if res.identity != nil {
		state.runtimeUser = *res.identity
	}

	if err := state.e.Store.Put(state.opts.StateRoot, res.info); err != nil {
		state.e.Logger.Warn("failed to record provenance for stage " + res.stage + ": " + err.Error())
	}

	for _, dep := range state.graph.Dependents(res.stage) {
		state.inDegree[dep]--
		if state.inDegree[dep] == 0 {
			state.ready = append(state.ready, dep)
		}
	}
}
