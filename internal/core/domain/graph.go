// Package domain contains the core domain models of the build pipeline and the init supervisor.
package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// StageGraph is the directed acyclic graph of stages. Edges are derived from copy-ins.
type StageGraph struct {
	stages         map[string]*Stage
	dependents     map[string][]string
	executionOrder []string
	depsTarget     string
	final          string
}

// NewStageGraph creates an empty graph. depsTarget is the workdir-relative
// directory into which dependency trees are installed.
func NewStageGraph(depsTarget string) *StageGraph {
	return &StageGraph{
		stages:     make(map[string]*Stage),
		dependents: make(map[string][]string),
		depsTarget: depsTarget,
	}
}

// AddStage adds a stage to the graph.
// It returns an error if a stage with the same name already exists.
func (g *StageGraph) AddStage(s *Stage) error {
	if err := ValidateStageName(s.Name); err != nil {
		return err
	}
	if _, exists := g.stages[s.Name]; exists {
		return zerr.With(ErrStageAlreadyExists, "stage", s.Name)
	}
	g.stages[s.Name] = s
	return nil
}

// Stage returns the stage with the given name.
func (g *StageGraph) Stage(name string) (*Stage, bool) {
	s, ok := g.stages[name]
	return s, ok
}

// Len returns the number of stages.
func (g *StageGraph) Len() int {
	return len(g.stages)
}

// DepsTarget returns the workdir-relative dependency install directory.
func (g *StageGraph) DepsTarget() string {
	return g.depsTarget
}

// Final returns the final stage. It assumes Validate() has been called and returned nil.
func (g *StageGraph) Final() *Stage {
	return g.stages[g.final]
}

// Dependents returns the stages importing from the named stage.
func (g *StageGraph) Dependents(name string) []string {
	return g.dependents[name]
}

// Validate checks the graph for cycles and enforces the stage role rules.
// It populates the execution order if successful.
func (g *StageGraph) Validate() error {
	names := make([]string, 0, len(g.stages))
	for name := range g.stages {
		names = append(names, name)
	}
	slices.Sort(names)

	g.dependents = make(map[string][]string, len(g.stages))
	for _, name := range names {
		s := g.stages[name]
		for _, src := range s.Sources() {
			if src == name {
				return zerr.With(ErrSelfImport, "stage", name)
			}
			if _, ok := g.stages[src]; !ok {
				return zerr.With(zerr.With(ErrMissingDependency, "stage", name), "dependency", src)
			}
			g.dependents[src] = append(g.dependents[src], name)
		}
	}

	if err := g.sort(names); err != nil {
		return err
	}

	if err := g.validateFinal(names); err != nil {
		return err
	}

	for _, name := range names {
		if err := g.validateStage(g.stages[name]); err != nil {
			return err
		}
	}

	return nil
}

// sort performs a depth-first topological sort in name order so that Walk is deterministic.
func (g *StageGraph) sort(names []string) error {
	g.executionOrder = make([]string, 0, len(g.stages))
	visited := make(map[string]int) // 0: unvisited, 1: visiting, 2: visited
	var path []string

	var visit func(u string) error
	visit = func(u string) error {
		visited[u] = 1
		path = append(path, u)

		for _, dep := range g.stages[u].Sources() {
			if visited[dep] == 1 {
				return buildCycleError(path, dep)
			}
			if visited[dep] == 0 {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		visited[u] = 2
		path = path[:len(path)-1]
		g.executionOrder = append(g.executionOrder, u)
		return nil
	}

	for _, name := range names {
		if visited[name] == 0 {
			if err := visit(name); err != nil {
				return err
			}
		}
	}

	return nil
}

// buildCycleError constructs an error with cycle path metadata.
func buildCycleError(path []string, dep string) error {
	cyclePath := ""
	startIdx := 0
	for i, node := range path {
		if node == dep {
			startIdx = i
			break
		}
	}
	for i := startIdx; i < len(path); i++ {
		cyclePath += path[i] + " -> "
	}
	cyclePath += dep
	return zerr.With(ErrCycleDetected, "cycle", cyclePath)
}

func (g *StageGraph) validateFinal(names []string) error {
	var finals []string
	for _, name := range names {
		if g.stages[name].Role == RoleFinal {
			finals = append(finals, name)
		}
	}
	if len(finals) != 1 {
		return zerr.With(ErrFinalStageCount, "count", len(finals))
	}
	g.final = finals[0]

	final := g.stages[g.final]
	if len(g.dependents[final.Name]) > 0 {
		return zerr.With(zerr.With(ErrFinalStageNotSink, "stage", final.Name), "importer", g.dependents[final.Name][0])
	}
	if len(final.Commands) > 0 || final.Install != SubsetNone || final.Identity != nil || len(final.Context) > 0 {
		return zerr.With(ErrFinalStageNotMinimal, "stage", final.Name)
	}
	if final.User == "" {
		return zerr.With(ErrMissingRuntimeUser, "stage", final.Name)
	}
	return nil
}

func (g *StageGraph) validateStage(s *Stage) error {
	if s.Role == RoleInstaller && s.Install != SubsetProduction {
		return zerr.With(zerr.With(ErrInstallerSubset, "stage", s.Name), "install", string(s.Install))
	}

	for _, c := range s.Copy {
		src := g.stages[c.From]

		if s.Role == RoleInstaller && src.Role == RoleBuilder {
			return zerr.With(zerr.With(ErrInstallerInheritsBuilder, "stage", s.Name), "source", src.Name)
		}

		for _, p := range c.Paths {
			if !exports(src, p) {
				err := zerr.With(ErrPathNotExported, "stage", s.Name)
				err = zerr.With(err, "source", src.Name)
				return zerr.With(err, "path", p)
			}

			if s.Role == RoleFinal && src.Role == RoleBuilder && src.Install != SubsetNone {
				deps := src.DepsPath(g.depsTarget)
				if PathWithin(p, deps) || PathWithin(deps, p) {
					err := zerr.With(ErrBuildToolingLeak, "source", src.Name)
					return zerr.With(err, "path", p)
				}
			}
		}
	}

	return nil
}

// exports reports whether p is covered by one of the stage's declared outputs.
func exports(s *Stage, p string) bool {
	for _, out := range s.Outputs {
		if PathWithin(p, out) {
			return true
		}
	}
	return false
}

// Walk returns an iterator that yields stages in execution order.
// It assumes Validate() has been called and returned nil.
func (g *StageGraph) Walk() iter.Seq[*Stage] {
	return func(yield func(*Stage) bool) {
		for _, name := range g.executionOrder {
			if !yield(g.stages[name]) {
				return
			}
		}
	}
}
