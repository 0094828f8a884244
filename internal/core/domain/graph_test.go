package domain_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/zerr"
)

const depsTarget = "node_modules"

func scratch() domain.BaseRef {
	return domain.BaseRef{Name: domain.ScratchBase}
}

// pipelineStages returns the canonical three-role pipeline.
func pipelineStages() []*domain.Stage {
	return []*domain.Stage{
		{
			Name:     "build",
			Role:     domain.RoleBuilder,
			Base:     scratch(),
			Workdir:  "app",
			Install:  domain.SubsetFull,
			Commands: [][]string{{"make"}},
			Outputs:  []string{"app/dist", "app/node_modules"},
		},
		{
			Name:     "deps",
			Role:     domain.RoleInstaller,
			Base:     scratch(),
			Workdir:  "app",
			Install:  domain.SubsetProduction,
			Identity: &domain.IdentitySpec{Name: "app"},
			Outputs:  []string{"app/node_modules", "etc/passwd", "etc/group", "etc/shadow", "home/app"},
		},
		{
			Name:    "runtime",
			Role:    domain.RoleFinal,
			Base:    scratch(),
			Install: domain.SubsetNone,
			User:    "app",
			Copy: []domain.CopyIn{
				{From: "build", Paths: []string{"app/dist"}},
				{From: "deps", Paths: []string{"app/node_modules", "etc/passwd", "etc/group"}},
			},
		},
	}
}

func buildGraph(t *testing.T, stages []*domain.Stage) *domain.StageGraph {
	t.Helper()
	g := domain.NewStageGraph(depsTarget)
	for _, s := range stages {
		require.NoError(t, g.AddStage(s))
	}
	return g
}

func metadata(t *testing.T, err error) map[string]any {
	t.Helper()
	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	return zErr.Metadata()
}

func TestStageGraph_AddStage(t *testing.T) {
	g := domain.NewStageGraph(depsTarget)
	stage := &domain.Stage{Name: "build", Role: domain.RoleBuilder}

	require.NoError(t, g.AddStage(stage))

	err := g.AddStage(stage)
	require.Error(t, err)
	assert.Equal(t, "build", metadata(t, err)["stage"])
}

func TestStageGraph_AddStage_InvalidName(t *testing.T) {
	g := domain.NewStageGraph(depsTarget)

	err := g.AddStage(&domain.Stage{Name: "bad name", Role: domain.RoleBuilder})
	assert.ErrorContains(t, err, domain.ErrInvalidStageName.Error())
}

func TestStageGraph_Validate_Order(t *testing.T) {
	g := buildGraph(t, pipelineStages())
	require.NoError(t, g.Validate())

	var order []string
	for s := range g.Walk() {
		order = append(order, s.Name)
	}

	assert.Equal(t, []string{"build", "deps", "runtime"}, order)
	assert.Equal(t, "runtime", g.Final().Name)
	assert.Equal(t, []string{"runtime"}, g.Dependents("build"))
}

func TestStageGraph_Validate_Deterministic(t *testing.T) {
	var first []string
	for range 10 {
		g := buildGraph(t, pipelineStages())
		require.NoError(t, g.Validate())

		var order []string
		for s := range g.Walk() {
			order = append(order, s.Name)
		}
		if first == nil {
			first = order
			continue
		}
		assert.Equal(t, first, order)
	}
}

func TestStageGraph_Validate_Cycle(t *testing.T) {
	stages := pipelineStages()
	stages[0].Copy = []domain.CopyIn{{From: "other", Paths: []string{"out"}}}
	stages = append(stages, &domain.Stage{
		Name:    "other",
		Role:    domain.RoleBuilder,
		Base:    scratch(),
		Outputs: []string{"out"},
		Copy:    []domain.CopyIn{{From: "build", Paths: []string{"app/dist"}}},
	})

	err := buildGraph(t, stages).Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, domain.ErrCycleDetected.Error())
	assert.Equal(t, "build -> other -> build", metadata(t, err)["cycle"])
}

func TestStageGraph_Validate_Rules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func([]*domain.Stage) []*domain.Stage
		wantErr error
	}{
		{
			name: "missing source stage",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				s[2].Copy = append(s[2].Copy, domain.CopyIn{From: "ghost", Paths: []string{"x"}})
				return s
			},
			wantErr: domain.ErrMissingDependency,
		},
		{
			name: "self import",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				s[0].Copy = []domain.CopyIn{{From: "build", Paths: []string{"app/dist"}}}
				return s
			},
			wantErr: domain.ErrSelfImport,
		},
		{
			name: "no final stage",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				return s[:2]
			},
			wantErr: domain.ErrFinalStageCount,
		},
		{
			name: "two final stages",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				return append(s, &domain.Stage{Name: "runtime2", Role: domain.RoleFinal, User: "app"})
			},
			wantErr: domain.ErrFinalStageCount,
		},
		{
			name: "final stage imported",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				return append(s, &domain.Stage{
					Name: "after",
					Role: domain.RoleBuilder,
					Copy: []domain.CopyIn{{From: "runtime", Paths: []string{"app/dist"}}},
				})
			},
			wantErr: domain.ErrFinalStageNotSink,
		},
		{
			name: "final stage runs commands",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				s[2].Commands = [][]string{{"sh", "-c", "true"}}
				return s
			},
			wantErr: domain.ErrFinalStageNotMinimal,
		},
		{
			name: "final stage installs dependencies",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				s[2].Install = domain.SubsetProduction
				return s
			},
			wantErr: domain.ErrFinalStageNotMinimal,
		},
		{
			name: "final stage without user",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				s[2].User = ""
				return s
			},
			wantErr: domain.ErrMissingRuntimeUser,
		},
		{
			name: "copy of undeclared output",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				s[2].Copy[0].Paths = []string{"app/src"}
				return s
			},
			wantErr: domain.ErrPathNotExported,
		},
		{
			name: "installer inherits builder",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				s[1].Copy = []domain.CopyIn{{From: "build", Paths: []string{"app/dist"}}}
				return s
			},
			wantErr: domain.ErrInstallerInheritsBuilder,
		},
		{
			name: "installer installs full set",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				s[1].Install = domain.SubsetFull
				return s
			},
			wantErr: domain.ErrInstallerSubset,
		},
		{
			name: "final imports builder dependency tree",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				s[2].Copy[0].Paths = []string{"app/node_modules"}
				return s
			},
			wantErr: domain.ErrBuildToolingLeak,
		},
		{
			name: "final imports builder dependency subtree",
			mutate: func(s []*domain.Stage) []*domain.Stage {
				s[2].Copy[0].Paths = []string{"app/node_modules/typescript"}
				return s
			},
			wantErr: domain.ErrBuildToolingLeak,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages := tt.mutate(pipelineStages())
			err := buildGraph(t, stages).Validate()
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}

func TestStageGraph_Validate_CopyBelowOutput(t *testing.T) {
	stages := pipelineStages()
	stages[2].Copy[0].Paths = []string{"app/dist/server.js"}

	g := buildGraph(t, stages)
	require.NoError(t, g.Validate())
}

func TestStageGraph_Validate_ZeroInstall(t *testing.T) {
	stages := pipelineStages()
	stages[2] = &domain.Stage{
		Name: "runtime",
		Role: domain.RoleFinal,
		Base: scratch(),
		User: "app",
		Copy: stages[2].Copy,
	}

	require.NoError(t, buildGraph(t, stages).Validate())
}

func TestStage_Sources(t *testing.T) {
	s := domain.Stage{Copy: []domain.CopyIn{
		{From: "b", Paths: []string{"x"}},
		{From: "a", Paths: []string{"y"}},
		{From: "b", Paths: []string{"z"}},
	}}

	assert.Equal(t, []string{"b", "a"}, s.Sources())
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "app/dist", want: "app/dist"},
		{in: "/etc/passwd", want: "etc/passwd"},
		{in: "app/../etc/./group", want: "etc/group"},
		{in: "../../outside", want: "outside"},
		{in: "/", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := domain.CleanPath(tt.in)
			if tt.wantErr {
				assert.ErrorContains(t, err, domain.ErrInvalidPath.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPathWithin(t *testing.T) {
	assert.True(t, domain.PathWithin("app/dist", "app/dist"))
	assert.True(t, domain.PathWithin("app/dist/a.js", "app/dist"))
	assert.False(t, domain.PathWithin("app/distribution", "app/dist"))
	assert.False(t, domain.PathWithin("app", "app/dist"))
}

func TestParseBaseRef(t *testing.T) {
	const pinned = "alpine@sha256:4bcff63911fcb4448bd4fdacec207030997caf25e9bea4045fa6c8c44de311d1"

	ref, err := domain.ParseBaseRef(pinned)
	require.NoError(t, err)
	assert.Equal(t, "alpine", ref.Name)
	assert.Equal(t, pinned, ref.String())

	ref, err = domain.ParseBaseRef("scratch")
	require.NoError(t, err)
	assert.True(t, ref.IsScratch())

	for _, bad := range []string{"alpine", "alpine:3.20", "alpine@latest", "@sha256:abc"} {
		_, err := domain.ParseBaseRef(bad)
		assert.ErrorContains(t, err, domain.ErrBaseNotPinned.Error(), bad)
	}
}

func TestParseRole(t *testing.T) {
	for _, r := range []string{"builder", "installer", "final"} {
		role, err := domain.ParseRole(r)
		require.NoError(t, err)
		assert.Equal(t, domain.Role(r), role)
	}

	_, err := domain.ParseRole("tester")
	assert.ErrorContains(t, err, domain.ErrInvalidRole.Error())
}

func TestArtifactSet_Lookup(t *testing.T) {
	set := domain.ArtifactSet{
		domain.NewArtifact("build", "app/dist", nil),
		domain.NewArtifact("build", "etc/passwd", nil),
	}

	a, ok := set.Lookup("app/dist/index.js")
	require.True(t, ok)
	assert.Equal(t, "build:app/dist", a.Name())

	_, ok = set.Lookup("app/src")
	assert.False(t, ok)
	assert.True(t, slices.Equal([]string{"app/dist", "etc/passwd"}, set.Paths()))
}
