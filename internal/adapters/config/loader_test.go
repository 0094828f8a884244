package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/slim/internal/adapters/config"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const nodeBase = "node@sha256:4bcff63911fcb4448bd4fdacec207030997caf25e9bea4045fa6c8c44de311d1"

const pipelineYAML = `
version: "1"
source: .
bases: bases
manifest:
  declared: package.json
  lock: slim.lock.yaml
installer:
  mirror: vendor/mirror
identity:
  name: app
stages:
  build:
    role: builder
    base: ` + nodeBase + `
    workdir: /app
    context: [src, package.json]
    install: full
    env:
      NODE_ENV: production
    run:
      - npm run build
      - [node, scripts/check.js]
    outputs: [app/dist, app/node_modules]
  deps:
    role: installer
    base: ` + nodeBase + `
    workdir: app
    install: production
    identity: true
    outputs: [app/node_modules, etc/passwd, etc/group, etc/shadow, home/app]
  runtime:
    role: final
    base: scratch
    user: app
    entrypoint: [node, /app/dist/server.js]
    copy:
      - from: build
        paths: [app/dist]
      - from: deps
        paths: [/app/node_modules, etc/passwd, etc/group]
`

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.ConfigFileName), []byte(content), domain.FilePerm))
}

func newLoader(t *testing.T) (*config.Loader, *mocks.MockLogger) {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	return config.NewLoader(log), log
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, pipelineYAML)
	loader, _ := newLoader(t)

	project, err := loader.Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, project.Root)
	assert.Equal(t, filepath.Join(dir, "package.json"), project.DeclaredPath)
	assert.Equal(t, filepath.Join(dir, "slim.lock.yaml"), project.LockPath)
	assert.Equal(t, filepath.Join(dir, "bases"), project.BasesDir)
	assert.Equal(t, domain.InstallerMirror, project.Installer.Kind)
	assert.Equal(t, filepath.Join(dir, "vendor", "mirror"), project.Installer.Mirror)
	assert.Equal(t, "node_modules", project.Installer.Target)

	g := project.Graph
	assert.Equal(t, 3, g.Len())
	assert.Equal(t, "runtime", g.Final().Name)

	build, ok := g.Stage("build")
	require.True(t, ok)
	assert.Equal(t, "app", build.Workdir)
	assert.Equal(t, domain.SubsetFull, build.Install)
	assert.Equal(t, [][]string{
		{"/bin/sh", "-c", "npm run build"},
		{"node", "scripts/check.js"},
	}, build.Commands)

	deps, ok := g.Stage("deps")
	require.True(t, ok)
	require.NotNil(t, deps.Identity)
	assert.Equal(t, "app", deps.Identity.Name)

	final := g.Final()
	assert.True(t, final.Base.IsScratch())
	assert.Equal(t, []string{"app/node_modules", "etc/passwd", "etc/group"}, final.Copy[1].Paths)
}

func TestLoader_Load_DiscoversParent(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, pipelineYAML)
	sub := filepath.Join(dir, "src", "lib")
	require.NoError(t, os.MkdirAll(sub, domain.DirPerm))
	loader, _ := newLoader(t)

	project, err := loader.Load(sub)
	require.NoError(t, err)
	assert.Equal(t, dir, project.Root)
}

func TestLoader_Load_NotFound(t *testing.T) {
	loader, _ := newLoader(t)

	_, err := loader.Load(t.TempDir())
	assert.ErrorContains(t, err, domain.ErrConfigNotFound.Error())
}

func TestLoader_Load_UnknownVersionWarns(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, strings.Replace(pipelineYAML, `version: "1"`, `version: "7"`, 1))
	loader, log := newLoader(t)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	_, err := loader.Load(dir)
	require.NoError(t, err)
}

func TestLoader_Load_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "invalid yaml",
			content: "stages: [",
			wantErr: domain.ErrConfigParseFailed,
		},
		{
			name:    "missing manifest",
			content: "stages:\n  runtime:\n    role: final\n    base: scratch\n    user: app\n",
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name: "tag-only base",
			content: `
manifest: {declared: package.json, lock: slim.lock.yaml}
installer: {mirror: m}
stages:
  runtime: {role: final, base: "node:22", user: app}
`,
			wantErr: domain.ErrBaseNotPinned,
		},
		{
			name: "unknown role",
			content: `
manifest: {declared: package.json, lock: slim.lock.yaml}
installer: {mirror: m}
stages:
  runtime: {role: tester, base: scratch}
`,
			wantErr: domain.ErrInvalidRole,
		},
		{
			name: "identity without configuration",
			content: `
manifest: {declared: package.json, lock: slim.lock.yaml}
installer: {mirror: m}
stages:
  deps: {role: installer, base: scratch, install: production, identity: true}
  runtime: {role: final, base: scratch, user: app}
`,
			wantErr: domain.ErrInvalidConfig,
		},
		{
			name: "copy of undeclared output",
			content: `
manifest: {declared: package.json, lock: slim.lock.yaml}
installer: {mirror: m}
stages:
  build: {role: builder, base: scratch, outputs: [dist]}
  runtime:
    role: final
    base: scratch
    user: app
    copy: [{from: build, paths: [src]}]
`,
			wantErr: domain.ErrPathNotExported,
		},
		{
			name: "unknown installer subset",
			content: `
manifest: {declared: package.json, lock: slim.lock.yaml}
installer:
  command:
    dev: [npm, ci]
stages:
  runtime: {role: final, base: scratch, user: app}
`,
			wantErr: domain.ErrInvalidSubset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.content)
			loader, _ := newLoader(t)

			_, err := loader.Load(dir)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr.Error())
		})
	}
}
