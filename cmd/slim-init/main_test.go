package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/slim/internal/adapters/proc"
	"go.trai.ch/slim/internal/core/domain"
	"go.trai.ch/slim/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"slim-init": func() {
			os.Exit(run(os.Args[1:], os.Stderr, proc.NewTable()))
		},
	})
}

func TestScripts(t *testing.T) {
	testscript.Run(t, testscript.Params{
		Dir: "testdata/script",
		Setup: func(env *testscript.Env) error {
			env.Setenv("NO_COLOR", "1")
			return nil
		},
	})
}

func TestRun_Usage(t *testing.T) {
	ctrl := gomock.NewController(t)
	procs := mocks.NewMockProcessTable(ctrl)

	stderr := new(bytes.Buffer)
	assert.Equal(t, domain.ExitUsage, run([]string{}, stderr, procs))
	assert.Contains(t, stderr.String(), "requires at least 1 arg")

	assert.Equal(t, domain.ExitUsage, run([]string{"--no-such-flag", "true"}, new(bytes.Buffer), procs))
}

func TestRun_Help(t *testing.T) {
	ctrl := gomock.NewController(t)
	stderr := new(bytes.Buffer)

	assert.Equal(t, 0, run([]string{"--help"}, stderr, mocks.NewMockProcessTable(ctrl)))
	assert.Contains(t, stderr.String(), "slim-init [flags] [--] command [args...]")
}
