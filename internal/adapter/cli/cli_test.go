package cli_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hercegdoo/aicompose/internal/adapter/cli"
)

type fakeRunner struct {
	addr string
	err  error
}

func (f *fakeRunner) Run(_ context.Context, addr string) error {
	f.addr = addr
	return f.err
}

func TestVersionFlagShortCircuits(t *testing.T) {
	runner := &fakeRunner{}
	out := &bytes.Buffer{}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:  runner,
		Args:    cli.Arguments{OutWriter: out, ErrWriter: &bytes.Buffer{}},
		Version: "v1.2.3",
	})
	root.SetArgs([]string{"serve", "--version"})

	err := root.ExecuteContext(context.Background())
	require.True(t, errors.Is(err, cli.ErrVersionRequested))
	assert.Contains(t, out.String(), "v1.2.3")
	assert.Empty(t, runner.addr, "runner must not start when version is requested")
}

func TestServeUsesFlagOverDefault(t *testing.T) {
	runner := &fakeRunner{}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:      runner,
		Args:        cli.Arguments{OutWriter: &bytes.Buffer{}, ErrWriter: &bytes.Buffer{}},
		DefaultAddr: ":8080",
	})
	root.SetArgs([]string{"serve", "--addr", ":9999"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, ":9999", runner.addr)
}

func TestServeFallsBackToDefaultAddr(t *testing.T) {
	runner := &fakeRunner{}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner:      runner,
		Args:        cli.Arguments{OutWriter: &bytes.Buffer{}, ErrWriter: &bytes.Buffer{}},
		DefaultAddr: ":8081",
	})
	root.SetArgs([]string{"serve"})

	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Equal(t, ":8081", runner.addr)
}

func TestServePropagatesRunnerError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("bind failed")}

	root := cli.NewRootCommand(cli.Dependencies{
		Runner: runner,
		Args:   cli.Arguments{OutWriter: &bytes.Buffer{}, ErrWriter: &bytes.Buffer{}},
	})
	root.SetArgs([]string{"serve"})

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bind failed")
}
