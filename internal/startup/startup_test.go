package startup

import (
	"context"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

type fakeDependency struct {
	name      string
	dependsOn []string
	failures  int
	started   *[]string
	stopped   *[]string
}

func (d *fakeDependency) GetName() string     { return d.name }
func (d *fakeDependency) DependsOn() []string { return d.dependsOn }

func (d *fakeDependency) Start(ctx context.Context) error {
	if d.failures > 0 {
		d.failures--
		return errors.New("not ready")
	}
	*d.started = append(*d.started, d.name)
	return nil
}

func (d *fakeDependency) Stop(ctx context.Context) error {
	*d.stopped = append(*d.stopped, d.name)
	return nil
}

func TestStartHonorsDependsOn(t *testing.T) {
	var started, stopped []string

	s := New(testLogger(), 1)
	s.AddDependency(&fakeDependency{name: "server", dependsOn: []string{"database"}, started: &started, stopped: &stopped})
	s.AddDependency(&fakeDependency{name: "database", started: &started, stopped: &stopped})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"database", "server"}, started)
}

func TestStartRetriesFailedAttempt(t *testing.T) {
	var started, stopped []string

	s := New(testLogger(), 3)
	s.AddDependency(&fakeDependency{name: "database", failures: 1, started: &started, stopped: &stopped})

	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, []string{"database"}, started)
}

func TestStartFailsAfterMaxAttempts(t *testing.T) {
	var started, stopped []string

	s := New(testLogger(), 1)
	s.AddDependency(&fakeDependency{name: "database", failures: 5, started: &started, stopped: &stopped})

	assert.Error(t, s.Start(context.Background()))
	assert.Empty(t, started)
}

func TestStartUnregisteredDependency(t *testing.T) {
	var started, stopped []string

	s := New(testLogger(), 1)
	s.AddDependency(&fakeDependency{name: "server", dependsOn: []string{"database"}, started: &started, stopped: &stopped})

	assert.Error(t, s.Start(context.Background()))
}

func TestStopReversesStartOrder(t *testing.T) {
	var started, stopped []string

	s := New(testLogger(), 1)
	s.AddDependency(&fakeDependency{name: "database", started: &started, stopped: &stopped})
	s.AddDependency(&fakeDependency{name: "server", dependsOn: []string{"database"}, started: &started, stopped: &stopped})

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, []string{"server", "database"}, stopped)
}
