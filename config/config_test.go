package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagcore/scheduler/config"
	"github.com/dagcore/scheduler/internal/concurrent"
	"github.com/dagcore/scheduler/pkg/mover"
)

func TestNewDefaultSchedulerIsValid(t *testing.T) {
	cfg := config.NewDefaultScheduler()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, concurrent.QueueShared, cfg.PoolQueueMode())
	assert.Equal(t, mover.FIFO, cfg.ChannelOrderingValue())
}

func TestValidateRejectsBadQueueMode(t *testing.T) {
	cfg := config.NewDefaultScheduler()
	cfg.QueueMode = "round-robin"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadOrdering(t *testing.T) {
	cfg := config.NewDefaultScheduler()
	cfg.ChannelOrdering = "priority"
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsNegativeWorkers(t *testing.T) {
	cfg := config.NewDefaultScheduler()
	cfg.NumWorkers = -1
	assert.Error(t, cfg.Validate())
}

func TestPerWorkerQueueModeTranslates(t *testing.T) {
	cfg := config.NewDefaultScheduler()
	cfg.QueueMode = "per-worker"
	assert.Equal(t, concurrent.QueuePerWorker, cfg.PoolQueueMode())
}

func TestLIFOOrderingTranslates(t *testing.T) {
	cfg := config.NewDefaultScheduler()
	cfg.ChannelOrdering = "lifo"
	assert.Equal(t, mover.LIFO, cfg.ChannelOrderingValue())
}

func TestLoadYAMLMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := config.LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.NewDefaultScheduler().NumWorkers, cfg.NumWorkers)
}

func TestDumpYAMLThenLoadYAMLRoundTrips(t *testing.T) {
	cfg := config.NewDefaultScheduler()
	cfg.NumWorkers = 16
	cfg.QueueMode = "per-worker"
	cfg.Stealing = true

	rendered, err := cfg.DumpYAML()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "scheduler.yaml")
	require.NoError(t, os.WriteFile(path, []byte(rendered), 0o600))

	loaded, err := config.LoadYAML(path)
	require.NoError(t, err)
	assert.Equal(t, 16, loaded.NumWorkers)
	assert.Equal(t, "per-worker", loaded.QueueMode)
	assert.True(t, loaded.Stealing)
}

func TestTOMLRendersConfiguredValues(t *testing.T) {
	cfg := config.NewDefaultScheduler()
	cfg.NumWorkers = 8
	cfg.QueueMode = "per-worker"
	rendered := cfg.TOML()
	assert.True(t, strings.Contains(rendered, "num-workers = 8"))
	assert.True(t, strings.Contains(rendered, `queue-mode = "per-worker"`))
}
