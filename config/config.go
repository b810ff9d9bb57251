// Package config defines the construction-time configuration for a
// scheduler: worker count, queue discipline and channel defaults, with
// env/toml-tagged config structs and a TOML() renderer in the style of
// vishalbelsare-lindb's config/monitor.go and config/storage.go.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/dagcore/scheduler/internal/concurrent"
	"github.com/dagcore/scheduler/pkg/fault"
	"github.com/dagcore/scheduler/pkg/mover"
)

// Scheduler configures a scheduler.Scheduler and the default movers
// its host wires between node bodies.
type Scheduler struct {
	// NumWorkers is the size of the scheduler's thread pool. 0 builds
	// an inert scheduler that accepts submissions but never runs them.
	NumWorkers int `env:"NUM_WORKERS" toml:"num-workers" yaml:"numWorkers"`

	// QueueMode selects "shared" (one queue, any worker may pop) or
	// "per-worker" (round-robin assigned, optionally stealing).
	QueueMode string `env:"QUEUE_MODE" toml:"queue-mode" yaml:"queueMode"`
	// Stealing enables worker-to-worker task stealing; only
	// meaningful when QueueMode is "per-worker".
	Stealing bool `env:"STEALING" toml:"stealing" yaml:"stealing,omitempty"`
	// RecursivePush controls whether a task submitted from inside a
	// worker runs inline (false) or is enqueued like any other task
	// (true, the default).
	RecursivePush bool `env:"RECURSIVE_PUSH" toml:"recursive-push" yaml:"recursivePush"`

	// ChannelCapacity is the default mover capacity new host channels
	// should use; 0 means unbounded.
	ChannelCapacity int `env:"CHANNEL_CAPACITY" toml:"channel-capacity" yaml:"channelCapacity,omitempty"`
	// ChannelOrdering selects "fifo" (default) or "lifo" delivery
	// order for new host channels.
	ChannelOrdering string `env:"CHANNEL_ORDERING" toml:"channel-ordering" yaml:"channelOrdering"`
}

// LoadYAML reads a Scheduler config from a YAML file at path, starting
// from NewDefaultScheduler so unspecified fields keep their defaults,
// following the same read-file-then-unmarshal-over-defaults shape as
// rryter-sentinel's internal/config.Load.
func LoadYAML(path string) (*Scheduler, error) {
	cfg := NewDefaultScheduler()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read scheduler config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse scheduler config %q: %w", path, err)
	}
	return cfg, nil
}

// DumpYAML renders s as YAML, for writing out a starting-point config
// file.
func (s *Scheduler) DumpYAML() (string, error) {
	out, err := yaml.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// NewDefaultScheduler returns a Scheduler config sized to the host's
// CPU count, defaulting pool sizes off runtime.NumCPU in the style of
// vishalbelsare-lindb's internal/concurrent/pool.go.
func NewDefaultScheduler() *Scheduler {
	return &Scheduler{
		NumWorkers:      runtime.NumCPU(),
		QueueMode:       "shared",
		Stealing:        false,
		RecursivePush:   true,
		ChannelCapacity: 0,
		ChannelOrdering: "fifo",
	}
}

// Validate reports a fault.ConfigError if the configuration cannot be
// used to construct a scheduler or its pool.
func (s *Scheduler) Validate() error {
	if s.NumWorkers < 0 {
		return fault.NewConfigError("scheduler", "num-workers=%d must be >= 0", s.NumWorkers)
	}
	switch s.QueueMode {
	case "shared", "per-worker":
	default:
		return fault.NewConfigError("scheduler", "queue-mode=%q must be \"shared\" or \"per-worker\"", s.QueueMode)
	}
	switch s.ChannelOrdering {
	case "fifo", "lifo":
	default:
		return fault.NewConfigError("scheduler", "channel-ordering=%q must be \"fifo\" or \"lifo\"", s.ChannelOrdering)
	}
	if s.ChannelCapacity < 0 {
		return fault.NewConfigError("scheduler", "channel-capacity=%d must be >= 0", s.ChannelCapacity)
	}
	return nil
}

// PoolQueueMode translates QueueMode into the concurrent package's
// enum, for callers building a pool directly from this config.
func (s *Scheduler) PoolQueueMode() concurrent.QueueMode {
	if s.QueueMode == "per-worker" {
		return concurrent.QueuePerWorker
	}
	return concurrent.QueueShared
}

// ChannelOrderingValue translates ChannelOrdering into the mover
// package's enum.
func (s *Scheduler) ChannelOrderingValue() mover.Ordering {
	if s.ChannelOrdering == "lifo" {
		return mover.LIFO
	}
	return mover.FIFO
}

// TOML returns the scheduler config rendered as a commented TOML
// fragment, in the style of vishalbelsare-lindb's Monitor.TOML().
func (s *Scheduler) TOML() string {
	return fmt.Sprintf(`
## Config for the DAG scheduler
[scheduler]
## number of worker goroutines in the scheduler's thread pool
## 0 builds an inert scheduler that never runs submitted nodes
## Default: %d
num-workers = %d

## task queue discipline: "shared" or "per-worker"
## Default: %s
queue-mode = "%s"

## whether idle per-worker queues may steal from siblings
## Default: %t
stealing = %t

## whether a task submitted from inside a worker is enqueued (true)
## or runs inline on that worker (false)
## Default: %t
recursive-push = %t

## default mover capacity for host channels; 0 is unbounded
## Default: %d
channel-capacity = %d

## default mover delivery order: "fifo" or "lifo"
## Default: %s
channel-ordering = "%s"`,
		s.NumWorkers, s.NumWorkers,
		s.QueueMode, s.QueueMode,
		s.Stealing, s.Stealing,
		s.RecursivePush, s.RecursivePush,
		s.ChannelCapacity, s.ChannelCapacity,
		s.ChannelOrdering, s.ChannelOrdering,
	)
}
