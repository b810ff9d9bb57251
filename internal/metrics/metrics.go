// Package metrics provides the Prometheus-backed statistics handles
// threaded through the mover, thread pool and scheduler packages,
// grounded on the metrics.ConcurrentStatistics handle referenced from
// vishalbelsare-lindb's internal/concurrent/pool.go. That package's own
// metrics.ConcurrentStatistics definition lives outside the retrieved
// subtree, so its shape is reconstructed here directly against
// prometheus/client_golang, the same dependency vishalbelsare-lindb and
// ChuLiYu-raft-recovery both use for this.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChannelStatistics tracks push/pop activity for a single mover.
type ChannelStatistics struct {
	Pushes prometheus.Counter
	Pops   prometheus.Counter
	Drops  prometheus.Counter
}

// NewChannelStatistics builds a ChannelStatistics labelled by name; the
// caller is responsible for registering the returned collectors with a
// registry if process-wide export is desired.
func NewChannelStatistics(name string) *ChannelStatistics {
	return &ChannelStatistics{
		Pushes: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dagcore_mover_pushes_total",
			Help:        "Total items pushed onto a mover.",
			ConstLabels: prometheus.Labels{"mover": name},
		}),
		Pops: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dagcore_mover_pops_total",
			Help:        "Total items popped from a mover.",
			ConstLabels: prometheus.Labels{"mover": name},
		}),
		Drops: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "dagcore_mover_drops_total",
			Help:        "Total push/pop attempts rejected by a stopped mover.",
			ConstLabels: prometheus.Labels{"mover": name},
		}),
	}
}

// PoolStatistics tracks a thread pool's worker and task lifecycle,
// mirroring the fields vishalbelsare-lindb's internal/concurrent/pool.go
// dispatches against (WorkersAlive, WorkersCreated, TasksConsumed,
// TasksPanic, TasksRejected, ...).
type PoolStatistics struct {
	WorkersAlive    prometheus.Gauge
	TasksSubmitted  prometheus.Counter
	TasksExecuted   prometheus.Counter
	TasksPanicked   prometheus.Counter
	TasksStolen     prometheus.Counter
	TasksRecursive  prometheus.Counter
}

// NewPoolStatistics builds a PoolStatistics labelled by pool name.
func NewPoolStatistics(name string) *PoolStatistics {
	labels := prometheus.Labels{"pool": name}
	return &PoolStatistics{
		WorkersAlive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dagcore_pool_workers_alive", Help: "Live worker goroutines.", ConstLabels: labels,
		}),
		TasksSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dagcore_pool_tasks_submitted_total", Help: "Tasks submitted to the pool.", ConstLabels: labels,
		}),
		TasksExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dagcore_pool_tasks_executed_total", Help: "Tasks executed by the pool.", ConstLabels: labels,
		}),
		TasksPanicked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dagcore_pool_tasks_panicked_total", Help: "Tasks that panicked.", ConstLabels: labels,
		}),
		TasksStolen: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dagcore_pool_tasks_stolen_total", Help: "Tasks executed via work-stealing.", ConstLabels: labels,
		}),
		TasksRecursive: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dagcore_pool_tasks_recursive_total", Help: "Tasks executed inline due to recursive_push=off.", ConstLabels: labels,
		}),
	}
}

// SchedulerStatistics holds gauges for the scheduler's four state-set
// sizes plus the cumulative notify-sweep iteration count. The scheduler
// package updates only SweepRounds; it does not set the four gauges.
type SchedulerStatistics struct {
	Ready        prometheus.Gauge
	Running      prometheus.Gauge
	Waiting      prometheus.Gauge
	Finished     prometheus.Gauge
	SweepRounds  prometheus.Counter
}

// NewSchedulerStatistics builds a SchedulerStatistics labelled by
// scheduler name.
func NewSchedulerStatistics(name string) *SchedulerStatistics {
	labels := prometheus.Labels{"scheduler": name}
	return &SchedulerStatistics{
		Ready: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dagcore_scheduler_ready_nodes", Help: "Nodes in the ready queue.", ConstLabels: labels,
		}),
		Running: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dagcore_scheduler_running_nodes", Help: "Nodes in the running set.", ConstLabels: labels,
		}),
		Waiting: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dagcore_scheduler_waiting_nodes", Help: "Nodes in the waiting set.", ConstLabels: labels,
		}),
		Finished: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dagcore_scheduler_finished_nodes", Help: "Nodes in the finished queue.", ConstLabels: labels,
		}),
		SweepRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dagcore_scheduler_sweep_rounds_total", Help: "Notification sweep iterations across all workers.", ConstLabels: labels,
		}),
	}
}
