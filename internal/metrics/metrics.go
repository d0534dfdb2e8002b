package metrics

import (
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registry = prometheus.NewRegistry()

	processSpawns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relaunch",
		Name:      "process_spawns_total",
		Help:      "Total number of child processes spawned per environment.",
	}, []string{"environment"})

	processRestarts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relaunch",
		Name:      "process_restarts_total",
		Help:      "Total number of spawns that replaced a previously running process.",
	}, []string{"environment"})

	abnormalExits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "relaunch",
		Name:      "process_abnormal_exits_total",
		Help:      "Total number of child processes that exited with a non-zero status or signal.",
	}, []string{"environment"})

	terminateDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "relaunch",
		Name:      "terminate_duration_seconds",
		Help:      "Duration of termination sweeps in seconds.",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 3, 5},
	})

	buildInfo = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "relaunch",
		Name:      "build_info",
		Help:      "Build metadata for the running relaunch binary.",
	}, []string{"go_version", "vcs", "vcs_revision", "vcs_time", "vcs_modified"})

	buildInfoOnce sync.Once
)

func init() {
	registry.MustRegister(processSpawns, processRestarts, abnormalExits, terminateDuration, buildInfo)
}

// Registry returns the Prometheus registry containing all relaunch metrics.
func Registry() *prometheus.Registry {
	return registry
}

// IncProcessSpawn records a spawned child process for an environment.
func IncProcessSpawn(environment string) {
	if environment == "" {
		return
	}
	processSpawns.WithLabelValues(environment).Inc()
}

// IncProcessRestart records a spawn that replaced a running process.
func IncProcessRestart(environment string) {
	if environment == "" {
		return
	}
	processRestarts.WithLabelValues(environment).Inc()
}

// IncAbnormalExit records a child process that exited abnormally.
func IncAbnormalExit(environment string) {
	if environment == "" {
		return
	}
	abnormalExits.WithLabelValues(environment).Inc()
}

// ObserveTerminateDuration records the duration of a termination sweep.
func ObserveTerminateDuration(d time.Duration) {
	if d < 0 {
		return
	}
	terminateDuration.Observe(d.Seconds())
}

// EmitBuildInfo publishes build metadata about the running binary.
func EmitBuildInfo() {
	buildInfoOnce.Do(func() {
		labels := prometheus.Labels{
			"go_version":   runtime.Version(),
			"vcs":          "",
			"vcs_revision": "",
			"vcs_time":     "",
			"vcs_modified": "",
		}
		if info, ok := debug.ReadBuildInfo(); ok {
			if info.GoVersion != "" {
				labels["go_version"] = info.GoVersion
			}
			for _, setting := range info.Settings {
				switch setting.Key {
				case "vcs":
					labels["vcs"] = setting.Value
				case "vcs.revision":
					labels["vcs_revision"] = setting.Value
				case "vcs.time":
					labels["vcs_time"] = setting.Value
				case "vcs.modified":
					labels["vcs_modified"] = setting.Value
				}
			}
		}
		buildInfo.With(labels).Set(1)
	})
}
