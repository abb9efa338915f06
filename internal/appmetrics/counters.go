package appmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PollCyclesTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_poll_cycles_total",
		Help: "Total poll cycles started against the AutoPi cloud",
	})
	PollCyclesFailedOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_poll_cycles_failed_total",
		Help: "Total poll cycles that ended with an error",
	})
	PollCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autopi_bridge_poll_cycle_duration_seconds",
		Help:    "Duration of a full poll cycle in seconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	UpstreamAPICallsTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_upstream_api_calls_total",
		Help: "Total calls made to the AutoPi cloud API",
	})
	UpstreamAPICallsFailedOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_upstream_api_calls_failed_total",
		Help: "Total failed calls to the AutoPi cloud API",
	})

	AutoZeroZeroedTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_auto_zero_zeroed_total",
		Help: "Total metric transitions into the zeroed state",
	})
	AutoZeroUnzeroedTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_auto_zero_unzeroed_total",
		Help: "Total metric transitions out of the zeroed state",
	})

	SnapshotSavesTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_snapshot_saves_total",
		Help: "Total zero-state snapshot writes to Redis",
	})
	SnapshotSavesFailedOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_snapshot_saves_failed_total",
		Help: "Total failed zero-state snapshot writes",
	})
	SnapshotEntriesRestored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_snapshot_entries_restored_total",
		Help: "Zero-state entries restored from the snapshot on startup",
	})
	SnapshotEntriesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_snapshot_entries_dropped_total",
		Help: "Zero-state entries dropped on restore for exceeding retention",
	})
	PurgedMetricsTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_purged_metrics_total",
		Help: "Metric entries removed by the purge sweep",
	})

	TelemetryIngestTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_telemetry_ingest_ops_total",
		Help: "Total pushed telemetry events received",
	})
	TelemetryIngestSuccessOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_telemetry_ingest_success_ops_total",
		Help: "Total pushed telemetry events merged into the reading store",
	})

	MQTTPublishTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_mqtt_publish_total",
		Help: "Total MQTT state and discovery publishes attempted",
	})
	MQTTPublishFailedOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_mqtt_publish_failed_total",
		Help: "Total MQTT publishes that failed or timed out",
	})

	BackfillTasksTotalOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_backfill_tasks_total",
		Help: "Total event backfill tasks started",
	})
	BackfillTasksFailedOps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autopi_bridge_backfill_tasks_failed_total",
		Help: "Total event backfill tasks that failed permanently",
	})

	HTTPRequestCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autopi_bridge_http_request_count",
		Help: "The total number of HTTP requests served",
	}, []string{"method", "path", "status"})
	HTTPResponseTime = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "autopi_bridge_http_response_time_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "path", "status"})
)
