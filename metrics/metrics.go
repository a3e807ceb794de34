// Package metrics centralizes the prometheus registrations shared by
// the channel, task, and checkpoint layers, grounded in the teacher's
// own use of github.com/prometheus/client_golang for runtime metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Channel metric name prefixes mirror the three metrics the original
// rlink channel module registers per named channel: size (gauge),
// accepted (counter), drained (counter).
var (
	ChannelSize = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "coreflow",
		Subsystem: "channel",
		Name:      "size",
		Help:      "Current number of buffered elements in a named channel.",
	}, []string{"channel"})

	ChannelAccepted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coreflow",
		Subsystem: "channel",
		Name:      "accepted_total",
		Help:      "Cumulative elements accepted by a named channel.",
	}, []string{"channel"})

	ChannelDrained = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coreflow",
		Subsystem: "channel",
		Name:      "drained_total",
		Help:      "Cumulative elements drained from a named channel.",
	}, []string{"channel"})

	TaskRecordsProcessed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coreflow",
		Subsystem: "task",
		Name:      "records_processed_total",
		Help:      "Records processed by a task's operator chain.",
	}, []string{"task"})

	CheckpointDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coreflow",
		Subsystem: "checkpoint",
		Name:      "duration_seconds",
		Help:      "Wall time from barrier injection to global completion.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
)

func init() {
	prometheus.MustRegister(ChannelSize, ChannelAccepted, ChannelDrained, TaskRecordsProcessed, CheckpointDuration)
}
