package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	MessageProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bakery",
			Subsystem: "messaging",
			Name:      "message_processing_duration_seconds",
			Help:      "Message processing duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"topic", "consumer_group", "status"},
	)

	MessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bakery",
			Subsystem: "messaging",
			Name:      "messages_processed_total",
			Help:      "Total number of broker messages processed",
		},
		[]string{"topic", "consumer_group", "status"},
	)

	WorkersRunning = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "bakery",
			Subsystem: "messaging",
			Name:      "workers_running",
			Help:      "Consumer workers currently running",
		},
		[]string{"worker"},
	)
)

func init() {
	Registry.MustRegister(MessageProcessingDuration, MessagesProcessed, WorkersRunning)
}
