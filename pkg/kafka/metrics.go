package kafka

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds producer and consumer collectors. Create one per registry and
// share it between the producer and consumer.
type Metrics struct {
	producerMsgs    *prometheus.CounterVec
	producerBytes   *prometheus.CounterVec
	producerLatency *prometheus.HistogramVec
	queueDepth      *prometheus.GaugeVec
	handleLatency   *prometheus.HistogramVec
	handled         *prometheus.CounterVec
}

// NewMetrics registers the Kafka collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		producerMsgs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "perfectratio_kafka_producer_messages_total",
			Help: "Messages published to Kafka",
		}, []string{"topic", "result"}),
		producerBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "perfectratio_kafka_producer_bytes_total",
			Help: "Payload bytes published",
		}, []string{"topic"}),
		producerLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perfectratio_kafka_producer_publish_seconds",
			Help:    "Publish latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
		queueDepth: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "perfectratio_kafka_consumer_queue_depth",
			Help: "Messages waiting in the consumer queue",
		}, []string{"topic"}),
		handleLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "perfectratio_kafka_consumer_handle_seconds",
			Help:    "Handling time per message",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"}),
		handled: f.NewCounterVec(prometheus.CounterOpts{
			Name: "perfectratio_kafka_consumer_messages_total",
			Help: "Consumed messages by result (ok, dlq, dropped)",
		}, []string{"topic", "result"}),
	}
}

func (m *Metrics) observePublish(topic string, bytes int64, count int, took time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.producerMsgs.WithLabelValues(topic, result).Add(float64(count))
	m.producerBytes.WithLabelValues(topic).Add(float64(bytes))
	m.producerLatency.WithLabelValues(topic).Observe(took.Seconds())
}

func (m *Metrics) setQueueDepth(topic string, n int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(topic).Set(float64(n))
}

func (m *Metrics) observeHandled(topic, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.handled.WithLabelValues(topic, result).Inc()
	m.handleLatency.WithLabelValues(topic).Observe(took.Seconds())
}
