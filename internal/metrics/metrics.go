package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Predictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "churn_predictions_total",
		Help: "Total number of successful predictions, labelled by risk tier.",
	}, []string{"tier"})

	PredictionErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "churn_prediction_errors_total",
		Help: "Total number of failed scoring requests, labelled by kind (malformed, validation, unavailable, prediction, queue_full, timeout).",
	}, []string{"kind"})

	PredictionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "churn_prediction_duration_ms",
		Help:    "Scoring latency in milliseconds, labelled by operation (predict, explain, batch).",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	}, []string{"op"})

	ModelReady = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "churn_model_ready",
		Help: "1 when a valid artifact set is loaded, 0 otherwise.",
	})

	ModelReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "churn_model_reloads_total",
		Help: "Total number of artifact reload attempts, labelled by status.",
	}, []string{"status"})

	BatchRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "churn_batch_items_rejected_total",
		Help: "Total number of batch items rejected due to a full queue.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "churn_queue_utilization_ratio",
		Help: "Current batch queue utilization (0-1).",
	})
)
