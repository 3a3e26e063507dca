package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// remoteRequests counts calls to the retail endpoint by path and outcome.
	remoteRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "esl_remote_requests_total",
		Help: "Total number of requests to the retail endpoint by path and HTTP status",
	}, []string{"path", "status"})

	// remoteRequestDuration tracks retail endpoint latency per path.
	remoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "esl_remote_request_duration_seconds",
		Help:    "Time taken by retail endpoint requests",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"path"})

	// reauthentications counts token refreshes triggered by a 401.
	reauthentications = promauto.NewCounter(prometheus.CounterOpts{
		Name: "esl_reauthentications_total",
		Help: "Total number of re-authentications after an expired token was rejected",
	})

	// rowsProcessed counts processed spreadsheet rows by ledger outcome.
	rowsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_rows_processed_total",
		Help: "Total number of processed rows by outcome",
	}, []string{"outcome"}) // outcome: created, updated, skipped, failed

	// batchesSubmitted counts remote batch submissions by result.
	batchesSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_batches_submitted_total",
		Help: "Total number of batches submitted to the retail endpoint by result",
	}, []string{"result"}) // result: success, failed

	// uploadsProcessed counts finished uploads by final status.
	uploadsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_uploads_processed_total",
		Help: "Total number of processed uploads by final status",
	}, []string{"status"})

	// uploadDuration tracks end-to-end upload processing time.
	uploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_upload_duration_seconds",
		Help:    "Time taken to process one upload end to end",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 900},
	})
)

// ObserveRemoteRequest records one retail endpoint call
func ObserveRemoteRequest(path string, status int, duration time.Duration) {
	remoteRequests.WithLabelValues(path, httpStatusLabel(status)).Inc()
	remoteRequestDuration.WithLabelValues(path).Observe(duration.Seconds())
}

// CountReauthentication records one 401-triggered token refresh
func CountReauthentication() {
	reauthentications.Inc()
}

// CountRow records one processed row outcome
func CountRow(outcome string) {
	rowsProcessed.WithLabelValues(outcome).Inc()
}

// CountBatch records one batch submission result
func CountBatch(result string) {
	batchesSubmitted.WithLabelValues(result).Inc()
}

// ObserveUpload records one finished upload
func ObserveUpload(status string, duration time.Duration) {
	uploadsProcessed.WithLabelValues(status).Inc()
	uploadDuration.Observe(duration.Seconds())
}

func httpStatusLabel(status int) string {
	switch {
	case status == 0:
		return "transport_error"
	case status >= 200 && status < 300:
		return "2xx"
	case status == 401:
		return "401"
	case status >= 400 && status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
