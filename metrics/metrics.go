package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder counts dispatched operations by outcome. A nil Recorder is a no-op.
type Recorder struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizboard_requests_total",
			Help: "Dispatched requests by operation and response status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "quizboard_request_duration_seconds",
			Help:    "Time spent dispatching a request, including the store round trip.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	reg.MustRegister(r.requests, r.duration)
	return r
}

func (r *Recorder) Observe(operation string, status int, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	r.duration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler exposes the gatherer in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
