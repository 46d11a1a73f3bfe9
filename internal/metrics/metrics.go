package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "choir"

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	AttendanceSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_saves_total",
		Help:      "Per-event attendance saves by result.",
	}, []string{"result"})

	AttendanceRecordsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_records_written_total",
		Help:      "Attendance records written into user buckets.",
	})

	AttendanceExcusedByPermission = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "attendance_excused_by_permission_total",
		Help:      "Records stored as Excused because of an approved permission.",
	})

	EventsSwept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_swept_total",
		Help:      "Ended events removed by the cleanup sweep.",
	})

	FeedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "feed_clients",
		Help:      "Connected live feed websocket clients.",
	})

	RateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_requests_total",
		Help:      "Requests rejected by the rate limiter.",
	})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
