package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PollRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rugguard_poll_runs_total",
		Help: "Total poll cycles",
	})
	PollErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rugguard_poll_errors_total",
		Help: "Total failed poll cycles",
	})
	PollDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rugguard_poll_duration_seconds",
		Help:    "Poll cycle duration seconds",
		Buckets: prometheus.DefBuckets,
	})
	MentionsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rugguard_mentions_processed_total",
		Help: "Total mentions handled",
	})
	RepliesPosted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rugguard_replies_posted_total",
		Help: "Total trust reports posted",
	})
	ReplyErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rugguard_reply_errors_total",
		Help: "Total failed reply posts",
	})
	APIRetries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rugguard_api_retries_total",
		Help: "Total API retry attempts",
	}, []string{"endpoint"})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rugguard_command_runs_total",
		Help: "Total CLI command invocations",
	}, []string{"command"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rugguard_command_errors_total",
		Help: "Total CLI command failures",
	}, []string{"command"})
)

func init() {
	prometheus.MustRegister(PollRuns, PollErrors, PollDuration, MentionsProcessed, RepliesPosted, ReplyErrors, APIRetries, CommandRuns, CommandErrors)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, nil) }()
}

// ObservePollDuration records a cycle duration
func ObservePollDuration(start time.Time) {
	PollDuration.Observe(time.Since(start).Seconds())
}

// IncAPIRetry increments the retry counter for an endpoint.
func IncAPIRetry(endpoint string) { APIRetries.WithLabelValues(endpoint).Inc() }

// IncCommandRun counts a CLI command invocation.
func IncCommandRun(cmd string) { CommandRuns.WithLabelValues(cmd).Inc() }

// IncCommandError counts a CLI command failure.
func IncCommandError(cmd string) { CommandErrors.WithLabelValues(cmd).Inc() }
