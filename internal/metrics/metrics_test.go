package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetricsExposure(t *testing.T) {
	PollRuns.Inc()
	PollErrors.Inc()
	MentionsProcessed.Inc()
	RepliesPosted.Inc()
	ReplyErrors.Inc()
	IncAPIRetry("/test")
	IncCommandRun("check")
	ObservePollDuration(time.Now().Add(-1500 * time.Millisecond))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status: %d", rec.Code)
	}
	body := rec.Body.String()
	for _, m := range []string{
		"rugguard_poll_runs_total",
		"rugguard_poll_errors_total",
		"rugguard_poll_duration_seconds",
		"rugguard_mentions_processed_total",
		"rugguard_replies_posted_total",
		"rugguard_reply_errors_total",
		"rugguard_api_retries_total",
		"rugguard_command_runs_total",
	} {
		if !strings.Contains(body, m) {
			t.Fatalf("expected metric %s in body", m)
		}
	}
}
