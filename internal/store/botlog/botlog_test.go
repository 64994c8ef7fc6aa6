package botlog

import (
	"context"
	"testing"
	"time"
)

func TestPutAndLoadReports(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := Report{TS: now, MentionID: "m1", TargetHandle: "sometoken", Score: 65, Risk: "MEDIUM RISK ⚠️"}
	if err := db.PutReport(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := db.PutReport(ctx, Report{TS: now.Add(-48 * time.Hour), MentionID: "m0", TargetHandle: "old", Score: 10, Risk: "HIGH RISK ❌"}); err != nil {
		t.Fatal(err)
	}
	got, err := db.LoadReportsSince(ctx, now.Add(-time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("reports: got %d want 1", len(got))
	}
	if got[0].MentionID != "m1" || got[0].Score != 65 || !got[0].TS.Equal(now) {
		t.Fatalf("unexpected report: %+v", got[0])
	}
}

func TestCountActionsWithin(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	_ = db.PutAction(ctx, now, "reply")
	_ = db.PutAction(ctx, now.Add(5*time.Minute), "reply")
	_ = db.PutAction(ctx, now.Add(2*time.Hour), "reply")
	n, err := db.CountActionsWithin(ctx, now, now.Add(time.Hour), "reply")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("count: got %d want 2", n)
	}
}
