package xclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// helper to create client with injected http client
func newTestClient(ts *httptest.Server) *HTTPClient {
	c := NewHTTPClient("ck", "cs", "at", "as")
	c.maxAttempts = 3
	c.baseBackoff = 10 * time.Millisecond
	c.httpClient = ts.Client()
	c.baseURL = ts.URL
	return c
}

func TestDoWithRetryHandles429(t *testing.T) {
	attempts := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/test", nil)
	resp, err := c.doWithRetry(context.Background(), req)
	if err != nil {
		t.Fatalf("expected success, got error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if attempts < 2 {
		t.Fatalf("expected at least 2 attempts, got %d", attempts)
	}
}

func TestSearchMentionsParsesReplies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			t.Error("missing Authorization header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id":"m1","text":"@bot riddle me this","author_id":"a1","created_at":"2025-06-01T12:00:00Z",
				 "referenced_tweets":[{"type":"replied_to","id":"t1"}]},
				{"id":"m2","text":"@bot riddle me this","author_id":"a2","created_at":"2025-06-01T12:01:00Z"}
			],
			"includes": {"users":[{"id":"a1","username":"alice"},{"id":"a2","username":"bob"}]}
		}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	out, err := c.SearchMentions(context.Background(), `@bot "riddle me this"`, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 2 {
		t.Fatalf("mentions: got %d want 2", len(out))
	}
	if out[0].InReplyToID != "t1" || out[0].AuthorUsername != "alice" {
		t.Fatalf("unexpected first mention: %+v", out[0])
	}
	if out[1].InReplyToID != "" {
		t.Fatalf("second mention should not be a reply: %+v", out[1])
	}
}

func TestLookupTweetReturnsAuthorProfile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": {"id":"t1","text":"gm","author_id":"u1","created_at":"2024-01-01T00:00:00Z","lang":"en"},
			"includes": {"users":[{"id":"u1","username":"target","name":"Target","created_at":"2020-01-01T00:00:00Z",
				"verified":true,"description":"a bio with enough length",
				"profile_image_url":"https://pbs.twimg.com/profile_images/custom.jpg",
				"public_metrics":{"followers_count":5000,"following_count":50,"tweet_count":100}}]}
		}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	tw, author, err := c.LookupTweet(context.Background(), "t1")
	if err != nil {
		t.Fatal(err)
	}
	if tw.ID != "t1" || tw.AuthorID != "u1" {
		t.Fatalf("unexpected tweet: %+v", tw)
	}
	if author.Username != "target" || !author.Verified || author.FollowersCount != 5000 {
		t.Fatalf("unexpected author: %+v", author)
	}
	if author.DefaultImage {
		t.Fatal("custom avatar must not be flagged as default")
	}
}

func TestGetFollowerIDs(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"1"},{"id":"2"},{"id":"3"}]}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	ids, err := c.GetFollowerIDs(context.Background(), "u1", 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 || ids[0] != "1" {
		t.Fatalf("unexpected ids: %v", ids)
	}
}

func TestPostReplySendsJSONBody(t *testing.T) {
	var got map[string]any
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method: got %s", r.Method)
		}
		if r.Header.Get("Authorization") == "" {
			t.Error("missing Authorization header")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"new1"}}`))
	}))
	defer ts.Close()

	c := newTestClient(ts)
	id, err := c.PostReply(context.Background(), "report text", "m1")
	if err != nil {
		t.Fatal(err)
	}
	if id != "new1" {
		t.Fatalf("id: got %q", id)
	}
	if got["text"] != "report text" {
		t.Fatalf("body text: got %v", got["text"])
	}
	reply, _ := got["reply"].(map[string]any)
	if reply["in_reply_to_tweet_id"] != "m1" {
		t.Fatalf("reply target: got %v", got["reply"])
	}
}

func TestPostReplyErrorStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	c := newTestClient(ts)
	if _, err := c.PostReply(context.Background(), "x", "m1"); err == nil {
		t.Fatal("expected error on 403")
	}
}
