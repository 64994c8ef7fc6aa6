package jobs

import (
	"context"
	"errors"
	"testing"

	"rugguard/internal/config"
	"rugguard/internal/directory"
	"rugguard/internal/model"
	"rugguard/internal/poller"
)

type fakeXClient struct {
	searchCalls int
	searchErr   error
}

func (f *fakeXClient) Me(ctx context.Context) (model.User, error) {
	return model.User{ID: "bot", Username: "rugguard_bot"}, nil
}
func (f *fakeXClient) SearchMentions(ctx context.Context, query string, limit int) ([]model.Mention, error) {
	f.searchCalls++
	return nil, f.searchErr
}
func (f *fakeXClient) LookupTweet(ctx context.Context, id string) (model.Tweet, model.User, error) {
	return model.Tweet{}, model.User{}, errors.New("not implemented")
}
func (f *fakeXClient) GetUsersByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	return nil, nil
}
func (f *fakeXClient) GetFollowerIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	return nil, nil
}
func (f *fakeXClient) PostReply(ctx context.Context, text, inReplyToID string) (string, error) {
	return "", nil
}

func newJobPoller(fc *fakeXClient) *poller.Poller {
	cfg := config.Default()
	return poller.New(fc, directory.New(nil), nil, cfg, model.User{ID: "bot", Username: "rugguard_bot"})
}

func TestRunPollOnce(t *testing.T) {
	fc := &fakeXClient{}
	p := newJobPoller(fc)
	if err := RunPollOnce(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	if fc.searchCalls != 1 {
		t.Fatalf("search calls: got %d want 1", fc.searchCalls)
	}
}

func TestRunPollOnceReturnsFetchError(t *testing.T) {
	fc := &fakeXClient{searchErr: errors.New("api down")}
	p := newJobPoller(fc)
	if err := RunPollOnce(context.Background(), p); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunPollLoopStopsOnCancel(t *testing.T) {
	fc := &fakeXClient{}
	p := newJobPoller(fc)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := config.MonitorConfig{TickSeconds: 1, PollIntervalSeconds: 300, CooldownSeconds: 300}
	err := RunPollLoop(ctx, p, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if fc.searchCalls != 1 {
		t.Fatalf("expected one immediate poll, got %d", fc.searchCalls)
	}
}
