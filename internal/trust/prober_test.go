package trust

import (
	"context"
	"errors"
	"testing"

	"rugguard/internal/directory"
	"rugguard/internal/model"
)

type fakeFollowerClient struct {
	ids []string
	err error
}

func (f *fakeFollowerClient) Me(ctx context.Context) (model.User, error) {
	return model.User{}, nil
}
func (f *fakeFollowerClient) SearchMentions(ctx context.Context, query string, limit int) ([]model.Mention, error) {
	return nil, nil
}
func (f *fakeFollowerClient) LookupTweet(ctx context.Context, id string) (model.Tweet, model.User, error) {
	return model.Tweet{}, model.User{}, nil
}
func (f *fakeFollowerClient) GetUsersByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	out := make([]model.User, 0, len(usernames))
	for _, u := range usernames {
		out = append(out, model.User{ID: "id-" + u, Username: u})
	}
	return out, nil
}
func (f *fakeFollowerClient) GetFollowerIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	return f.ids, f.err
}
func (f *fakeFollowerClient) PostReply(ctx context.Context, text, inReplyToID string) (string, error) {
	return "", nil
}

func TestCountTrustedFollowers(t *testing.T) {
	ctx := context.Background()
	dir := directory.New([]string{"alpha", "beta", "gamma"})
	client := &fakeFollowerClient{ids: []string{"id-alpha", "id-gamma", "id-stranger"}}
	if n := dir.ResolveIDs(ctx, client); n != 3 {
		t.Fatalf("resolved: got %d want 3", n)
	}
	if got := CountTrustedFollowers(ctx, client, dir, "u1", 1000); got != 2 {
		t.Fatalf("count: got %d want 2", got)
	}
}

func TestCountTrustedFollowersFetchFailure(t *testing.T) {
	ctx := context.Background()
	dir := directory.New([]string{"alpha"})
	client := &fakeFollowerClient{err: errors.New("boom")}
	dir.ResolveIDs(ctx, client)
	if got := CountTrustedFollowers(ctx, client, dir, "u1", 1000); got != 0 {
		t.Fatalf("count on failure: got %d want 0", got)
	}
}

func TestCountTrustedFollowersNoResolvedIDs(t *testing.T) {
	dir := directory.New([]string{"alpha"})
	if got := CountTrustedFollowers(context.Background(), &fakeFollowerClient{}, dir, "u1", 1000); got != 0 {
		t.Fatalf("count without resolved ids: got %d want 0", got)
	}
}
