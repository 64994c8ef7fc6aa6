package trust

import (
	"context"

	"rugguard/internal/directory"
	"rugguard/internal/logging"
	"rugguard/internal/xclient"
)

// CountTrustedFollowers reports how many trusted directory accounts follow
// userID, sampling a single page of the follower list. Best effort: returns
// 0 when the follower fetch fails.
func CountTrustedFollowers(ctx context.Context, client xclient.Client, dir *directory.Directory, userID string, sampleSize int) int {
	if dir.ResolvedIDs() == 0 {
		return 0
	}
	ids, err := client.GetFollowerIDs(ctx, userID, sampleSize)
	if err != nil {
		logging.Warn("follower_fetch_error", map[string]any{"user_id": userID, "error": err.Error()})
		return 0
	}
	count := 0
	for _, id := range ids {
		if dir.ContainsID(id) {
			count++
		}
	}
	return count
}
