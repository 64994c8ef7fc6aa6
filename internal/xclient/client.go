package xclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"rugguard/internal/metrics"
	"rugguard/internal/model"
)

// Client defines the X API operations the bot uses.
type Client interface {
	Me(ctx context.Context) (model.User, error)
	SearchMentions(ctx context.Context, query string, limit int) ([]model.Mention, error)
	LookupTweet(ctx context.Context, id string) (model.Tweet, model.User, error)
	GetUsersByUsernames(ctx context.Context, usernames []string) ([]model.User, error)
	GetFollowerIDs(ctx context.Context, userID string, limit int) ([]string, error)
	PostReply(ctx context.Context, text, inReplyToID string) (string, error)
}

// HTTPClient talks to X API v2 with OAuth 1.0a user-context auth.
type HTTPClient struct {
	baseURL     string
	signer      *Signer
	httpClient  *http.Client
	limiter     *rate.Limiter
	maxAttempts int
	baseBackoff time.Duration
}

func NewHTTPClient(consumerKey, consumerSecret, accessToken, accessSecret string) *HTTPClient {
	return &HTTPClient{
		baseURL:     "https://api.twitter.com/2",
		signer:      NewSigner(consumerKey, consumerSecret, accessToken, accessSecret),
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		limiter:     newDefaultLimiter(),
		maxAttempts: getEnvInt("X_API_MAX_ATTEMPTS", 5),
		baseBackoff: time.Duration(getEnvInt("X_API_BASE_BACKOFF_MS", 500)) * time.Millisecond,
	}
}

const userFields = "public_metrics,created_at,verified,description,profile_image_url"

type userPayload struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Username        string    `json:"username"`
	CreatedAt       time.Time `json:"created_at"`
	Verified        bool      `json:"verified"`
	Description     string    `json:"description"`
	ProfileImageURL string    `json:"profile_image_url"`
	PublicMetrics   struct {
		FollowersCount int `json:"followers_count"`
		FollowingCount int `json:"following_count"`
		TweetCount     int `json:"tweet_count"`
		ListedCount    int `json:"listed_count"`
	} `json:"public_metrics"`
}

func (p userPayload) toModel() model.User {
	return model.User{
		ID:             p.ID,
		Username:       p.Username,
		Name:           p.Name,
		CreatedAt:      p.CreatedAt,
		Verified:       p.Verified,
		Description:    p.Description,
		DefaultImage:   p.ProfileImageURL == "" || strings.Contains(p.ProfileImageURL, "default_profile"),
		FollowersCount: p.PublicMetrics.FollowersCount,
		FollowingCount: p.PublicMetrics.FollowingCount,
		TweetCount:     p.PublicMetrics.TweetCount,
		ListedCount:    p.PublicMetrics.ListedCount,
	}
}

func (c *HTTPClient) get(ctx context.Context, path string, params map[string]string) (*http.Response, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + encodeQuery(params)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.signer.Sign(req, params)
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.doWithRetry(ctx, req)
}

// Me returns the authenticated bot account. Used at startup to verify
// credentials and resolve the bot's own handle.
func (c *HTTPClient) Me(ctx context.Context) (model.User, error) {
	var out model.User
	resp, err := c.get(ctx, "/users/me", map[string]string{"user.fields": userFields})
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return out, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data userPayload `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return out, err
	}
	if raw.Data.ID == "" {
		return out, errors.New("empty user in response")
	}
	return raw.Data.toModel(), nil
}

// SearchMentions searches recent tweets matching query, most recent first.
func (c *HTTPClient) SearchMentions(ctx context.Context, query string, limit int) ([]model.Mention, error) {
	params := map[string]string{
		"query":        query,
		"max_results":  strconv.Itoa(clamp(limit, 10, 100)),
		"tweet.fields": "created_at,author_id,referenced_tweets",
		"expansions":   "author_id",
		"user.fields":  "username",
	}
	resp, err := c.get(ctx, "/tweets/search/recent", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data []struct {
			ID               string    `json:"id"`
			Text             string    `json:"text"`
			AuthorID         string    `json:"author_id"`
			CreatedAt        time.Time `json:"created_at"`
			ReferencedTweets []struct {
				Type string `json:"type"`
				ID   string `json:"id"`
			} `json:"referenced_tweets"`
		} `json:"data"`
		Includes struct {
			Users []struct {
				ID       string `json:"id"`
				Username string `json:"username"`
			} `json:"users"`
		} `json:"includes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	names := make(map[string]string, len(raw.Includes.Users))
	for _, u := range raw.Includes.Users {
		names[u.ID] = u.Username
	}
	out := make([]model.Mention, 0, len(raw.Data))
	for _, d := range raw.Data {
		m := model.Mention{
			ID:             d.ID,
			AuthorID:       d.AuthorID,
			AuthorUsername: names[d.AuthorID],
			Text:           d.Text,
			CreatedAt:      d.CreatedAt,
		}
		for _, ref := range d.ReferencedTweets {
			if ref.Type == "replied_to" {
				m.InReplyToID = ref.ID
				break
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// LookupTweet fetches a single tweet and its author's profile in one call.
func (c *HTTPClient) LookupTweet(ctx context.Context, id string) (model.Tweet, model.User, error) {
	var tw model.Tweet
	var author model.User
	if id == "" {
		return tw, author, errors.New("empty tweet id")
	}
	params := map[string]string{
		"tweet.fields": "created_at,author_id,lang",
		"expansions":   "author_id",
		"user.fields":  userFields,
	}
	resp, err := c.get(ctx, "/tweets/"+url.PathEscape(id), params)
	if err != nil {
		return tw, author, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return tw, author, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data struct {
			ID        string    `json:"id"`
			Text      string    `json:"text"`
			AuthorID  string    `json:"author_id"`
			CreatedAt time.Time `json:"created_at"`
			Lang      string    `json:"lang"`
		} `json:"data"`
		Includes struct {
			Users []userPayload `json:"users"`
		} `json:"includes"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return tw, author, err
	}
	if raw.Data.ID == "" {
		return tw, author, errors.New("tweet not found")
	}
	tw = model.Tweet{
		ID:        raw.Data.ID,
		AuthorID:  raw.Data.AuthorID,
		Text:      raw.Data.Text,
		CreatedAt: raw.Data.CreatedAt,
		Language:  raw.Data.Lang,
	}
	for _, u := range raw.Includes.Users {
		if u.ID == raw.Data.AuthorID {
			author = u.toModel()
			break
		}
	}
	if author.ID == "" {
		return tw, author, errors.New("author missing from response")
	}
	return tw, author, nil
}

// GetUsersByUsernames fetches user objects for given handles in one request.
func (c *HTTPClient) GetUsersByUsernames(ctx context.Context, usernames []string) ([]model.User, error) {
	if len(usernames) == 0 {
		return nil, nil
	}
	// API accepts up to 100 usernames per call
	if len(usernames) > 100 {
		usernames = usernames[:100]
	}
	params := map[string]string{
		"usernames":   strings.Join(usernames, ","),
		"user.fields": userFields,
	}
	resp, err := c.get(ctx, "/users/by", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data []userPayload `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(raw.Data))
	for _, d := range raw.Data {
		out = append(out, d.toModel())
	}
	return out, nil
}

// GetFollowerIDs returns one page of follower ids for a user.
func (c *HTTPClient) GetFollowerIDs(ctx context.Context, userID string, limit int) ([]string, error) {
	if userID == "" {
		return nil, errors.New("empty user id")
	}
	params := map[string]string{
		"max_results": strconv.Itoa(clamp(limit, 10, 1000)),
	}
	resp, err := c.get(ctx, "/users/"+url.PathEscape(userID)+"/followers", params)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}
	out := make([]string, 0, len(raw.Data))
	for _, d := range raw.Data {
		out = append(out, d.ID)
	}
	return out, nil
}

// PostReply posts text as a reply to the given tweet and returns the new
// tweet's id.
func (c *HTTPClient) PostReply(ctx context.Context, text, inReplyToID string) (string, error) {
	if inReplyToID == "" {
		return "", errors.New("empty reply target id")
	}
	body := map[string]any{
		"text":  text,
		"reply": map[string]string{"in_reply_to_tweet_id": inReplyToID},
	}
	bb, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(bb))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	c.signer.Sign(req, nil)
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("x api status %d", resp.StatusCode)
	}
	var raw struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return "", err
	}
	return raw.Data.ID, nil
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func (c *HTTPClient) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	backoff := c.baseBackoff
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		clone := req.Clone(ctx)
		if req.GetBody != nil {
			b, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			clone.Body = b
		}
		resp, err := c.httpClient.Do(clone)
		if err == nil {
			if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode <= 599) {
				ra := resp.Header.Get("Retry-After")
				_ = resp.Body.Close()
				metrics.IncAPIRetry(req.URL.Path)
				wait := backoff
				if ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						wait = time.Duration(secs) * time.Second
					} else if t, err := http.ParseTime(ra); err == nil {
						if d := time.Until(t); d > 0 {
							wait = d
						}
					}
				}
				// jitter +/-20%
				jitter := time.Duration(float64(wait) * 0.2)
				if jitter > 0 {
					wait = wait - jitter + time.Duration(time.Now().UnixNano()%int64(2*jitter))
				}
				select {
				case <-time.After(wait):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
				backoff *= 2
				continue
			}
			return resp, nil
		}
		lastErr = err
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("request failed after %d attempts: %v", c.maxAttempts, lastErr)
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if i, err := strconv.Atoi(v); err == nil && i > 0 {
		return i
	}
	return def
}
