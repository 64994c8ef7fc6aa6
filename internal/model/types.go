package model

import "time"

// User represents the subset of X user fields the bot inspects.
type User struct {
	ID             string
	Username       string
	Name           string
	Description    string
	CreatedAt      time.Time
	FollowersCount int
	FollowingCount int
	TweetCount     int
	ListedCount    int
	DefaultImage   bool
	Verified       bool
}

// Tweet represents a subset of X tweet fields used by the bot.
type Tweet struct {
	ID        string
	AuthorID  string
	Text      string
	CreatedAt time.Time
	Language  string
}

// Mention is an inbound tweet that references the bot. InReplyToID is the
// id of the tweet being replied to, empty when the mention is not a reply.
type Mention struct {
	ID             string
	AuthorID       string
	AuthorUsername string
	Text           string
	CreatedAt      time.Time
	InReplyToID    string
}
