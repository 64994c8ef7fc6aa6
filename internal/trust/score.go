package trust

import (
	"time"
	"unicode/utf8"

	"rugguard/internal/model"
)

// Risk labels, ordered high score to low.
const (
	RiskVerified = "VERIFIED ✅"
	RiskLow      = "LOW RISK ✅"
	RiskMedium   = "MEDIUM RISK ⚠️"
	RiskHigh     = "HIGH RISK ❌"
)

// Analysis is the derived trust record for one account at analysis time.
type Analysis struct {
	Username       string
	DisplayName    string
	AccountAgeDays int
	FollowersCount int
	FollowingCount int
	TweetCount     int
	FollowerRatio  float64
	Verified       bool
	HasAvatar      bool
	HasBio         bool
	BioLength      int
	TrustedConns   int
	TrustScore     int
	RiskLevel      string
	Trusted        bool
}

// Scorer maps an analysis to a 0-100 trust score. The heuristic weights are
// deliberately kept behind this interface so they can be swapped without
// touching the pipeline.
type Scorer interface {
	Score(a Analysis) int
}

// HeuristicScorer is the default fixed-band linear scoring policy.
type HeuristicScorer struct{}

// Score sums independent bonuses and clamps to [0, 100].
func (HeuristicScorer) Score(a Analysis) int {
	score := 0

	// Account age bonus (max 20 points)
	switch {
	case a.AccountAgeDays > 365:
		score += 20
	case a.AccountAgeDays > 180:
		score += 15
	case a.AccountAgeDays > 90:
		score += 10
	case a.AccountAgeDays > 30:
		score += 5
	}

	// Follower ratio bonus (max 20 points)
	if a.FollowerRatio >= 0.1 && a.FollowerRatio <= 10 {
		score += 20
	} else if a.FollowerRatio >= 0.01 && a.FollowerRatio <= 100 {
		score += 10
	}

	// Profile completeness (max 15 points)
	if a.HasAvatar {
		score += 5
	}
	if a.HasBio && a.BioLength > 20 {
		score += 10
	}

	// Verification bonus (max 15 points)
	if a.Verified {
		score += 15
	}

	// Trusted network bonus (max 30 points)
	switch {
	case a.TrustedConns >= 3:
		score += 30
	case a.TrustedConns >= 2:
		score += 20
	case a.TrustedConns >= 1:
		score += 10
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

// RiskLevel maps a trust score to its risk band.
func RiskLevel(score int) string {
	switch {
	case score >= 70:
		return RiskLow
	case score >= 40:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// Analyze derives metrics for a profile snapshot and scores it with scorer.
// trustedConns is the probed trusted-network connection count.
func Analyze(u model.User, trustedConns int, now time.Time, scorer Scorer) Analysis {
	a := Analysis{
		Username:       u.Username,
		DisplayName:    u.Name,
		AccountAgeDays: int(now.Sub(u.CreatedAt).Hours() / 24),
		FollowersCount: u.FollowersCount,
		FollowingCount: u.FollowingCount,
		TweetCount:     u.TweetCount,
		Verified:       u.Verified,
		HasAvatar:      !u.DefaultImage,
		HasBio:         u.Description != "",
		BioLength:      utf8.RuneCountInString(u.Description),
		TrustedConns:   trustedConns,
	}
	if a.FollowingCount > 0 {
		a.FollowerRatio = float64(a.FollowersCount) / float64(a.FollowingCount)
	} else {
		// Following nobody: treat the raw follower count as the ratio signal.
		a.FollowerRatio = float64(a.FollowersCount)
	}
	a.TrustScore = scorer.Score(a)
	a.RiskLevel = RiskLevel(a.TrustScore)
	return a
}

// VerifiedAnalysis is the fixed short-circuit result for accounts on the
// trusted directory.
func VerifiedAnalysis(u model.User) Analysis {
	return Analysis{
		Username:    u.Username,
		DisplayName: u.Name,
		TrustScore:  100,
		RiskLevel:   RiskVerified,
		Trusted:     true,
	}
}
