package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"rugguard/internal/trust"
)

// MaxLength is the character budget for a posted report. The platform limit
// is 280; the original bot trimmed at 275.
const MaxLength = 275

const footer = "#RUGGUARD #TrustScore"

// Format renders an analysis into the reply text, never exceeding MaxLength.
func Format(a trust.Analysis) string {
	if a.Trusted {
		return Truncate(fmt.Sprintf(
			"🔒 VERIFIED TRUSTED ACCOUNT\n\n@%s is on our trusted accounts list.\n\nRisk Level: %s\nTrust Score: 100/100\n\n%s",
			a.Username, trust.RiskVerified, footer))
	}
	lines := []string{
		"📊 TRUSTWORTHINESS REPORT",
		fmt.Sprintf("Account: @%s", a.Username),
		"",
		fmt.Sprintf("🎯 Risk Level: %s", a.RiskLevel),
		fmt.Sprintf("📈 Trust Score: %d/100", a.TrustScore),
		"",
		"📋 Account Metrics:",
		fmt.Sprintf("• Age: %d days", a.AccountAgeDays),
		fmt.Sprintf("• Followers: %s", humanize.Comma(int64(a.FollowersCount))),
		fmt.Sprintf("• Following: %s", humanize.Comma(int64(a.FollowingCount))),
		fmt.Sprintf("• Ratio: %.2f", a.FollowerRatio),
		fmt.Sprintf("• Verified: %s", yesNo(a.Verified)),
		"",
		fmt.Sprintf("🤝 Trusted Network: %d connections", a.TrustedConns),
		"",
		footer,
	}
	return Truncate(strings.Join(lines, "\n"))
}

// Truncate bounds s to MaxLength characters, appending an ellipsis marker
// when trimming.
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= MaxLength {
		return s
	}
	return string(r[:MaxLength-3]) + "..."
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
