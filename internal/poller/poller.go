package poller

import (
	"context"
	"fmt"
	"time"

	"rugguard/internal/config"
	"rugguard/internal/directory"
	"rugguard/internal/engage"
	"rugguard/internal/logging"
	"rugguard/internal/metrics"
	"rugguard/internal/model"
	"rugguard/internal/report"
	"rugguard/internal/schedule"
	"rugguard/internal/store/botlog"
	"rugguard/internal/trust"
	"rugguard/internal/util"
	"rugguard/internal/xclient"
)

// Poller owns all mutable bot state: the processed-mention set and the
// staleness cursor. It is driven by a single goroutine; nothing here is
// safe for concurrent use.
type Poller struct {
	client    xclient.Client
	dir       *directory.Directory
	db        *botlog.DB
	cfg       config.Config
	scorer    trust.Scorer
	bot       model.User
	processed map[string]time.Time
	lastCheck time.Time
	nowFn     func() time.Time
}

// New builds a poller for the given bot account. db may be nil to disable
// report auditing and reply budgets.
func New(client xclient.Client, dir *directory.Directory, db *botlog.DB, cfg config.Config, bot model.User) *Poller {
	p := &Poller{
		client:    client,
		dir:       dir,
		db:        db,
		cfg:       cfg,
		scorer:    trust.HeuristicScorer{},
		bot:       bot,
		processed: make(map[string]time.Time),
		nowFn:     time.Now,
	}
	// Start one hour back so a fresh process picks up recent mentions.
	p.lastCheck = p.nowFn().Add(-time.Hour)
	return p
}

// PollOnce runs one poll cycle: fetch mentions, handle each in order, then
// advance the staleness cursor to the cycle start. Per-mention failures are
// logged and isolated; only the top-level fetch error is returned.
func (p *Poller) PollOnce(ctx context.Context) error {
	start := p.nowFn()
	query := fmt.Sprintf("@%s \"%s\"", p.bot.Username, p.cfg.Monitor.TriggerPhrase)
	mentions, err := p.client.SearchMentions(ctx, query, p.cfg.Monitor.SearchLimit)
	if err != nil {
		return fmt.Errorf("search mentions: %w", err)
	}
	handled := 0
	for _, m := range mentions {
		if _, ok := p.processed[m.ID]; ok {
			continue
		}
		if m.CreatedAt.Before(p.lastCheck) {
			continue
		}
		// The search query is best effort; re-verify the trigger phrase.
		if !util.ContainsCaseInsensitive(m.Text, p.cfg.Monitor.TriggerPhrase) {
			continue
		}
		if p.handleMention(ctx, m) {
			handled++
		}
	}
	p.lastCheck = start
	p.compactProcessed(start)
	logging.Info("poll_done", map[string]any{"mentions": len(mentions), "handled": handled})
	return nil
}

// handleMention processes one mention and reports whether a reply was
// attempted. The mention is marked processed once its target is known;
// target resolution failures leave it unmarked so the next cycle retries.
func (p *Poller) handleMention(ctx context.Context, m model.Mention) bool {
	logging.Info("mention", map[string]any{"id": m.ID, "author": m.AuthorUsername})
	if m.InReplyToID == "" {
		logging.Info("mention_not_reply", map[string]any{"id": m.ID})
		p.markProcessed(m)
		return false
	}
	_, target, err := p.client.LookupTweet(ctx, m.InReplyToID)
	if err != nil {
		logging.Error("target_lookup_error", map[string]any{"id": m.ID, "target": m.InReplyToID, "error": err.Error()})
		return false
	}
	p.markProcessed(m)
	metrics.MentionsProcessed.Inc()

	analysis := p.analyzeTarget(ctx, target)
	text := report.Format(analysis)

	now := p.nowFn()
	if schedule.InQuietHours(now, p.cfg.Reply.QuietHours) {
		logging.Info("reply_deferred_quiet_hours", map[string]any{"id": m.ID})
		return false
	}
	if ok, err := engage.ShouldAllowReply(ctx, p.db, p.cfg.Reply, now); err != nil || !ok {
		logging.Warn("reply_budget_blocked", map[string]any{"id": m.ID})
		return false
	}
	if _, err := p.client.PostReply(ctx, text, m.ID); err != nil {
		metrics.ReplyErrors.Inc()
		logging.Error("reply_post_error", map[string]any{"id": m.ID, "error": err.Error()})
		return true
	}
	metrics.RepliesPosted.Inc()
	logging.Info("report_posted", map[string]any{"id": m.ID, "target": analysis.Username, "score": analysis.TrustScore})
	if p.db != nil {
		_ = engage.RecordReply(ctx, p.db, now)
		_ = p.db.PutReport(ctx, botlog.Report{
			TS:           now,
			MentionID:    m.ID,
			TargetHandle: analysis.Username,
			Score:        analysis.TrustScore,
			Risk:         analysis.RiskLevel,
		})
	}
	return true
}

// analyzeTarget runs the trust analysis for a resolved reply target.
func (p *Poller) analyzeTarget(ctx context.Context, target model.User) trust.Analysis {
	if p.dir.Contains(target.Username) {
		return trust.VerifiedAnalysis(target)
	}
	conns := trust.CountTrustedFollowers(ctx, p.client, p.dir, target.ID, p.cfg.Directory.FollowerSampleSize)
	return trust.Analyze(target, conns, p.nowFn(), p.scorer)
}

func (p *Poller) markProcessed(m model.Mention) {
	p.processed[m.ID] = m.CreatedAt
}

// compactProcessed drops dedup entries older than the retention window.
// Anything that old is also rejected by the staleness cursor, so forgetting
// it cannot cause a duplicate reply.
func (p *Poller) compactProcessed(now time.Time) {
	retention := time.Duration(p.cfg.Monitor.ProcessedRetentionSeconds) * time.Second
	if retention <= 0 {
		return
	}
	cutoff := now.Add(-retention)
	for id, created := range p.processed {
		if created.Before(cutoff) {
			delete(p.processed, id)
		}
	}
}

// ProcessedCount returns the size of the in-memory dedup set.
func (p *Poller) ProcessedCount() int { return len(p.processed) }
