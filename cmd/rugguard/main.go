package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"rugguard/internal/analytics"
	"rugguard/internal/cmdlog"
	"rugguard/internal/config"
	"rugguard/internal/directory"
	"rugguard/internal/jobs"
	"rugguard/internal/logging"
	"rugguard/internal/metrics"
	"rugguard/internal/poller"
	"rugguard/internal/report"
	"rugguard/internal/store/botlog"
	"rugguard/internal/theme"
	"rugguard/internal/trust"
	"rugguard/internal/xclient"
)

func main() {
	_ = godotenv.Load()
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}
	switch cmd {
	case "init":
		cmdInit()
	case "run":
		cmdRun()
	case "check":
		cmdCheck()
	case "analyze":
		cmdAnalyze()
	case "report":
		cmdReport()
	default:
		printHelp()
	}
}

func printHelp() {
	theme.PrintBanner()
	fmt.Println("Usage: rugguard <command> [options]")
	fmt.Println("Commands:")
	fmt.Println("  init        Create a config file at ./rugguard.yaml")
	fmt.Println("  run         Run the mention-monitoring loop")
	fmt.Println("  check       Run a single poll cycle and exit")
	fmt.Println("  analyze     Print a trust report for a handle (no posting)")
	fmt.Println("  report      Show recently posted reports")
}

func loadConfig(path string) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		cfg = config.Default()
		cfg.ResolveEnv()
	}
	return cfg
}

// mustSetup builds everything the bot needs before the first cycle. Any
// failure here is fatal: credentials must verify before the loop starts.
func mustSetup(ctx context.Context, cfg config.Config) (*poller.Poller, *botlog.DB) {
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	client := xclient.NewHTTPClient(
		cfg.Credentials.ConsumerKey,
		cfg.Credentials.ConsumerSecret,
		cfg.Credentials.AccessToken,
		cfg.Credentials.AccessSecret,
	)
	bot, err := client.Me(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: credential verification failed:", err)
		os.Exit(1)
	}
	logging.Info("authenticated", map[string]any{"username": bot.Username})

	dir := directory.Load(ctx, cfg.Directory.URL, time.Duration(cfg.Directory.FetchTimeoutSeconds)*time.Second)
	resolved := dir.ResolveIDs(ctx, client)
	logging.Info("directory_ready", map[string]any{"handles": dir.Len(), "resolved_ids": resolved})

	var db *botlog.DB
	if cfg.Storage.DBPath != "" {
		db, err = botlog.Open(cfg.Storage.DBPath)
		if err != nil {
			logging.Warn("botlog_open_error", map[string]any{"path": cfg.Storage.DBPath, "error": err.Error()})
			db = nil
		}
	}
	metrics.StartServer(cfg.Metrics.Addr)
	return poller.New(client, dir, db, cfg, bot), db
}

func cmdInit() {
	out := flag.NewFlagSet("init", flag.ExitOnError)
	path := out.String("path", "./rugguard.yaml", "path to write config")
	_ = out.Parse(os.Args[2:])
	cfg := config.Default()
	if err := config.Save(*path, cfg); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
	abs, _ := filepath.Abs(*path)
	theme.PrintBanner()
	fmt.Println("Config written to:", abs)
}

func cmdRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfgPath := fs.String("config", "./rugguard.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, db := mustSetup(ctx, cfg)
	if db != nil {
		defer db.Close()
	}
	theme.PrintBanner()
	err := cmdlog.Run("run", func() error {
		err := jobs.RunPollLoop(ctx, p, cfg.Monitor)
		if errors.Is(err, context.Canceled) {
			// interrupt is the clean shutdown path
			return nil
		}
		return err
	})
	if err != nil {
		os.Exit(1)
	}
	logging.Info("stopped", nil)
}

func cmdCheck() {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	cfgPath := fs.String("config", "./rugguard.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	ctx := context.Background()
	p, db := mustSetup(ctx, cfg)
	if db != nil {
		defer db.Close()
	}
	if err := cmdlog.Run("check", func() error { return jobs.RunPollOnce(ctx, p) }); err != nil {
		os.Exit(1)
	}
}

func cmdAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	cfgPath := fs.String("config", "./rugguard.yaml", "config path")
	_ = fs.Parse(os.Args[2:])
	if fs.NArg() < 1 {
		fmt.Println("Usage: rugguard analyze <handle>")
		os.Exit(1)
	}
	handle := fs.Arg(0)
	cfg := loadConfig(*cfgPath)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
	client := xclient.NewHTTPClient(
		cfg.Credentials.ConsumerKey,
		cfg.Credentials.ConsumerSecret,
		cfg.Credentials.AccessToken,
		cfg.Credentials.AccessSecret,
	)
	ctx := context.Background()
	err := cmdlog.Run("analyze", func() error {
		users, err := client.GetUsersByUsernames(ctx, []string{handle})
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return fmt.Errorf("no such user: %s", handle)
		}
		target := users[0]
		dir := directory.Load(ctx, cfg.Directory.URL, time.Duration(cfg.Directory.FetchTimeoutSeconds)*time.Second)
		var analysis trust.Analysis
		if dir.Contains(target.Username) {
			analysis = trust.VerifiedAnalysis(target)
		} else {
			dir.ResolveIDs(ctx, client)
			conns := trust.CountTrustedFollowers(ctx, client, dir, target.ID, cfg.Directory.FollowerSampleSize)
			analysis = trust.Analyze(target, conns, time.Now().UTC(), trust.HeuristicScorer{})
		}
		fmt.Println(report.Format(analysis))
		return nil
	})
	if err != nil {
		os.Exit(1)
	}
}

func cmdReport() {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	cfgPath := fs.String("config", "./rugguard.yaml", "config path")
	hours := fs.Int("hours", 24, "lookback window in hours")
	_ = fs.Parse(os.Args[2:])
	cfg := loadConfig(*cfgPath)
	err := cmdlog.Run("report", func() error {
		db, err := botlog.Open(cfg.Storage.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		ctx := context.Background()
		since := time.Now().UTC().Add(-time.Duration(*hours) * time.Hour)
		reports, err := db.LoadReportsSince(ctx, since)
		if err != nil {
			return err
		}
		for _, r := range reports {
			fmt.Printf("%s @%s score=%d %s (mention %s)\n", r.TS.Format(time.RFC3339), r.TargetHandle, r.Score, r.Risk, r.MentionID)
		}
		buckets := analytics.HourlyReports(reports)
		for _, k := range analytics.SortedBucketKeys(buckets) {
			fmt.Printf("%s -> %v\n", k.Format("15:00"), buckets[k])
		}
		return nil
	})
	if err != nil {
		os.Exit(1)
	}
}
