package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the application's configuration model.
// It captures credentials, monitoring cadence, the trusted directory source,
// and reply gating.
type Config struct {
	Account     AccountConfig     `yaml:"account"`
	Credentials CredentialsConfig `yaml:"credentials"`
	Monitor     MonitorConfig     `yaml:"monitor"`
	Directory   DirectoryConfig   `yaml:"directory"`
	Reply       ReplyConfig       `yaml:"reply"`
	Storage     StorageConfig     `yaml:"storage"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

type AccountConfig struct {
	// Username of the bot account. If empty, resolved via the API at startup.
	Username string `yaml:"username"`
}

type CredentialsConfig struct {
	// OAuth 1.0a user-context credentials. All four are required; each falls
	// back to its X_* environment variable when empty.
	ConsumerKey    string `yaml:"consumerKey"`
	ConsumerSecret string `yaml:"consumerSecret"`
	AccessToken    string `yaml:"accessToken"`
	AccessSecret   string `yaml:"accessSecret"`
}

type MonitorConfig struct {
	// Exact phrase a mention must contain to trigger an analysis.
	TriggerPhrase string `yaml:"triggerPhrase"`
	// Max mentions fetched per poll cycle.
	SearchLimit int `yaml:"searchLimit"`
	// Poll cadence, loop tick, and post-failure cooldown, in seconds.
	PollIntervalSeconds int `yaml:"pollIntervalSeconds"`
	TickSeconds         int `yaml:"tickSeconds"`
	CooldownSeconds     int `yaml:"cooldownSeconds"`
	// How long processed mention ids are retained for dedup, in seconds.
	ProcessedRetentionSeconds int `yaml:"processedRetentionSeconds"`
}

type DirectoryConfig struct {
	// URL of the newline-delimited trusted handle list.
	URL string `yaml:"url"`
	// Fetch timeout in seconds.
	FetchTimeoutSeconds int `yaml:"fetchTimeoutSeconds"`
	// Max followers sampled when probing trusted-network connections.
	FollowerSampleSize int `yaml:"followerSampleSize"`
}

type ReplyConfig struct {
	// Max reply posts per hour and per day. Zero disables the budget.
	MaxPerHour int `yaml:"maxPerHour"`
	MaxPerDay  int `yaml:"maxPerDay"`
	// Quiet hours (UTC) during which replies are deferred.
	QuietHours []int `yaml:"quietHours"`
}

type StorageConfig struct {
	DBPath string `yaml:"dbPath"`
}

type MetricsConfig struct {
	// Listen address for /metrics, e.g. ":9090". Empty disables the server.
	Addr string `yaml:"addr"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Account: AccountConfig{Username: ""},
		Monitor: MonitorConfig{
			TriggerPhrase:             "riddle me this",
			SearchLimit:               10,
			PollIntervalSeconds:       300,
			TickSeconds:               60,
			CooldownSeconds:           300,
			ProcessedRetentionSeconds: 86400,
		},
		Directory: DirectoryConfig{
			URL:                 "https://raw.githubusercontent.com/devsyrem/turst-list/main/list",
			FetchTimeoutSeconds: 30,
			FollowerSampleSize:  1000,
		},
		Reply:   ReplyConfig{MaxPerHour: 30, MaxPerDay: 200},
		Storage: StorageConfig{DBPath: "./rugguard.db"},
		Metrics: MetricsConfig{Addr: ""},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Credentials.ConsumerKey == "" {
		c.Credentials.ConsumerKey = os.Getenv("X_CONSUMER_KEY")
	}
	if c.Credentials.ConsumerSecret == "" {
		c.Credentials.ConsumerSecret = os.Getenv("X_CONSUMER_SECRET")
	}
	if c.Credentials.AccessToken == "" {
		c.Credentials.AccessToken = os.Getenv("X_ACCESS_TOKEN")
	}
	if c.Credentials.AccessSecret == "" {
		c.Credentials.AccessSecret = os.Getenv("X_ACCESS_SECRET")
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = os.Getenv("METRICS_ADDR")
	}
}

// Validate reports which required credentials are missing.
func (c *Config) Validate() error {
	var missing []string
	if c.Credentials.ConsumerKey == "" {
		missing = append(missing, "X_CONSUMER_KEY")
	}
	if c.Credentials.ConsumerSecret == "" {
		missing = append(missing, "X_CONSUMER_SECRET")
	}
	if c.Credentials.AccessToken == "" {
		missing = append(missing, "X_ACCESS_TOKEN")
	}
	if c.Credentials.AccessSecret == "" {
		missing = append(missing, "X_ACCESS_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing credentials: %s", strings.Join(missing, ", "))
	}
	if c.Monitor.TriggerPhrase == "" {
		return errors.New("monitor.triggerPhrase must not be empty")
	}
	return nil
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
