package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValidExceptCredentials(t *testing.T) {
	cfg := Default()
	if cfg.Monitor.TriggerPhrase != "riddle me this" {
		t.Fatalf("trigger phrase: got %q", cfg.Monitor.TriggerPhrase)
	}
	if cfg.Monitor.SearchLimit != 10 || cfg.Monitor.PollIntervalSeconds != 300 {
		t.Fatalf("unexpected monitor defaults: %+v", cfg.Monitor)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation failure without credentials")
	}
}

func TestValidateReportsMissingVars(t *testing.T) {
	cfg := Default()
	cfg.Credentials.ConsumerKey = "ck"
	cfg.Credentials.AccessToken = "at"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"X_CONSUMER_SECRET", "X_ACCESS_SECRET"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err.Error(), want)
		}
	}
	if strings.Contains(err.Error(), "X_CONSUMER_KEY") {
		t.Fatalf("error %q should not name provided credential", err.Error())
	}
}

func TestResolveEnvFillsCredentials(t *testing.T) {
	t.Setenv("X_CONSUMER_KEY", "ck")
	t.Setenv("X_CONSUMER_SECRET", "cs")
	t.Setenv("X_ACCESS_TOKEN", "at")
	t.Setenv("X_ACCESS_SECRET", "as")
	cfg := Default()
	cfg.ResolveEnv()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config: %v", err)
	}
	if cfg.Credentials.ConsumerSecret != "cs" {
		t.Fatalf("env not resolved: %+v", cfg.Credentials)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "rugguard.yaml")
	cfg := Default()
	cfg.Account.Username = "rugguard_bot"
	cfg.Monitor.PollIntervalSeconds = 120
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Account.Username != "rugguard_bot" || got.Monitor.PollIntervalSeconds != 120 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}
