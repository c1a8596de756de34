package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every environment variable Load consults so tests see
// only what they set themselves.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		configPathEnv,
		discordWebhookEnv,
		telegramTokenEnv,
		telegramChatEnv,
		geminiAPIKeyEnv,
		geminiModelEnv,
		mongoURIEnv,
		historyBackendEnv,
	} {
		t.Setenv(name, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.History.Backend != BackendFile {
		t.Errorf("backend = %q, want %q", cfg.History.Backend, BackendFile)
	}
	if cfg.History.MaxItems != 500 {
		t.Errorf("maxItems = %d, want 500", cfg.History.MaxItems)
	}
	if cfg.History.CommitPolicy != CommitBatch {
		t.Errorf("commitPolicy = %q, want %q", cfg.History.CommitPolicy, CommitBatch)
	}
	if cfg.Scheduler.CronExpression != "0 8 * * *" {
		t.Errorf("cron = %q, want daily 08:00", cfg.Scheduler.CronExpression)
	}
	if got := cfg.Scheduler.Location().String(); got != "Asia/Tokyo" {
		t.Errorf("location = %q, want Asia/Tokyo", got)
	}
	if cfg.Notifications.Channel != ChannelDiscord {
		t.Errorf("channel = %q, want %q", cfg.Notifications.Channel, ChannelDiscord)
	}

	if len(cfg.Sources) != 2 {
		t.Fatalf("len(sources) = %d, want 2 built-in sources", len(cfg.Sources))
	}
	if cfg.Sources[0].ID != "jcanet" || cfg.Sources[0].RecencyWindowDays != 3 {
		t.Errorf("sources[0] = %+v, want jcanet with a 3 day window", cfg.Sources[0])
	}
	if cfg.Sources[1].ID != "panamusica" || cfg.Sources[1].RecencyWindowDays != 45 {
		t.Errorf("sources[1] = %+v, want panamusica with a 45 day window", cfg.Sources[1])
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
logging:
  level: debug
history:
  maxItems: 50
scheduler:
  cronExpression: "0 */6 * * *"
notifications:
  channel: console
sources:
  - id: icb
    fetcher: rss
    url: https://www.ifcm.net/feed
    language: en
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.History.MaxItems != 50 {
		t.Errorf("maxItems = %d, want 50", cfg.History.MaxItems)
	}
	if cfg.Scheduler.CronExpression != "0 */6 * * *" {
		t.Errorf("cron = %q, want file value", cfg.Scheduler.CronExpression)
	}
	if cfg.Notifications.Channel != ChannelConsole {
		t.Errorf("channel = %q, want console", cfg.Notifications.Channel)
	}

	// Untouched sections keep their defaults.
	if cfg.Fetch.UserAgent != "choralnews/1.0" {
		t.Errorf("userAgent = %q, want default", cfg.Fetch.UserAgent)
	}
	if cfg.Enrichment.Model != "gemini-2.0-flash" {
		t.Errorf("model = %q, want default", cfg.Enrichment.Model)
	}

	// A source list in the file replaces the built-in catalog.
	if len(cfg.Sources) != 1 {
		t.Fatalf("len(sources) = %d, want 1", len(cfg.Sources))
	}
	src := cfg.Sources[0]
	if src.Name != "icb" {
		t.Errorf("name = %q, want the id as fallback", src.Name)
	}
	if src.RecencyWindowDays != 30 {
		t.Errorf("recencyWindowDays = %d, want default 30", src.RecencyWindowDays)
	}
	if src.MaxItemsPerRun != 10 {
		t.Errorf("maxItemsPerRun = %d, want default 10", src.MaxItemsPerRun)
	}
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(discordWebhookEnv, "https://env.example/hook")
	t.Setenv(telegramTokenEnv, "env-token")
	t.Setenv(telegramChatEnv, "-100env")
	t.Setenv(geminiAPIKeyEnv, "env-key")
	t.Setenv(geminiModelEnv, "gemini-env")
	t.Setenv(mongoURIEnv, "mongodb://env:27017")
	t.Setenv(historyBackendEnv, BackendMongo)

	path := writeConfig(t, `
notifications:
  discord:
    webhookUrl: https://file.example/hook
enrichment:
  apiKey: file-key
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Notifications.Discord.WebhookURL != "https://env.example/hook" {
		t.Errorf("webhook = %q, want env value", cfg.Notifications.Discord.WebhookURL)
	}
	if cfg.Notifications.Telegram.BotToken != "env-token" || cfg.Notifications.Telegram.ChatID != "-100env" {
		t.Errorf("telegram = %+v, want env values", cfg.Notifications.Telegram)
	}
	if cfg.Enrichment.APIKey != "env-key" {
		t.Errorf("apiKey = %q, want env value", cfg.Enrichment.APIKey)
	}
	if cfg.Enrichment.Model != "gemini-env" {
		t.Errorf("model = %q, want env value", cfg.Enrichment.Model)
	}
	if cfg.History.Backend != BackendMongo {
		t.Errorf("backend = %q, want mongo", cfg.History.Backend)
	}
	if cfg.History.Mongo.URI != "mongodb://env:27017" {
		t.Errorf("mongo uri = %q, want env value", cfg.History.Mongo.URI)
	}
}

func TestLoadPathFromEnvironment(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "logging:\n  level: warn\n")
	t.Setenv(configPathEnv, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, want warn from env-located file", cfg.Logging.Level)
	}
}

func TestLoadFlagPathWinsOverEnvPath(t *testing.T) {
	clearEnv(t)

	envPath := writeConfig(t, "logging:\n  level: debug\n")
	flagPath := writeConfig(t, "logging:\n  level: error\n")
	t.Setenv(configPathEnv, envPath)

	cfg, err := Load(flagPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("level = %q, want the flag path to win", cfg.Logging.Level)
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "logging: [not\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoadValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown backend",
			yaml:    "history:\n  backend: redis\n",
			wantErr: "unknown history backend",
		},
		{
			name:    "unknown commit policy",
			yaml:    "history:\n  commitPolicy: eventually\n",
			wantErr: "unknown commit policy",
		},
		{
			name:    "unknown channel",
			yaml:    "notifications:\n  channel: slack\n",
			wantErr: "unknown notification channel",
		},
		{
			name:    "source without id",
			yaml:    "sources:\n  - url: https://example.com\n    fetcher: rss\n",
			wantErr: "source without id",
		},
		{
			name:    "source without url",
			yaml:    "sources:\n  - id: broken\n    fetcher: rss\n",
			wantErr: "url is required",
		},
		{
			name:    "source without fetcher",
			yaml:    "sources:\n  - id: broken\n    url: https://example.com\n",
			wantErr: "fetcher is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			path := writeConfig(t, tt.yaml)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestUnknownTimezoneFallsBackToTokyo(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "scheduler:\n  timezone: Not/AZone\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.Scheduler.Location().String(); got != "Asia/Tokyo" {
		t.Errorf("location = %q, want Asia/Tokyo fallback", got)
	}
}

func TestConfiguredTimezoneIsResolved(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "scheduler:\n  timezone: UTC\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got := cfg.Scheduler.Location().String(); got != "UTC" {
		t.Errorf("location = %q, want UTC", got)
	}
}

func TestDurationHelpers(t *testing.T) {
	t.Parallel()

	fetch := FetchConfig{TimeoutSeconds: 30, HostIntervalSeconds: 2}
	if fetch.Timeout() != 30*time.Second {
		t.Errorf("Timeout() = %v, want 30s", fetch.Timeout())
	}
	if fetch.HostInterval() != 2*time.Second {
		t.Errorf("HostInterval() = %v, want 2s", fetch.HostInterval())
	}

	notif := NotificationConfig{SendIntervalSeconds: 3}
	if notif.SendInterval() != 3*time.Second {
		t.Errorf("SendInterval() = %v, want 3s", notif.SendInterval())
	}
}
