package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "Asia/Tokyo"

	configPathEnv     = "CHORALNEWS_CONFIG"
	discordWebhookEnv = "DISCORD_WEBHOOK_URL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatEnv   = "TELEGRAM_CHAT_ID"
	geminiAPIKeyEnv   = "GEMINI_API_KEY"
	geminiModelEnv    = "GEMINI_MODEL"
	mongoURIEnv       = "MONGO_URI"
	historyBackendEnv = "HISTORY_BACKEND"
)

// History backends and commit policies accepted by Validate.
const (
	BackendFile  = "file"
	BackendMongo = "mongo"

	CommitBatch   = "batch"
	CommitPerItem = "perItem"

	ChannelDiscord  = "discord"
	ChannelTelegram = "telegram"
	ChannelConsole  = "console"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	History       HistoryConfig      `yaml:"history"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Fetch         FetchConfig        `yaml:"fetch"`
	Enrichment    EnrichmentConfig   `yaml:"enrichment"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// LoggingConfig selects handler level and format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// HistoryConfig selects and parameterizes the processed-link store.
type HistoryConfig struct {
	Backend      string             `yaml:"backend"`
	MaxItems     int                `yaml:"maxItems"`
	CommitPolicy string             `yaml:"commitPolicy"`
	File         FileHistoryConfig  `yaml:"file"`
	Mongo        MongoHistoryConfig `yaml:"mongo"`
}

// FileHistoryConfig locates the JSON history file.
type FileHistoryConfig struct {
	Path string `yaml:"path"`
}

// MongoHistoryConfig describes the single history document.
type MongoHistoryConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
	DocumentID string `yaml:"documentId"`
}

// SchedulerConfig defines when runs execute.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	RunOnStart     bool           `yaml:"runOnStart"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// FetchConfig parameterizes the shared outbound HTTP client used by
// listing scans and article content fetches.
type FetchConfig struct {
	UserAgent           string `yaml:"userAgent"`
	TimeoutSeconds      int    `yaml:"timeoutSeconds"`
	HostIntervalSeconds int    `yaml:"hostIntervalSeconds"`
	DisableRobots       bool   `yaml:"disableRobots"`
}

// Timeout converts the configured seconds into a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// HostInterval is the minimum delay between requests to one host.
func (f FetchConfig) HostInterval() time.Duration {
	return time.Duration(f.HostIntervalSeconds) * time.Second
}

// EnrichmentConfig defines how to contact the Gemini API.
type EnrichmentConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	LiteModel      string `yaml:"liteModel"`
	APIKey         string `yaml:"apiKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout converts the configured seconds into a duration.
func (e EnrichmentConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutSeconds) * time.Second
}

// NotificationConfig encapsulates the outbound channel.
type NotificationConfig struct {
	Channel             string         `yaml:"channel"`
	SendIntervalSeconds int            `yaml:"sendIntervalSeconds"`
	Discord             DiscordConfig  `yaml:"discord"`
	Telegram            TelegramConfig `yaml:"telegram"`
}

// SendInterval is the pause enforced between consecutive notifications.
func (n NotificationConfig) SendInterval() time.Duration {
	return time.Duration(n.SendIntervalSeconds) * time.Second
}

// DiscordConfig wires the webhook used for channel "discord".
type DiscordConfig struct {
	WebhookURL string `yaml:"webhookUrl"`
}

// TelegramConfig wires the bot used for channel "telegram".
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SourceConfig describes a single source with its fetcher strategy.
type SourceConfig struct {
	ID                string            `yaml:"id"`
	Name              string            `yaml:"name"`
	Fetcher           string            `yaml:"fetcher"`
	URL               string            `yaml:"url"`
	Language          string            `yaml:"language"`
	RecencyWindowDays int               `yaml:"recencyWindowDays"`
	MaxItemsPerRun    int               `yaml:"maxItemsPerRun"`
	Options           map[string]string `yaml:"options"`
}

// Load reads YAML configuration and applies environment overrides. The path
// argument (usually from the -config flag) wins over the environment
// variable. A path that cannot be read or parsed is a fatal error; an empty
// path yields defaults plus environment overrides.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()
	cfg.normalizeSources()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(discordWebhookEnv); v != "" {
		c.Notifications.Discord.WebhookURL = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Enrichment.APIKey = v
	}

	if v := os.Getenv(geminiModelEnv); v != "" {
		c.Enrichment.Model = v
	}

	if v := os.Getenv(mongoURIEnv); v != "" {
		c.History.Mongo.URI = v
	}

	if v := os.Getenv(historyBackendEnv); v != "" {
		c.History.Backend = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

// normalizeSources fills per-source defaults so downstream code never sees
// zero windows or caps.
func (c *Config) normalizeSources() {
	for i := range c.Sources {
		if c.Sources[i].Name == "" {
			c.Sources[i].Name = c.Sources[i].ID
		}
		if c.Sources[i].RecencyWindowDays <= 0 {
			c.Sources[i].RecencyWindowDays = 30
		}
		if c.Sources[i].MaxItemsPerRun <= 0 {
			c.Sources[i].MaxItemsPerRun = 10
		}
	}
}

func (c Config) validate() error {
	switch c.History.Backend {
	case BackendFile, BackendMongo:
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}

	switch c.History.CommitPolicy {
	case CommitBatch, CommitPerItem:
	default:
		return fmt.Errorf("unknown commit policy %q", c.History.CommitPolicy)
	}

	switch c.Notifications.Channel {
	case ChannelDiscord, ChannelTelegram, ChannelConsole:
	default:
		return fmt.Errorf("unknown notification channel %q", c.Notifications.Channel)
	}

	for _, src := range c.Sources {
		if src.ID == "" {
			return fmt.Errorf("source without id in catalog")
		}
		if src.URL == "" {
			return fmt.Errorf("source %s: url is required", src.ID)
		}
		if src.Fetcher == "" {
			return fmt.Errorf("source %s: fetcher is required", src.ID)
		}
	}

	return nil
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.History.Backend != "" {
		base.History.Backend = override.History.Backend
	}
	if override.History.MaxItems > 0 {
		base.History.MaxItems = override.History.MaxItems
	}
	if override.History.CommitPolicy != "" {
		base.History.CommitPolicy = override.History.CommitPolicy
	}
	if override.History.File.Path != "" {
		base.History.File.Path = override.History.File.Path
	}
	if override.History.Mongo.URI != "" {
		base.History.Mongo.URI = override.History.Mongo.URI
	}
	if override.History.Mongo.Database != "" {
		base.History.Mongo.Database = override.History.Mongo.Database
	}
	if override.History.Mongo.Collection != "" {
		base.History.Mongo.Collection = override.History.Mongo.Collection
	}
	if override.History.Mongo.DocumentID != "" {
		base.History.Mongo.DocumentID = override.History.Mongo.DocumentID
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.RunOnStart {
		base.Scheduler.RunOnStart = true
	}

	if override.Fetch.UserAgent != "" {
		base.Fetch.UserAgent = override.Fetch.UserAgent
	}
	if override.Fetch.TimeoutSeconds > 0 {
		base.Fetch.TimeoutSeconds = override.Fetch.TimeoutSeconds
	}
	if override.Fetch.HostIntervalSeconds > 0 {
		base.Fetch.HostIntervalSeconds = override.Fetch.HostIntervalSeconds
	}
	if override.Fetch.DisableRobots {
		base.Fetch.DisableRobots = true
	}

	if override.Enrichment.Endpoint != "" {
		base.Enrichment.Endpoint = override.Enrichment.Endpoint
	}
	if override.Enrichment.Model != "" {
		base.Enrichment.Model = override.Enrichment.Model
	}
	if override.Enrichment.LiteModel != "" {
		base.Enrichment.LiteModel = override.Enrichment.LiteModel
	}
	if override.Enrichment.APIKey != "" {
		base.Enrichment.APIKey = override.Enrichment.APIKey
	}
	if override.Enrichment.TimeoutSeconds > 0 {
		base.Enrichment.TimeoutSeconds = override.Enrichment.TimeoutSeconds
	}

	if override.Notifications.Channel != "" {
		base.Notifications.Channel = override.Notifications.Channel
	}
	if override.Notifications.SendIntervalSeconds > 0 {
		base.Notifications.SendIntervalSeconds = override.Notifications.SendIntervalSeconds
	}
	if override.Notifications.Discord.WebhookURL != "" {
		base.Notifications.Discord.WebhookURL = override.Notifications.Discord.WebhookURL
	}
	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}

	if len(override.Sources) > 0 {
		base.Sources = override.Sources
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		History: HistoryConfig{
			Backend:      BackendFile,
			MaxItems:     500,
			CommitPolicy: CommitBatch,
			File:         FileHistoryConfig{Path: "processed_links.json"},
			Mongo: MongoHistoryConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "choralnews",
				Collection: "history",
				DocumentID: "processed_links",
			},
		},
		Scheduler: SchedulerConfig{
			CronExpression: "0 8 * * *",
			Timezone:       defaultTimezone,
			location:       tz,
		},
		Fetch: FetchConfig{
			UserAgent:           "choralnews/1.0",
			TimeoutSeconds:      30,
			HostIntervalSeconds: 1,
		},
		Enrichment: EnrichmentConfig{
			Endpoint:       "https://generativelanguage.googleapis.com/v1beta",
			Model:          "gemini-2.0-flash",
			LiteModel:      "gemini-2.0-flash-lite",
			APIKey:         "",
			TimeoutSeconds: 60,
		},
		Notifications: NotificationConfig{
			Channel:             ChannelDiscord,
			SendIntervalSeconds: 1,
		},
		Sources: []SourceConfig{
			{
				ID:                "jcanet",
				Name:              "日本合唱指揮者協会",
				Fetcher:           "linklist",
				URL:               "https://jcanet.or.jp/index.html",
				Language:          "ja",
				RecencyWindowDays: 3,
				MaxItemsPerRun:    10,
				Options: map[string]string{
					"minTitleLength": "5",
					"maxLinks":       "15",
				},
			},
			{
				ID:                "panamusica",
				Name:              "パナムジカ",
				Fetcher:           "linklist",
				URL:               "https://panamusica.co.jp/ja/info/",
				Language:          "ja",
				RecencyWindowDays: 45,
				MaxItemsPerRun:    10,
				Options: map[string]string{
					"includePattern": "/info/archives/",
					"requireSuffix":  ".html",
					"urlDatePattern": `/archives/(\d{4})/(\d{2})/`,
					"maxLinks":       "10",
				},
			},
		},
	}
}
