package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/cancaonovachor/nova-internal-tools/internal/config"
	"github.com/cancaonovachor/nova-internal-tools/internal/dispatch"
	"github.com/cancaonovachor/nova-internal-tools/internal/domain"
	"github.com/cancaonovachor/nova-internal-tools/internal/enrich"
	"github.com/cancaonovachor/nova-internal-tools/internal/infrastructure/console"
	"github.com/cancaonovachor/nova-internal-tools/internal/infrastructure/discord"
	"github.com/cancaonovachor/nova-internal-tools/internal/infrastructure/feed"
	"github.com/cancaonovachor/nova-internal-tools/internal/infrastructure/llm"
	"github.com/cancaonovachor/nova-internal-tools/internal/infrastructure/scheduler"
	"github.com/cancaonovachor/nova-internal-tools/internal/infrastructure/scrape"
	"github.com/cancaonovachor/nova-internal-tools/internal/infrastructure/storage"
	"github.com/cancaonovachor/nova-internal-tools/internal/infrastructure/telegram"
	"github.com/cancaonovachor/nova-internal-tools/internal/logging"
	"github.com/cancaonovachor/nova-internal-tools/internal/ports"
	"github.com/cancaonovachor/nova-internal-tools/internal/scanner"
	"github.com/cancaonovachor/nova-internal-tools/internal/usecase"
)

// stopTimeout bounds how long shutdown waits for an in-flight run.
const stopTimeout = 30 * time.Second

// Options adjust one invocation without editing the config file.
type Options struct {
	// Local previews notifications on stdout instead of posting them. The
	// run still dedupes against history but writes nothing back, so a later
	// real run sends the same items.
	Local bool
	// IgnoreHistory treats every candidate as new and skips history writes.
	IgnoreHistory bool
}

// Application wires configuration to adapters and the run controller, and
// owns the resources that need explicit shutdown.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	fetch    *scrape.Client
	history  ports.HistoryStore
	runner   *usecase.Runner
	schedule *usecase.Schedule
}

// New builds a runnable application instance.
func New(cfg config.Config, opts Options, baseLogger *slog.Logger) *Application {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}

	fetch := scrape.NewClient(
		cfg.Fetch.UserAgent,
		cfg.Fetch.Timeout(),
		cfg.Fetch.HostInterval(),
		!cfg.Fetch.DisableRobots,
		baseLogger.With("component", "fetch"),
	)

	registry := scanner.NewRegistry()
	registry.Register(scrape.NewLinkListScanner(fetch))
	registry.Register(feed.NewRSSScanner(nil, cfg.Fetch.UserAgent))

	source := scrape.NewStrategySource(registry, baseLogger.With("component", "source"))

	var enricher ports.TextEnricher
	if cfg.Enrichment.APIKey != "" {
		enricher = llm.NewGeminiClient(cfg.Enrichment)
	} else {
		baseLogger.Warn("enrichment disabled, no api key configured")
	}

	pipeline := enrich.NewPipeline(
		scrape.NewContentFetcher(fetch),
		enricher,
		baseLogger.With("component", "enrich"),
	)

	dispatcher := dispatch.NewDispatcher(
		buildNotifier(cfg, opts),
		cfg.Notifications.SendInterval(),
		baseLogger.With("component", "dispatch"),
	)

	history := buildHistory(cfg, baseLogger)

	runner := usecase.NewRunner(usecase.RunnerDeps{
		Sources:         catalogSources(cfg.Sources),
		Source:          source,
		Enricher:        pipeline,
		Dispatcher:      dispatcher,
		History:         history,
		MaxHistoryItems: cfg.History.MaxItems,
		CommitPolicy:    usecase.CommitPolicy(cfg.History.CommitPolicy),
		IgnoreHistory:   opts.IgnoreHistory,
		ReadOnlyHistory: opts.Local,
		Logger:          baseLogger.With("component", "runner"),
	})

	driver := scheduler.NewCronScheduler(cfg.Scheduler.CronExpression, cfg.Scheduler.Location())
	schedule := usecase.NewSchedule(driver, runner, cfg.Scheduler.RunOnStart, baseLogger.With("component", "schedule"))

	return &Application{
		cfg:      cfg,
		logger:   baseLogger,
		fetch:    fetch,
		history:  history,
		runner:   runner,
		schedule: schedule,
	}
}

// RunOnce executes a single pass and returns its report.
func (a *Application) RunOnce(ctx context.Context) domain.RunReport {
	return a.runner.Run(ctx)
}

// RunScheduled starts the cron loop and blocks until the context is
// cancelled, then stops the scheduler, waiting out any in-flight run.
func (a *Application) RunScheduled(ctx context.Context) error {
	if err := a.schedule.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("scheduler started",
		"cron", a.cfg.Scheduler.CronExpression,
		"timezone", a.cfg.Scheduler.Timezone)

	<-ctx.Done()
	a.logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	return a.schedule.Stop(stopCtx)
}

// Close releases pooled connections and store handles.
func (a *Application) Close(ctx context.Context) {
	if a.fetch != nil {
		a.fetch.Close()
	}
	if closer, ok := a.history.(interface{ Close(context.Context) error }); ok {
		if err := closer.Close(ctx); err != nil {
			a.logger.Warn("history store close failed", "error", err)
		}
	}
}

func buildNotifier(cfg config.Config, opts Options) ports.Notifier {
	if opts.Local || cfg.Notifications.Channel == config.ChannelConsole {
		return console.NewNotifier(os.Stdout)
	}
	if cfg.Notifications.Channel == config.ChannelTelegram {
		return telegram.NewNotifier(cfg.Notifications.Telegram.BotToken, cfg.Notifications.Telegram.ChatID)
	}
	return discord.NewNotifier(cfg.Notifications.Discord.WebhookURL)
}

func buildHistory(cfg config.Config, logger *slog.Logger) ports.HistoryStore {
	if cfg.History.Backend == config.BackendMongo {
		return storage.NewMongoStore(cfg.History.Mongo, logger.With("component", "history.mongo"))
	}
	return storage.NewFileStore(cfg.History.File.Path, logger.With("component", "history.file"))
}

func catalogSources(sources []config.SourceConfig) []domain.Source {
	out := make([]domain.Source, 0, len(sources))
	for _, src := range sources {
		out = append(out, domain.Source{
			ID:                src.ID,
			Name:              src.Name,
			Fetcher:           src.Fetcher,
			URL:               src.URL,
			Language:          src.Language,
			RecencyWindowDays: src.RecencyWindowDays,
			MaxItemsPerRun:    src.MaxItemsPerRun,
			Options:           src.Options,
		})
	}
	return out
}
