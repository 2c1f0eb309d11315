package app

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"hedera-defi/internal/alerting"
	"hedera-defi/internal/config"
	"hedera-defi/internal/hedera"
	"hedera-defi/internal/scheduler"
	"hedera-defi/internal/service"
	"hedera-defi/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer

	// NewClient overrides client construction; tests point it at fakes.
	NewClient func() *hedera.Client
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

func (a *App) newClient() *hedera.Client {
	if a.NewClient != nil {
		return a.NewClient()
	}
	return hedera.New(ClientOptions(a.Config), a.Logger)
}

// ClientOptions maps configuration onto client options.
func ClientOptions(cfg *config.Config) hedera.Options {
	return hedera.Options{
		MirrorURL:         cfg.Mirror.BaseURL,
		SaucerSwapURL:     cfg.SaucerSwap.BaseURL,
		BonzoURL:          cfg.Bonzo.BaseURL,
		RelayURL:          cfg.Relay.RPCURL,
		CacheTTL:          cfg.Client.CacheTTL,
		Timeout:           cfg.Client.RequestTimeout,
		APIKey:            cfg.Client.APIKey,
		RetryAttempts:     cfg.Client.RetryAttempts,
		RetryBackoff:      cfg.Client.RetryBackoff,
		RequestsPerSecond: cfg.Client.RequestsPerSecond,
	}
}

// newNotifier builds one notifier per configured channel.
func (a *App) newNotifier() alerting.Notifier {
	var notifiers alerting.Multi
	for _, channel := range a.Config.Alerting.Channels {
		switch strings.ToLower(strings.TrimSpace(channel)) {
		case "telegram":
			if !a.Config.Alerting.Telegram.Enabled {
				continue
			}
			cfg := a.Config.Alerting.Telegram
			notifiers = append(notifiers, alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger))
		case "log":
			notifiers = append(notifiers, alerting.NewLogNotifier(a.Logger))
		default:
			a.Logger.Warn().Str("channel", channel).Msg("unknown alert channel ignored")
		}
	}
	switch len(notifiers) {
	case 0:
		return nil
	case 1:
		return notifiers[0]
	}
	return notifiers
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// RunOptions adjust a monitor run.
type RunOptions struct {
	// Once takes a single snapshot and returns.
	Once     bool
	Interval time.Duration
}

// Run executes the liquidity monitor until interrupted, or for a single
// snapshot when opts.Once is set.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; persistence disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	interval := a.Config.Scheduler.Interval
	if opts.Interval > 0 {
		interval = opts.Interval
	}
	sched := scheduler.New(scheduler.Options{
		Interval:     interval,
		AlignToStart: a.Config.Scheduler.AlignToBucket,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		Immediate:    a.Config.Scheduler.SnapshotOnStart,
	}, a.Logger)

	client := a.newClient()
	defer client.Close()
	if !opts.Once {
		a.serveOps(ctx, client)
	}

	var snapshotStore storage.SnapshotStore
	var alertStore storage.AlertStore
	if store != nil {
		snapshotStore = store
		alertStore = store
	}

	svc := service.New(a.Config, sched, client, snapshotStore, alertStore, a.newNotifier(), a.Logger)

	if opts.Once {
		return svc.RunOnce(ctx)
	}

	a.Logger.Info().Dur("interval", interval).Msg("starting liquidity monitor")
	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("liquidity monitor stopped")
	return nil
}

// ExportOptions hold parameters for exporting snapshot history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit  int
	Alerts bool
}

// TokensOptions configure the tokens command.
type TokensOptions struct {
	Limit   int
	SortBy  string
	TokenID string
}

// PoolsOptions configure the pools command.
type PoolsOptions struct {
	Top     int
	TokenID string
}

// ReservesOptions configure the reserves command.
type ReservesOptions struct {
	Symbol string
	MinAPY float64
	Risk   bool
}

// AccountOptions configure the account command.
type AccountOptions struct {
	AccountID string
	EVM       bool
	TokenID   string
}

// TransactionsOptions configure the transactions command. An empty
// AccountID lists network-wide transactions.
type TransactionsOptions struct {
	AccountID string
	Limit     int
}

// WhalesOptions configure the whales command.
type WhalesOptions struct {
	ThresholdHbar float64
	Window        time.Duration
}
