package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"idealista-watcher/api"
	"idealista-watcher/config"
	"idealista-watcher/notifier"
	"idealista-watcher/scraper/idealista"
	"idealista-watcher/services"
	"idealista-watcher/storage"
	"idealista-watcher/utils"
)

func main() {
	app := &cli.App{
		Name:  "idealista-watcher",
		Usage: "poll Idealista for new rentals and announce them on Telegram",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "poll forever with a jittered interval",
				Action: func(c *cli.Context) error { return run(c.Context, false) },
			},
			{
				Name:   "once",
				Usage:  "run a single cycle and exit",
				Action: func(c *cli.Context) error { return run(c.Context, true) },
			},
		},
		Action: func(c *cli.Context) error { return run(c.Context, false) },
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, once bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := utils.NewLoggerWithLevel(utils.ParseLevel(cfg.LogLevel))

	logger.Info("=== Idealista watcher starting ===")
	logger.Info("Config: fetch: %s | store: %s | poll: %d-%ds | block status: %d",
		cfg.FetchMode, cfg.StoreBackend, cfg.PollMinSec, cfg.PollMaxSec, cfg.BlockStatus)

	seen, errState, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	tg, err := notifier.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.NotifyRateMs)
	if err != nil {
		return err
	}

	var archive storage.ListingWriter
	if cfg.ArchiveCSVPath != "" {
		w, err := storage.NewCSVWriter(cfg.ArchiveCSVPath)
		if err != nil {
			return err
		}
		defer w.Close()
		archive = w
		logger.Info("Archiving qualifying listings to %s", cfg.ArchiveCSVPath)
	}

	var fetcher services.Fetcher = idealista.NewHTTPFetcher(cfg, logger)
	if cfg.FetchMode == "browser" {
		fetcher = idealista.NewBrowserFetcher(cfg, logger)
	}

	pipeline := services.NewPipeline(services.PipelineDeps{
		SearchURL:   idealista.SearchURL(cfg),
		BlockStatus: cfg.BlockStatus,
		Fetcher:     fetcher,
		Extractor:   idealista.NewExtractor(),
		Filter:      services.NewFilter(cfg.Filters),
		Seen:        seen,
		ErrorState:  errState,
		Notifier:    tg,
		Archive:     archive,
		Logger:      logger,
	})

	poller := services.NewPoller(pipeline,
		time.Duration(cfg.PollMinSec)*time.Second,
		time.Duration(cfg.PollMaxSec)*time.Second,
		logger)

	if once {
		poller.RunOnce(ctx)
		return nil
	}

	if cfg.StatusAddr != "" {
		srv := api.New(poller, errState, logger)
		go func() {
			if err := srv.Listen(ctx, cfg.StatusAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("[api] Status server stopped: %v", err)
			}
		}()
	}

	poller.Run(ctx)
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, logger *utils.Logger) (storage.SeenStore, storage.ErrorStateStore, func(), error) {
	switch cfg.StoreBackend {
	case "sqlite":
		st, err := storage.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("SQLite store ready at %s", cfg.SQLitePath)
		return st, st.ErrorState(), func() { _ = st.Close() }, nil
	case "postgres":
		st, err := storage.OpenPostgres(ctx, cfg.DSN(), &utils.RetryConfig{
			MaxAttempts: 6,
			BaseDelay:   time.Second,
			Logger:      logger,
		})
		if err != nil {
			logger.Error("Make sure PostgreSQL is reachable at %s:%s", cfg.PostgresHost, cfg.PostgresPort)
			return nil, nil, nil, err
		}
		logger.Info("PostgreSQL store ready (%s/%s)", cfg.PostgresHost, cfg.PostgresDB)
		return st, st.ErrorState(), func() { _ = st.Close() }, nil
	default:
		logger.Info("File store: %s, %s", cfg.SeenListingsFile, cfg.ErrorStatusFile)
		return storage.NewSeenFile(cfg.SeenListingsFile), storage.NewErrorStatusFile(cfg.ErrorStatusFile), func() {}, nil
	}
}
