package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/zephyr-g16/tradewatch/internal/stubapi"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "config file (YAML, optional)")
	flag.Parse()

	// .env is optional, absence is fine
	_ = godotenv.Load()

	cfg, err := loadStubConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging.Level)

	if err := run(cfg, logger); err != nil {
		logger.Error("stub server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(cfg stubConfig, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	otp, err := newOTPStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var prices stubapi.PriceSource
	var feed *stubapi.KrakenFeed
	switch cfg.Feed.Source {
	case "kraken":
		feed = stubapi.NewKrakenFeed(cfg.Symbols, logger)
		prices = feed
	default:
		start := make(map[string]float64, len(cfg.Symbols))
		for _, sym := range cfg.Symbols {
			start[sym] = cfg.Feed.Start
		}
		prices = stubapi.NewRandomWalk(cfg.Feed.Seed, start)
	}

	reg := stubapi.NewRegistry(prices, cfg.Symbols)
	srv := stubapi.NewServer(cfg.Addr, otp, reg, logger)

	// codes go to the log instead of an email provider
	srv.OnCodeIssued = func(email, code string) {
		logger.Info("login code issued", "email", email, "code", code)
	}

	logger.Info("starting stub trading API", "feed", cfg.Feed.Source)
	if err := srv.Start(); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	if feed != nil {
		g.Go(func() error {
			return feed.Run(ctx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		return srv.Stop()
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func newOTPStore(ctx context.Context, cfg stubConfig, logger *slog.Logger) (stubapi.OTPStore, error) {
	if cfg.RedisURL == "" {
		logger.Info("using in-memory OTP store")
		return stubapi.NewMemoryOTPStore(time.Now), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	logger.Info("using redis OTP store")
	return stubapi.NewRedisOTPStore(rdb), nil
}
