package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/GTDGit/kbank_qr/internal/cache"
	"github.com/GTDGit/kbank_qr/internal/config"
	"github.com/GTDGit/kbank_qr/internal/sandbox"
	"github.com/GTDGit/kbank_qr/pkg/kbankqr"
)

var rootCmd = &cobra.Command{
	Use:   "kbank-sandbox",
	Short: "KBank QR payment sandbox harness",
	Long:  "Runs the documented KBank QR payment sandbox scenarios and the mutual-TLS exercise through the kbankqr SDK.",
}

// main is the entrypoint for the sandbox harness.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// app bundles what every subcommand needs.
type app struct {
	cfg    *config.Config
	client *kbankqr.Client
	runner *sandbox.Runner
	redis  *cache.RedisClient
}

func (a *app) Close() {
	if a.redis != nil {
		a.redis.Close()
	}
}

// bootstrap loads config, sets up logging and builds the SDK client. When
// mtls is set the client presents the configured client certificate.
func bootstrap(ctx context.Context, mtls bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	setupLogger(cfg.Env)

	httpClient := &http.Client{Timeout: cfg.KBank.HTTPTimeout}
	if mtls {
		if cfg.TLS.CertPath == "" {
			return nil, fmt.Errorf("KBANK_CLIENT_CERT_PATH must be set for the mutual-TLS exercise")
		}
		cert, err := kbankqr.LoadClientCertificate(cfg.TLS.CertPath, cfg.TLS.KeyPath, cfg.TLS.Password)
		if err != nil {
			return nil, err
		}
		httpClient = kbankqr.NewMutualTLSHTTPClient(cert, nil)
		httpClient.Timeout = cfg.KBank.HTTPTimeout
	}

	a := &app{cfg: cfg}
	a.client = kbankqr.NewClient(
		kbankqr.WithHTTPClient(httpClient),
		kbankqr.WithDebug(cfg.Env == "development"),
	)

	var tokens sandbox.TokenStore
	if cfg.Redis.Host != "" {
		redisClient, err := cache.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable - token cache disabled")
		} else {
			a.redis = redisClient
			tokens = cache.NewTokenCache(redisClient)
			log.Info().Msg("redis connected successfully")
		}
	}

	a.runner = sandbox.NewRunner(a.client, cfg.KBank, cfg.Partner, tokens)
	return a, nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
