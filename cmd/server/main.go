// Package main provides the server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	apiconnect "github.com/osa030/genresort/internal/api/connect"
	"github.com/osa030/genresort/internal/api/sortv1"
	"github.com/osa030/genresort/internal/app/genre"
	"github.com/osa030/genresort/internal/app/notification"
	"github.com/osa030/genresort/internal/app/sorter"
	"github.com/osa030/genresort/internal/infra/config"
	"github.com/osa030/genresort/internal/infra/logger"
	"github.com/osa030/genresort/internal/infra/spotify"
)

var (
	app        = kingpin.New("genresort-server", "genresort playlist sorting server")
	configPath = app.Flag("config", "Path to config file").Default("config/server.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()

	// check-config command
	checkConfigCmd = app.Command("check-config", "Validate the config file and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start the server (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
		Format: "console",
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if command == checkConfigCmd.FullCommand() {
		if _, err := genre.NewFallbackFromConfig(cfg.Genres.Fallback); err != nil {
			zlog.Fatal().Msgf("Invalid genre fallback: %v", err)
		}
		fmt.Println("config OK")
		return
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		os.Exit(1)
	}
}

// run executes the main server logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()
	spotifyClient, err := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
		Market:       cfg.Spotify.Market,
	})
	if err != nil {
		return fmt.Errorf("failed to create Spotify client: %w", err)
	}

	if err := checkSpotify(ctx, spotifyClient); err != nil {
		return fmt.Errorf("spotify check failed: %w", err)
	}

	fallback, err := genre.NewFallbackFromConfig(cfg.Genres.Fallback)
	if err != nil {
		return fmt.Errorf("failed to create genre fallback: %w", err)
	}
	resolver := genre.NewResolver(spotifyClient, genre.ResolverConfig{
		BatchSize:   cfg.Genres.BatchSize,
		BatchDelay:  cfg.BatchDelay(),
		Concurrency: cfg.Genres.Concurrency,
	})
	builder := genre.NewBuilder(resolver, fallback)

	notifier := notification.NewManager()
	sorterService := sorter.NewService(cfg, spotifyClient, spotifyClient, builder, notifier)
	rpcService := apiconnect.NewSorterService(sorterService)

	mux := http.NewServeMux()

	if cfg.AuthEnabled() {
		zlog.Info().Msgf("API token required via %s header", apiconnect.APITokenHeader)
	} else {
		zlog.Warn().Msg("server.api_token is empty, RPCs are unauthenticated")
	}
	sorterPath, sorterHandler := sortv1.NewSorterServiceHandler(
		rpcService,
		connect.WithInterceptors(apiconnect.NewAuthInterceptor(cfg.Server.APIToken)),
	)
	mux.Handle(sorterPath, sorterHandler)

	if cfg.Server.MetricsPath != "" {
		mux.Handle(cfg.Server.MetricsPath, promhttp.Handler())
	}

	// Create server with h2c (HTTP/2 cleartext) support
	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: h2c.NewHandler(mux, &http2.Server{}),
	}

	serverErrCh := make(chan error, 1)
	go func() {
		zlog.Info().Msgf("Starting server: addr=%s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		zlog.Info().Msg("Received shutdown signal...")
	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// End watch streams first so Shutdown does not wait on them.
	rpcService.Close()
	notifier.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error().Msgf("Failed to shutdown server: %v", err)
	}

	zlog.Info().Msgf("Server stopped: %d sorting sessions discarded", len(sorterService.Sessions()))
	return nil
}

// checkSpotify verifies the credentials by listing the user's playlists.
// It retries to ride out transient errors during startup.
func checkSpotify(ctx context.Context, spotifyClient *spotify.Client) error {
	maxRetries := 5
	baseDelay := 1 * time.Second

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			delay := baseDelay * time.Duration(1<<uint(i-1))
			zlog.Info().Msgf("Retrying Spotify check in %v...", delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		playlists, err := spotifyClient.ListPlaylists(ctx)
		if err != nil {
			lastErr = err
			zlog.Warn().Msgf("Spotify check failed (attempt %d/%d): %v", i+1, maxRetries, err)
			continue
		}

		zlog.Info().Msgf("Spotify account reachable: %d playlists", len(playlists))
		return nil
	}
	return fmt.Errorf("failed after %d attempts: %v", maxRetries, lastErr)
}
