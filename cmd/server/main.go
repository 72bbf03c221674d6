// Package main provides the server entry point.
package main

import (
	"context"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playrelay/internal/api/httpapi"
	"github.com/osa030/playrelay/internal/app/authflow"
	"github.com/osa030/playrelay/internal/app/notification"
	"github.com/osa030/playrelay/internal/app/playback"
	"github.com/osa030/playrelay/internal/infra/config"
	"github.com/osa030/playrelay/internal/infra/credential"
	"github.com/osa030/playrelay/internal/infra/logger"
	"github.com/osa030/playrelay/internal/infra/spotify"
)

var (
	app        = kingpin.New("playrelay-server", "HTTP relay that starts Spotify playback on a named device")
	configPath = app.Flag("config", "Path to config file (optional)").Default("config/server.yaml").String()
	envFile    = app.Flag("env-file", "Path to the .env file to load and to save the refresh token to").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stdout)").String()
	logFormat  = app.Flag("log-format", "Log format").Default("").Enum("", "console", "json")
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Load .env file if it exists (errors are ignored)
	if *envFile != "" {
		_ = godotenv.Load(*envFile)
	} else {
		_ = godotenv.Load()
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Output: "stdout",
		Level:  "info",
		Format: *logFormat,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = *logfile
	}
	closeLog, err := logger.Init(loggerConfig)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = closeLog() }()

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}
	if *envFile != "" {
		cfg.Credentials.EnvFile = *envFile
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Server error: %v", err)
		_ = closeLog()
		os.Exit(1)
	}
}

// run wires the components and serves until a shutdown signal arrives.
func run(cfg *config.Config) error {
	timeout := cfg.Spotify.RequestTimeout()

	spotifyConfig := spotify.Config{
		ClientID:       cfg.Spotify.ClientID,
		ClientSecret:   cfg.Spotify.ClientSecret,
		RedirectURI:    cfg.Spotify.RedirectURI,
		RequestTimeout: timeout,
	}
	auth := spotify.NewAuthenticator(spotifyConfig)
	spotifyClient := spotify.New(spotifyConfig)

	store := credential.NewEnvFileStore(cfg.Credentials.EnvFile, cfg.Credentials.EnvKey, cfg.Spotify.RefreshToken)
	flow := authflow.New(auth, store, timeout)
	tokens := spotify.NewTokenProvider(auth, store, timeout, flow.Begin)

	notifier, err := notification.NewManagerFromConfig(cfg)
	if err != nil {
		return errors.Wrap(err, "failed to create notification manager")
	}

	orchestrator := playback.NewOrchestrator(tokens, spotifyClient, spotifyClient, notifier)
	api := httpapi.New(orchestrator, flow)

	server := httpapi.NewServer(httpapi.ServerConfig{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}, api.Handler())

	if !flow.Authenticated() {
		zlog.Warn().Msgf("No refresh token configured, open /auth to authorize (redirect URI %s)", cfg.Spotify.RedirectURI)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	started := make(chan struct{})
	go func() {
		<-started
		// Give the server a moment to fully initialize
		time.Sleep(100 * time.Millisecond)
		executeHooks(cfg.Server.Hooks.OnStarted, "on_started")
	}()

	err = httpapi.RunServer(ctx, server, cfg.Server.ShutdownTimeout(), started)
	zlog.Info().Msg("Server stopped")

	executeHooks(cfg.Server.Hooks.OnStopped, "on_stopped")
	return err
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
