// Package main provides the Spotify authorization tool.
// It runs the consent flow on a local callback server and saves the
// resulting refresh token to the .env file the server reads.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/playrelay/internal/app/authflow"
	"github.com/osa030/playrelay/internal/infra/config"
	"github.com/osa030/playrelay/internal/infra/credential"
	"github.com/osa030/playrelay/internal/infra/logger"
	"github.com/osa030/playrelay/internal/infra/spotify"
)

var (
	app          = kingpin.New("playrelay-auth", "Spotify authorization tool for playrelay")
	clientID     = app.Flag("client-id", "Spotify Client ID (env: SPOTIFY_CLIENT_ID or SPOTIPY_CLIENT_ID)").String()
	clientSecret = app.Flag("client-secret", "Spotify Client Secret (env: SPOTIFY_CLIENT_SECRET or SPOTIPY_CLIENT_SECRET)").String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()
	envFile      = app.Flag("env-file", "File the refresh token is written to").Default(".env").String()
	envKey       = app.Flag("env-key", "Variable name of the refresh token").Default(credential.DefaultEnvKey).String()
)

const completePage = `<!DOCTYPE html>
<html>
<head>
    <title>playrelay - Authorization Complete</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
            display: flex;
            justify-content: center;
            align-items: center;
            height: 100vh;
            margin: 0;
            background: #191414;
            color: white;
        }
        .container { text-align: center; padding: 40px; }
        p { opacity: 0.8; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Authorization Complete</h1>
        <p>The refresh token was saved to %s. You can close this window.</p>
    </div>
</body>
</html>
`

func main() {
	// Load .env file if it exists so the client credentials can come from it
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	id, secret := config.ClientCredentialsFromEnv()
	if *clientID == "" {
		*clientID = id
	}
	if *clientSecret == "" {
		*clientSecret = secret
	}
	if *clientID == "" || *clientSecret == "" {
		app.Fatalf("client ID and secret are required (--client-id/--client-secret or SPOTIFY_CLIENT_ID/SPOTIFY_CLIENT_SECRET)")
	}

	if _, err := logger.Init(logger.Config{Output: "stderr", Level: "info"}); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	if err := run(); err != nil {
		zlog.Error().Msgf("Authorization failed: %v", err)
		os.Exit(1)
	}
}

func run() error {
	redirectURI := fmt.Sprintf("http://127.0.0.1:%d/callback", *port)

	auth := spotify.NewAuthenticator(spotify.Config{
		ClientID:     *clientID,
		ClientSecret: *clientSecret,
		RedirectURI:  redirectURI,
	})
	store := credential.NewEnvFileStore(*envFile, *envKey, "")
	flow := authflow.New(auth, store, 10*time.Second)

	done := make(chan error, 1)
	finish := func(err error) {
		select {
		case done <- err:
		default:
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if reason := q.Get("error"); reason != "" {
			http.Error(w, "Authorization denied", http.StatusForbidden)
			finish(errors.Newf("authorization denied: %s", reason))
			return
		}
		if err := flow.Complete(r.Context(), q.Get("state"), q.Get("code")); err != nil {
			http.Error(w, "Failed to get token", http.StatusForbidden)
			zlog.Warn().Err(err).Msg("failed to complete authorization")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, completePage, store.Path())
		finish(nil)
	})

	server := &http.Server{
		Addr:              fmt.Sprintf("127.0.0.1:%d", *port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			finish(errors.Wrap(err, "failed to start callback server"))
		}
	}()

	fmt.Println("Register this redirect URI for your Spotify app if you have not already:")
	fmt.Println("")
	fmt.Println(redirectURI)
	fmt.Println("")
	fmt.Println("Then visit the following URL to authorize playrelay:")
	fmt.Println("")
	fmt.Println(flow.Begin())
	fmt.Println("")
	fmt.Println("Waiting for authorization...")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var result error
	select {
	case result = <-done:
	case <-ctx.Done():
		result = errors.New("interrupted")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Warn().Err(err).Msg("failed to shutdown callback server")
	}

	if result != nil {
		return result
	}

	fmt.Println("")
	fmt.Println("=== Authorization Successful ===")
	fmt.Println("")
	fmt.Printf("Refresh token saved to %s as %s.\n", store.Path(), *envKey)
	fmt.Println("Restart the server to pick it up, or authorize through its /auth endpoint instead.")
	return nil
}
