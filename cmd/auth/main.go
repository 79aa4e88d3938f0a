// Package main provides the Spotify authentication tool.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/genresort/internal/infra/logger"
	"github.com/osa030/genresort/internal/infra/spotify"
)

var (
	app          = kingpin.New("genresort-auth", "Obtain a Spotify refresh token for genresort")
	clientID     = app.Flag("client-id", "Spotify Client ID").Envar("SPOTIFY_CLIENT_ID").Required().String()
	clientSecret = app.Flag("client-secret", "Spotify Client Secret").Envar("SPOTIFY_CLIENT_SECRET").Required().String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()
	timeout      = app.Flag("timeout", "Give up waiting for authorization after this long").Default("5m").Duration()
)

// callback completes the authorization code flow for one state value.
type callback struct {
	auth  *spotifyauth.Authenticator
	state string
	ch    chan *oauth2.Token
}

func main() {
	_ = godotenv.Load()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(logger.Config{Output: "stderr", Level: "info", Format: "console"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	redirectURI := fmt.Sprintf("http://127.0.0.1:%d/callback", *port)
	cb := &callback{
		auth: spotifyauth.New(
			spotifyauth.WithRedirectURL(redirectURI),
			spotifyauth.WithClientID(*clientID),
			spotifyauth.WithClientSecret(*clientSecret),
			spotifyauth.WithScopes(spotify.Scopes...),
		),
		state: uuid.New().String(),
		ch:    make(chan *oauth2.Token, 1),
	}

	mux := http.NewServeMux()
	mux.Handle("/callback", cb)
	server := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Msgf("Failed to start callback server: %v", err)
		}
	}()

	fmt.Println("Please visit the following URL to authorize genresort:")
	fmt.Println("")
	fmt.Println(cb.auth.AuthURL(cb.state))
	fmt.Println("")
	fmt.Println("Waiting for authorization...")

	var token *oauth2.Token
	select {
	case token = <-cb.ch:
	case <-time.After(*timeout):
		zlog.Fatal().Msgf("No authorization received within %v", *timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Warn().Msgf("Failed to shutdown callback server: %v", err)
	}

	fmt.Println("")
	fmt.Println("=== Authorization Successful ===")
	fmt.Println("")
	fmt.Println("Add this to config/server.yaml:")
	fmt.Println("")
	fmt.Println("spotify:")
	fmt.Printf("  refresh_token: \"%s\"\n", token.RefreshToken)
	fmt.Println("")
	fmt.Println("Or set as environment variable:")
	fmt.Printf("export SPOTIFY_REFRESH_TOKEN=\"%s\"\n", token.RefreshToken)
}

func (c *callback) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if st := r.FormValue("state"); st != c.state {
		http.Error(w, "State mismatch", http.StatusForbidden)
		zlog.Warn().Msgf("State mismatch: %s", st)
		return
	}

	token, err := c.auth.Token(r.Context(), c.state, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusForbidden)
		zlog.Error().Msgf("Failed to get token: %v", err)
		return
	}

	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>genresort - Authorization Complete</title></head>
<body style="font-family: sans-serif; text-align: center; padding-top: 20vh;">
    <h1>Authorization Complete</h1>
    <p>You can close this window and return to the terminal.</p>
</body>
</html>
`)

	select {
	case c.ch <- token:
	default:
	}
}
