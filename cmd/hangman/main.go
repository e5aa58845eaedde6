// cmd/hangman/main.go
//
// Terminal client for the Hangman server. Walks the same screens as the
// mobile app: login / register, difficulty, play, stats.
//
// Usage:
//
//	hangman -server http://localhost:5175
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/hangman/internal/client"
)

func main() {
	_ = godotenv.Load()
	server := flag.String("server", envOr("HANGMAN_SERVER", "http://localhost:5175"), "server base URL")
	timeout := flag.Duration("timeout", client.DefaultTimeout, "per-request timeout")
	debug := flag.Bool("debug", false, "log requests to stderr")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c := client.New(*server, client.WithTimeout(*timeout))
	if err := c.Ping(ctx); err != nil {
		log.Warn().Err(err).Str("server", *server).Msg("server not reachable yet")
	}

	ui := newUI(os.Stdin, os.Stdout, c.NewSession())
	if err := ui.run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintln(os.Stderr, "hangman:", err)
		os.Exit(1)
	}
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
