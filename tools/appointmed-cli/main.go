// Command appointmed-cli is the terminal client of the appointment API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/md-rashed-zaman/appointmed/libs/access"
	"github.com/md-rashed-zaman/appointmed/libs/client"
	"github.com/md-rashed-zaman/appointmed/libs/config"
	"github.com/md-rashed-zaman/appointmed/libs/runtime"
	"github.com/md-rashed-zaman/appointmed/libs/session"
)

func main() {
	_ = config.LoadDotEnv()

	path := config.String("APPOINTMED_SESSION_FILE", "")
	if path == "" {
		p, err := session.DefaultPath()
		if err != nil {
			fatal(err)
		}
		path = p
	}
	store := session.NewFileStore(path)
	api := client.New(config.String("APPOINTMED_URL", "http://localhost:8080"),
		client.WithTokenSource(store),
		client.WithUnauthorizedHook(func() { _ = store.Clear() }),
	)

	a := &app{
		out:     os.Stdout,
		errOut:  os.Stderr,
		api:     api,
		session: session.NewManager(store, api),
		router:  access.NewRouter(access.DefaultRoutes()...),
		now:     time.Now,
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Duration("APPOINTMED_TIMEOUT", 30*time.Second))
	defer cancel()
	ctx, stop := runtime.SignalContextFrom(ctx)
	defer stop()
	if err := a.run(ctx, os.Args[1:]); err != nil {
		fatal(err)
	}
}

// fatal prints a one-line notice and exits non-zero.
func fatal(err error) {
	var ce *client.Error
	if errors.As(err, &ce) {
		fmt.Fprintln(os.Stderr, "error:", ce.Message)
	} else {
		fmt.Fprintln(os.Stderr, "error:", err)
	}
	os.Exit(1)
}
