package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/gcbaptista/go-lexicon/api"
	"github.com/gcbaptista/go-lexicon/internal/notify"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "run the HTTP API",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:    "port",
			Usage:   "listen on `PORT`",
			Aliases: []string{"p"},
		},
	},
	Action: runServe,
}

func runServe(c *cli.Context) error {
	events := notify.NewBroadcaster()
	defer events.Close()

	rt, err := newRuntime(c, events)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serve straight away; queries answer 503 until the dictionary is ready.
	restored, err := rt.dict.RestoreSnapshot()
	if err != nil {
		rt.log.Warn("ignoring index snapshot", slog.String("error", err.Error()))
	}
	if restored {
		_, err = rt.dict.ReloadAsync()
	} else {
		_, err = rt.dict.LoadAsync()
	}
	if err != nil {
		return err
	}

	gin.SetMode(rt.cfg.Server.Mode)
	router := api.NewRouter(api.NewAPI(rt.dict, events, rt.log), rt.cfg.Server.MaxBodyBytes)

	srv := &http.Server{
		Addr:         rt.cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  rt.cfg.Server.ReadTimeout,
		WriteTimeout: rt.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		rt.log.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	rt.log.Info("shutting down")
	events.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
