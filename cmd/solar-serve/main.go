package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pvplant/internal/artifact"
	"pvplant/internal/log"
	"pvplant/internal/ws"
)

func main() {
	dir := flag.String("dir", "output", "directory holding published artifacts")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger := log.Ctx(ctx)

	b, err := artifact.Load(*dir)
	if err != nil {
		logger.Error("loading artifacts", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("artifacts loaded", "dir", *dir, "records", len(b.Unified), "daily_rows", len(b.Daily))

	hub := ws.NewHub()
	handler := ws.NewHandler(hub, b)

	// SIGHUP reloads the artifacts after a new ETL run.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			nb, err := artifact.Load(*dir)
			if err != nil {
				logger.Error("reloading artifacts", "error", err)
				continue
			}
			handler.Reload(nb)
			logger.Info("artifacts reloaded", "records", len(nb.Unified), "clients", hub.ClientCount())
		}
	}()

	srv := &http.Server{Addr: *addr, Handler: newMux(handler)}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("starting server", "addr", *addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", "error", err)
		os.Exit(1)
	}
}

func newMux(handler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", handler)
	return mux
}
