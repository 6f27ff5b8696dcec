package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chatmem "github.com/loomware/chatmem"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "chatmemd:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	var cfg chatmem.Config
	if *configPath != "" {
		loaded, err := chatmem.LoadConfigFile(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.Logger = logger

	store := chatmem.NewStore(chatmem.StoreConfig{
		Limits: cfg.Limits,
		Logger: logger,
	})

	responder, err := cfg.NewResponder()
	if err != nil {
		return err
	}

	processChat := chatmem.NewChatService(store, responder, logger)
	router := chatmem.NewHTTPRouter(store, processChat, cfg)

	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", slog.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
