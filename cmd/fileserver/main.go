package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/Brownie44l1/fileserver/internal/config"
	"github.com/Brownie44l1/fileserver/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to a .toml or .yaml config file")
	port := flag.Int("port", 0, "port to listen on (overrides config)")
	root := flag.String("root", "", "document root (overrides config)")
	workers := flag.Int("workers", 0, "connections served at once (overrides config)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "fileserver: %v\n", err)
			os.Exit(1)
		}
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if *root != "" {
		cfg.DocumentRoot = *root
	}
	if *workers != 0 {
		cfg.Workers = *workers
	}

	level, err := server.ParseLevel(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fileserver: %v\n", err)
		os.Exit(1)
	}
	useColor := !color.NoColor
	if cfg.Log.Color != nil {
		useColor = *cfg.Log.Color
	}
	logger := server.NewAsyncLogger(server.NewLogger(os.Stdout, level, useColor), 1024)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("invalid configuration", server.Field{Key: "error", Value: err})
		logger.Close()
		os.Exit(1)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errc:
		// bind failure or a fatal accept error
		logger.Error("server stopped", server.Field{Key: "error", Value: err})
		logger.Close()
		os.Exit(1)
	case sig := <-sigChan:
		logger.Info("shutting down", server.Field{Key: "signal", Value: sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", server.Field{Key: "error", Value: err})
	}
	select {
	case err := <-errc:
		if !errors.Is(err, server.ErrServerClosed) {
			logger.Error("serve", server.Field{Key: "error", Value: err})
		}
	case <-ctx.Done():
	}

	stats := srv.Stats()
	logger.Info("final stats",
		server.Field{Key: "connections", Value: stats.ConnectionsTotal},
		server.Field{Key: "requests", Value: stats.RequestsTotal},
		server.Field{Key: "errors_4xx", Value: stats.Errors4xx},
		server.Field{Key: "errors_5xx", Value: stats.Errors5xx},
		server.Field{Key: "bytes_sent", Value: stats.BytesSent},
		server.Field{Key: "avg_latency", Value: stats.AverageLatency},
		server.Field{Key: "log_dropped", Value: logger.Dropped()},
	)
	logger.Close()
}
