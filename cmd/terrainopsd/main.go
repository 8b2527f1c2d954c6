// Command terrainopsd boots the terrain authoring compute backend: it
// loads configuration, creates a Dispatcher over a fresh heightmap,
// and serves the command transport over a websocket.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"terrainops/internal/config"
	"terrainops/internal/dispatcher"
	"terrainops/internal/wsserver"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to a config.yaml overriding embedded defaults")
		addr       = flag.String("addr", "", "listen address override, e.g. :8642")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "terrainopsd: load config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Server.LogLevel),
	}))
	slog.SetDefault(logger)

	listenAddr := *addr
	if listenAddr == "" {
		listenAddr = fmt.Sprintf(":%d", cfg.Server.Port)
	}

	logger.Info("starting terrainopsd",
		"grid_width", cfg.Grid.Width,
		"grid_height", cfg.Grid.Height,
		"addr", listenAddr,
	)

	d := dispatcher.New(cfg.Grid.Width, cfg.Grid.Height)
	srv := wsserver.New(d, cfg, logger)

	http.HandleFunc("/ws", srv.Handler())
	if err := http.ListenAndServe(listenAddr, nil); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
