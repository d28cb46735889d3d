// -----------------------------------------------------------------------
// memoro - study-notes ingestion service
// -----------------------------------------------------------------------

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/memoro/internal/app"
	"github.com/ternarybob/memoro/internal/common"
	"github.com/ternarybob/memoro/internal/server"
)

var (
	configPath  = flag.String("config", "", "Configuration file path")
	serverPort  = flag.Int("port", 0, "Server port (overrides config)")
	showVersion = flag.Bool("version", false, "Print version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Memoro version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Auto-discover config file when not specified.
	path := *configPath
	if path == "" {
		if _, err := os.Stat("memoro.toml"); err == nil {
			path = "memoro.toml"
		}
	}

	config, err := common.LoadConfig(path)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if *serverPort != 0 {
		config.Server.Port = *serverPort
	}

	common.PrintBanner(common.GetFullVersion())

	application, err := app.New(config)
	if err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}

	srv := server.New(application)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			application.Logger.Error().Err(err).Msg("Server exited with error")
		}
	case sig := <-stop:
		application.Logger.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		application.Logger.Warn().Err(err).Msg("Graceful shutdown failed")
	}
	application.Close()
}
