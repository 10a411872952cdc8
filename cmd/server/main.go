package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/GriffinCanCode/modide/internal/infrastructure/config"
	"github.com/GriffinCanCode/modide/internal/infrastructure/server"
)

func main() {
	// Parse flags
	configFile := flag.String("config", "", "YAML or TOML config file")
	port := flag.String("port", "", "Server port")
	backends := flag.String("backends", "", "Comma-separated storage backends (memory,local,remote)")
	root := flag.String("root", "", "Base directory of the local backend")
	remoteURL := flag.String("remote", "", "File server URL for the remote backend, including /api")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	flag.Parse()

	log.Println("modide navigator")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *configFile != "" {
		if err := config.LoadFile(*configFile, cfg); err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	}

	// Flags override env and file
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *backends != "" {
		cfg.Storage.Backends = strings.Split(*backends, ",")
	}
	if *root != "" {
		cfg.Storage.LocalRoot = *root
	}
	if *remoteURL != "" {
		cfg.Storage.RemoteURL = *remoteURL
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run()
	}()

	select {
	case <-sigChan:
		log.Println("Shutting down gracefully...")
		if err := srv.Close(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	case err := <-errChan:
		srv.Close()
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}
}
