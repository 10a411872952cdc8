package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/GriffinCanCode/modide/internal/infrastructure/config"
	"github.com/GriffinCanCode/modide/internal/infrastructure/server"
)

func main() {
	configFile := flag.String("config", "", "YAML or TOML config file")
	port := flag.String("port", "", "Server port")
	base := flag.String("base", "", "Directory holding one project per sub-directory")
	readOnly := flag.Bool("readonly", false, "Reject every write")
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	flag.Parse()

	log.Println("modide file server")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *configFile != "" {
		if err := config.LoadFile(*configFile, cfg); err != nil {
			log.Fatalf("Failed to load config file: %v", err)
		}
	}

	if *port != "" {
		cfg.FileServer.Port = *port
	}
	if *base != "" {
		cfg.FileServer.BaseDir = *base
	}
	if *readOnly {
		cfg.FileServer.ReadOnly = true
	}
	if *dev {
		cfg.Logging.Development = true
		cfg.Logging.Level = "debug"
	}

	srv, err := server.NewFileServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create file server: %v", err)
	}

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
