// Package server wires the navigator and the legacy file server.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (recovery, request id, tracing, logging, metrics, CORS, rate limiting)
//   - Storage backends selected by configuration (memory, local, remote)
//   - Session manager with the websocket hub as event sink
//
// Server Lifecycle:
//  1. Load configuration from environment, config file and flags
//  2. Initialize logger (production or development)
//  3. Register storage backends
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal, returning every session home
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer srv.Close()
//	if err := srv.Run(); err != nil {
//		log.Fatal(err)
//	}
package server
