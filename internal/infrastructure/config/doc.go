// Package config provides 12-factor configuration for the navigator binaries.
//
// Configuration is loaded from environment variables with defaults. A YAML or
// TOML file named by CONFIG_FILE is applied on top, and CLI flags override both.
//
// Configuration Sections:
//   - Server: navigator HTTP API (port, host, CORS origins)
//   - FileServer: legacy network file server (port, base directory)
//   - Storage: which backends to register and how to reach the remote one
//   - Transfer: copy depth, search and upload limits
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST, ALLOWED_ORIGINS
//   - FILESERVER_PORT, FILESERVER_BASE, FILESERVER_READONLY
//   - STORAGE_BACKENDS, STORAGE_LOCAL_ROOT, STORAGE_REMOTE_URL
//   - MAX_COPY_DEPTH, SEARCH_LIMIT, MAX_UPLOAD_BYTES
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - CONFIG_FILE
package config
