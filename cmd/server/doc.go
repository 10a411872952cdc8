// Package main is the entry point for the modide navigator.
//
// The navigator opens game-mod projects on a storage backend and serves the
// browser IDE: directory navigation, clipboard copy and paste, rename,
// upload, search, a lazily expanded tree and archive export.
//
// Architecture:
//
//	Browser IDE → navigator → memory backend
//	                        → local backend (base directory on disk)
//	                        → remote backend → file server (cmd/fileserver)
//
// Configuration:
//   - Environment variables (12-factor)
//   - Config file (-config or CONFIG_FILE, YAML or TOML)
//   - CLI flags (override both)
//
// Usage:
//
//	# Local projects below ./projects_base
//	./server -port 8000 -backends memory,local -root ./projects_base
//
//	# Projects served by a remote file server
//	./server -backends remote -remote http://files:3000/api
//
//	# Development mode (colored logs, debug level)
//	./server -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
