// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for humans
//
// Navigator components take a *zap.Logger; binaries build one here and hand
// out named children per subsystem (session, fileserver, remote).
//
// Example Usage:
//
//	logger := logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development)
//	logger.Info("Server starting", zap.String("port", "8000"))
//	mgr := session.NewManager(logger.Component("session"))
package logging
