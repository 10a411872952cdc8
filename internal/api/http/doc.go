// Package http provides HTTP handlers and routing for the navigator REST API.
//
// Every route below /sessions/:id works on one open session. A session runs
// one operation at a time, so a request arriving while another is in flight
// is answered with 409 and code "busy" instead of waiting.
//
// Endpoints:
//   - Health: /, /health, /metrics
//   - Projects: /backends, /projects
//   - Sessions: /sessions, /sessions/:id
//   - Navigation: /sessions/:id/entries, /sessions/:id/navigate
//   - Clipboard: /sessions/:id/clipboard, /sessions/:id/paste
//   - Files: /sessions/:id/files/:name, /sessions/:id/upload, /sessions/:id/open
//   - Views: /sessions/:id/tree, /sessions/:id/search, /sessions/:id/export
//
// Error bodies carry "error" and "code". Codes follow vfs.Classify plus a
// few for session state (busy, clipboard_empty, no_open_file). A paste
// conflict adds "suggestion", a split rename adds "phase" and "committed",
// and a navigation reset adds "reset" and "lost_path".
//
// Example Usage:
//
//	handlers := http.NewHandlers(sessions, logger, http.WithMetrics(metrics, registry))
//	handlers.Register(router)
package http
