// Package ws streams session notifications to the IDE over WebSocket.
//
// The Hub implements session.Notifier: every session event (paste finished,
// navigation reset, open file deleted) is fanned out to the connections
// subscribed to that session. Slow connections drop events rather than stall
// the operation that published them.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//
// Message Types (Server → Client):
//   - system: Subscription confirmed
//   - pong: Ping reply
//   - error: Unknown client message
//   - any session.Event (pasted, navigation_reset, open_file_deleted, ...)
//
// Example Usage:
//
//	hub := ws.NewHub(logger, metrics)
//	mgr := session.NewManager(logger, session.WithNotifier(hub))
//	router.GET("/sessions/:id/events", ws.NewHandler(hub, lookup, logger).HandleConnection)
package ws
