// Package session ties the navigator components to one opened project.
//
// A Session owns the capability root, the navigation path, the clipboard and
// the tree view. Only one user action runs at a time; a second action while
// one is in flight fails fast with ErrBusy.
//
// Components:
//   - Session: per-project state and the user actions
//   - Manager: opens, looks up and closes sessions over registered backends
//   - Notifier: receives events (warnings, completed operations) for the UI
//
// Closing a session is "return home": the clipboard is cleared, the tree
// forgotten and the root released.
//
// Example Usage:
//
//	mgr := session.NewManager(logger)
//	mgr.RegisterBackend(memory.New())
//	s, err := mgr.Open(ctx, "memory", "my-mod", vfs.ModeReadWrite)
//	err = s.Descend(ctx, "units")
//	err = s.Copy(ctx, "tank")
//	res, err := s.Paste(ctx, "")
package session
