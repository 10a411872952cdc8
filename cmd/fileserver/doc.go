// Package main runs the legacy network file server.
//
// It serves a base directory of projects over REST under /api; the
// navigator's remote backend is its client.
//
// Usage:
//
//	./fileserver -port 3000 -base ./projects_base
//	./fileserver -readonly
package main
