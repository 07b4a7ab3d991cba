// Package daemon coordinates the long-running podcaster process.
//
// It wires configuration, queue storage, the workflow manager, the inbox
// watcher and the HTTP API into a single lifecycle with flock-based locking
// to prevent multiple instances. Startup runs the preflight checks and logs
// any failures so missing credentials are visible before the first item is
// claimed.
//
// Keep orchestration logic here: individual stages live in their own
// packages while the daemon focuses on startup, shutdown and status.
package daemon
