// Command podcaster turns short biblical thoughts into narrated videos.
//
// One-shot commands (analyze, run, add, queue) work directly against the
// SQLite queue and may be used while the daemon is running. The daemon
// command processes the queue in the foreground until interrupted.
package main
