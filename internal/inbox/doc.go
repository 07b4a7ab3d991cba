// Package inbox feeds the queue from outside the CLI. A Watcher scans the
// inbox directory for dropped .txt and .md files and reads configured RSS or
// Atom feeds, on a gocron schedule when run by the daemon.
package inbox
