// Package preflight provides readiness checks for the directories, API
// credentials and binaries podcaster depends on.
//
// These checks run in two contexts:
//   - The daemon calls RunAll at startup and logs every failed check so a
//     missing key shows up before the first thought is claimed.
//   - The CLI "podcaster status" command prints the same results next to
//     the queue summary.
//
// Each check is gated by its pipeline toggle; disabled stages are skipped.
package preflight
