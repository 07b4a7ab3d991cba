// Package logs reads the daemon log and per-podcast logs for the CLI.
//
// Last reads the trailing lines of a file with a ring buffer and reports the
// end offset; Follow polls from an offset and hands every new line to a
// callback until the context ends. A missing file is treated as empty so
// `podcaster logs -f` can be started before the daemon writes anything.
package logs
