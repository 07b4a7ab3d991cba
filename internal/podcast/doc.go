// Package podcast owns the on-disk layout of a podcast folder: its name, the
// artifact file names, the structured analysis stored in
// context_analysis.json and the description.md document with YAML front
// matter. Every stage reads and writes artifacts through this package.
package podcast
