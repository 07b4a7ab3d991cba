// Package upload implements the YouTube stage. It publishes the rendered
// video with metadata derived from the analysis and records the resulting
// link on the queue item and in description.md.
package upload
