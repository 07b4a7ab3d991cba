// Package workflow advances queue items through the configured podcast
// stages.
//
// The Manager builds a chain from the enabled stages (analysis, narration,
// artwork, render, upload, announce). Each stage is triggered by the done
// status of the previous enabled stage; the last one completes the item.
// pipeline.max_workers workers claim items concurrently and carry each
// claimed item through the rest of the chain under a single request ID,
// with a heartbeat so a crashed daemon's work is reclaimed on the next
// start. RunOnce runs the same chain synchronously for the CLI.
package workflow
