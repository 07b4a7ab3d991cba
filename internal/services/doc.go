// Package services defines shared utilities consumed by the pipeline stage
// handlers and external integrations.
//
// Context helpers stamp queue item IDs, stage names and correlation
// identifiers so log records can be tied back to a podcast. Structured error
// markers plus the Wrap helper classify failures so the workflow manager can
// decide between retrying a stage and failing the item.
//
// Subpackages hold the clients for the external services the pipeline talks
// to (LLM providers, speech synthesis, YouTube).
package services
