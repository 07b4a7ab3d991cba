// Package logging builds the slog loggers used by podcaster.
//
// A logger fans out to a console handler (colored text or JSON), a rotated
// JSON log file and an errors-only file. Helpers tag records with the queue
// item and stage carried in a context, and LogStep/LogAPICall/LogPerformance
// give pipeline code a uniform shape for step, API and timing records.
package logging
