// Package api serves the daemon's HTTP control surface with gin and defines
// the JSON wire types it returns.
//
// Routes:
//
//	GET    /api/health              queue database and workflow status
//	GET    /api/podcasts?status=    list items, optionally filtered
//	POST   /api/podcasts            enqueue {"text": ...}
//	GET    /api/podcasts/:id        one item including its thought text
//	POST   /api/podcasts/:id/retry  move a failed item back to pending
//	DELETE /api/podcasts/:id        remove an item (the folder is kept)
//
// DTOs use camelCase JSON tags. Timestamps use RFC3339 with milliseconds.
// Duplicate submissions answer 409 with the existing item.
package api
