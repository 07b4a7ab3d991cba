// Package notifications publishes podcast lifecycle events to ntfy.
//
// Events are formatted into a title, body, tags and priority. Each event kind
// can be muted through the [notifications] config section; the test event is
// always sent. Without a topic the returned Service does nothing.
package notifications
