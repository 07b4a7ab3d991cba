// Package announce implements the final stage: it posts the finished podcast
// to a Telegram channel and a VK community wall. Targets without credentials
// are skipped; targets already posted for an item are not posted again.
package announce
