// Package notifications pushes capture job events to ntfy.
//
// The topic comes from the [notifications] section of the configuration; with
// no topic every Publish is a no-op. Each event class can be switched off
// independently so a long scan only reports how it ended.
package notifications
