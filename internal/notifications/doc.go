// Package notifications delivers sync events via pluggable notifiers.
//
// The default implementation pushes Telegram messages using the bot token and
// chat configured in config.toml and gracefully degrades to a no-op when
// notifications are disabled. Cycle and error notifications can be toggled
// independently; all sync code depends only on the simple Service interface.
package notifications
