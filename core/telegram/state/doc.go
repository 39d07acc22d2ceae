// Package state keeps per-chat conversation sessions in memory.
// Sessions are never persisted; a restart forgets every conversation.
package state
