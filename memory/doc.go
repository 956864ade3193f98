// Package memory persists conversation history and user preferences.
//
// Persistence model:
//   - One JSON document holds the whole state: the turn log under
//     "conversations" and the preference map under "user_preferences".
//   - The log keeps at most the newest 50 turns (FIFO eviction after
//     every append).
//   - Every mutation rewrites the document in full; read and write
//     failures are logged, never returned, so the in-memory state
//     remains usable without a durable copy.
package memory
