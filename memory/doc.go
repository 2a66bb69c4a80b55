// Package memory holds the conversation state of a single session.
//
// Model:
//   - Turns are append-only and ordered: system, user, then alternating assistant
//     proposals and action results, ending with an assistant answer.
//   - Every action result answers exactly one pending request by correlation id.
//   - A new assistant turn cannot start while requests of the previous one are pending.
//   - Stored text is capped; oversized result payloads are clamped with a sentinel.
package memory
