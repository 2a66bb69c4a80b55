// Package policy encodes the booking rules of the travel agent.
//
// The rules reach the model through SystemPrompt and are enforced mechanically by
// BookingGuard, which the runner consults before executing a booking:
//   - a booked flight must come from a prior search of the session
//   - the calendar must have been checked, and found free, for that flight's date
//   - at most one booking is confirmed per session
//
// Cheapest implements the selection rule; Audit replays a finished transcript.
package policy
