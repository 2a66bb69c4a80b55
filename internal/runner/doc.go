// Package runner drives one request through a bounded model/action loop.
//
// Invariant:
//   - every action request is answered by exactly one result, appended in the
//     order the model declared the requests, before the model is called again.
//
// Flow:
//
//	system, user -> assistant(requests) -> action-result... -> assistant(answer)
//
// The last permitted round is answer-only: a model that still asks for actions
// ends the session with ErrRoundLimitExceeded.
package runner
