// Package tools defines the action registry the model chooses from, and the
// travel actions registered in it.
//
// Includes:
//   - Definition: name, description, declared parameters, handler.
//   - NewDefinition[T](): binds a typed handler; T's JSON Schema (invopop/jsonschema)
//     is checked against the declared parameters when the registry is built.
//   - Registry: Register, Resolve, Describe (model-facing catalog), Validate, Prepare.
//   - Error: structured payload error surfaced to the model instead of a fault.
//   - Travel actions: search_flights, check_calendar, book_flight.
package tools
