package policy

import (
	"errors"
	"fmt"

	"github.com/petasbytes/travel-agent/internal/flights"
)

// Action names shared by the registry and the guard.
const (
	ActionSearchFlights = "search_flights"
	ActionCheckCalendar = "check_calendar"
	ActionBookFlight    = "book_flight"
)

// BookingConfirmed is the status of a successful booking result.
const BookingConfirmed = "confirmed"

// ErrViolation marks a request rejected by a booking rule.
var ErrViolation = errors.New("policy violation")

// SystemPrompt returns the operating instructions given to the model.
func SystemPrompt(today string) string {
	return fmt.Sprintf(`You are a proactive travel assistant.
Operational protocol:
1. Always search for flights first with %[1]s.
2. ALWAYS check the user's calendar with %[2]s for the flight date before booking.
3. If a conflict exists, do not book; report the conflict to the user instead.
4. If the date is free, book the cheapest available flight with %[3]s, passing its offer id.
5. If a tool reports an error, explain it to the user rather than guessing results.
Current date: %[4]s.`, ActionSearchFlights, ActionCheckCalendar, ActionBookFlight, today)
}

// Cheapest returns the offer with the strictly lowest price. Ties go to the
// first listed offer. ok is false when offers is empty.
func Cheapest(offers []flights.Offer) (best flights.Offer, ok bool) {
	for i, o := range offers {
		if i == 0 || o.Price < best.Price {
			best = o
		}
	}
	return best, len(offers) > 0
}
