package policy

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/petasbytes/travel-agent/internal/calendar"
	"github.com/petasbytes/travel-agent/memory"
	"github.com/tidwall/gjson"
)

// BookingGuard admits a booking only when the session history satisfies the
// ordering and conflict rules.
type BookingGuard struct {
	Logger *slog.Logger
}

// Guards reports whether requests for action must pass Admit.
func (BookingGuard) Guards(action string) bool {
	return action == ActionBookFlight
}

// Admit checks req against the results already produced in the session, oldest first.
// prior includes results of earlier requests in the same batch.
func (g BookingGuard) Admit(req memory.ActionRequest, prior []memory.ActionResult) error {
	if req.ActionName != ActionBookFlight {
		return nil
	}
	flightID := gjson.GetBytes(req.Arguments, "flight_id").String()
	if flightID == "" {
		return fmt.Errorf("%w: flight_id is required", ErrViolation)
	}

	h := replay(prior)
	if len(h.bookings) > 0 {
		return fmt.Errorf("%w: a flight was already booked in this session (%s); only one booking per request",
			ErrViolation, h.bookings[0].bookingID)
	}
	date, ok := h.offerDates[flightID]
	if !ok {
		return fmt.Errorf("%w: flight %q was not returned by a prior %s result; search before booking",
			ErrViolation, flightID, ActionSearchFlights)
	}
	cal, ok := h.calendar[date]
	if !ok {
		return fmt.Errorf("%w: the calendar has not been checked for %s; call %s before booking",
			ErrViolation, date, ActionCheckCalendar)
	}
	if cal.status != string(calendar.StatusFree) {
		return fmt.Errorf("%w: calendar conflict on %s (%s); do not book, report the conflict to the user",
			ErrViolation, date, strings.Join(cal.events, ", "))
	}
	if g.Logger != nil {
		g.Logger.Debug("booking admitted", "flight_id", flightID, "date", date)
	}
	return nil
}

type calendarState struct {
	status string
	events []string
}

type booking struct {
	flightID  string
	bookingID string
	date      string
	// calendar status for date at the time of the booking
	calendar *calendarState
}

type history struct {
	offerDates map[string]string        // offer id -> travel date
	calendar   map[string]calendarState // date -> latest successful check
	bookings   []booking
}

// replay folds successful results into the facts the rules need. Error results
// never count as evidence.
func replay(results []memory.ActionResult) history {
	h := history{
		offerDates: make(map[string]string),
		calendar:   make(map[string]calendarState),
	}
	for _, r := range results {
		if r.IsError || !gjson.Valid(r.Payload) {
			continue
		}
		doc := gjson.Parse(r.Payload)
		switch r.ActionName {
		case ActionSearchFlights:
			date := doc.Get("date").String()
			for _, id := range doc.Get("offers.#.id").Array() {
				h.offerDates[id.String()] = date
			}
		case ActionCheckCalendar:
			st := calendarState{status: doc.Get("status").String()}
			for _, e := range doc.Get("conflicts").Array() {
				st.events = append(st.events, strings.TrimSpace(e.Get("event").String()+" "+e.Get("time").String()))
			}
			h.calendar[doc.Get("date").String()] = st
		case ActionBookFlight:
			if doc.Get("status").String() != BookingConfirmed {
				continue
			}
			b := booking{flightID: doc.Get("flight_id").String(), bookingID: doc.Get("booking_id").String()}
			b.date = h.offerDates[b.flightID]
			if st, ok := h.calendar[b.date]; ok {
				b.calendar = &st
			}
			h.bookings = append(h.bookings, b)
		}
	}
	return h
}

// Results extracts the action results of turns, oldest first.
func Results(turns []memory.Turn) []memory.ActionResult {
	var out []memory.ActionResult
	for _, t := range turns {
		if t.Role == memory.RoleActionResult && t.Result != nil {
			out = append(out, *t.Result)
		}
	}
	return out
}

// Audit verifies a transcript after the fact: every confirmed booking follows a
// search that offered the flight and a free calendar check for its date, and at
// most one booking was confirmed.
func Audit(turns []memory.Turn) error {
	h := replay(Results(turns))
	if len(h.bookings) > 1 {
		return fmt.Errorf("%w: %d bookings confirmed in one session", ErrViolation, len(h.bookings))
	}
	for _, b := range h.bookings {
		switch {
		case b.date == "":
			return fmt.Errorf("%w: booking %s has no prior search offering %q", ErrViolation, b.bookingID, b.flightID)
		case b.calendar == nil:
			return fmt.Errorf("%w: booking %s made without a calendar check for %s", ErrViolation, b.bookingID, b.date)
		case b.calendar.status != string(calendar.StatusFree):
			return fmt.Errorf("%w: booking %s made on a busy date %s", ErrViolation, b.bookingID, b.date)
		}
	}
	return nil
}
