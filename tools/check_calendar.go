package tools

import (
	"context"
	"errors"

	"github.com/petasbytes/travel-agent/internal/calendar"
	"github.com/petasbytes/travel-agent/internal/policy"
)

type CheckCalendarInput struct {
	Date string `json:"date" jsonschema_description:"Date to check, YYYY-MM-DD"`
}

// CheckCalendarDefinition registers check_calendar backed by c.
func CheckCalendarDefinition(c CalendarChecker) Definition {
	return NewDefinition(
		policy.ActionCheckCalendar,
		"Check the user's calendar for a date. Returns status free, or busy with the conflicting events.",
		[]Param{
			{Name: "date", Type: TypeString, Description: "Date to check, YYYY-MM-DD", Required: true, Format: FormatDate},
		},
		func(ctx context.Context, in CheckCalendarInput) (calendar.Availability, error) {
			if c == nil {
				return calendar.Availability{}, errors.New("calendar is not configured")
			}
			return c.Check(ctx, in.Date)
		},
	)
}
