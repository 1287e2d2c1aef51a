package domain

import "time"

// CalendarInvite is the input to the calendar attachment builder.
type CalendarInvite struct {
	StartTime   time.Time
	EndTime     time.Time
	Summary     string
	Description string
	Location    string
	Organizer   Organizer
	Attendee    Invitee
}

// NewCalendarInvite combines an event's details with one attendee.
func NewCalendarInvite(details EventDetails, attendee Recipient) CalendarInvite {
	return CalendarInvite{
		StartTime:   details.StartTime,
		EndTime:     details.EndTime,
		Summary:     details.Summary,
		Description: details.Description,
		Location:    details.Location,
		Organizer:   details.Organizer,
		Attendee:    Invitee{Email: attendee.Email, Name: attendee.Name},
	}
}

// CalendarBuilder renders a calendar invitation document.
type CalendarBuilder interface {
	Build(invite CalendarInvite) ([]byte, error)
}
