package calendar

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/google/uuid"

	"stagholme/internal/domain"
)

const defaultProductID = "-//Stagholme//Event Invitations 1.0//EN"

// Attendee parameters of an invitation that needs a reply.
const (
	roleRequired       = "REQ-PARTICIPANT"
	partStatNeedsReply = "NEEDS-ACTION"
	paramRSVP          = "RSVP"
	propSequence       = "SEQUENCE"
)

// Config holds the defaults applied when building invitations.
type Config struct {
	ProductID             string
	UIDDomain             string
	DefaultOrganizerName  string
	DefaultOrganizerEmail string
	// Location is the zone DTSTART/DTEND are rendered in. UTC (or nil) renders
	// both with a trailing Z; any other zone renders both with TZID and adds
	// a matching VTIMEZONE.
	Location *time.Location
}

type builder struct {
	cfg Config
	now func() time.Time
	uid func() string
}

// NewBuilder returns a CalendarBuilder producing METHOD:REQUEST iCalendar documents.
func NewBuilder(cfg Config) domain.CalendarBuilder {
	if cfg.ProductID == "" {
		cfg.ProductID = defaultProductID
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &builder{
		cfg: cfg,
		now: time.Now,
		uid: uuid.NewString,
	}
}

// Build renders a single-VEVENT invitation for invite.Attendee.
func (b *builder) Build(invite domain.CalendarInvite) ([]byte, error) {
	attendeeEmail := strings.TrimSpace(invite.Attendee.Email)
	if attendeeEmail == "" {
		return nil, errors.New("calendar: attendee email is required")
	}
	attendeeName := strings.TrimSpace(invite.Attendee.Name)
	if attendeeName == "" {
		attendeeName = attendeeEmail
	}
	organizerName := strings.TrimSpace(invite.Organizer.Name)
	if organizerName == "" {
		organizerName = b.cfg.DefaultOrganizerName
	}
	organizerEmail := strings.TrimSpace(invite.Organizer.Email)
	if organizerEmail == "" {
		organizerEmail = b.cfg.DefaultOrganizerEmail
	}

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, b.uidFor())
	event.Props.SetDateTime(ical.PropDateTimeStamp, b.now().UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, b.inZone(invite.StartTime))
	event.Props.SetDateTime(ical.PropDateTimeEnd, b.inZone(invite.EndTime))
	event.Props.SetText(ical.PropSummary, invite.Summary)
	event.Props.SetText(ical.PropDescription, invite.Description)
	event.Props.SetText(ical.PropLocation, invite.Location)
	event.Props.SetText(ical.PropStatus, "CONFIRMED")

	sequence := ical.NewProp(propSequence)
	sequence.Value = "0"
	event.Props.Set(sequence)

	organizer := ical.NewProp(ical.PropOrganizer)
	organizer.Params.Set(ical.ParamCommonName, organizerName)
	organizer.Value = "mailto:" + organizerEmail
	event.Props.Set(organizer)

	attendee := ical.NewProp(ical.PropAttendee)
	attendee.Params.Set(ical.ParamCommonName, attendeeName)
	attendee.Params.Set(ical.ParamRole, roleRequired)
	attendee.Params.Set(ical.ParamParticipationStatus, partStatNeedsReply)
	attendee.Params.Set(paramRSVP, "TRUE")
	attendee.Value = "mailto:" + attendeeEmail
	event.Props.Set(attendee)

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, b.cfg.ProductID)
	cal.Props.SetText(ical.PropMethod, "REQUEST")
	if b.cfg.Location != time.UTC {
		cal.Children = append(cal.Children, newTimezone(b.cfg.Location, invite.StartTime, invite.EndTime))
	}
	cal.Children = append(cal.Children, event.Component)

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

func (b *builder) uidFor() string {
	if b.cfg.UIDDomain == "" {
		return b.uid()
	}
	return b.uid() + "@" + b.cfg.UIDDomain
}

func (b *builder) inZone(t time.Time) time.Time {
	if b.cfg.Location == time.UTC {
		return t.UTC()
	}
	return t.In(b.cfg.Location)
}
