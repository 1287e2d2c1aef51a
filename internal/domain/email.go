package domain

import "context"

// OutgoingEmail is one rendered invitation ready for delivery.
type OutgoingEmail struct {
	To       string
	ToName   string
	Subject  string
	HTML     string
	Text     string
	Calendar []byte // iCalendar REQUEST, attached as invitation.ics
}

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, msg *OutgoingEmail) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// EventInvitationEmailData holds data for the event invitation email.
type EventInvitationEmailData struct {
	Email         string
	Name          string
	Summary       string
	Description   string
	Location      string
	OrganizerName string
	StartTime     string
	EndTime       string
	Calendar      []byte
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendEventInvitation(ctx context.Context, data *EventInvitationEmailData) error
}
