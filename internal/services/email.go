package services

import (
	"context"
	"fmt"
	"log/slog"

	"stagholme/internal/domain"
)

const eventInvitationTemplate = "event_invitation"

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
	logger   *slog.Logger
}

// NewEmailService returns an EmailService that uses the given Mailer and template renderer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer, logger *slog.Logger) domain.EmailService {
	return &emailService{mailer: mailer, renderer: renderer, logger: logger}
}

// SendEventInvitation renders the "event_invitation" template and sends it with the calendar attached.
func (s *emailService) SendEventInvitation(ctx context.Context, data *domain.EventInvitationEmailData) error {
	if data == nil {
		return fmt.Errorf("event invitation data is nil")
	}
	subject, htmlBody, textBody, err := s.renderer.Render(eventInvitationTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render event_invitation template: %w", err)
	}
	msg := &domain.OutgoingEmail{
		To:       data.Email,
		ToName:   data.Name,
		Subject:  subject,
		HTML:     htmlBody,
		Text:     textBody,
		Calendar: data.Calendar,
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send event invitation: %w", err)
	}
	s.logger.Debug("event invitation sent", "recipient", data.Email)
	return nil
}
