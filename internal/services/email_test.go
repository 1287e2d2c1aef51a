package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagholme/internal/domain"
)

type fakeMailer struct {
	sent []*domain.OutgoingEmail
	err  error
}

func (f *fakeMailer) Send(ctx context.Context, msg *domain.OutgoingEmail) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeRenderer struct {
	name string
	err  error
}

func (f *fakeRenderer) Render(name string, data any) (string, string, string, error) {
	f.name = name
	if f.err != nil {
		return "", "", "", f.err
	}
	d := data.(*domain.EventInvitationEmailData)
	return d.Summary, "<p>" + d.Summary + "</p>", d.Summary, nil
}

func TestEmailService_SendEventInvitation(t *testing.T) {
	data := &domain.EventInvitationEmailData{Email: "erin@example.com", Name: "Erin", Summary: "Sync", Calendar: []byte("BEGIN:VCALENDAR")}

	tests := []struct {
		name      string
		data      *domain.EventInvitationEmailData
		mailerErr error
		renderErr error
		wantErr   string
	}{
		{name: "success", data: data},
		{name: "nil data", data: nil, wantErr: "nil"},
		{name: "render failure", data: data, renderErr: errors.New("missing template"), wantErr: "render"},
		{name: "send failure", data: data, mailerErr: errors.New("ses throttled"), wantErr: "ses throttled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mailer := &fakeMailer{err: tt.mailerErr}
			renderer := &fakeRenderer{err: tt.renderErr}
			svc := NewEmailService(mailer, renderer, testLogger)

			err := svc.SendEventInvitation(context.Background(), tt.data)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "event_invitation", renderer.name)
			require.Len(t, mailer.sent, 1)
			msg := mailer.sent[0]
			assert.Equal(t, "erin@example.com", msg.To)
			assert.Equal(t, "Erin", msg.ToName)
			assert.Equal(t, "Sync", msg.Subject)
			assert.Equal(t, []byte("BEGIN:VCALENDAR"), msg.Calendar)
		})
	}
}
