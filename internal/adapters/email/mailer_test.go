package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stagholme/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeSES struct {
	input *ses.SendRawEmailInput
	err   error
}

func (f *fakeSES) SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendRawEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESMailer_Send(t *testing.T) {
	tests := []struct {
		name    string
		sesErr  error
		wantErr bool
	}{
		{name: "success"},
		{name: "ses error", sesErr: errors.New("throttled"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeSES{err: tt.sesErr}
			m := newSESMailer(client, MailerConfig{FromAddress: "events@example.com", FromName: "Stagholme"}, testLogger)

			err := m.Send(context.Background(), &domain.OutgoingEmail{
				To:       "erin@example.com",
				Subject:  "Team sync",
				Text:     "hello",
				Calendar: []byte("BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"),
			})
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, client.input)
			assert.Equal(t, []string{"erin@example.com"}, client.input.Destinations)
			assert.Contains(t, aws.ToString(client.input.Source), "events@example.com")
			assert.Contains(t, string(client.input.RawMessage.Data), "invitation.ics")
		})
	}
}

func TestNewMailer(t *testing.T) {
	m, err := NewMailer(MailerConfig{Provider: "noop"}, testLogger)
	require.NoError(t, err)
	require.NoError(t, m.Send(context.Background(), &domain.OutgoingEmail{To: "a@example.com"}))

	m, err = NewMailer(MailerConfig{Provider: "carrier-pigeon"}, testLogger)
	require.NoError(t, err)
	assert.IsType(t, &noopMailer{}, m)

	_, err = NewMailer(MailerConfig{Provider: "ses"}, testLogger)
	require.Error(t, err, "ses without a sender address")

	m, err = NewMailer(MailerConfig{Provider: "ses", FromAddress: "events@example.com", SES: SESConfig{Region: "us-east-1"}}, testLogger)
	require.NoError(t, err)
	assert.IsType(t, &sesMailer{}, m)
}
