package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/emersion/go-message/mail"

	"stagholme/internal/domain"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string `env:"AWS_REGION" envDefault:"us-east-1"`
	AccessKeyID        string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey    string `env:"AWS_SECRET_ACCESS_KEY"`
	InsecureSkipVerify bool   `env:"SES_INSECURE_SKIP_VERIFY"`
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider    string `env:"EMAIL_PROVIDER" envDefault:"noop"`
	FromAddress string `env:"EMAIL_FROM"`
	FromName    string `env:"EMAIL_FROM_NAME"`
	SES         SESConfig
}

// sesAPI is the part of the SES client the mailer uses.
type sesAPI interface {
	SendRawEmail(ctx context.Context, params *ses.SendRawEmailInput, optFns ...func(*ses.Options)) (*ses.SendRawEmailOutput, error)
}

// NewMailer creates a mailer from config. Provider "ses" uses AWS SES; "noop" or unknown uses a no-op mailer.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch config.Provider {
	case "ses":
		sesConfig := config.SES
		if sesConfig.InsecureSkipVerify {
			logger.Warn("TLS certificate verification is disabled for SES; use only in development")
		}
		if config.FromAddress == "" {
			return nil, fmt.Errorf("ses mailer: EMAIL_FROM is required")
		}
		httpClient := &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					InsecureSkipVerify: sesConfig.InsecureSkipVerify,
					MinVersion:         tls.VersionTLS12,
				},
			},
		}
		awsCfg := aws.Config{
			Region: sesConfig.Region,
			Credentials: aws.NewCredentialsCache(
				credentials.NewStaticCredentialsProvider(
					sesConfig.AccessKeyID,
					sesConfig.SecretAccessKey,
					"",
				),
			),
			HTTPClient: httpClient,
		}
		return newSESMailer(ses.NewFromConfig(awsCfg), config, logger), nil
	case "noop":
		return &noopMailer{logger: logger}, nil
	default:
		logger.Warn("unknown email provider, using noop", "provider", config.Provider)
		return &noopMailer{logger: logger}, nil
	}
}

type sesMailer struct {
	client sesAPI
	from   *mail.Address
	logger *slog.Logger
	now    func() time.Time
}

func newSESMailer(client sesAPI, config MailerConfig, logger *slog.Logger) *sesMailer {
	return &sesMailer{
		client: client,
		from:   &mail.Address{Name: config.FromName, Address: config.FromAddress},
		logger: logger,
		now:    time.Now,
	}
}

func (s *sesMailer) Send(ctx context.Context, msg *domain.OutgoingEmail) error {
	raw, err := composeMessage(s.from, msg, s.now())
	if err != nil {
		return fmt.Errorf("compose email: %w", err)
	}
	input := &ses.SendRawEmailInput{
		Source:       aws.String(s.from.String()),
		Destinations: []string{msg.To},
		RawMessage:   &types.RawMessage{Data: raw},
	}
	result, err := s.client.SendRawEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	s.logger.DebugContext(ctx, "email sent via SES", "to", msg.To, "message_id", aws.ToString(result.MessageId))
	return nil
}

type noopMailer struct {
	logger *slog.Logger
}

func (n *noopMailer) Send(ctx context.Context, msg *domain.OutgoingEmail) error {
	n.logger.InfoContext(ctx, "email would be sent (noop)", "to", msg.To, "subject", msg.Subject, "calendar_bytes", len(msg.Calendar))
	return nil
}
