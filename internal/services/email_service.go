package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/storefront/internal/config"
	pkglogger "github.com/BradenHooton/storefront/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"golang.org/x/time/rate"
)

// Message is one outbound email
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers email. A returned error means the message was not
// accepted for delivery and the calling operation must fail.
type Mailer interface {
	Send(ctx context.Context, to string, msg Message) error
}

// sesSender is the subset of the SES client used for delivery
type sesSender interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESMailer sends email through AWS SES. Every send is bounded by a timeout
// and by a send-rate limiter matching the account's SES quota.
type SESMailer struct {
	client  sesSender
	source  string
	timeout time.Duration
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewSESMailer loads the default AWS credential chain for the configured region
func NewSESMailer(ctx context.Context, cfg config.EmailConfig, logger *slog.Logger) (*SESMailer, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newSESMailer(ses.NewFromConfig(awsCfg), cfg, logger), nil
}

func newSESMailer(client sesSender, cfg config.EmailConfig, logger *slog.Logger) *SESMailer {
	source := cfg.FromAddress
	if cfg.FromName != "" {
		source = fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromAddress)
	}

	limit := rate.Inf
	burst := 1
	if cfg.MaxSendRate > 0 {
		limit = rate.Limit(cfg.MaxSendRate)
		burst = int(cfg.MaxSendRate)
		if burst < 1 {
			burst = 1
		}
	}

	return &SESMailer{
		client:  client,
		source:  source,
		timeout: cfg.SendTimeout,
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Send delivers msg to a single recipient. A timeout, including time spent
// waiting on the rate limiter, counts as a delivery failure.
func (m *SESMailer) Send(ctx context.Context, to string, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("email send throttled: %w", err)
	}

	input := &ses.SendEmailInput{
		Source: aws.String(m.source),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")},
			},
		},
	}
	if msg.Text != "" {
		input.Message.Body.Text = &types.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	result, err := m.client.SendEmail(ctx, input)
	if err != nil {
		m.logger.Error("failed to send email via SES",
			slog.String("email", pkglogger.SanitizedEmail(to)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.logger.Info("email sent",
		slog.String("email", pkglogger.SanitizedEmail(to)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}

// OTPPurpose selects the wording of a one-time-code email
type OTPPurpose int

const (
	OTPPurposeRegistration OTPPurpose = iota
	OTPPurposePasswordReset
)

func renderOTPEmail(purpose OTPPurpose, code string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())

	subject := "Your verification code"
	heading := "Confirm your email address"
	intro := "Use the code below to finish creating your account."
	if purpose == OTPPurposePasswordReset {
		subject = "Your password reset code"
		heading = "Reset your password"
		intro = "Use the code below to choose a new password."
	}

	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .code { font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center; padding: 16px; background-color: #f8f9fa; border-radius: 4px; }
        .footer { color: #666; font-size: 12px; margin-top: 20px; padding-top: 20px; border-top: 1px solid #eee; }
    </style>
</head>
<body>
    <div class="container">
        <h1>%s</h1>
        <p>%s</p>
        <p class="code">%s</p>
        <p>This code expires in %d minutes. If you did not request it, you can ignore this email.</p>
        <div class="footer">
            <p>This is an automated message. Please do not reply to this email.</p>
        </div>
    </div>
</body>
</html>
`, heading, intro, code, minutes)

	text := fmt.Sprintf("%s\n\n%s\n\n%s\n\nThis code expires in %d minutes. If you did not request it, you can ignore this email.\n",
		heading, intro, code, minutes)

	return Message{Subject: subject, HTML: html, Text: text}
}
