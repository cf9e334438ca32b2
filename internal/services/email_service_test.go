package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/storefront/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	sendFunc func(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error)
	inputs   []*ses.SendEmailInput
}

func (f *fakeSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.sendFunc != nil {
		return f.sendFunc(ctx, params)
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func testEmailConfig() config.EmailConfig {
	return config.EmailConfig{
		FromAddress: "noreply@shop.example.com",
		FromName:    "Shop",
		SendTimeout: 50 * time.Millisecond,
	}
}

func TestSESMailer_Send(t *testing.T) {
	client := &fakeSES{}
	mailer := newSESMailer(client, testEmailConfig(), testLogger())

	err := mailer.Send(context.Background(), "a@b.com", Message{Subject: "Hi", HTML: "<p>hi</p>", Text: "hi"})
	require.NoError(t, err)

	require.Len(t, client.inputs, 1)
	in := client.inputs[0]
	assert.Equal(t, "Shop <noreply@shop.example.com>", aws.ToString(in.Source))
	assert.Equal(t, []string{"a@b.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "Hi", aws.ToString(in.Message.Subject.Data))
	assert.Equal(t, "<p>hi</p>", aws.ToString(in.Message.Body.Html.Data))
	require.NotNil(t, in.Message.Body.Text)
	assert.Equal(t, "hi", aws.ToString(in.Message.Body.Text.Data))
}

func TestSESMailer_HTMLOnly(t *testing.T) {
	client := &fakeSES{}
	mailer := newSESMailer(client, testEmailConfig(), testLogger())

	require.NoError(t, mailer.Send(context.Background(), "a@b.com", Message{Subject: "Hi", HTML: "<p>hi</p>"}))
	assert.Nil(t, client.inputs[0].Message.Body.Text)
}

func TestSESMailer_Timeout(t *testing.T) {
	client := &fakeSES{sendFunc: func(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	mailer := newSESMailer(client, testEmailConfig(), testLogger())

	start := time.Now()
	err := mailer.Send(context.Background(), "a@b.com", Message{Subject: "Hi", HTML: "x"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), time.Second, "send is bounded by the configured timeout")
}

func TestSESMailer_RelayError(t *testing.T) {
	client := &fakeSES{sendFunc: func(ctx context.Context, params *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
		return nil, errors.New("MessageRejected")
	}}
	mailer := newSESMailer(client, testEmailConfig(), testLogger())

	err := mailer.Send(context.Background(), "a@b.com", Message{Subject: "Hi", HTML: "x"})
	assert.ErrorContains(t, err, "MessageRejected")
}

func TestSESMailer_RateLimitWaitCountsAgainstTimeout(t *testing.T) {
	cfg := testEmailConfig()
	cfg.MaxSendRate = 1
	client := &fakeSES{}
	mailer := newSESMailer(client, cfg, testLogger())
	ctx := context.Background()

	require.NoError(t, mailer.Send(ctx, "a@b.com", Message{Subject: "1", HTML: "x"}))

	// the next token is a second away, beyond the 50ms send timeout
	err := mailer.Send(ctx, "a@b.com", Message{Subject: "2", HTML: "x"})
	assert.ErrorContains(t, err, "throttled")
	assert.Len(t, client.inputs, 1)
}

func TestRenderOTPEmail(t *testing.T) {
	reg := renderOTPEmail(OTPPurposeRegistration, "042917", 10*time.Minute)
	assert.Equal(t, "Your verification code", reg.Subject)
	assert.Contains(t, reg.HTML, "042917")
	assert.Contains(t, reg.Text, "042917")
	assert.Contains(t, reg.Text, "10 minutes")

	reset := renderOTPEmail(OTPPurposePasswordReset, "000123", 10*time.Minute)
	assert.Equal(t, "Your password reset code", reset.Subject)
	assert.True(t, strings.Contains(reset.HTML, "Reset your password"))
}
