// Package ses sends transactional email through Amazon SES v2.
package ses

//go:generate go run go.uber.org/mock/mockgen -source=./ses.go -destination=./mocks/ses_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	sdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"

	"teleconsult/config"
	"teleconsult/infras/otel"
	"teleconsult/shared/constant"
	"teleconsult/shared/failure"
)

const charset = "UTF-8"

var ErrNoRecipient = errors.New("email has no recipient")

type Email struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, email Email) (messageID string, err error)
}

type API interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type sesImpl struct {
	api  API
	cfg  *config.Config
	otel otel.Otel
}

func New(awsCfg sdk.Config, cfg *config.Config, otl otel.Otel) Mailer {
	return NewWithAPI(sesv2.NewFromConfig(awsCfg), cfg, otl)
}

func NewWithAPI(api API, cfg *config.Config, otl otel.Otel) Mailer {
	return &sesImpl{api: api, cfg: cfg, otel: otl}
}

func (s *sesImpl) Send(ctx context.Context, email Email) (messageID string, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelSESScopeName, constant.OtelSESScopeName+".Send")
	defer scope.End()
	defer scope.TraceIfError(err)

	if len(email.To) == 0 {
		return "", ErrNoRecipient
	}

	scope.SetAttribute("email.subject", email.Subject)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.BackendTimeout())
	defer cancel()

	body := &types.Body{Html: &types.Content{Data: sdk.String(email.HTML), Charset: sdk.String(charset)}}
	if email.Text != "" {
		body.Text = &types.Content{Data: sdk.String(email.Text), Charset: sdk.String(charset)}
	}

	out, err := s.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: sdk.String(s.cfg.Notification.FromAddress),
		Destination:      &types.Destination{ToAddresses: email.To},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: sdk.String(email.Subject), Charset: sdk.String(charset)},
				Body:    body,
			},
		},
	})
	if err != nil {
		log.Error().Err(err).Strs("to", email.To).Msg("failed to send email")

		return "", failure.Unavailable(fmt.Errorf("failed to send email: %w", err)) //nolint:wrapcheck
	}

	return sdk.ToString(out.MessageId), nil
}
