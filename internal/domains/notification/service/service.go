package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"maps"

	"github.com/rs/zerolog/log"

	"teleconsult/config"
	"teleconsult/infras/kafka"
	"teleconsult/infras/otel"
	"teleconsult/infras/ses"
	"teleconsult/internal/domains/notification/model"
	"teleconsult/shared/constant"
	"teleconsult/shared/failure"
	"teleconsult/shared/timezone"
)

const DriverKafka = "kafka"

var (
	ErrUnknownKind = errors.New("unknown notification kind")
	ErrNoRecipient = failure.BadRequestFromString("notification has no recipient")
)

type Dispatcher interface {
	// Send returns nil only once the message has been accepted by the delivery channel.
	Send(ctx context.Context, msg model.Message) error
}

type serviceImpl struct {
	cfg    *config.Config
	mailer ses.Mailer
	kafka  kafka.Client
	otel   otel.Otel
}

func New(cfg *config.Config, mailer ses.Mailer, kafka kafka.Client, otel otel.Otel) Dispatcher {
	return &serviceImpl{
		cfg:    cfg,
		mailer: mailer,
		kafka:  kafka,
		otel:   otel,
	}
}

func (s *serviceImpl) Send(ctx context.Context, msg model.Message) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".notification.Send")
	defer scope.End()
	defer scope.TraceIfError(err)

	if msg.Recipient == "" {
		return ErrNoRecipient
	}

	vars := make(map[string]string, len(msg.Variables)+1)
	maps.Copy(vars, msg.Variables)

	if vars[model.VarWebsiteURL] == "" {
		vars[model.VarWebsiteURL] = s.cfg.Notification.WebsiteURL
	}

	html, err := Render(msg.Kind, vars)
	if err != nil {
		log.Error().Err(err).Str("kind", string(msg.Kind)).Msg("failed to render notification")

		return err
	}

	rendered := model.Rendered{
		To:      msg.Recipient,
		From:    s.cfg.Notification.FromAddress,
		Subject: msg.Subject,
		HTML:    html,
	}

	if s.cfg.Notification.Driver == DriverKafka {
		return s.publish(ctx, rendered)
	}

	messageID, err := s.mailer.Send(ctx, ses.Email{To: []string{rendered.To}, Subject: rendered.Subject, HTML: rendered.HTML})
	if err != nil {
		log.Error().Err(err).Str("kind", string(msg.Kind)).Msg("failed to send notification email")

		return fmt.Errorf("failed to send notification email: %w", err)
	}

	log.Info().Str("kind", string(msg.Kind)).Str("message_id", messageID).Msg("notification sent")

	return nil
}

// publish hands the rendered email to an external mail relay over kafka.
func (s *serviceImpl) publish(ctx context.Context, rendered model.Rendered) error {
	event := kafka.Event{Type: constant.EventNotificationEmail, OccurredAt: timezone.Now(), Payload: rendered}

	err := s.kafka.SendMessages(ctx, s.cfg.Kafka.Topics.Notification, kafka.Message{Key: rendered.To, Value: event})
	if err != nil {
		log.Error().Err(err).Msg("failed to publish notification")

		return fmt.Errorf("failed to publish notification: %w", failure.Unavailable(err))
	}

	return nil
}
