package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"teleconsult/config"
	"teleconsult/infras/kafka"
	"teleconsult/infras/otel"
	appointmentModel "teleconsult/internal/domains/appointment/model"
	appointmentRepo "teleconsult/internal/domains/appointment/repository"
	appointmentService "teleconsult/internal/domains/appointment/service"
	notificationModel "teleconsult/internal/domains/notification/model"
	notificationService "teleconsult/internal/domains/notification/service"
	"teleconsult/internal/domains/reminder/model/dto"
	"teleconsult/shared/constant"
	gDto "teleconsult/shared/dto"
	"teleconsult/shared/timezone"
)

type Reminder interface {
	// Scan lists booked appointments starting within [now, now+window) that have not been reminded.
	Scan(ctx context.Context, now time.Time) ([]dto.Candidate, error)
	// Sweep scans and reminds every candidate, flagging only confirmed sends.
	Sweep(ctx context.Context, now time.Time) (dto.SweepResult, error)
}

type serviceImpl struct {
	repo     appointmentRepo.Appointment
	notifier notificationService.Dispatcher
	kafka    kafka.Client
	cfg      *config.Config
	otel     otel.Otel
}

func New(
	repo appointmentRepo.Appointment,
	notifier notificationService.Dispatcher,
	kafka kafka.Client,
	cfg *config.Config,
	otel otel.Otel,
) Reminder {
	return &serviceImpl{
		repo:     repo,
		notifier: notifier,
		kafka:    kafka,
		cfg:      cfg,
		otel:     otel,
	}
}

func (s *serviceImpl) Scan(ctx context.Context, now time.Time) (res []dto.Candidate, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".reminder.Scan")
	defer scope.End()
	defer scope.TraceIfError(err)

	params := gDto.QueryParams{
		SortBy:  fmt.Sprintf("%s.%s", appointmentModel.TableName, appointmentModel.FieldStartTime),
		SortDir: "ASC",
	}

	appointments, err := s.repo.GetAll(ctx, params, dueFilter(now, now.Add(s.cfg.ReminderWindow())))
	if err != nil {
		log.Error().Err(err).Msg("failed to scan reminder candidates")

		return nil, fmt.Errorf("failed to scan reminder candidates: %w", err)
	}

	res = make([]dto.Candidate, len(appointments))
	for i, appointment := range appointments {
		res[i].FromModel(appointment)
	}

	return res, nil
}

func (s *serviceImpl) Sweep(ctx context.Context, now time.Time) (res dto.SweepResult, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".reminder.Sweep")
	defer scope.End()
	defer scope.TraceIfError(err)

	candidates, err := s.Scan(ctx, now)
	if err != nil {
		return res, err
	}

	res.Scanned = len(candidates)
	res.Failed = []string{}

	var mu sync.Mutex

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.cfg.ReminderConcurrency())

	for _, candidate := range candidates {
		if candidate.Recipient == constant.Empty {
			log.Warn().Str("appointmentID", candidate.AppointmentID).Msg("skipping reminder without contact address")

			res.Skipped++

			continue
		}

		group.Go(func() error {
			sendErr := s.remind(gctx, candidate)

			mu.Lock()
			defer mu.Unlock()

			if sendErr != nil {
				res.Failed = append(res.Failed, candidate.AppointmentID)
			} else {
				res.Sent++
			}

			// one failed candidate never cancels the others
			return nil
		})
	}

	_ = group.Wait()

	log.Info().
		Int("scanned", res.Scanned).
		Int("sent", res.Sent).
		Int("skipped", res.Skipped).
		Int("failed", len(res.Failed)).
		Msg("reminder sweep finished")

	return res, nil
}

func (s *serviceImpl) remind(ctx context.Context, candidate dto.Candidate) error {
	err := s.notifier.Send(ctx, notificationModel.Message{
		Kind:      notificationModel.KindReminder,
		Recipient: candidate.Recipient,
		Subject:   notificationModel.SubjectReminder,
		Variables: appointmentService.Variables(candidate.Appointment, constant.Empty),
	})
	if err != nil {
		log.Error().Err(err).Str("appointmentID", candidate.AppointmentID).Msg("failed to send reminder")

		return fmt.Errorf("failed to send reminder: %w", err)
	}

	// the flag flips only after the dispatcher confirmed delivery
	_, err = s.repo.Update(ctx, map[string]any{
		appointmentModel.FieldReminderSent: true,
		constant.FieldModifiedAt:           timezone.Now(),
		constant.FieldModifiedBy:           constant.ContextSystem,
	}, gDto.And(
		gDto.Filter{Table: appointmentModel.TableName, Field: appointmentModel.FieldID, Value: candidate.AppointmentID, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Table: appointmentModel.TableName, Field: appointmentModel.FieldReminderSent, Value: false, Operator: gDto.FilterOperatorEq},
	))
	if err != nil {
		log.Error().Err(err).Str("appointmentID", candidate.AppointmentID).Msg("failed to flag reminder as sent")

		return fmt.Errorf("failed to flag reminder as sent: %w", err)
	}

	kafka.Publish(context.WithoutCancel(ctx), s.kafka, s.cfg.Kafka.Topics.Appointment, candidate.AppointmentID, constant.EventReminderSent, candidate)

	return nil
}

func dueFilter(from, to time.Time) gDto.FilterGroup {
	return gDto.And(
		gDto.Filter{Table: appointmentModel.TableName, Field: appointmentModel.FieldStatus, Value: appointmentModel.StatusBooked, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Table: appointmentModel.TableName, Field: appointmentModel.FieldReminderSent, Value: false, Operator: gDto.FilterOperatorEq},
		gDto.Filter{ArgName: "due_from", Table: appointmentModel.TableName, Field: appointmentModel.FieldStartTime, Value: from, Operator: gDto.FilterOperatorGreaterEq},
		gDto.Filter{ArgName: "due_to", Table: appointmentModel.TableName, Field: appointmentModel.FieldStartTime, Value: to, Operator: gDto.FilterOperatorLess},
	)
}
