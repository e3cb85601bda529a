package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"teleconsult/config"
	kafkaMocks "teleconsult/infras/kafka/mocks"
	"teleconsult/infras/otel/mocks"
	appointmentModel "teleconsult/internal/domains/appointment/model"
	appointmentRepo "teleconsult/internal/domains/appointment/repository"
	notificationMocks "teleconsult/internal/domains/notification/mocks"
	notificationModel "teleconsult/internal/domains/notification/model"
	"teleconsult/internal/domains/reminder/model/dto"
	reminderMocks "teleconsult/internal/domains/reminder/mocks"
	"teleconsult/internal/domains/reminder/service"
	gDto "teleconsult/shared/dto"
	gModel "teleconsult/shared/model"
)

var now = time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

// memoryAppointments evaluates the reminder queries against a slice.
type memoryAppointments struct {
	appointmentRepo.Appointment

	mu   sync.Mutex
	rows []appointmentModel.Appointment
}

func (m *memoryAppointments) GetAll(_ context.Context, _ gDto.QueryParams, filter gDto.FilterGroup, _ ...string) ([]appointmentModel.Appointment, error) {
	_, args := filter.GetWhereClause()
	from := args["due_from"].(time.Time)
	to := args["due_to"].(time.Time)

	m.mu.Lock()
	defer m.mu.Unlock()

	res := []appointmentModel.Appointment{}

	for _, row := range m.rows {
		if row.Status != args[appointmentModel.FieldStatus] || row.ReminderSent {
			continue
		}

		if row.StartTime.Before(from) || !row.StartTime.Before(to) {
			continue
		}

		res = append(res, row)
	}

	return res, nil
}

func (m *memoryAppointments) Update(_ context.Context, fields map[string]any, filter gDto.FilterGroup) (int64, error) {
	_, args := filter.GetWhereClause()

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.rows {
		if m.rows[i].ID == args[appointmentModel.FieldID] && !m.rows[i].ReminderSent {
			m.rows[i].ReminderSent = fields[appointmentModel.FieldReminderSent].(bool)

			return 1, nil
		}
	}

	return 0, nil
}

func booked(id, email string, start time.Time) appointmentModel.Appointment {
	return appointmentModel.Appointment{
		ID:           id,
		ClientEmail:  email,
		ProviderName: "Dr. Who",
		StartTime:    start,
		EndTime:      start.Add(30 * time.Minute),
		Status:       appointmentModel.StatusBooked,
		PackageInfo:  gModel.Extras{"name": "Follow-up"},
	}
}

func newService(t *testing.T, repo appointmentRepo.Appointment) (service.Reminder, *notificationMocks.MockDispatcher) {
	t.Helper()

	ctrl := gomock.NewController(t)
	notifier := notificationMocks.NewMockDispatcher(ctrl)

	return service.New(repo, notifier, kafkaMocks.NewMockClient(ctrl), &config.Config{}, mocks.NewOtel()), notifier
}

func ids(candidates []dto.Candidate) []string {
	res := make([]string, len(candidates))
	for i, candidate := range candidates {
		res[i] = candidate.AppointmentID
	}

	return res
}

func TestScanWindow(t *testing.T) {
	reminded := booked("reminded", "a@mail.test", now.Add(10*time.Minute))
	reminded.ReminderSent = true

	cancelled := booked("cancelled", "b@mail.test", now.Add(10*time.Minute))
	cancelled.Status = appointmentModel.StatusCancelled

	repo := &memoryAppointments{rows: []appointmentModel.Appointment{
		booked("due", "c@mail.test", now.Add(20*time.Minute)),
		booked("starting-now", "d@mail.test", now),
		booked("window-end", "e@mail.test", now.Add(30*time.Minute)),
		booked("past", "f@mail.test", now.Add(-time.Minute)),
		reminded,
		cancelled,
	}}

	svc, _ := newService(t, repo)

	candidates, err := svc.Scan(context.Background(), now)

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"due", "starting-now"}, ids(candidates))
}

func TestSweepFlagsOnlyConfirmedSends(t *testing.T) {
	tests := []struct {
		name      string
		sendErr   error
		rescanned []string
	}{
		{name: "send confirmed", rescanned: []string{}},
		{name: "send failed", sendErr: errors.New("ses throttled"), rescanned: []string{"due"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &memoryAppointments{rows: []appointmentModel.Appointment{booked("due", "pat@mail.test", now.Add(20*time.Minute))}}
			svc, notifier := newService(t, repo)

			notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ context.Context, msg notificationModel.Message) error {
					assert.Equal(t, notificationModel.KindReminder, msg.Kind)
					assert.Equal(t, "pat@mail.test", msg.Recipient)
					assert.Equal(t, "Follow-up", msg.Variables[notificationModel.VarPackageName])
					assert.Equal(t, "Dr. Who", msg.Variables[notificationModel.VarProviderName])

					return tt.sendErr
				})

			first, err := svc.Scan(context.Background(), now)
			require.NoError(t, err)
			assert.Equal(t, []string{"due"}, ids(first))

			_, err = svc.Sweep(context.Background(), now)
			require.NoError(t, err)

			second, err := svc.Scan(context.Background(), now)
			require.NoError(t, err)
			assert.Equal(t, tt.rescanned, ids(second))
		})
	}
}

func TestSweepContinuesPastFailures(t *testing.T) {
	repo := &memoryAppointments{rows: []appointmentModel.Appointment{
		booked("fails", "bounce@mail.test", now.Add(5*time.Minute)),
		booked("ok-1", "one@mail.test", now.Add(10*time.Minute)),
		booked("ok-2", "two@mail.test", now.Add(15*time.Minute)),
		booked("no-contact", "", now.Add(20*time.Minute)),
	}}

	svc, notifier := newService(t, repo)

	notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg notificationModel.Message) error {
			if msg.Recipient == "bounce@mail.test" {
				return errors.New("mailbox unavailable")
			}

			return nil
		}).Times(3)

	res, err := svc.Sweep(context.Background(), now)

	require.NoError(t, err)
	assert.Equal(t, 4, res.Scanned)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"fails"}, res.Failed)

	left, err := svc.Scan(context.Background(), now)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fails", "no-contact"}, ids(left))
}

func TestRunnerSweepsUntilCancelled(t *testing.T) {
	ctrl := gomock.NewController(t)
	reminder := reminderMocks.NewMockReminder(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	sweeps := 0

	reminder.EXPECT().Sweep(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, time.Time) (dto.SweepResult, error) {
			sweeps++
			if sweeps == 3 {
				cancel()
			}

			return dto.SweepResult{}, nil
		}).MinTimes(3)

	done := make(chan struct{})

	go func() {
		service.NewRunner(reminder, time.Millisecond).Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}

	assert.GreaterOrEqual(t, sweeps, 3)
}
