package kafka_test

import (
	"context"
	"errors"
	"testing"

	kafkaGo "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"teleconsult/config"
	"teleconsult/infras/kafka"
	"teleconsult/infras/kafka/mocks"
)

type reminderPayload struct {
	AppointmentID string `json:"appointment_id"`
	Email         string `json:"email"`
}

func TestMessageRoundTrip(t *testing.T) {
	msg := kafka.Message{
		Key:   "appt-1",
		Value: reminderPayload{AppointmentID: "appt-1", Email: "pat@mail.test"},
	}

	raw, err := msg.ToKafkaMessage()
	require.NoError(t, err)
	assert.Equal(t, []byte("appt-1"), raw.Key)

	decoded, err := kafka.DecodeMessage[reminderPayload](raw)
	require.NoError(t, err)
	assert.Equal(t, "pat@mail.test", decoded.Email)
}

func TestMessageUnmarshalable(t *testing.T) {
	msg := kafka.Message{Key: "k", Value: make(chan int)}

	_, err := msg.ToKafkaMessage()
	assert.Error(t, err)

	_, err = kafka.DecodeMessage[reminderPayload](kafkaGo.Message{Value: []byte("{")})
	assert.Error(t, err)
}

func TestDisabledClientIsNoop(t *testing.T) {
	client := kafka.New(&config.Config{})

	assert.NoError(t, client.SendMessages(context.Background(), "appointments", kafka.Message{Key: "a", Value: 1}))
	assert.NoError(t, client.Close())
}

func TestPublish(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	client.EXPECT().
		SendMessages(gomock.Any(), "appointments", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, messages ...kafka.Message) error {
			require.Len(t, messages, 1)
			assert.Equal(t, "appt-1", messages[0].Key)

			event, ok := messages[0].Value.(kafka.Event)
			require.True(t, ok)
			assert.Equal(t, "appointment.booked", event.Type)

			return errors.New("broker down")
		})

	kafka.Publish(context.Background(), client, "appointments", "appt-1", "appointment.booked", reminderPayload{AppointmentID: "appt-1"})
}

func TestPublishWithoutTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mocks.NewMockClient(ctrl)

	kafka.Publish(context.Background(), client, "", "appt-1", "appointment.booked", nil)
}
