package chime_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	sdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/chimesdkmeetings"
	"github.com/aws/aws-sdk-go-v2/service/chimesdkmeetings/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleconsult/config"
	"teleconsult/infras/chime"
	"teleconsult/infras/otel/mocks"
	"teleconsult/shared/failure"
)

type fakeAPI struct {
	createInput *chimesdkmeetings.CreateMeetingWithAttendeesInput
	createErr   error
	getCalls    atomic.Int32
	getErrs     []error
	deleteErr   error
	attendeeErr error
}

func (f *fakeAPI) CreateMeetingWithAttendees(_ context.Context, in *chimesdkmeetings.CreateMeetingWithAttendeesInput, _ ...func(*chimesdkmeetings.Options)) (*chimesdkmeetings.CreateMeetingWithAttendeesOutput, error) {
	f.createInput = in
	if f.createErr != nil {
		return nil, f.createErr
	}

	return &chimesdkmeetings.CreateMeetingWithAttendeesOutput{
		Meeting: &types.Meeting{
			MeetingId:         sdk.String("m-1"),
			ExternalMeetingId: in.ExternalMeetingId,
			MediaRegion:       in.MediaRegion,
			MediaPlacement:    &types.MediaPlacement{SignalingUrl: sdk.String("wss://signal")},
		},
		Attendees: []types.Attendee{{
			AttendeeId:     sdk.String("a-1"),
			ExternalUserId: in.Attendees[0].ExternalUserId,
			JoinToken:      sdk.String("jt-1"),
		}},
	}, nil
}

func (f *fakeAPI) GetMeeting(_ context.Context, in *chimesdkmeetings.GetMeetingInput, _ ...func(*chimesdkmeetings.Options)) (*chimesdkmeetings.GetMeetingOutput, error) {
	call := int(f.getCalls.Add(1)) - 1
	if call < len(f.getErrs) && f.getErrs[call] != nil {
		return nil, f.getErrs[call]
	}

	return &chimesdkmeetings.GetMeetingOutput{Meeting: &types.Meeting{MeetingId: in.MeetingId}}, nil
}

func (f *fakeAPI) CreateAttendee(_ context.Context, in *chimesdkmeetings.CreateAttendeeInput, _ ...func(*chimesdkmeetings.Options)) (*chimesdkmeetings.CreateAttendeeOutput, error) {
	if f.attendeeErr != nil {
		return nil, f.attendeeErr
	}

	return &chimesdkmeetings.CreateAttendeeOutput{Attendee: &types.Attendee{
		AttendeeId:     sdk.String("a-2"),
		ExternalUserId: in.ExternalUserId,
		JoinToken:      sdk.String("jt-2"),
	}}, nil
}

func (f *fakeAPI) DeleteMeeting(_ context.Context, _ *chimesdkmeetings.DeleteMeetingInput, _ ...func(*chimesdkmeetings.Options)) (*chimesdkmeetings.DeleteMeetingOutput, error) {
	return &chimesdkmeetings.DeleteMeetingOutput{}, f.deleteErr
}

func newBackend(api chime.API) chime.Backend {
	cfg := &config.Config{}
	cfg.External.Chime.MediaRegion = "ap-southeast-1"
	cfg.External.Chime.MaxAttendees = 2
	cfg.Scheduling.ReadRetryAttempts = 3

	return chime.NewWithAPI(api, cfg, mocks.NewOtel())
}

func TestCreateSession(t *testing.T) {
	api := &fakeAPI{}

	session, participant, err := newBackend(api).CreateSession(context.Background(), "ticket-1", "dr@clinic.test")
	require.NoError(t, err)

	assert.Equal(t, "m-1", session.ID)
	assert.Equal(t, "ticket-1", session.ExternalID)
	assert.Equal(t, "wss://signal", session.Placement.SignalingURL)
	assert.Equal(t, "a-1", participant.ID)
	assert.Equal(t, "dr@clinic.test", participant.ExternalUserID)

	assert.Equal(t, "ticket-1", sdk.ToString(api.createInput.ClientRequestToken))
	assert.Equal(t, "ap-southeast-1", sdk.ToString(api.createInput.MediaRegion))
	assert.Equal(t, int32(2), sdk.ToInt32(api.createInput.MeetingFeatures.Attendee.MaxCount))
}

func TestCreateSessionUnavailable(t *testing.T) {
	_, _, err := newBackend(&fakeAPI{createErr: errors.New("throttled")}).CreateSession(context.Background(), "ticket-1", "dr@clinic.test")

	require.Error(t, err)
	assert.True(t, failure.IsRetryable(err))
}

func TestGetSessionRetriesTransientErrors(t *testing.T) {
	api := &fakeAPI{getErrs: []error{errors.New("timeout")}}

	session, err := newBackend(api).GetSession(context.Background(), "m-1")
	require.NoError(t, err)

	assert.Equal(t, "m-1", session.ID)
	assert.Equal(t, int32(2), api.getCalls.Load())
}

func TestGetSessionNotFoundIsPermanent(t *testing.T) {
	api := &fakeAPI{getErrs: []error{&types.NotFoundException{Message: sdk.String("gone")}}}

	_, err := newBackend(api).GetSession(context.Background(), "m-1")

	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, failure.GetCode(err))
	assert.Equal(t, int32(1), api.getCalls.Load())
}

func TestRegisterParticipant(t *testing.T) {
	participant, err := newBackend(&fakeAPI{}).RegisterParticipant(context.Background(), "m-1", "pat@mail.test")
	require.NoError(t, err)

	assert.Equal(t, "a-2", participant.ID)
	assert.Equal(t, "jt-2", participant.JoinToken)

	_, err = newBackend(&fakeAPI{attendeeErr: errors.New("limit")}).RegisterParticipant(context.Background(), "m-1", "x@y.z")
	assert.True(t, failure.IsRetryable(err))
}

func TestRegisterParticipantLongIdentity(t *testing.T) {
	prefix := strings.Repeat("dr.émilie.", 7)
	first := prefix + "one@clinic.test"
	second := prefix + "two@clinic.test"

	backend := newBackend(&fakeAPI{})

	a, err := backend.RegisterParticipant(context.Background(), "m-1", first)
	require.NoError(t, err)
	b, err := backend.RegisterParticipant(context.Background(), "m-1", second)
	require.NoError(t, err)

	for _, id := range []string{a.ExternalUserID, b.ExternalUserID} {
		assert.Len(t, id, 64)
		assert.True(t, utf8.ValidString(id))
	}

	assert.NotEqual(t, a.ExternalUserID, b.ExternalUserID)

	again, err := backend.RegisterParticipant(context.Background(), "m-1", first)
	require.NoError(t, err)
	assert.Equal(t, a.ExternalUserID, again.ExternalUserID)
}

func TestDeleteSession(t *testing.T) {
	assert.NoError(t, newBackend(&fakeAPI{}).DeleteSession(context.Background(), "m-1"))
	assert.NoError(t, newBackend(&fakeAPI{deleteErr: &types.NotFoundException{}}).DeleteSession(context.Background(), "m-1"))

	err := newBackend(&fakeAPI{deleteErr: errors.New("boom")}).DeleteSession(context.Background(), "m-1")
	assert.True(t, failure.IsRetryable(err))
}
