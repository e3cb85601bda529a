// Package chime adapts Amazon Chime SDK meetings as the live-session backend.
package chime

//go:generate go run go.uber.org/mock/mockgen -source=./chime.go -destination=./mocks/chime_mock.go -package=mocks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	sdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/chimesdkmeetings"
	"github.com/aws/aws-sdk-go-v2/service/chimesdkmeetings/types"
	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"

	"teleconsult/config"
	"teleconsult/infras/otel"
	"teleconsult/shared/constant"
	"teleconsult/shared/failure"
)

const maxExternalIDLength = 64

var ErrSessionGone = errors.New("session no longer exists on the backend")

// Session describes a live meeting. Clients need the placement URLs to connect media.
type Session struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"external_id"`
	MediaRegion string    `json:"media_region"`
	Placement   Placement `json:"placement"`
}

type Placement struct {
	AudioHostURL     string `json:"audio_host_url"`
	AudioFallbackURL string `json:"audio_fallback_url"`
	SignalingURL     string `json:"signaling_url"`
	EventIngestion   string `json:"event_ingestion_url"`
	ScreenDataURL    string `json:"screen_data_url"`
}

// Participant is a registered attendee. JoinToken is the backend credential, distinct from our meeting token.
type Participant struct {
	ID             string `json:"id"`
	ExternalUserID string `json:"external_user_id"`
	JoinToken      string `json:"join_token"`
}

type Backend interface {
	// CreateSession starts a meeting keyed by externalID and registers the first participant.
	// Repeating it with the same externalID returns the same meeting.
	CreateSession(ctx context.Context, externalID, firstParticipant string) (Session, Participant, error)
	GetSession(ctx context.Context, sessionID string) (Session, error)
	RegisterParticipant(ctx context.Context, sessionID, participant string) (Participant, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// API is the subset of the Chime SDK meetings client in use.
type API interface {
	CreateMeetingWithAttendees(ctx context.Context, params *chimesdkmeetings.CreateMeetingWithAttendeesInput, optFns ...func(*chimesdkmeetings.Options)) (*chimesdkmeetings.CreateMeetingWithAttendeesOutput, error)
	GetMeeting(ctx context.Context, params *chimesdkmeetings.GetMeetingInput, optFns ...func(*chimesdkmeetings.Options)) (*chimesdkmeetings.GetMeetingOutput, error)
	CreateAttendee(ctx context.Context, params *chimesdkmeetings.CreateAttendeeInput, optFns ...func(*chimesdkmeetings.Options)) (*chimesdkmeetings.CreateAttendeeOutput, error)
	DeleteMeeting(ctx context.Context, params *chimesdkmeetings.DeleteMeetingInput, optFns ...func(*chimesdkmeetings.Options)) (*chimesdkmeetings.DeleteMeetingOutput, error)
}

type chimeImpl struct {
	api  API
	cfg  *config.Config
	otel otel.Otel
}

func New(awsCfg sdk.Config, cfg *config.Config, otl otel.Otel) Backend {
	return NewWithAPI(chimesdkmeetings.NewFromConfig(awsCfg), cfg, otl)
}

func NewWithAPI(api API, cfg *config.Config, otl otel.Otel) Backend {
	return &chimeImpl{api: api, cfg: cfg, otel: otl}
}

func (c *chimeImpl) CreateSession(ctx context.Context, externalID, firstParticipant string) (session Session, participant Participant, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelChimeScopeName, constant.OtelChimeScopeName+".CreateSession")
	defer scope.End()
	defer scope.TraceIfError(err)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.BackendTimeout())
	defer cancel()

	input := &chimesdkmeetings.CreateMeetingWithAttendeesInput{
		ClientRequestToken: sdk.String(externalID),
		ExternalMeetingId:  sdk.String(externalID),
		MediaRegion:        sdk.String(c.mediaRegion()),
		Attendees: []types.CreateAttendeeRequestItem{
			{ExternalUserId: sdk.String(externalUserID(firstParticipant))},
		},
	}

	if maxAttendees := c.cfg.External.Chime.MaxAttendees; maxAttendees > 0 {
		input.MeetingFeatures = &types.MeetingFeaturesConfiguration{
			Attendee: &types.AttendeeFeatures{MaxCount: sdk.Int32(maxAttendees)},
		}
	}

	out, err := c.api.CreateMeetingWithAttendees(ctx, input)
	if err != nil {
		log.Error().Err(err).Str("externalID", externalID).Msg("failed to create chime meeting")

		return session, participant, mapError(fmt.Errorf("failed to create session: %w", err))
	}

	if len(out.Errors) > 0 || len(out.Attendees) == 0 {
		err = fmt.Errorf("failed to register first participant: %s", sdk.ToString(firstError(out.Errors)))

		return session, participant, failure.Unavailable(err) //nolint:wrapcheck
	}

	return toSession(out.Meeting), toParticipant(&out.Attendees[0]), nil
}

func (c *chimeImpl) GetSession(ctx context.Context, sessionID string) (session Session, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelChimeScopeName, constant.OtelChimeScopeName+".GetSession")
	defer scope.End()
	defer scope.TraceIfError(err)

	session, err = backoff.Retry(ctx, func() (Session, error) {
		callCtx, cancel := context.WithTimeout(ctx, c.cfg.BackendTimeout())
		defer cancel()

		out, getErr := c.api.GetMeeting(callCtx, &chimesdkmeetings.GetMeetingInput{MeetingId: sdk.String(sessionID)})
		if getErr != nil {
			var notFound *types.NotFoundException
			if errors.As(getErr, &notFound) {
				return Session{}, backoff.Permanent(getErr)
			}

			return Session{}, getErr
		}

		return toSession(out.Meeting), nil
	}, backoff.WithMaxTries(c.cfg.ReadRetryAttempts()))
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("failed to get chime meeting")

		return session, mapError(fmt.Errorf("failed to get session: %w", err))
	}

	return session, nil
}

func (c *chimeImpl) RegisterParticipant(ctx context.Context, sessionID, participant string) (res Participant, err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelChimeScopeName, constant.OtelChimeScopeName+".RegisterParticipant")
	defer scope.End()
	defer scope.TraceIfError(err)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.BackendTimeout())
	defer cancel()

	out, err := c.api.CreateAttendee(ctx, &chimesdkmeetings.CreateAttendeeInput{
		MeetingId:      sdk.String(sessionID),
		ExternalUserId: sdk.String(externalUserID(participant)),
	})
	if err != nil {
		log.Error().Err(err).Str("sessionID", sessionID).Msg("failed to create chime attendee")

		return res, mapError(fmt.Errorf("failed to register participant: %w", err))
	}

	return toParticipant(out.Attendee), nil
}

func (c *chimeImpl) DeleteSession(ctx context.Context, sessionID string) (err error) {
	ctx, scope := c.otel.NewScope(ctx, constant.OtelChimeScopeName, constant.OtelChimeScopeName+".DeleteSession")
	defer scope.End()
	defer scope.TraceIfError(err)

	ctx, cancel := context.WithTimeout(ctx, c.cfg.BackendTimeout())
	defer cancel()

	if _, err = c.api.DeleteMeeting(ctx, &chimesdkmeetings.DeleteMeetingInput{MeetingId: sdk.String(sessionID)}); err != nil {
		var notFound *types.NotFoundException
		if errors.As(err, &notFound) {
			return nil
		}

		log.Error().Err(err).Str("sessionID", sessionID).Msg("failed to delete chime meeting")

		return mapError(fmt.Errorf("failed to delete session: %w", err))
	}

	return nil
}

func (c *chimeImpl) mediaRegion() string {
	if region := c.cfg.External.Chime.MediaRegion; region != "" {
		return region
	}

	if region := c.cfg.External.AWS.Region; region != "" {
		return region
	}

	return "us-east-1"
}

func mapError(err error) error {
	var notFound *types.NotFoundException
	if errors.As(err, &notFound) {
		log.Warn().Err(err).Msg("chime meeting not found")

		return failure.NotFound(ErrSessionGone.Error()) //nolint:wrapcheck
	}

	return failure.Unavailable(err) //nolint:wrapcheck
}

// externalUserID keeps short identities readable. Longer ones are replaced by their
// sha256 digest, which is exactly maxExternalIDLength hex characters.
func externalUserID(identity string) string {
	if len(identity) > maxExternalIDLength {
		sum := sha256.Sum256([]byte(identity))

		return hex.EncodeToString(sum[:])
	}

	return identity
}

func firstError(errs []types.CreateAttendeeError) *string {
	if len(errs) == 0 {
		return sdk.String("no attendee returned")
	}

	return errs[0].ErrorMessage
}

func toSession(meeting *types.Meeting) Session {
	if meeting == nil {
		return Session{}
	}

	session := Session{
		ID:          sdk.ToString(meeting.MeetingId),
		ExternalID:  sdk.ToString(meeting.ExternalMeetingId),
		MediaRegion: sdk.ToString(meeting.MediaRegion),
	}

	if p := meeting.MediaPlacement; p != nil {
		session.Placement = Placement{
			AudioHostURL:     sdk.ToString(p.AudioHostUrl),
			AudioFallbackURL: sdk.ToString(p.AudioFallbackUrl),
			SignalingURL:     sdk.ToString(p.SignalingUrl),
			EventIngestion:   sdk.ToString(p.EventIngestionUrl),
			ScreenDataURL:    sdk.ToString(p.ScreenDataUrl),
		}
	}

	return session
}

func toParticipant(attendee *types.Attendee) Participant {
	if attendee == nil {
		return Participant{}
	}

	return Participant{
		ID:             sdk.ToString(attendee.AttendeeId),
		ExternalUserID: sdk.ToString(attendee.ExternalUserId),
		JoinToken:      sdk.ToString(attendee.JoinToken),
	}
}
