package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"teleconsult/infras/otel"
	"teleconsult/internal/domains/client/model"
	"teleconsult/internal/domains/client/repository"
	"teleconsult/shared/constant"
	gDto "teleconsult/shared/dto"
	"teleconsult/shared/failure"
	gModel "teleconsult/shared/model"
	"teleconsult/shared/timezone"
)

type Contact struct {
	OrgID string
	Name  string
	Email string
	Phone string
}

type Resolver interface {
	// Resolve returns the client registered under (org, email), registering a new one when absent.
	Resolve(ctx context.Context, contact Contact, user string) (model.Client, error)
}

type serviceImpl struct {
	repo repository.Client
	otel otel.Otel
}

func New(repo repository.Client, otel otel.Otel) Resolver {
	return &serviceImpl{
		repo: repo,
		otel: otel,
	}
}

func (s *serviceImpl) Resolve(ctx context.Context, contact Contact, user string) (res model.Client, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".client.Resolve")
	defer scope.End()
	defer scope.TraceIfError(err)

	res, err = s.find(ctx, contact)
	if err != nil || res.ID != constant.Empty {
		return res, err
	}

	now := timezone.Now()
	client := model.Client{
		ID:    uuid.NewString(),
		OrgID: contact.OrgID,
		MRN:   model.NewMRN(),
		Name:  contact.Name,
		Email: contact.Email,
		Phone: contact.Phone,
		Metadata: gModel.Metadata{
			CreatedAt:  now,
			ModifiedAt: now,
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}

	err = s.repo.Insert(ctx, client)
	if err == nil {
		return client, nil
	}

	// a concurrent booking registered the same contact first
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == constant.PqErrorCodeUniqueViolation {
		if res, err = s.find(ctx, contact); err != nil || res.ID != constant.Empty {
			return res, err
		}

		// the collision was on the MRN, not the contact
		err = pqErr
	}

	log.Error().Err(err).Msg("failed to register client")

	return res, fmt.Errorf("failed to register client: %w", failure.Unavailable(err))
}

func (s *serviceImpl) find(ctx context.Context, contact Contact) (model.Client, error) {
	client, err := s.repo.Get(ctx, gDto.And(
		gDto.Filter{Table: model.TableName, Field: model.FieldOrgID, Value: contact.OrgID, Operator: gDto.FilterOperatorEq},
		gDto.Filter{Table: model.TableName, Field: model.FieldEmail, Value: contact.Email, Operator: gDto.FilterOperatorEq},
	))
	if err != nil {
		log.Error().Err(err).Msg("failed to get client")

		return client, fmt.Errorf("failed to get client: %w", failure.Unavailable(err))
	}

	return client, nil
}
