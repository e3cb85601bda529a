package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"teleconsult/infras/otel"
	"teleconsult/infras/postgres"
	"teleconsult/internal/domains/client/model"
	gDto "teleconsult/shared/dto"
	gRepo "teleconsult/shared/repository"
)

type Client interface {
	Insert(ctx context.Context, model model.Client) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Client, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Client]
}

func New(db *postgres.Connection, otel otel.Otel) Client {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Client](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
