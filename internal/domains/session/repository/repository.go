package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"

	"github.com/jmoiron/sqlx"

	"teleconsult/infras/otel"
	"teleconsult/infras/postgres"
	"teleconsult/internal/domains/session/model"
	gDto "teleconsult/shared/dto"
	gRepo "teleconsult/shared/repository"
)

type Ticket interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	InsertTx(ctx context.Context, tx *sqlx.Tx, model model.Ticket) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Ticket, error)
	GetTx(ctx context.Context, tx *sqlx.Tx, filter gDto.FilterGroup, forUpdate bool) (model.Ticket, error)
	UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) (int64, error)
	DeleteTx(ctx context.Context, tx *sqlx.Tx, filter gDto.FilterGroup) error
}

type Participant interface {
	Insert(ctx context.Context, model model.Participant) error
	InsertTx(ctx context.Context, tx *sqlx.Tx, model model.Participant) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Participant, error)
}

type Token interface {
	InsertBulkTx(ctx context.Context, tx *sqlx.Tx, models []model.JoinToken) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.JoinToken, error)
}

type ticketRepository struct {
	gRepo.Repository[model.Ticket]
}

func NewTicket(db *postgres.Connection, otel otel.Otel) Ticket {
	return &ticketRepository{
		Repository: gRepo.NewRepository[model.Ticket](model.TicketEntityName, model.TicketTableName, model.FieldID, db, otel),
	}
}

type participantRepository struct {
	gRepo.Repository[model.Participant]
}

func NewParticipant(db *postgres.Connection, otel otel.Otel) Participant {
	return &participantRepository{
		Repository: gRepo.NewRepository[model.Participant](model.ParticipantEntityName, model.ParticipantTableName, model.FieldID, db, otel),
	}
}

type tokenRepository struct {
	gRepo.Repository[model.JoinToken]
}

func NewToken(db *postgres.Connection, otel otel.Otel) Token {
	return &tokenRepository{
		Repository: gRepo.NewRepository[model.JoinToken](model.TokenEntityName, model.TokenTableName, model.FieldID, db, otel),
	}
}
