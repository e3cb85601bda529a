package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"teleconsult/infras/otel"
	"teleconsult/infras/postgres"
	"teleconsult/internal/domains/appointment/model"
	"teleconsult/shared/constant"
	gDto "teleconsult/shared/dto"
	gRepo "teleconsult/shared/repository"
)

type Appointment interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	Insert(ctx context.Context, model model.Appointment) error
	InsertTx(ctx context.Context, tx *sqlx.Tx, model model.Appointment) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Appointment, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Appointment, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
	UpdateTx(ctx context.Context, tx *sqlx.Tx, req map[string]any, filter gDto.FilterGroup) (int64, error)
	DeleteTx(ctx context.Context, tx *sqlx.Tx, filter gDto.FilterGroup) error
	// Overlapping lists live appointments in scope whose stored window collides with window.
	Overlapping(ctx context.Context, window model.Window, scope model.Scope, excludeID string) ([]model.Appointment, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Appointment]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Appointment {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Appointment](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

func (r *repositoryImpl) Overlapping(ctx context.Context, window model.Window, scope model.Scope, excludeID string) ([]model.Appointment, error) {
	ctx, span := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".appointment.Overlapping")
	defer span.End()

	filter := OverlapFilter(window, scope, excludeID)

	params := gDto.QueryParams{SortBy: model.FieldStartTime, SortDir: "ASC"}

	// the conflict check runs under the scope lock and must see the latest bookings
	models, err := r.GetAllPrimary(ctx, params, filter)
	if err != nil {
		span.TraceError(err)

		return nil, fmt.Errorf("failed to query overlapping appointments: %w", err)
	}

	return models, nil
}

// OverlapFilter combines scope, exclusion and the three overlap clauses. Cancelled rows never block a slot.
func OverlapFilter(window model.Window, scope model.Scope, excludeID string) gDto.FilterGroup {
	return gDto.And(
		scope.ScopeFilter(excludeID),
		gDto.Filter{ArgName: "live_status", Table: model.TableName, Field: model.FieldStatus, Value: model.StatusCancelled, Operator: gDto.FilterOperatorNotEq},
		window.OverlapFilter(),
	)
}
