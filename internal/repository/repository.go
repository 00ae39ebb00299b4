package repository

import (
	"context"
	"database/sql"

	"remo_dashboard/internal/models"
)

// EventRepo is the bounded dashboard activity log.
type EventRepo interface {
	Append(ctx context.Context, e models.DashboardEvent) error
	List(ctx context.Context, q models.EventQuery) ([]models.DashboardEvent, error)
}

type Repository struct {
	EventRepo EventRepo
}

// NewRepository keeps at most maxEvents activity entries.
func NewRepository(db *sql.DB, maxEvents int) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db, maxEvents),
	}
}
