package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"remo_dashboard/internal/models"
	"remo_dashboard/internal/repository"
)

// Page sizes for the activity log.
const (
	DefaultEventLimit = 50
	MaxEventLimit     = 500
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range: from must not be after to")
	ErrUnknownEventType = errors.New("unknown event type")
	ErrInvalidLimit     = fmt.Errorf("limit must be between 1 and %d", MaxEventLimit)
)

// EventLogService reads the dashboard activity log.
type EventLogService struct {
	repo repository.EventRepo
}

func NewEventLogService(repo repository.EventRepo) *EventLogService {
	return &EventLogService{repo: repo}
}

// List returns the newest events matching q. Type matching ignores case, and
// a zero Limit means DefaultEventLimit.
func (s *EventLogService) List(ctx context.Context, q models.EventQuery) ([]models.DashboardEvent, error) {
	q.Type = strings.ToUpper(strings.TrimSpace(q.Type))
	if q.Type != "" && !models.IsEventType(q.Type) {
		return nil, fmt.Errorf("%w %q", ErrUnknownEventType, q.Type)
	}
	q.Target = strings.TrimSpace(q.Target)
	if !q.From.IsZero() && !q.To.IsZero() && q.From.After(q.To) {
		return nil, ErrInvalidTimeRange
	}
	switch {
	case q.Limit == 0:
		q.Limit = DefaultEventLimit
	case q.Limit < 0 || q.Limit > MaxEventLimit:
		return nil, ErrInvalidLimit
	}

	events, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []models.DashboardEvent{}
	}
	return events, nil
}
