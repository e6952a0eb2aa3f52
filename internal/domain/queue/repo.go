package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	// GetByClinicAndDate loads a queue with all its items, finished ones
	// included. Returns ErrQueueNotFound when no queue exists for the day.
	GetByClinicAndDate(ctx context.Context, clinicID uuid.UUID, date time.Time) (*Queue, error)
	Create(ctx context.Context, q *Queue) error
	AppendItem(ctx context.Context, item *QueueItem) error
	// UpdateItems persists status and position changes for the given items.
	UpdateItems(ctx context.Context, items []*QueueItem) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Queue, error)
	History(ctx context.Context, patientID uuid.UUID, limit int) ([]*HistoryEntry, error)
}
