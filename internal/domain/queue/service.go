package queue

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/careplus/careplus/internal/domain/clinic"
)

// HistoryLimit caps how many finished visits a patient's history shows.
const HistoryLimit = 20

// Clinics resolves the clinic a queue belongs to. *clinic.Service
// satisfies it.
type Clinics interface {
	GetClinic(ctx context.Context, id uuid.UUID) (*clinic.Clinic, error)
}

// TxRunner executes fn within a serializable transaction.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

type Service struct {
	queues  Repository
	clinics Clinics
	runTx   TxRunner
	now     func() time.Time
}

func NewService(queues Repository, clinics Clinics, runTx TxRunner) *Service {
	if runTx == nil {
		runTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
			return fn(ctx)
		}
	}
	return &Service{
		queues:  queues,
		clinics: clinics,
		runTx:   runTx,
		now:     time.Now,
	}
}

// today returns midnight UTC of the current day, the key a day's queue
// lives under.
func (s *Service) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

// TodayQueue is the polling read view: the clinic's queue for today with
// only active items. A day with no queue yet reads as an empty one.
func (s *Service) TodayQueue(ctx context.Context, clinicID uuid.UUID) (*Queue, error) {
	cl, err := s.clinics.GetClinic(ctx, clinicID)
	if err != nil {
		return nil, err
	}

	q, err := s.queues.GetByClinicAndDate(ctx, clinicID, s.today())
	if errors.Is(err, ErrQueueNotFound) {
		return &Queue{
			ClinicID: clinicID,
			DoctorID: cl.DoctorID,
			Date:     s.today(),
		}, nil
	}
	if err != nil {
		return nil, err
	}
	q.Items = q.ActiveItems()
	return q, nil
}

// Join appends a patient to today's queue, creating the queue lazily, and
// returns the item with its assigned token. A patient can hold at most one
// active place per queue.
func (s *Service) Join(ctx context.Context, clinicID, patientID uuid.UUID, patientName string) (*QueueItem, error) {
	var joined *QueueItem
	err := s.runTx(ctx, func(ctx context.Context) error {
		cl, err := s.clinics.GetClinic(ctx, clinicID)
		if err != nil {
			return err
		}

		q, err := s.queues.GetByClinicAndDate(ctx, clinicID, s.today())
		if errors.Is(err, ErrQueueNotFound) {
			q = &Queue{
				ID:        uuid.New(),
				ClinicID:  clinicID,
				DoctorID:  cl.DoctorID,
				Date:      s.today(),
				StartTime: s.now(),
				IsActive:  true,
			}
			if err := s.queues.Create(ctx, q); err != nil {
				return err
			}
			// Re-read in case a concurrent join created it first.
			q, err = s.queues.GetByClinicAndDate(ctx, clinicID, s.today())
			if err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		active := q.ActiveItems()
		for _, it := range active {
			if it.PatientID == patientID {
				return ErrAlreadyInQueue
			}
		}

		item := &QueueItem{
			ID:          uuid.New(),
			QueueID:     q.ID,
			PatientID:   patientID,
			PatientName: patientName,
			Position:    len(active) + 1,
			JoinedAt:    s.now(),
			Status:      StatusWaiting,
		}
		if err := s.queues.AppendItem(ctx, item); err != nil {
			return err
		}
		joined = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return joined, nil
}

// StartConsultation marks a waiting item as in consultation. A missing item
// is an error rather than a silent no-op so the clinic desk notices stale
// screens.
func (s *Service) StartConsultation(ctx context.Context, clinicID, itemID uuid.UUID) (*QueueItem, error) {
	var started *QueueItem
	err := s.runTx(ctx, func(ctx context.Context) error {
		_, item, err := s.findItem(ctx, clinicID, itemID)
		if err != nil {
			return err
		}
		item.Status = StatusInConsultation
		if err := s.queues.UpdateItems(ctx, []*QueueItem{item}); err != nil {
			return err
		}
		started = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

// Finish removes an item from the live queue and renumbers the remaining
// active items 1..N without reordering them. The finished item keeps its
// token for the patient's history.
func (s *Service) Finish(ctx context.Context, clinicID, itemID uuid.UUID) (*Queue, error) {
	var finished *Queue
	err := s.runTx(ctx, func(ctx context.Context) error {
		q, item, err := s.findItem(ctx, clinicID, itemID)
		if err != nil {
			return err
		}

		item.Status = StatusFinished
		changed := []*QueueItem{item}

		remaining := make([]*QueueItem, 0, len(q.Items))
		for _, it := range q.Items {
			if it.Status != StatusFinished {
				remaining = append(remaining, it)
			}
		}
		sort.SliceStable(remaining, func(i, j int) bool {
			return remaining[i].Position < remaining[j].Position
		})
		for i, it := range remaining {
			if it.Position != i+1 {
				it.Position = i + 1
				changed = append(changed, it)
			}
		}

		if err := s.queues.UpdateItems(ctx, changed); err != nil {
			return err
		}
		q.Items = remaining
		finished = q
		return nil
	})
	if err != nil {
		return nil, err
	}
	return finished, nil
}

// History lists the patient's finished queue visits, newest first.
func (s *Service) History(ctx context.Context, patientID uuid.UUID) ([]*HistoryEntry, error) {
	return s.queues.History(ctx, patientID, HistoryLimit)
}

func (s *Service) findItem(ctx context.Context, clinicID, itemID uuid.UUID) (*Queue, *QueueItem, error) {
	q, err := s.queues.GetByClinicAndDate(ctx, clinicID, s.today())
	if errors.Is(err, ErrQueueNotFound) {
		return nil, nil, ErrItemNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	for _, it := range q.Items {
		if it.ID == itemID && it.Status != StatusFinished {
			return q, it, nil
		}
	}
	return nil, nil, ErrItemNotFound
}
