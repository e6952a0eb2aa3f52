package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/careplus/careplus/internal/domain/clinic"
)

// mockRepo is an in-memory Repository keyed by (clinic, date).
type mockRepo struct {
	queues  map[uuid.UUID]*Queue
	history []*HistoryEntry
}

func newMockRepo() *mockRepo {
	return &mockRepo{queues: make(map[uuid.UUID]*Queue)}
}

func (m *mockRepo) GetByClinicAndDate(_ context.Context, clinicID uuid.UUID, date time.Time) (*Queue, error) {
	for _, q := range m.queues {
		if q.ClinicID == clinicID && q.Date.Equal(date) {
			return q, nil
		}
	}
	return nil, ErrQueueNotFound
}

func (m *mockRepo) Create(_ context.Context, q *Queue) error {
	m.queues[q.ID] = q
	return nil
}

func (m *mockRepo) AppendItem(_ context.Context, item *QueueItem) error {
	q, ok := m.queues[item.QueueID]
	if !ok {
		return ErrQueueNotFound
	}
	q.Items = append(q.Items, item)
	return nil
}

func (m *mockRepo) UpdateItems(_ context.Context, _ []*QueueItem) error {
	// Items are shared pointers; mutations are already visible.
	return nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Queue, error) {
	var out []*Queue
	for _, q := range m.queues {
		if q.DoctorID == doctorID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockRepo) History(_ context.Context, patientID uuid.UUID, limit int) ([]*HistoryEntry, error) {
	if len(m.history) > limit {
		return m.history[:limit], nil
	}
	return m.history, nil
}

// mockClinics resolves clinics from a map.
type mockClinics struct {
	clinics map[uuid.UUID]*clinic.Clinic
}

func (m *mockClinics) GetClinic(_ context.Context, id uuid.UUID) (*clinic.Clinic, error) {
	cl, ok := m.clinics[id]
	if !ok {
		return nil, clinic.ErrNotFound
	}
	return cl, nil
}

type fixture struct {
	svc      *Service
	repo     *mockRepo
	clinicID uuid.UUID
	doctorID uuid.UUID
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMockRepo()
	doctorID := uuid.New()
	clinicID := uuid.New()
	clinics := &mockClinics{clinics: map[uuid.UUID]*clinic.Clinic{
		clinicID: {ID: clinicID, Name: "City Clinic", DoctorID: doctorID, IsActive: true},
	}}

	svc := NewService(repo, clinics, nil)
	now := time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	return &fixture{svc: svc, repo: repo, clinicID: clinicID, doctorID: doctorID, now: now}
}

func (f *fixture) join(t *testing.T, name string) *QueueItem {
	t.Helper()
	item, err := f.svc.Join(context.Background(), f.clinicID, uuid.New(), name)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return item
}

func TestJoin_CreatesQueueLazily(t *testing.T) {
	f := newFixture(t)

	item := f.join(t, "Ravi")

	if item.Position != 1 {
		t.Errorf("expected token 1, got %d", item.Position)
	}
	if item.Status != StatusWaiting {
		t.Errorf("expected waiting, got %s", item.Status)
	}
	if len(f.repo.queues) != 1 {
		t.Fatalf("expected 1 queue created, got %d", len(f.repo.queues))
	}
	for _, q := range f.repo.queues {
		if !q.Date.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)) {
			t.Errorf("expected queue dated midnight UTC, got %s", q.Date)
		}
		if !q.IsActive {
			t.Error("expected new queue to be active")
		}
	}
}

func TestJoin_PositionsAreDense(t *testing.T) {
	f := newFixture(t)

	for i := 1; i <= 4; i++ {
		item := f.join(t, "patient")
		if item.Position != i {
			t.Errorf("join %d: expected position %d, got %d", i, i, item.Position)
		}
	}
}

func TestJoin_UnknownClinic(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Join(context.Background(), uuid.New(), uuid.New(), "Ravi")
	if !errors.Is(err, clinic.ErrNotFound) {
		t.Errorf("expected clinic.ErrNotFound, got %v", err)
	}
}

func TestJoin_AlreadyInQueue(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()

	if _, err := f.svc.Join(context.Background(), f.clinicID, patientID, "Ravi"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	_, err := f.svc.Join(context.Background(), f.clinicID, patientID, "Ravi")
	if !errors.Is(err, ErrAlreadyInQueue) {
		t.Errorf("expected ErrAlreadyInQueue, got %v", err)
	}
}

func TestJoin_AllowedAgainAfterFinish(t *testing.T) {
	f := newFixture(t)
	patientID := uuid.New()

	item, err := f.svc.Join(context.Background(), f.clinicID, patientID, "Ravi")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := f.svc.Finish(context.Background(), f.clinicID, item.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}

	again, err := f.svc.Join(context.Background(), f.clinicID, patientID, "Ravi")
	if err != nil {
		t.Fatalf("expected rejoin after finish, got %v", err)
	}
	if again.Position != 1 {
		t.Errorf("expected fresh token 1, got %d", again.Position)
	}
}

func TestStartConsultation_SetsStatus(t *testing.T) {
	f := newFixture(t)
	item := f.join(t, "Ravi")

	got, err := f.svc.StartConsultation(context.Background(), f.clinicID, item.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if got.Status != StatusInConsultation {
		t.Errorf("expected in-consultation, got %s", got.Status)
	}
}

func TestStartConsultation_MissingItem(t *testing.T) {
	f := newFixture(t)
	f.join(t, "Ravi")

	_, err := f.svc.StartConsultation(context.Background(), f.clinicID, uuid.New())
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestStartConsultation_NoQueueYet(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.StartConsultation(context.Background(), f.clinicID, uuid.New())
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestFinish_RenumbersPreservingOrder(t *testing.T) {
	f := newFixture(t)
	first := f.join(t, "first")
	second := f.join(t, "second")
	third := f.join(t, "third")

	// Finish the middle patient; first keeps 1, third moves 3 -> 2.
	q, err := f.svc.Finish(context.Background(), f.clinicID, second.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	if len(q.Items) != 2 {
		t.Fatalf("expected 2 active items, got %d", len(q.Items))
	}
	if q.Items[0].ID != first.ID || q.Items[0].Position != 1 {
		t.Errorf("expected first to keep position 1, got %d", q.Items[0].Position)
	}
	if q.Items[1].ID != third.ID || q.Items[1].Position != 2 {
		t.Errorf("expected third to move to position 2, got %d", q.Items[1].Position)
	}
	if second.Status != StatusFinished {
		t.Errorf("expected finished, got %s", second.Status)
	}
}

func TestFinish_HeadOfQueue(t *testing.T) {
	f := newFixture(t)
	first := f.join(t, "first")
	second := f.join(t, "second")

	q, err := f.svc.Finish(context.Background(), f.clinicID, first.ID)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if len(q.Items) != 1 || q.Items[0].ID != second.ID || q.Items[0].Position != 1 {
		t.Errorf("expected second promoted to position 1")
	}
}

func TestFinish_MissingItem(t *testing.T) {
	f := newFixture(t)
	f.join(t, "Ravi")

	_, err := f.svc.Finish(context.Background(), f.clinicID, uuid.New())
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound, got %v", err)
	}
}

func TestFinish_AlreadyFinishedItem(t *testing.T) {
	f := newFixture(t)
	item := f.join(t, "Ravi")

	if _, err := f.svc.Finish(context.Background(), f.clinicID, item.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}
	_, err := f.svc.Finish(context.Background(), f.clinicID, item.ID)
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("expected ErrItemNotFound for already finished item, got %v", err)
	}
}

func TestTodayQueue_EmptyWhenNoQueue(t *testing.T) {
	f := newFixture(t)

	q, err := f.svc.TodayQueue(context.Background(), f.clinicID)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(q.Items) != 0 {
		t.Errorf("expected empty queue, got %d items", len(q.Items))
	}
	if q.DoctorID != f.doctorID {
		t.Errorf("expected clinic's doctor on the view")
	}
}

func TestTodayQueue_HidesFinished(t *testing.T) {
	f := newFixture(t)
	item := f.join(t, "Ravi")
	f.join(t, "Meera")

	if _, err := f.svc.Finish(context.Background(), f.clinicID, item.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}

	q, err := f.svc.TodayQueue(context.Background(), f.clinicID)
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if len(q.Items) != 1 {
		t.Errorf("expected 1 active item, got %d", len(q.Items))
	}
}

func TestTodayQueue_UnknownClinic(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.TodayQueue(context.Background(), uuid.New())
	if !errors.Is(err, clinic.ErrNotFound) {
		t.Errorf("expected clinic.ErrNotFound, got %v", err)
	}
}

func TestHistory_CapsAtLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 30; i++ {
		f.repo.history = append(f.repo.history, &HistoryEntry{Token: i + 1})
	}

	entries, err := f.svc.History(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != HistoryLimit {
		t.Errorf("expected %d entries, got %d", HistoryLimit, len(entries))
	}
}
