package clinic

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	clinics map[uuid.UUID]*Clinic
}

func newMockRepo() *mockRepo {
	return &mockRepo{clinics: make(map[uuid.UUID]*Clinic)}
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Clinic, error) {
	cl, ok := m.clinics[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cl, nil
}

func (m *mockRepo) ListActive(_ context.Context, limit, offset int) ([]*Clinic, int, error) {
	var all []*Clinic
	for _, cl := range m.clinics {
		if cl.IsActive {
			all = append(all, cl)
		}
	}
	if offset >= len(all) {
		return nil, len(all), nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], len(all), nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Clinic, error) {
	var out []*Clinic
	for _, cl := range m.clinics {
		if cl.DoctorID == doctorID {
			out = append(out, cl)
		}
	}
	return out, nil
}

func TestListActive_FiltersInactive(t *testing.T) {
	repo := newMockRepo()
	active := &Clinic{ID: uuid.New(), Name: "City Clinic", IsActive: true}
	repo.clinics[active.ID] = active
	inactive := &Clinic{ID: uuid.New(), Name: "Closed Clinic"}
	repo.clinics[inactive.ID] = inactive

	svc := NewService(repo)
	items, total, err := svc.ListActive(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("expected 1 active clinic, got %d (total %d)", len(items), total)
	}
	if items[0].ID != active.ID {
		t.Error("expected the active clinic to be listed")
	}
}

func TestGetClinic_NotFound(t *testing.T) {
	svc := NewService(newMockRepo())
	_, err := svc.GetClinic(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListByDoctor(t *testing.T) {
	repo := newMockRepo()
	doctorID := uuid.New()
	cl := &Clinic{ID: uuid.New(), Name: "City Clinic", DoctorID: doctorID, IsActive: true}
	repo.clinics[cl.ID] = cl
	other := &Clinic{ID: uuid.New(), Name: "Other Clinic", DoctorID: uuid.New()}
	repo.clinics[other.ID] = other

	svc := NewService(repo)
	items, err := svc.ListByDoctor(context.Background(), doctorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].ID != cl.ID {
		t.Errorf("expected only the doctor's clinic, got %d items", len(items))
	}
}
