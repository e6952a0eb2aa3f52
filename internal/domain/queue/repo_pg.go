package queue

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/careplus/careplus/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

func (r *repoPG) GetByClinicAndDate(ctx context.Context, clinicID uuid.UUID, date time.Time) (*Queue, error) {
	var q Queue
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, clinic_id, doctor_id, date, start_time, is_active
		FROM queues WHERE clinic_id = $1 AND date = $2`, clinicID, date).
		Scan(&q.ID, &q.ClinicID, &q.DoctorID, &q.Date, &q.StartTime, &q.IsActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQueueNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, queue_id, patient_id, patient_name, appointment_id, position, joined_at, status
		FROM queue_items WHERE queue_id = $1
		ORDER BY status = 'finished', position, joined_at`, q.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it QueueItem
		if err := rows.Scan(&it.ID, &it.QueueID, &it.PatientID, &it.PatientName,
			&it.AppointmentID, &it.Position, &it.JoinedAt, &it.Status); err != nil {
			return nil, err
		}
		q.Items = append(q.Items, &it)
	}
	return &q, rows.Err()
}

func (r *repoPG) Create(ctx context.Context, q *Queue) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	// Lazy creation can race across requests; the unique (clinic, date)
	// constraint makes the loser re-read instead of duplicating the queue.
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO queues (id, clinic_id, doctor_id, date, start_time, is_active)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (clinic_id, date) DO NOTHING`,
		q.ID, q.ClinicID, q.DoctorID, q.Date, q.StartTime, q.IsActive)
	return err
}

func (r *repoPG) AppendItem(ctx context.Context, item *QueueItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO queue_items (id, queue_id, patient_id, patient_name,
			appointment_id, position, joined_at, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		item.ID, item.QueueID, item.PatientID, item.PatientName,
		item.AppointmentID, item.Position, item.JoinedAt, item.Status)
	return err
}

func (r *repoPG) UpdateItems(ctx context.Context, items []*QueueItem) error {
	// Renumbering assigns positions in ascending order, so each update moves
	// an item into a slot already vacated among active items.
	for _, it := range items {
		_, err := r.conn(ctx).Exec(ctx, `
			UPDATE queue_items SET position = $2, status = $3 WHERE id = $1`,
			it.ID, it.Position, it.Status)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Queue, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, clinic_id, doctor_id, date, start_time, is_active
		FROM queues WHERE doctor_id = $1 ORDER BY date DESC`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var queues []*Queue
	for rows.Next() {
		var q Queue
		if err := rows.Scan(&q.ID, &q.ClinicID, &q.DoctorID, &q.Date, &q.StartTime, &q.IsActive); err != nil {
			return nil, err
		}
		queues = append(queues, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, q := range queues {
		items, err := r.itemsFor(ctx, q.ID)
		if err != nil {
			return nil, err
		}
		q.Items = items
	}
	return queues, nil
}

func (r *repoPG) itemsFor(ctx context.Context, queueID uuid.UUID) ([]*QueueItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, queue_id, patient_id, patient_name, appointment_id, position, joined_at, status
		FROM queue_items WHERE queue_id = $1
		ORDER BY status = 'finished', position, joined_at`, queueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*QueueItem
	for rows.Next() {
		var it QueueItem
		if err := rows.Scan(&it.ID, &it.QueueID, &it.PatientID, &it.PatientName,
			&it.AppointmentID, &it.Position, &it.JoinedAt, &it.Status); err != nil {
			return nil, err
		}
		items = append(items, &it)
	}
	return items, rows.Err()
}

func (r *repoPG) History(ctx context.Context, patientID uuid.UUID, limit int) ([]*HistoryEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT c.id, c.name, d.name, q.date, qi.position, qi.joined_at
		FROM queue_items qi
		JOIN queues q ON q.id = qi.queue_id
		JOIN clinics c ON c.id = q.clinic_id
		JOIN doctors d ON d.id = q.doctor_id
		WHERE qi.patient_id = $1 AND qi.status = 'finished'
		ORDER BY qi.joined_at DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []*HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ClinicID, &e.ClinicName, &e.DoctorName, &e.Date, &e.Token, &e.JoinedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
