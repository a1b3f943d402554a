package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/registry"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed visit repository. Tokens come from
// the visit_token_seq default on the token column, so concurrent inserts
// each get a distinct, strictly increasing value.
func NewRepoPG(pool *pgxpool.Pool) VisitRepository { return &repoPG{pool: pool} }

const visitCols = `id, name, age, gender, mobile, symptom, specialization,
	doctor_id, doctor_name, token, waiting_number, waiting_time,
	notified, completed, created_at`

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	err := row.Scan(&v.ID, &v.Name, &v.Age, &v.Gender, &v.Mobile, &v.Symptom,
		&v.Specialization, &v.DoctorID, &v.DoctorName, &v.Token, &v.WaitingNumber,
		&v.WaitingTime, &v.Notified, &v.Completed, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrVisitNotFound
	}
	return &v, err
}

func (r *repoPG) Insert(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO visits (id, name, age, gender, mobile, symptom, specialization,
			doctor_id, doctor_name, waiting_number, waiting_time)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING token, created_at`,
		v.ID, v.Name, v.Age, v.Gender, v.Mobile, v.Symptom, v.Specialization,
		v.DoctorID, v.DoctorName, v.WaitingNumber, v.WaitingTime).
		Scan(&v.Token, &v.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return scanVisit(r.pool.QueryRow(ctx,
		`SELECT `+visitCols+` FROM visits WHERE id = $1`, id))
}

func (r *repoPG) CountWaiting(ctx context.Context, spec registry.Specialization) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM visits WHERE specialization = $1 AND completed = FALSE`, spec).Scan(&n)
	return n, err
}

func (r *repoPG) OldestUnnotified(ctx context.Context, spec registry.Specialization) (*Visit, error) {
	return scanVisit(r.pool.QueryRow(ctx, `
		SELECT `+visitCols+` FROM visits
		WHERE specialization = $1 AND completed = FALSE AND notified = FALSE
		ORDER BY token
		LIMIT 1`, spec))
}

func (r *repoPG) MarkNotified(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE visits SET notified = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVisitNotFound
	}
	return nil
}

func (r *repoPG) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE visits SET completed = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVisitNotFound
	}
	return nil
}

func (r *repoPG) ListBySpecialization(ctx context.Context, spec registry.Specialization, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM visits WHERE specialization = $1`, spec).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+visitCols+` FROM visits WHERE specialization = $1 ORDER BY token LIMIT $2 OFFSET $3`,
		spec, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectVisits(rows, total)
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM visits`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+visitCols+` FROM visits ORDER BY token LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	return collectVisits(rows, total)
}

func collectVisits(rows pgx.Rows, total int) ([]*Visit, int, error) {
	var items []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, v)
	}
	return items, total, rows.Err()
}
