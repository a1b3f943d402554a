package intake

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG returns a Postgres-backed intake repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const intakeCols = `id, name, age, gender, mobile, symptom, guidance,
	specialization, doctor_name, photo_id, created_at`

func scanIntake(row pgx.Row) (*Intake, error) {
	var in Intake
	err := row.Scan(&in.ID, &in.Name, &in.Age, &in.Gender, &in.Mobile, &in.Symptom,
		&in.Guidance, &in.Specialization, &in.DoctorName, &in.PhotoID, &in.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrIntakeNotFound
	}
	return &in, err
}

func (r *repoPG) Create(ctx context.Context, in *Intake) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	return r.pool.QueryRow(ctx, `
		INSERT INTO intakes (id, name, age, gender, mobile, symptom, guidance,
			specialization, doctor_name, photo_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at`,
		in.ID, in.Name, in.Age, in.Gender, in.Mobile, in.Symptom, in.Guidance,
		in.Specialization, in.DoctorName, in.PhotoID).
		Scan(&in.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Intake, error) {
	return scanIntake(r.pool.QueryRow(ctx,
		`SELECT `+intakeCols+` FROM intakes WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Intake, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM intakes`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+intakeCols+` FROM intakes ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Intake
	for rows.Next() {
		in, err := scanIntake(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, in)
	}
	return items, total, rows.Err()
}
