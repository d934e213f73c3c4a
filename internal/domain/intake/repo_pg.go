package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postop/postop/internal/platform/db"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

const patientCols = `id, full_name, national_id, phone, surgery, surgery_date,
	age, sex, weight_kg, height_m, bmi, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var sex *string
	err := row.Scan(&p.ID, &p.FullName, &p.NationalID, &p.Phone, &p.Surgery, &p.SurgeryDate,
		&p.Age, &sex, &p.WeightKg, &p.HeightM, &p.BMI, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if sex != nil {
		s := Sex(*sex)
		p.Sex = &s
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	var sex *string
	if p.Sex != nil {
		s := string(*p.Sex)
		sex = &s
	}
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO patients (full_name, national_id, phone, surgery, surgery_date, age, sex, weight_kg, height_m)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, bmi, created_at`,
		p.FullName, p.NationalID, p.Phone, p.Surgery, p.SurgeryDate, p.Age, sex, p.WeightKg, p.HeightM,
	).Scan(&p.ID, &p.BMI, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: insert patient: %w", ErrStoreWrite, err)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrPatientNotFound, id)
	}
	return p, err
}

func (r *patientRepoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	conn := db.Conn(ctx, r.pool)
	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := conn.Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectPatients(rows)
	return items, total, err
}

func (r *patientRepoPG) ListAll(ctx context.Context) ([]*Patient, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT `+patientCols+` FROM patients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return collectPatients(rows)
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	defer rows.Close()
	var items []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}
