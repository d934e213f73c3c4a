package followup

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postop/postop/internal/domain/intake"
	"github.com/postop/postop/internal/platform/db"
)

const foreignKeyViolation = "23503"

type responseRepoPG struct{ pool *pgxpool.Pool }

func NewResponseRepoPG(pool *pgxpool.Pool) ResponseRepository { return &responseRepoPG{pool: pool} }

const responseCols = `id, patient_id, submitted_at, pain_6h, pain_24h, pain_over_7, nausea,
	vomiting, drowsiness, extra_medication, woke_from_pain, continue_follow_up,
	satisfaction, observation`

func scanResponse(row pgx.Row) (*Response, error) {
	var r Response
	err := row.Scan(&r.ID, &r.PatientID, &r.SubmittedAt, &r.Pain6h, &r.Pain24h, &r.PainOver7,
		&r.Nausea, &r.Vomiting, &r.Drowsiness, &r.ExtraMedication, &r.WokeFromPain,
		&r.ContinueFollowUp, &r.Satisfaction, &r.Observation)
	return &r, err
}

func (r *responseRepoPG) Create(ctx context.Context, resp *Response) error {
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO followup_responses (patient_id, pain_6h, pain_24h, pain_over_7, nausea, vomiting,
			drowsiness, extra_medication, woke_from_pain, continue_follow_up, satisfaction, observation)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, submitted_at`,
		resp.PatientID, resp.Pain6h, resp.Pain24h, resp.PainOver7, resp.Nausea, resp.Vomiting,
		resp.Drowsiness, resp.ExtraMedication, resp.WokeFromPain, resp.ContinueFollowUp,
		resp.Satisfaction, resp.Observation,
	).Scan(&resp.ID, &resp.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return fmt.Errorf("%w: id %d", intake.ErrPatientNotFound, resp.PatientID)
		}
		return fmt.Errorf("%w: insert response: %w", intake.ErrStoreWrite, err)
	}
	return nil
}

func (r *responseRepoPG) GetByID(ctx context.Context, id int64) (*Response, error) {
	resp, err := scanResponse(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+responseCols+` FROM followup_responses WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", ErrResponseNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *responseRepoPG) ListPage(ctx context.Context, limit, offset int) ([]*Response, int, error) {
	conn := db.Conn(ctx, r.pool)

	var total int
	if err := conn.QueryRow(ctx, `SELECT COUNT(*) FROM followup_responses`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count responses: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT `+responseCols+` FROM followup_responses
		ORDER BY submitted_at DESC, id DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close()

	var items []*Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, resp)
	}
	return items, total, rows.Err()
}
