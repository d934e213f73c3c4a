package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/postop/postop/internal/domain/intake"
	"github.com/postop/postop/internal/platform/db"
)

type deletionStorePG struct{ pool *pgxpool.Pool }

func NewDeletionStorePG(pool *pgxpool.Pool) DeletionStore { return &deletionStorePG{pool: pool} }

// DeletePatients removes responses first and then patients inside one
// transaction. The foreign key also cascades, so a response inserted between
// the two statements is removed with its patient.
func (s *deletionStorePG) DeletePatients(ctx context.Context, ids []int64) (DeleteResult, error) {
	var res DeleteResult
	err := db.InTx(ctx, s.pool, func(ctx context.Context) error {
		conn := db.Conn(ctx, s.pool)

		tag, err := conn.Exec(ctx, `DELETE FROM followup_responses WHERE patient_id = ANY($1)`, ids)
		if err != nil {
			return fmt.Errorf("delete responses: %w", err)
		}
		res.DeletedResponses = tag.RowsAffected()

		tag, err = conn.Exec(ctx, `DELETE FROM patients WHERE id = ANY($1)`, ids)
		if err != nil {
			return fmt.Errorf("delete patients: %w", err)
		}
		res.DeletedPatients = tag.RowsAffected()
		return nil
	})
	if err != nil {
		if !errors.Is(err, intake.ErrStoreWrite) {
			err = fmt.Errorf("%w: %w", intake.ErrStoreWrite, err)
		}
		return DeleteResult{}, err
	}
	return res, nil
}
