package dashboard

import "context"

// DeletionStore removes patients together with every response referencing
// them. Both deletes happen in one transaction or not at all.
type DeletionStore interface {
	DeletePatients(ctx context.Context, ids []int64) (DeleteResult, error)
}
