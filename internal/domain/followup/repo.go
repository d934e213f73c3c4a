package followup

import "context"

type ResponseRepository interface {
	Create(ctx context.Context, r *Response) error
	GetByID(ctx context.Context, id int64) (*Response, error)
	// ListPage returns responses newest first together with the total count.
	ListPage(ctx context.Context, limit, offset int) ([]*Response, int, error)
}
