package dashboard

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/postop/postop/internal/domain/followup"
	"github.com/postop/postop/internal/domain/intake"
)

type ResponseLister interface {
	ListPage(ctx context.Context, limit, offset int) ([]*followup.Response, int, error)
}

type PatientLister interface {
	ListAll(ctx context.Context) ([]*intake.Patient, error)
}

type Service struct {
	responses ResponseLister
	patients  PatientLister
	store     DeletionStore
	logger    zerolog.Logger
}

func NewService(responses ResponseLister, patients PatientLister, store DeletionStore, logger zerolog.Logger) *Service {
	return &Service{responses: responses, patients: patients, store: store, logger: logger}
}

// Page reads one page of responses and the patient list concurrently, then
// joins and classifies once both reads are done.
func (s *Service) Page(ctx context.Context, q Query) (*Page, error) {
	var (
		responses []*followup.Response
		total     int
		patients  []*intake.Patient
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		responses, total, err = s.responses.ListPage(gctx, q.Limit, q.Offset)
		if err != nil {
			return fmt.Errorf("read responses: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		patients, err = s.patients.ListAll(gctx)
		if err != nil {
			return fmt.Errorf("read patients: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rows := Join(responses, patients)
	if err := Assess(rows); err != nil {
		return nil, err
	}
	counts := CountByLevel(rows)
	if q.Level != nil {
		rows = FilterLevel(rows, *q.Level)
	}
	if q.BySeverity {
		SortBySeverity(rows)
	}

	return &Page{
		Rows:    rows,
		Counts:  counts,
		Total:   total,
		Limit:   q.Limit,
		Offset:  q.Offset,
		HasMore: q.Offset+q.Limit < total,
	}, nil
}

// DeletePatients removes the selected patients and their responses. Nothing
// is touched unless confirmed is true. Duplicate ids are collapsed.
func (s *Service) DeletePatients(ctx context.Context, ids []int64, confirmed bool) (*DeleteResult, error) {
	if !confirmed {
		return nil, ErrConfirmationRequired
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, ErrNoPatientsSelected
	}

	res, err := s.store.DeletePatients(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Ints64("patient_ids", ids).Msg("bulk deletion failed")
		return nil, err
	}
	s.logger.Info().Ints64("patient_ids", ids).
		Int64("deleted_patients", res.DeletedPatients).
		Int64("deleted_responses", res.DeletedResponses).
		Msg("patients deleted")
	return &res, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
