package intake

import (
	"context"

	"github.com/rs/zerolog"
)

type Service struct {
	patients PatientRepository
	links    *LinkBuilder
	logger   zerolog.Logger
}

func NewService(patients PatientRepository, links *LinkBuilder, logger zerolog.Logger) *Service {
	return &Service{patients: patients, links: links, logger: logger}
}

// Register validates the intake form, writes one patient record and returns
// the follow-up link for it. A failed write leaves nothing behind.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*Registration, error) {
	p, err := req.ToPatient()
	if err != nil {
		return nil, err
	}
	if err := s.patients.Create(ctx, p); err != nil {
		s.logger.Error().Err(err).Msg("patient registration failed")
		return nil, err
	}

	link := s.links.For(p.ID)
	s.logger.Info().Int64("patient_id", p.ID).Str("surgery", p.Surgery).Msg("patient registered")
	return &Registration{Patient: p, FollowUpLink: link}, nil
}

func (s *Service) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

func (s *Service) FollowUpLink(id int64) string {
	return s.links.For(id)
}
