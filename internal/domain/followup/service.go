package followup

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/postop/postop/internal/domain/intake"
	"github.com/postop/postop/internal/triage"
)

// PatientLookup is the part of the patient store the follow-up form needs.
type PatientLookup interface {
	GetByID(ctx context.Context, id int64) (*intake.Patient, error)
}

type Service struct {
	responses ResponseRepository
	patients  PatientLookup
	logger    zerolog.Logger
}

func NewService(responses ResponseRepository, patients PatientLookup, logger zerolog.Logger) *Service {
	return &Service{responses: responses, patients: patients, logger: logger}
}

// Form loads the patient named in a follow-up link.
func (s *Service) Form(ctx context.Context, patientID int64) (*Form, error) {
	p, err := s.patients.GetByID(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return &Form{
		PatientID:   p.ID,
		PatientName: p.FullName,
		Surgery:     p.Surgery,
		Questions:   triage.Questions,
	}, nil
}

// Submit stores one questionnaire for an existing patient. The write is
// attempted once; failures are returned to the caller unchanged.
func (s *Service) Submit(ctx context.Context, patientID int64, answers triage.Answers) (*Submission, error) {
	assessment, err := triage.Classify(answers)
	if err != nil {
		return nil, err
	}
	if _, err := s.patients.GetByID(ctx, patientID); err != nil {
		return nil, err
	}

	resp := &Response{PatientID: patientID, Answers: answers}
	if err := s.responses.Create(ctx, resp); err != nil {
		s.logger.Error().Err(err).Int64("patient_id", patientID).Msg("follow-up submission failed")
		return nil, err
	}

	ev := s.logger.Info()
	if assessment.Level == triage.LevelCritical {
		ev = s.logger.Warn()
	}
	ev.Int64("patient_id", patientID).Int64("response_id", resp.ID).
		Str("level", string(assessment.Level)).Msg("follow-up submitted")
	return &Submission{Response: resp, Assessment: assessment}, nil
}

// SubmitRaw decodes answers in either accepted shape before submitting.
func (s *Service) SubmitRaw(ctx context.Context, patientID int64, raw []byte) (*Submission, error) {
	answers, err := DecodeAnswers(raw)
	if err != nil {
		return nil, err
	}
	return s.Submit(ctx, patientID, answers)
}

func (s *Service) Get(ctx context.Context, id int64) (*Submission, error) {
	resp, err := s.responses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	assessment, err := triage.Classify(resp.Answers)
	if err != nil {
		return nil, err
	}
	return &Submission{Response: resp, Assessment: assessment}, nil
}

func (s *Service) ListPage(ctx context.Context, limit, offset int) ([]*Response, int, error) {
	return s.responses.ListPage(ctx, limit, offset)
}
