package followup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/postop/postop/internal/triage"
)

var ErrResponseNotFound = errors.New("response not found")

// Response maps to the followup_responses table. Answers are stored in
// native columns and are immutable once written.
type Response struct {
	ID          int64     `db:"id" json:"id"`
	PatientID   int64     `db:"patient_id" json:"patient_id"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
	triage.Answers
}

// SubmitRequest is the body accepted by the submission endpoint.
type SubmitRequest struct {
	PatientID int64           `json:"patientId"`
	Answers   json.RawMessage `json:"answers"`
}

// FormSubmission is the body posted by the public follow-up form.
type FormSubmission struct {
	Answers json.RawMessage `json:"answers"`
}

// Submission is a stored response together with its triage assessment.
type Submission struct {
	Response   *Response         `json:"response"`
	Assessment triage.Assessment `json:"assessment"`
}

// Form is what a patient sees when opening the follow-up link.
type Form struct {
	PatientID   int64             `json:"patient_id"`
	PatientName string            `json:"patient_name"`
	Surgery     string            `json:"surgery"`
	Questions   []triage.Question `json:"questions"`
}

// DecodeAnswers accepts either the ordered array of string answers or an
// object with typed fields.
func DecodeAnswers(raw json.RawMessage) (triage.Answers, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return triage.Answers{}, fmt.Errorf("%w: answers are required", triage.ErrInvalidClinicalInput)
	}

	switch trimmed[0] {
	case '[':
		var positional []string
		if err := json.Unmarshal(trimmed, &positional); err != nil {
			return triage.Answers{}, fmt.Errorf("%w: answers must be strings: %v", triage.ErrInvalidClinicalInput, err)
		}
		return triage.Normalize(positional)
	case '{':
		var w answersObject
		if err := json.Unmarshal(trimmed, &w); err != nil {
			return triage.Answers{}, fmt.Errorf("%w: %v", triage.ErrInvalidClinicalInput, err)
		}
		return w.toAnswers()
	}
	return triage.Answers{}, fmt.Errorf("%w: answers must be an array or an object", triage.ErrInvalidClinicalInput)
}

// answersObject is the structured form of a submission. Required answers are
// pointers so an absent or null value is told apart from 0 or false.
type answersObject struct {
	Pain6h           *int    `json:"pain_6h"`
	Pain24h          *int    `json:"pain_24h"`
	PainOver7        *bool   `json:"pain_over_7"`
	Nausea           *bool   `json:"nausea"`
	Vomiting         *bool   `json:"vomiting"`
	Drowsiness       *bool   `json:"drowsiness"`
	ExtraMedication  *bool   `json:"extra_medication"`
	WokeFromPain     *bool   `json:"woke_from_pain"`
	ContinueFollowUp *bool   `json:"continue_follow_up"`
	Satisfaction     string  `json:"satisfaction"`
	Observation      *string `json:"observation"`
}

func (w answersObject) toAnswers() (triage.Answers, error) {
	var missing []string
	for _, f := range []struct {
		field string
		set   bool
	}{
		{"pain_6h", w.Pain6h != nil},
		{"pain_24h", w.Pain24h != nil},
		{"pain_over_7", w.PainOver7 != nil},
		{"nausea", w.Nausea != nil},
		{"vomiting", w.Vomiting != nil},
		{"drowsiness", w.Drowsiness != nil},
		{"extra_medication", w.ExtraMedication != nil},
		{"woke_from_pain", w.WokeFromPain != nil},
		{"continue_follow_up", w.ContinueFollowUp != nil},
	} {
		if !f.set {
			missing = append(missing, f.field)
		}
	}
	if len(missing) > 0 {
		return triage.Answers{}, fmt.Errorf("%w: %s required", triage.ErrInvalidClinicalInput, strings.Join(missing, ", "))
	}

	a := triage.Answers{
		Pain6h:           *w.Pain6h,
		Pain24h:          *w.Pain24h,
		PainOver7:        *w.PainOver7,
		Nausea:           *w.Nausea,
		Vomiting:         *w.Vomiting,
		Drowsiness:       *w.Drowsiness,
		ExtraMedication:  *w.ExtraMedication,
		WokeFromPain:     *w.WokeFromPain,
		ContinueFollowUp: *w.ContinueFollowUp,
		Satisfaction:     strings.TrimSpace(w.Satisfaction),
	}
	if w.Observation != nil {
		if obs := strings.TrimSpace(*w.Observation); obs != "" {
			a.Observation = &obs
		}
	}
	if err := a.Validate(); err != nil {
		return triage.Answers{}, err
	}
	return a, nil
}
