package dashboard

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/postop/postop/internal/domain/followup"
	"github.com/postop/postop/internal/domain/intake"
	"github.com/postop/postop/internal/triage"
)

var (
	ErrConfirmationRequired = errors.New("bulk deletion requires explicit confirmation")
	ErrNoPatientsSelected   = errors.New("no patients selected")
)

const (
	SurgeryPlaceholder = "surgery not registered"
	AgePlaceholder     = "age not registered"
	EmptyObservation   = "–"
)

// Row is one response joined with its patient and classified.
type Row struct {
	Response     *followup.Response `json:"response"`
	Patient      *intake.Patient    `json:"patient"`
	PatientLabel string             `json:"patient_label"`
	Assessment   triage.Assessment  `json:"assessment"`
	LevelColor   string             `json:"level_color"`
	BMIBand      triage.Band        `json:"bmi_band,omitempty"`
	BMIColor     string             `json:"bmi_color,omitempty"`
}

// Query selects a page of the dashboard.
type Query struct {
	Limit  int
	Offset int
	// Level keeps only rows at this level when set.
	Level *triage.Level
	// BySeverity orders rows critical first, keeping submission order within a level.
	BySeverity bool
}

type Page struct {
	Rows    []Row                `json:"rows"`
	Counts  map[triage.Level]int `json:"counts"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
	HasMore bool                 `json:"has_more"`
}

// DeleteRequest selects patients by id; Confirm must be set explicitly.
type DeleteRequest struct {
	IDs     []int64 `json:"ids"`
	Confirm bool    `json:"confirm"`
}

type DeleteResult struct {
	DeletedPatients  int64 `json:"deleted_patients"`
	DeletedResponses int64 `json:"deleted_responses"`
}

// PlaceholderLabel names a response whose patient is missing.
func PlaceholderLabel(patientID int64) string {
	return fmt.Sprintf("unregistered patient #%d", patientID)
}

func (r Row) SurgeryLabel() string {
	if r.Patient == nil || r.Patient.Surgery == "" {
		return SurgeryPlaceholder
	}
	return r.Patient.Surgery
}

func (r Row) AgeLabel() string {
	if r.Patient == nil || r.Patient.Age == nil {
		return AgePlaceholder
	}
	return strconv.Itoa(*r.Patient.Age)
}

func (r Row) ObservationLabel() string {
	if r.Response.Observation == nil || *r.Response.Observation == "" {
		return EmptyObservation
	}
	return *r.Response.Observation
}

// ParseIDs reads a comma separated id list such as "3,7".
func ParseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid patient id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
