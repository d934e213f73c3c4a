package dashboard

import (
	"fmt"
	"sort"

	"github.com/postop/postop/internal/domain/followup"
	"github.com/postop/postop/internal/domain/intake"
	"github.com/postop/postop/internal/triage"
)

// Join pairs every response with its patient by id. It never fails: a
// response whose patient is missing gets a nil Patient and a placeholder
// label. Output order follows responses.
func Join(responses []*followup.Response, patients []*intake.Patient) []Row {
	byID := make(map[int64]*intake.Patient, len(patients))
	for _, p := range patients {
		byID[p.ID] = p
	}

	rows := make([]Row, 0, len(responses))
	for _, resp := range responses {
		row := Row{Response: resp, Patient: byID[resp.PatientID]}
		if row.Patient != nil {
			row.PatientLabel = row.Patient.FullName
			if band, ok := triage.BMIBand(row.Patient.BMI); ok {
				row.BMIBand = band
				row.BMIColor = band.Color()
			}
		} else {
			row.PatientLabel = PlaceholderLabel(resp.PatientID)
		}
		rows = append(rows, row)
	}
	return rows
}

// Assess classifies every row in place.
func Assess(rows []Row) error {
	for i := range rows {
		a, err := triage.Classify(rows[i].Response.Answers)
		if err != nil {
			return fmt.Errorf("response %d: %w", rows[i].Response.ID, err)
		}
		rows[i].Assessment = a
		rows[i].LevelColor = a.Level.Color()
	}
	return nil
}

// CountByLevel reports how many rows fall in each level, zero included.
func CountByLevel(rows []Row) map[triage.Level]int {
	counts := make(map[triage.Level]int, len(triage.Levels))
	for _, l := range triage.Levels {
		counts[l] = 0
	}
	for _, r := range rows {
		counts[r.Assessment.Level]++
	}
	return counts
}

func FilterLevel(rows []Row, level triage.Level) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Assessment.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// SortBySeverity is stable so rows within a level keep submission order.
func SortBySeverity(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Assessment.Level.Rank() < rows[j].Assessment.Level.Rank()
	})
}
