package followup

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/postop/postop/internal/triage"
)

func structuredAnswers(pain6h string) string {
	return `{"pain_6h":` + pain6h + `,"pain_24h":2,"pain_over_7":false,"nausea":true,"vomiting":false,` +
		`"drowsiness":false,"extra_medication":false,"woke_from_pain":false,"continue_follow_up":true,` +
		`"satisfaction":" good ","observation":""}`
}

func TestDecodeAnswers(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want6h  int
	}{
		{"positional", `["8","0","sí","no","no","no","no","no","yes","",""]`, false, 8},
		{"structured", structuredAnswers("4"), false, 4},
		{"structured zero pain", structuredAnswers("0"), false, 0},
		{"non-numeric pain", `["bad","0","no","no","no","no","no","no","no","",""]`, true, 0},
		{"too few answers", `["1","2"]`, true, 0},
		{"structured out of range", structuredAnswers("12"), true, 0},
		{"structured string pain", structuredAnswers(`"8"`), true, 0},
		{"structured null pain", structuredAnswers("null"), true, 0},
		{"empty object", `{}`, true, 0},
		{"only a symptom", `{"nausea":true}`, true, 0},
		{"null pain scores", `{"pain_6h":null,"pain_24h":null}`, true, 0},
		{"flags missing", `{"pain_6h":3,"pain_24h":2}`, true, 0},
		{"number array", `[1,2,3]`, true, 0},
		{"scalar", `"yes"`, true, 0},
		{"missing", ``, true, 0},
		{"null", `null`, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := DecodeAnswers(json.RawMessage(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, triage.ErrInvalidClinicalInput) {
					t.Errorf("expected ErrInvalidClinicalInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Pain6h != tt.want6h {
				t.Errorf("expected pain_6h %d, got %d", tt.want6h, a.Pain6h)
			}
		})
	}
}

func TestDecodeAnswers_StructuredNamesMissingFields(t *testing.T) {
	_, err := DecodeAnswers(json.RawMessage(`{"pain_6h":3,"nausea":false}`))
	if !errors.Is(err, triage.ErrInvalidClinicalInput) {
		t.Fatalf("expected ErrInvalidClinicalInput, got %v", err)
	}
	for _, field := range []string{"pain_24h", "vomiting", "continue_follow_up"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("expected %s in %q", field, err.Error())
		}
	}
	if strings.Contains(err.Error(), "nausea") {
		t.Errorf("nausea was answered, got %q", err.Error())
	}
}

func TestDecodeAnswers_StructuredKeepsFreeText(t *testing.T) {
	a, err := DecodeAnswers(json.RawMessage(structuredAnswers("9")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Satisfaction != "good" || a.Observation != nil {
		t.Errorf("unexpected free text %q %v", a.Satisfaction, a.Observation)
	}
	if !a.Nausea || !a.ContinueFollowUp || a.Vomiting {
		t.Errorf("unexpected flags %+v", a)
	}
}

func TestResponse_JSONInlinesAnswers(t *testing.T) {
	r := Response{ID: 1, PatientID: 12, Answers: triage.Answers{Pain6h: 3, Nausea: true}}
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	json.Unmarshal(b, &m)
	if m["pain_6h"] != float64(3) || m["nausea"] != true {
		t.Errorf("expected answers inlined, got %s", b)
	}
}
