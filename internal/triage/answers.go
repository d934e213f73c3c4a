package triage

import (
	"fmt"
	"strconv"
	"strings"
)

// Answers holds one normalised questionnaire submission. Pain scores are
// integers in [MinPain, MaxPain] and every symptom is a native bool.
type Answers struct {
	Pain6h           int     `json:"pain_6h"`
	Pain24h          int     `json:"pain_24h"`
	PainOver7        bool    `json:"pain_over_7"`
	Nausea           bool    `json:"nausea"`
	Vomiting         bool    `json:"vomiting"`
	Drowsiness       bool    `json:"drowsiness"`
	ExtraMedication  bool    `json:"extra_medication"`
	WokeFromPain     bool    `json:"woke_from_pain"`
	ContinueFollowUp bool    `json:"continue_follow_up"`
	Satisfaction     string  `json:"satisfaction"`
	Observation      *string `json:"observation,omitempty"`
}

// Question is one entry of the fixed follow-up questionnaire.
type Question struct {
	Index    int    `json:"index"`
	Field    string `json:"field"`
	Text     string `json:"text"`
	Kind     string `json:"kind"`
	Required bool   `json:"required"`
}

const (
	KindPain = "pain"
	KindFlag = "yes-no"
	KindText = "text"
)

// Questions is the ordered questionnaire. Raw submissions are positional and
// must follow this order.
var Questions = []Question{
	{0, "pain_6h", "How much pain did you have 6 hours after surgery? (0-10)", KindPain, true},
	{1, "pain_24h", "How much pain did you have 24 hours after surgery? (0-10)", KindPain, true},
	{2, "pain_over_7", "Did your pain go above 7 points?", KindFlag, true},
	{3, "nausea", "Did you have nausea?", KindFlag, true},
	{4, "vomiting", "Did you vomit?", KindFlag, true},
	{5, "drowsiness", "Did you feel drowsy?", KindFlag, true},
	{6, "extra_medication", "Did you need additional medication?", KindFlag, true},
	{7, "woke_from_pain", "Did pain wake you up?", KindFlag, true},
	{8, "continue_follow_up", "Do you want to continue the follow-up?", KindFlag, true},
	{9, "satisfaction", "How would you rate the care you received?", KindText, false},
	{10, "observation", "Would you like to leave a comment?", KindText, false},
}

// QuestionCount is the number of positional answers in a raw submission.
var QuestionCount = len(Questions)

// Validate checks the numeric ranges. It does not parse anything.
func (a Answers) Validate() error {
	if a.Pain6h < MinPain || a.Pain6h > MaxPain {
		return fmt.Errorf("%w: pain_6h %d outside [%d,%d]", ErrInvalidClinicalInput, a.Pain6h, MinPain, MaxPain)
	}
	if a.Pain24h < MinPain || a.Pain24h > MaxPain {
		return fmt.Errorf("%w: pain_24h %d outside [%d,%d]", ErrInvalidClinicalInput, a.Pain24h, MinPain, MaxPain)
	}
	return nil
}

// Normalize converts the positional string answers of the questionnaire into
// typed Answers. Pain must be a whole number in range and flags must be a
// recognised yes/no word; anything else yields ErrInvalidClinicalInput.
func Normalize(raw []string) (Answers, error) {
	if len(raw) != QuestionCount {
		return Answers{}, fmt.Errorf("%w: expected %d answers, got %d", ErrInvalidClinicalInput, QuestionCount, len(raw))
	}
	for _, q := range Questions {
		if q.Required && strings.TrimSpace(raw[q.Index]) == "" {
			return Answers{}, fmt.Errorf("%w: %s is required", ErrInvalidClinicalInput, q.Field)
		}
	}

	var a Answers
	var err error
	if a.Pain6h, err = ParsePain(raw[0]); err != nil {
		return Answers{}, fmt.Errorf("pain_6h: %w", err)
	}
	if a.Pain24h, err = ParsePain(raw[1]); err != nil {
		return Answers{}, fmt.Errorf("pain_24h: %w", err)
	}

	flags := []*bool{&a.PainOver7, &a.Nausea, &a.Vomiting, &a.Drowsiness,
		&a.ExtraMedication, &a.WokeFromPain, &a.ContinueFollowUp}
	for i, dst := range flags {
		idx := i + 2
		if *dst, err = ParseFlag(raw[idx]); err != nil {
			return Answers{}, fmt.Errorf("%s: %w", Questions[idx].Field, err)
		}
	}

	a.Satisfaction = strings.TrimSpace(raw[9])
	if obs := strings.TrimSpace(raw[10]); obs != "" {
		a.Observation = &obs
	}
	return a, nil
}

// ParsePain reads a pain score. Fractions, words and empty input are rejected.
func ParsePain(s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a whole number", ErrInvalidClinicalInput, s)
	}
	if v < MinPain || v > MaxPain {
		return 0, fmt.Errorf("%w: %d outside [%d,%d]", ErrInvalidClinicalInput, v, MinPain, MaxPain)
	}
	return v, nil
}

var flagWords = map[string]bool{
	"true": true, "yes": true, "y": true, "si": true, "sí": true, "1": true,
	"false": false, "no": false, "n": false, "0": false,
}

// ParseFlag reads a yes/no answer in English or Spanish.
func ParseFlag(s string) (bool, error) {
	v, ok := flagWords[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return false, fmt.Errorf("%w: %q is not a yes/no answer", ErrInvalidClinicalInput, s)
	}
	return v, nil
}
