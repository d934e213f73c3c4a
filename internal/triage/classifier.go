package triage

import (
	"errors"
	"fmt"
)

// ErrInvalidClinicalInput is returned when a pain score or symptom flag cannot
// be read as a valid clinical value. Callers must never fall back to zero.
var ErrInvalidClinicalInput = errors.New("invalid clinical input")

// Level is the triage level derived from one follow-up response. It is never
// stored; every read recomputes it.
type Level string

const (
	LevelCritical    Level = "critical"
	LevelMildConcern Level = "mild-concern"
	LevelNormal      Level = "normal"
)

// Levels lists every level from most to least urgent.
var Levels = []Level{LevelCritical, LevelMildConcern, LevelNormal}

// PainThreshold is the highest pain score that does not raise a critical alert.
const PainThreshold = 7

const (
	MinPain = 0
	MaxPain = 10
)

// Rule identifies which classification rule fired.
type Rule string

const (
	RuleSeverePain      Rule = "severe-pain"
	RuleAdverseSymptoms Rule = "adverse-symptoms"
	RuleNoFindings      Rule = "no-findings"
)

// Assessment is the classifier output: the level, the rule that produced it
// and the findings that satisfied the rule.
type Assessment struct {
	Level    Level    `json:"level"`
	Rule     Rule     `json:"rule"`
	Findings []string `json:"findings"`
}

// ParseLevel converts a query value into a Level.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case LevelCritical, LevelMildConcern, LevelNormal:
		return Level(s), nil
	}
	return "", fmt.Errorf("unknown triage level %q", s)
}

// Rank orders levels by urgency; lower is more urgent.
func (l Level) Rank() int {
	switch l {
	case LevelCritical:
		return 0
	case LevelMildConcern:
		return 1
	default:
		return 2
	}
}

// Color is the display colour used by the dashboard for the level.
func (l Level) Color() string {
	switch l {
	case LevelCritical:
		return "red"
	case LevelMildConcern:
		return "yellow"
	default:
		return "green"
	}
}

// Classify evaluates the rules in priority order; the first match wins.
//
//  1. pain at 6h or 24h above PainThreshold -> critical
//  2. nausea, vomiting or drowsiness        -> mild-concern
//  3. otherwise                             -> normal
//
// Severe pain is checked first so that comfort symptoms can never mask it.
func Classify(a Answers) (Assessment, error) {
	if err := a.Validate(); err != nil {
		return Assessment{}, err
	}

	var pain []string
	if a.Pain6h > PainThreshold {
		pain = append(pain, fmt.Sprintf("pain at 6h is %d (> %d)", a.Pain6h, PainThreshold))
	}
	if a.Pain24h > PainThreshold {
		pain = append(pain, fmt.Sprintf("pain at 24h is %d (> %d)", a.Pain24h, PainThreshold))
	}
	if len(pain) > 0 {
		return Assessment{Level: LevelCritical, Rule: RuleSeverePain, Findings: pain}, nil
	}

	var symptoms []string
	if a.Nausea {
		symptoms = append(symptoms, "nausea")
	}
	if a.Vomiting {
		symptoms = append(symptoms, "vomiting")
	}
	if a.Drowsiness {
		symptoms = append(symptoms, "drowsiness")
	}
	if len(symptoms) > 0 {
		return Assessment{Level: LevelMildConcern, Rule: RuleAdverseSymptoms, Findings: symptoms}, nil
	}

	return Assessment{Level: LevelNormal, Rule: RuleNoFindings, Findings: []string{}}, nil
}

// PainAlert reports whether either pain score is above the threshold. The
// dashboard shows it instead of the patient's self-reported flag.
func (a Answers) PainAlert() bool {
	return a.Pain6h > PainThreshold || a.Pain24h > PainThreshold
}
