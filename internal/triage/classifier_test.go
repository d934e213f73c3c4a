package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify_SeverePainIsCriticalRegardlessOfSymptoms(t *testing.T) {
	for p6 := MinPain; p6 <= MaxPain; p6++ {
		for p24 := MinPain; p24 <= MaxPain; p24++ {
			if p6 <= PainThreshold && p24 <= PainThreshold {
				continue
			}
			for mask := 0; mask < 8; mask++ {
				a := Answers{
					Pain6h:     p6,
					Pain24h:    p24,
					Nausea:     mask&1 != 0,
					Vomiting:   mask&2 != 0,
					Drowsiness: mask&4 != 0,
				}
				got, err := Classify(a)
				require.NoError(t, err)
				assert.Equal(t, LevelCritical, got.Level, "pain %d/%d symptoms %03b", p6, p24, mask)
				assert.Equal(t, RuleSeverePain, got.Rule)
			}
		}
	}
}

func TestClassify_SymptomsWithoutSeverePainAreMildConcern(t *testing.T) {
	for p6 := MinPain; p6 <= PainThreshold; p6++ {
		for p24 := MinPain; p24 <= PainThreshold; p24++ {
			for mask := 1; mask < 8; mask++ {
				a := Answers{
					Pain6h:     p6,
					Pain24h:    p24,
					Nausea:     mask&1 != 0,
					Vomiting:   mask&2 != 0,
					Drowsiness: mask&4 != 0,
				}
				got, err := Classify(a)
				require.NoError(t, err)
				assert.Equal(t, LevelMildConcern, got.Level)
				assert.Equal(t, RuleAdverseSymptoms, got.Rule)
			}
		}
	}
}

func TestClassify_NoFindingsIsNormal(t *testing.T) {
	for p6 := MinPain; p6 <= PainThreshold; p6++ {
		for p24 := MinPain; p24 <= PainThreshold; p24++ {
			got, err := Classify(Answers{Pain6h: p6, Pain24h: p24})
			require.NoError(t, err)
			assert.Equal(t, LevelNormal, got.Level)
			assert.Empty(t, got.Findings)
		}
	}
}

func TestClassify_Examples(t *testing.T) {
	tests := []struct {
		name string
		in   Answers
		want Level
	}{
		{"pain 8 at 6h, no symptoms", Answers{Pain6h: 8}, LevelCritical},
		{"pain 3 with nausea", Answers{Pain6h: 3, Pain24h: 3, Nausea: true}, LevelMildConcern},
		{"pain 0 and 2, nothing else", Answers{Pain6h: 0, Pain24h: 2}, LevelNormal},
		{"pain 9 with vomiting", Answers{Pain6h: 9, Vomiting: true}, LevelCritical},
		{"threshold itself is not critical", Answers{Pain6h: 7, Pain24h: 7}, LevelNormal},
		{"late pain only", Answers{Pain6h: 2, Pain24h: 10}, LevelCritical},
		{"extra medication alone is not a symptom", Answers{ExtraMedication: true, WokeFromPain: true}, LevelNormal},
		{"self-reported flag is not used", Answers{Pain6h: 5, Pain24h: 5, PainOver7: true}, LevelNormal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Level)
		})
	}
}

func TestClassify_FindingsNameTheRule(t *testing.T) {
	got, err := Classify(Answers{Pain6h: 9, Pain24h: 8, Nausea: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"pain at 6h is 9 (> 7)", "pain at 24h is 8 (> 7)"}, got.Findings)

	got, err = Classify(Answers{Vomiting: true, Drowsiness: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"vomiting", "drowsiness"}, got.Findings)
}

func TestClassify_RejectsOutOfRangePain(t *testing.T) {
	for _, a := range []Answers{
		{Pain6h: -1},
		{Pain6h: 11},
		{Pain24h: -3},
		{Pain24h: 42},
	} {
		_, err := Classify(a)
		assert.ErrorIs(t, err, ErrInvalidClinicalInput)
	}
}

func TestParseLevel(t *testing.T) {
	for _, l := range Levels {
		got, err := ParseLevel(string(l))
		require.NoError(t, err)
		assert.Equal(t, l, got)
	}
	_, err := ParseLevel("urgent")
	assert.Error(t, err)
}

func TestLevel_RankAndColor(t *testing.T) {
	assert.Less(t, LevelCritical.Rank(), LevelMildConcern.Rank())
	assert.Less(t, LevelMildConcern.Rank(), LevelNormal.Rank())
	assert.Equal(t, "red", LevelCritical.Color())
	assert.Equal(t, "yellow", LevelMildConcern.Color())
	assert.Equal(t, "green", LevelNormal.Color())
}
