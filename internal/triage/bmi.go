package triage

import "math"

// Band is a body-mass-index category. It drives display emphasis only and is
// never an input to Classify.
type Band string

const (
	BandUnderweight Band = "underweight"
	BandNormal      Band = "normal"
	BandOverweight  Band = "overweight"
	BandObese       Band = "obese"
)

// BMIBand maps a BMI to its band. A nil or non-finite BMI has no band.
func BMIBand(bmi *float64) (Band, bool) {
	if bmi == nil || math.IsNaN(*bmi) || math.IsInf(*bmi, 0) {
		return "", false
	}
	switch v := *bmi; {
	case v < 18.5:
		return BandUnderweight, true
	case v < 25:
		return BandNormal, true
	case v < 30:
		return BandOverweight, true
	default:
		return BandObese, true
	}
}

func (b Band) Color() string {
	switch b {
	case BandUnderweight:
		return "blue"
	case BandNormal:
		return "green"
	case BandOverweight:
		return "yellow"
	case BandObese:
		return "red"
	}
	return ""
}

// ComputeBMI returns weight / height² rounded to one decimal, or nil when
// either measurement is missing or not positive.
func ComputeBMI(weightKg, heightM *float64) *float64 {
	if weightKg == nil || heightM == nil || *weightKg <= 0 || *heightM <= 0 {
		return nil
	}
	h := *heightM
	v := math.Round(*weightKg/(h*h)*10) / 10
	return &v
}
