package intake

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrPatientNotFound = errors.New("patient not found")
	// ErrStoreWrite wraps any driver error raised while inserting or deleting.
	ErrStoreWrite = errors.New("store write failed")
)

type Sex string

const (
	SexMale        Sex = "male"
	SexFemale      Sex = "female"
	SexOther       Sex = "other"
	SexUnspecified Sex = "unspecified"
)

var sexAliases = map[string]Sex{
	"male": SexMale, "m": SexMale, "masculino": SexMale, "hombre": SexMale,
	"female": SexFemale, "f": SexFemale, "femenino": SexFemale, "mujer": SexFemale,
	"other": SexOther, "otro": SexOther,
	"unspecified": SexUnspecified, "": SexUnspecified,
}

func ParseSex(s string) (Sex, error) {
	sex, ok := sexAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: unknown sex %q", ErrValidation, s)
	}
	return sex, nil
}

// Patient maps to the patients table. BMI is derived by the store from
// WeightKg and HeightM and is nil whenever either is nil.
type Patient struct {
	ID          int64     `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	NationalID  string    `db:"national_id" json:"national_id"`
	Phone       string    `db:"phone" json:"phone"`
	Surgery     string    `db:"surgery" json:"surgery"`
	SurgeryDate time.Time `db:"surgery_date" json:"surgery_date"`
	Age         *int      `db:"age" json:"age,omitempty"`
	Sex         *Sex      `db:"sex" json:"sex,omitempty"`
	WeightKg    *float64  `db:"weight_kg" json:"weight_kg,omitempty"`
	HeightM     *float64  `db:"height_m" json:"height_m,omitempty"`
	BMI         *float64  `db:"bmi" json:"bmi,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// RegisterRequest is the intake form as submitted by staff.
type RegisterRequest struct {
	FullName    string   `json:"full_name"`
	NationalID  string   `json:"national_id"`
	Phone       string   `json:"phone"`
	Surgery     string   `json:"surgery"`
	SurgeryDate string   `json:"surgery_date"`
	Age         *int     `json:"age,omitempty"`
	Sex         *string  `json:"sex,omitempty"`
	WeightKg    *float64 `json:"weight_kg,omitempty"`
	HeightM     *float64 `json:"height_m,omitempty"`
}

// Registration is returned after a successful intake.
type Registration struct {
	Patient      *Patient `json:"patient"`
	FollowUpLink string   `json:"followup_link"`
}

var surgeryDateLayouts = []string{"02/01/2006", "2/1/2006", "2006-01-02"}

// ParseSurgeryDate accepts dd/mm/yyyy as typed on the intake form or an ISO date.
func ParseSurgeryDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range surgeryDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: surgery_date %q is not dd/mm/yyyy", ErrValidation, s)
}

// ToPatient applies the presence checks and builds the record to insert.
func (r RegisterRequest) ToPatient() (*Patient, error) {
	required := []struct{ field, value string }{
		{"full_name", r.FullName},
		{"national_id", r.NationalID},
		{"phone", r.Phone},
		{"surgery", r.Surgery},
		{"surgery_date", r.SurgeryDate},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return nil, fmt.Errorf("%w: %s is required", ErrValidation, f.field)
		}
	}

	date, err := ParseSurgeryDate(r.SurgeryDate)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		FullName:    strings.TrimSpace(r.FullName),
		NationalID:  strings.TrimSpace(r.NationalID),
		Phone:       strings.TrimSpace(r.Phone),
		Surgery:     strings.TrimSpace(r.Surgery),
		SurgeryDate: date,
		Age:         r.Age,
		WeightKg:    r.WeightKg,
		HeightM:     r.HeightM,
	}
	if p.Age != nil && (*p.Age < 0 || *p.Age > 130) {
		return nil, fmt.Errorf("%w: age %d out of range", ErrValidation, *p.Age)
	}
	if p.WeightKg != nil && *p.WeightKg <= 0 {
		return nil, fmt.Errorf("%w: weight_kg must be positive", ErrValidation)
	}
	if p.HeightM != nil && *p.HeightM <= 0 {
		return nil, fmt.Errorf("%w: height_m must be positive", ErrValidation)
	}
	if r.Sex != nil {
		sex, err := ParseSex(*r.Sex)
		if err != nil {
			return nil, err
		}
		p.Sex = &sex
	}
	return p, nil
}
