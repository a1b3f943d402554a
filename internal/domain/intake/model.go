// Package intake handles the symptom-and-photo intake flow: the patient
// submits a form, the model produces guidance text, and a doctor is
// suggested from the guidance.
package intake

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/registry"
)

var (
	ErrIntakeNotFound = errors.New("intake not found")
	ErrInvalidIntake  = errors.New("invalid intake")
)

// NoDoctorAssigned is stored when no doctor of the derived specialization
// exists. Intake is advisory; a missing doctor does not fail the submission.
const NoDoctorAssigned = "Not Available"

// Intake maps to the intakes table.
type Intake struct {
	ID             uuid.UUID               `db:"id" json:"id"`
	Name           string                  `db:"name" json:"name"`
	Age            int                     `db:"age" json:"age"`
	Gender         string                  `db:"gender" json:"gender"`
	Mobile         string                  `db:"mobile" json:"mobile"`
	Symptom        string                  `db:"symptom" json:"symptom"`
	Guidance       string                  `db:"guidance" json:"guidance"`
	Specialization registry.Specialization `db:"specialization" json:"specialization"`
	DoctorName     string                  `db:"doctor_name" json:"doctor_name"`
	PhotoID        *string                 `db:"photo_id" json:"photo_id,omitempty"`
	CreatedAt      time.Time               `db:"created_at" json:"created_at"`
}

// guidanceKeywords maps substrings of the model's guidance text to the
// closed specialization set. First hit wins; no hit falls back to General.
var guidanceKeywords = []struct {
	keyword string
	spec    registry.Specialization
}{
	{"cardio", registry.Cardiology},
	{"neuro", registry.Neurology},
	{"ortho", registry.Orthopedic},
	{"skin", registry.Dermatology},
	{"derma", registry.Dermatology},
	{"pediatric", registry.Pediatrics},
	{"child specialist", registry.Pediatrics},
	{"gynec", registry.Gynecology},
	{"otolaryng", registry.ENT},
}

// SpecializationFromGuidance derives a specialization from guidance text by
// keyword lookup.
func SpecializationFromGuidance(guidance string) registry.Specialization {
	lower := strings.ToLower(guidance)
	for _, k := range guidanceKeywords {
		if strings.Contains(lower, k.keyword) {
			return k.spec
		}
	}
	return registry.General
}
