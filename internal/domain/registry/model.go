// Package registry manages the doctor roster: the closed specialization
// set, doctor records, and doctor login sessions.
package registry

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound            = errors.New("doctor not found")
	ErrNoDoctorForSpecialization = errors.New("no doctor for specialization")
	ErrBadCredentials            = errors.New("bad credentials")
)

// Specialization is one of the closed set of clinic departments. Values
// outside the set are rejected at parse time, never defaulted.
type Specialization string

const (
	Cardiology  Specialization = "Cardiology"
	Neurology   Specialization = "Neurology"
	Orthopedic  Specialization = "Orthopedic"
	Dermatology Specialization = "Dermatology"
	Pediatrics  Specialization = "Pediatrics"
	General     Specialization = "General"
	ENT         Specialization = "ENT"
	Gynecology  Specialization = "Gynecology"
)

// Specializations lists every valid specialization.
var Specializations = []Specialization{
	Cardiology, Neurology, Orthopedic, Dermatology,
	Pediatrics, General, ENT, Gynecology,
}

// ParseSpecialization resolves a label to its canonical specialization,
// ignoring case and surrounding whitespace.
func ParseSpecialization(label string) (Specialization, bool) {
	trimmed := strings.TrimSpace(label)
	for _, s := range Specializations {
		if strings.EqualFold(trimmed, string(s)) {
			return s, true
		}
	}
	return "", false
}

// Doctor maps to the doctors table. Available is never written directly by
// this package; all availability changes route through the service window
// scheduler, its single owner.
type Doctor struct {
	ID             uuid.UUID      `db:"id" json:"id"`
	Name           string         `db:"name" json:"name"`
	Specialization Specialization `db:"specialization" json:"specialization"`
	Available      bool           `db:"available" json:"available"`
	Password       string         `db:"password" json:"-"`
	LoginTime      *time.Time     `db:"login_time" json:"login_time,omitempty"`
	LogoutTime     *time.Time     `db:"logout_time" json:"logout_time,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}
