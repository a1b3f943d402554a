// Package queue implements patient admission, per-doctor service windows,
// and the notification cascade that calls the next waiting patient when a
// doctor frees up.
package queue

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/registry"
)

var (
	ErrInvalidAdmission      = errors.New("invalid admission")
	ErrUnknownSpecialization = errors.New("unknown specialization")
	ErrWindowOpen            = errors.New("service window already open")
	ErrVisitNotFound         = errors.New("visit not found")
)

// Visit maps to the visits table. Token is allocated by the database
// sequence on insert: strictly increasing, unique, never reused, even when
// visits are later deleted. WaitingNumber and WaitingTime are snapshots
// frozen at admission; they are never recomputed as the queue drains.
type Visit struct {
	ID             uuid.UUID               `db:"id" json:"id"`
	Name           string                  `db:"name" json:"name"`
	Age            int                     `db:"age" json:"age"`
	Gender         string                  `db:"gender" json:"gender"`
	Mobile         string                  `db:"mobile" json:"mobile,omitempty"`
	Symptom        string                  `db:"symptom" json:"symptom"`
	Specialization registry.Specialization `db:"specialization" json:"specialization"`
	DoctorID       uuid.UUID               `db:"doctor_id" json:"doctor_id"`
	DoctorName     string                  `db:"doctor_name" json:"doctor_name"`
	Token          int                     `db:"token" json:"token"`
	WaitingNumber  int                     `db:"waiting_number" json:"waiting_number"`
	WaitingTime    int                     `db:"waiting_time" json:"waiting_time"`
	Notified       bool                    `db:"notified" json:"notified"`
	Completed      bool                    `db:"completed" json:"completed"`
	CreatedAt      time.Time               `db:"created_at" json:"created_at"`
}
