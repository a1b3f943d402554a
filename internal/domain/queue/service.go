package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/registry"
)

// Classifier maps free-text symptoms to a specialization label.
type Classifier interface {
	Classify(ctx context.Context, symptom string) (string, error)
}

// DoctorFinder resolves a doctor for a specialization. The registry service
// satisfies it.
type DoctorFinder interface {
	FindBySpecialization(ctx context.Context, spec registry.Specialization) (*registry.Doctor, error)
}

// AdmitRequest carries the intake form fields for one admission.
type AdmitRequest struct {
	Name    string `json:"name"`
	Age     int    `json:"age"`
	Gender  string `json:"gender"`
	Mobile  string `json:"mobile"`
	Symptom string `json:"symptom"`
}

type Service struct {
	visits      VisitRepository
	doctors     DoctorFinder
	windows     *ServiceWindows
	classifier  Classifier
	slotMinutes int
	logger      zerolog.Logger

	// admitMu serializes admissions per specialization so the
	// count-insert-start sequence cannot interleave with a sibling.
	admitMu map[registry.Specialization]*sync.Mutex
}

// NewService wires the admission controller and binds the notification
// cascade to the window scheduler.
func NewService(visits VisitRepository, doctors DoctorFinder, windows *ServiceWindows, classifier Classifier, slotMinutes int, logger zerolog.Logger) *Service {
	s := &Service{
		visits:      visits,
		doctors:     doctors,
		windows:     windows,
		classifier:  classifier,
		slotMinutes: slotMinutes,
		logger:      logger,
		admitMu:     make(map[registry.Specialization]*sync.Mutex, len(registry.Specializations)),
	}
	for _, spec := range registry.Specializations {
		s.admitMu[spec] = &sync.Mutex{}
	}
	windows.bindCascade(s.runCascade)
	return s
}

// Admit classifies the symptom, resolves a doctor, and enqueues the visit.
// The token comes from the store's sequence; waiting number and estimated
// wait are frozen from the count observed under the admission lock. The
// first waiting patient for a specialization opens the doctor's service
// window as a side effect.
func (s *Service) Admit(ctx context.Context, req AdmitRequest) (*Visit, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidAdmission)
	}
	if req.Symptom == "" {
		return nil, fmt.Errorf("%w: symptom is required", ErrInvalidAdmission)
	}

	label, err := s.classifier.Classify(ctx, req.Symptom)
	if err != nil {
		return nil, fmt.Errorf("classify symptom: %w", err)
	}
	spec, ok := registry.ParseSpecialization(label)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecialization, label)
	}

	doctor, err := s.doctors.FindBySpecialization(ctx, spec)
	if err != nil {
		return nil, err
	}

	mu := s.admitMu[spec]
	mu.Lock()
	defer mu.Unlock()

	waiting, err := s.visits.CountWaiting(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("count waiting: %w", err)
	}

	v := &Visit{
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		Mobile:         req.Mobile,
		Symptom:        req.Symptom,
		Specialization: spec,
		DoctorID:       doctor.ID,
		DoctorName:     doctor.Name,
		WaitingNumber:  waiting + 1,
		WaitingTime:    waiting * s.slotMinutes,
	}
	if err := s.visits.Insert(ctx, v); err != nil {
		return nil, fmt.Errorf("insert visit: %w", err)
	}

	s.logger.Info().
		Str("visit_id", v.ID.String()).
		Str("specialization", string(spec)).
		Int("token", v.Token).
		Int("queue_position", v.WaitingNumber).
		Msg("patient admitted")

	if waiting == 0 {
		err := s.windows.Start(ctx, doctor.ID, spec)
		if err != nil && !errors.Is(err, ErrWindowOpen) {
			// The admission is already persisted; a failed window start
			// must not lose it.
			s.logger.Error().Err(err).
				Str("doctor_id", doctor.ID.String()).
				Str("specialization", string(spec)).
				Msg("service window start failed after admission")
		}
	}
	return v, nil
}

// NotifyNext marks the longest-waiting unnotified visit for the
// specialization as notified and returns it. An empty queue is a nil, nil
// no-op, never an error.
func (s *Service) NotifyNext(ctx context.Context, spec registry.Specialization) (*Visit, error) {
	v, err := s.visits.OldestUnnotified(ctx, spec)
	if errors.Is(err, ErrVisitNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := s.visits.MarkNotified(ctx, v.ID); err != nil {
		return nil, err
	}
	v.Notified = true
	s.logger.Info().
		Str("visit_id", v.ID.String()).
		Str("patient", v.Name).
		Int("token", v.Token).
		Str("specialization", string(spec)).
		Msg("next patient notified")
	return v, nil
}

// Complete marks a visit as done, removing it from the waiting count.
func (s *Service) Complete(ctx context.Context, visitID uuid.UUID) error {
	return s.visits.MarkCompleted(ctx, visitID)
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.visits.GetByID(ctx, id)
}

func (s *Service) ListVisits(ctx context.Context, spec registry.Specialization, limit, offset int) ([]*Visit, int, error) {
	if spec == "" {
		return s.visits.List(ctx, limit, offset)
	}
	return s.visits.ListBySpecialization(ctx, spec, limit, offset)
}

// WaitingCount reports how many visits for the specialization are not yet
// completed.
func (s *Service) WaitingCount(ctx context.Context, spec registry.Specialization) (int, error) {
	return s.visits.CountWaiting(ctx, spec)
}

// runCascade is the window scheduler's expiry hook. Cascade errors are
// logged, not propagated; the availability flip already happened.
func (s *Service) runCascade(ctx context.Context, spec registry.Specialization) {
	if _, err := s.NotifyNext(ctx, spec); err != nil {
		s.logger.Error().Err(err).
			Str("specialization", string(spec)).
			Msg("notification cascade failed")
	}
}
