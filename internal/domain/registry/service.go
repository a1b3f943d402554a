package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/auth"
)

// WindowScheduler is the single writer of doctor availability. The queue
// package's service window scheduler implements it; login and logout route
// their availability changes through here so no second writer exists.
type WindowScheduler interface {
	SetAvailable(ctx context.Context, doctorID uuid.UUID, available bool) error
	Cancel(doctorID uuid.UUID) bool
}

type Service struct {
	repo     Repository
	windows  WindowScheduler
	sessions *auth.Sessions
}

func NewService(repo Repository, windows WindowScheduler, sessions *auth.Sessions) *Service {
	return &Service{repo: repo, windows: windows, sessions: sessions}
}

// CreateDoctor registers a new doctor. Used by the seeder and admin routes.
func (s *Service) CreateDoctor(ctx context.Context, d *Doctor) error {
	if d.Name == "" {
		return fmt.Errorf("name is required")
	}
	if d.Password == "" {
		return fmt.Errorf("password is required")
	}
	if _, ok := ParseSpecialization(string(d.Specialization)); !ok {
		return fmt.Errorf("invalid specialization: %s", d.Specialization)
	}
	return s.repo.Create(ctx, d)
}

func (s *Service) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListDoctors(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// FindBySpecialization returns one doctor of the given specialization or
// ErrNoDoctorForSpecialization.
func (s *Service) FindBySpecialization(ctx context.Context, spec Specialization) (*Doctor, error) {
	d, err := s.repo.FirstBySpecialization(ctx, spec)
	if errors.Is(err, ErrDoctorNotFound) {
		return nil, ErrNoDoctorForSpecialization
	}
	return d, err
}

// Login checks the doctor's credential, records the login time, marks the
// doctor available through the window scheduler, and issues a session token.
// Name lookup is case-insensitive. A missing doctor and a wrong password are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, name, password string) (*Doctor, string, error) {
	d, err := s.repo.GetByName(ctx, name)
	if errors.Is(err, ErrDoctorNotFound) {
		return nil, "", ErrBadCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if d.Password != password {
		return nil, "", ErrBadCredentials
	}

	now := time.Now().UTC()
	if err := s.repo.RecordLogin(ctx, d.ID, now); err != nil {
		return nil, "", fmt.Errorf("record login: %w", err)
	}
	if err := s.windows.SetAvailable(ctx, d.ID, true); err != nil {
		return nil, "", fmt.Errorf("mark available: %w", err)
	}

	token, err := s.sessions.Issue(d.ID, d.Name, string(d.Specialization))
	if err != nil {
		return nil, "", err
	}

	d.Available = true
	d.LoginTime = &now
	d.LogoutTime = nil
	return d, token, nil
}

// Logout cancels any open service window for the doctor, records the logout
// time, and marks the doctor unavailable. An explicit logout wins over a
// pending window expiry: the cancelled timer never fires.
func (s *Service) Logout(ctx context.Context, doctorID uuid.UUID) (*Doctor, error) {
	d, err := s.repo.GetByID(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	s.windows.Cancel(d.ID)

	now := time.Now().UTC()
	if err := s.repo.RecordLogout(ctx, d.ID, now); err != nil {
		return nil, fmt.Errorf("record logout: %w", err)
	}
	if err := s.windows.SetAvailable(ctx, d.ID, false); err != nil {
		return nil, fmt.Errorf("mark unavailable: %w", err)
	}

	d.Available = false
	d.LogoutTime = &now
	return d, nil
}
