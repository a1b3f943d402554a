package registry

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/auth"
)

// -- Mock Repository --

type mockDoctorRepo struct {
	doctors map[uuid.UUID]*Doctor
}

func newMockDoctorRepo() *mockDoctorRepo {
	return &mockDoctorRepo{doctors: make(map[uuid.UUID]*Doctor)}
}

func (m *mockDoctorRepo) Create(_ context.Context, d *Doctor) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	d.CreatedAt = time.Now()
	d.UpdatedAt = time.Now()
	m.doctors[d.ID] = d
	return nil
}

func (m *mockDoctorRepo) GetByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockDoctorRepo) GetByName(_ context.Context, name string) (*Doctor, error) {
	for _, d := range m.doctors {
		if strings.EqualFold(d.Name, name) {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (m *mockDoctorRepo) FirstBySpecialization(_ context.Context, spec Specialization) (*Doctor, error) {
	for _, d := range m.doctors {
		if d.Specialization == spec {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (m *mockDoctorRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	d, ok := m.doctors[id]
	if !ok {
		return ErrDoctorNotFound
	}
	d.Available = available
	return nil
}

func (m *mockDoctorRepo) RecordLogin(_ context.Context, id uuid.UUID, at time.Time) error {
	d, ok := m.doctors[id]
	if !ok {
		return ErrDoctorNotFound
	}
	d.LoginTime = &at
	d.LogoutTime = nil
	return nil
}

func (m *mockDoctorRepo) RecordLogout(_ context.Context, id uuid.UUID, at time.Time) error {
	d, ok := m.doctors[id]
	if !ok {
		return ErrDoctorNotFound
	}
	d.LogoutTime = &at
	return nil
}

func (m *mockDoctorRepo) List(_ context.Context, limit, offset int) ([]*Doctor, int, error) {
	var result []*Doctor
	for _, d := range m.doctors {
		result = append(result, d)
	}
	return result, len(result), nil
}

// -- Fake window scheduler --

type fakeWindows struct {
	repo      *mockDoctorRepo
	cancelled []uuid.UUID
}

func (f *fakeWindows) SetAvailable(ctx context.Context, doctorID uuid.UUID, available bool) error {
	return f.repo.SetAvailability(ctx, doctorID, available)
}

func (f *fakeWindows) Cancel(doctorID uuid.UUID) bool {
	f.cancelled = append(f.cancelled, doctorID)
	return true
}

func newTestService() (*Service, *mockDoctorRepo, *fakeWindows) {
	repo := newMockDoctorRepo()
	windows := &fakeWindows{repo: repo}
	sessions := auth.NewSessions([]byte("test-secret"), time.Hour)
	return NewService(repo, windows, sessions), repo, windows
}

func seedDoctor(t *testing.T, repo *mockDoctorRepo, name string, spec Specialization, password string) *Doctor {
	t.Helper()
	d := &Doctor{Name: name, Specialization: spec, Password: password}
	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatal(err)
	}
	return d
}

// -- Tests --

func TestParseSpecialization(t *testing.T) {
	cases := []struct {
		in    string
		want  Specialization
		valid bool
	}{
		{"Cardiology", Cardiology, true},
		{"cardiology", Cardiology, true},
		{" ENT \n", ENT, true},
		{"Gynecology", Gynecology, true},
		{"Dentist", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseSpecialization(tc.in)
		if ok != tc.valid || got != tc.want {
			t.Errorf("ParseSpecialization(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.valid)
		}
	}
}

func TestCreateDoctor_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	if err := svc.CreateDoctor(ctx, &Doctor{Specialization: Cardiology, Password: "x"}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.CreateDoctor(ctx, &Doctor{Name: "Dr. A", Specialization: Cardiology}); err == nil {
		t.Error("expected error for missing password")
	}
	if err := svc.CreateDoctor(ctx, &Doctor{Name: "Dr. A", Specialization: "Dentist", Password: "x"}); err == nil {
		t.Error("expected error for invalid specialization")
	}
	if err := svc.CreateDoctor(ctx, &Doctor{Name: "Dr. A", Specialization: Cardiology, Password: "x"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFindBySpecialization(t *testing.T) {
	svc, repo, _ := newTestService()
	seedDoctor(t, repo, "Dr. Mehta", Cardiology, "pw")

	d, err := svc.FindBySpecialization(context.Background(), Cardiology)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Name != "Dr. Mehta" {
		t.Errorf("expected Dr. Mehta, got %s", d.Name)
	}

	_, err = svc.FindBySpecialization(context.Background(), Neurology)
	if !errors.Is(err, ErrNoDoctorForSpecialization) {
		t.Fatalf("expected ErrNoDoctorForSpecialization, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	svc, repo, _ := newTestService()
	seeded := seedDoctor(t, repo, "Dr. Mehta", Cardiology, "secret")

	d, token, err := svc.Login(context.Background(), "dr. mehta", "secret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Error("expected session token")
	}
	if d.ID != seeded.ID {
		t.Errorf("expected doctor %s, got %s", seeded.ID, d.ID)
	}
	if !d.Available {
		t.Error("expected doctor to be available after login")
	}
	if d.LoginTime == nil {
		t.Error("expected login time to be recorded")
	}

	stored := repo.doctors[seeded.ID]
	if !stored.Available {
		t.Error("expected availability to be persisted")
	}
	if stored.LogoutTime != nil {
		t.Error("expected logout time to be cleared on login")
	}
}

func TestLogin_BadPassword(t *testing.T) {
	svc, repo, _ := newTestService()
	seedDoctor(t, repo, "Dr. Mehta", Cardiology, "secret")

	_, _, err := svc.Login(context.Background(), "Dr. Mehta", "wrong")
	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
}

func TestLogin_UnknownDoctor(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.Login(context.Background(), "Dr. Nobody", "x")
	if !errors.Is(err, ErrBadCredentials) {
		t.Fatalf("expected ErrBadCredentials, got %v", err)
	}
}

func TestLogout_CancelsWindowAndMarksUnavailable(t *testing.T) {
	svc, repo, windows := newTestService()
	seeded := seedDoctor(t, repo, "Dr. Mehta", Cardiology, "secret")
	repo.doctors[seeded.ID].Available = true

	d, err := svc.Logout(context.Background(), seeded.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Available {
		t.Error("expected doctor to be unavailable after logout")
	}
	if d.LogoutTime == nil {
		t.Error("expected logout time to be recorded")
	}
	if len(windows.cancelled) != 1 || windows.cancelled[0] != seeded.ID {
		t.Errorf("expected window cancellation for %s, got %v", seeded.ID, windows.cancelled)
	}
}

func TestLogout_UnknownDoctor(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Logout(context.Background(), uuid.New()); !errors.Is(err, ErrDoctorNotFound) {
		t.Fatalf("expected ErrDoctorNotFound, got %v", err)
	}
}
