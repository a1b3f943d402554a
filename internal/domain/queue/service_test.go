package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/registry"
)

// -- Mock visit repository --

// mockVisitRepo allocates tokens from a monotonic counter, mirroring the
// database sequence.
type mockVisitRepo struct {
	mu        sync.Mutex
	visits    map[uuid.UUID]*Visit
	nextToken int
}

func newMockVisitRepo() *mockVisitRepo {
	return &mockVisitRepo{visits: make(map[uuid.UUID]*Visit)}
}

func (m *mockVisitRepo) Insert(_ context.Context, v *Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	m.nextToken++
	v.Token = m.nextToken
	v.CreatedAt = time.Now()
	cp := *v
	m.visits[v.ID] = &cp
	return nil
}

func (m *mockVisitRepo) GetByID(_ context.Context, id uuid.UUID) (*Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return nil, ErrVisitNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *mockVisitRepo) CountWaiting(_ context.Context, spec registry.Specialization) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.visits {
		if v.Specialization == spec && !v.Completed {
			n++
		}
	}
	return n, nil
}

func (m *mockVisitRepo) OldestUnnotified(_ context.Context, spec registry.Specialization) (*Visit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *Visit
	for _, v := range m.visits {
		if v.Specialization != spec || v.Completed || v.Notified {
			continue
		}
		if best == nil || v.Token < best.Token {
			best = v
		}
	}
	if best == nil {
		return nil, ErrVisitNotFound
	}
	cp := *best
	return &cp, nil
}

func (m *mockVisitRepo) MarkNotified(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return ErrVisitNotFound
	}
	v.Notified = true
	return nil
}

func (m *mockVisitRepo) MarkCompleted(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.visits[id]
	if !ok {
		return ErrVisitNotFound
	}
	v.Completed = true
	return nil
}

func (m *mockVisitRepo) ListBySpecialization(_ context.Context, spec registry.Specialization, limit, offset int) ([]*Visit, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Visit
	for _, v := range m.visits {
		if v.Specialization == spec {
			cp := *v
			result = append(result, &cp)
		}
	}
	return result, len(result), nil
}

func (m *mockVisitRepo) List(_ context.Context, limit, offset int) ([]*Visit, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*Visit
	for _, v := range m.visits {
		cp := *v
		result = append(result, &cp)
	}
	return result, len(result), nil
}

// -- Fakes --

type fakeClassifier struct {
	label string
	err   error
}

func (f *fakeClassifier) Classify(context.Context, string) (string, error) {
	return f.label, f.err
}

type fakeDoctors struct {
	bySpec map[registry.Specialization]*registry.Doctor
}

func (f *fakeDoctors) FindBySpecialization(_ context.Context, spec registry.Specialization) (*registry.Doctor, error) {
	d, ok := f.bySpec[spec]
	if !ok {
		return nil, registry.ErrNoDoctorForSpecialization
	}
	return d, nil
}

type fixture struct {
	svc     *Service
	repo    *mockVisitRepo
	store   *fakeAvailability
	windows *ServiceWindows
	doctor  *registry.Doctor
}

func newFixture(t *testing.T, label string, slot time.Duration) *fixture {
	t.Helper()
	repo := newMockVisitRepo()
	store := newFakeAvailability()
	windows := NewServiceWindows(store, slot, zerolog.Nop())
	doctor := &registry.Doctor{ID: uuid.New(), Name: "Dr. Mehta", Specialization: registry.Cardiology}
	doctors := &fakeDoctors{bySpec: map[registry.Specialization]*registry.Doctor{
		registry.Cardiology: doctor,
	}}
	svc := NewService(repo, doctors, windows, &fakeClassifier{label: label}, 5, zerolog.Nop())
	t.Cleanup(windows.Stop)
	return &fixture{svc: svc, repo: repo, store: store, windows: windows, doctor: doctor}
}

func admitReq(name string) AdmitRequest {
	return AdmitRequest{Name: name, Age: 40, Gender: "F", Mobile: "9000000001", Symptom: "chest pain"}
}

// -- Tests --

func TestAdmit_FirstPatientOpensWindow(t *testing.T) {
	f := newFixture(t, "Cardiology", time.Hour)

	v, err := f.svc.Admit(context.Background(), admitReq("Asha"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Token != 1 {
		t.Errorf("expected token 1, got %d", v.Token)
	}
	if v.WaitingNumber != 1 {
		t.Errorf("expected queue position 1, got %d", v.WaitingNumber)
	}
	if v.WaitingTime != 0 {
		t.Errorf("expected zero wait for first patient, got %d", v.WaitingTime)
	}
	if v.DoctorName != "Dr. Mehta" {
		t.Errorf("expected allocated doctor name, got %s", v.DoctorName)
	}
	if !f.windows.Open(f.doctor.ID) {
		t.Error("expected first admission to open the service window")
	}
	if f.store.get(f.doctor.ID) {
		t.Error("expected doctor unavailable while window is open")
	}
}

func TestAdmit_SecondPatientJoinsQueue(t *testing.T) {
	f := newFixture(t, "Cardiology", time.Hour)
	ctx := context.Background()

	if _, err := f.svc.Admit(ctx, admitReq("Asha")); err != nil {
		t.Fatal(err)
	}
	writesAfterFirst := func() int {
		f.store.mu.Lock()
		defer f.store.mu.Unlock()
		return f.store.writes
	}()

	v, err := f.svc.Admit(ctx, admitReq("Binod"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Token != 2 {
		t.Errorf("expected token 2, got %d", v.Token)
	}
	if v.WaitingNumber != 2 {
		t.Errorf("expected queue position 2, got %d", v.WaitingNumber)
	}
	if v.WaitingTime != 5 {
		t.Errorf("expected 5 minute wait, got %d", v.WaitingTime)
	}

	f.store.mu.Lock()
	writesAfterSecond := f.store.writes
	f.store.mu.Unlock()
	if writesAfterSecond != writesAfterFirst {
		t.Error("second admission must not touch availability")
	}
}

func TestAdmit_FrozenSnapshots(t *testing.T) {
	f := newFixture(t, "Cardiology", time.Hour)
	ctx := context.Background()

	first, err := f.svc.Admit(ctx, admitReq("Asha"))
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Admit(ctx, admitReq("Binod"))
	if err != nil {
		t.Fatal(err)
	}

	// Completing the first visit must not rewrite the second's snapshot.
	if err := f.svc.Complete(ctx, first.ID); err != nil {
		t.Fatal(err)
	}
	stored, err := f.svc.GetVisit(ctx, second.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.WaitingNumber != 2 || stored.WaitingTime != 5 {
		t.Errorf("snapshot changed after queue drain: %+v", stored)
	}
}

func TestAdmit_UnknownSpecialization(t *testing.T) {
	f := newFixture(t, "Dentist", time.Hour)

	_, err := f.svc.Admit(context.Background(), admitReq("Asha"))
	if !errors.Is(err, ErrUnknownSpecialization) {
		t.Fatalf("expected ErrUnknownSpecialization, got %v", err)
	}
	if n, _ := f.repo.CountWaiting(context.Background(), registry.Cardiology); n != 0 {
		t.Error("rejected admission must not persist a visit")
	}
}

func TestAdmit_CaseInsensitiveLabel(t *testing.T) {
	f := newFixture(t, "cardiology", time.Hour)

	v, err := f.svc.Admit(context.Background(), admitReq("Asha"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Specialization != registry.Cardiology {
		t.Errorf("expected canonical Cardiology, got %s", v.Specialization)
	}
}

func TestAdmit_NoDoctorForSpecialization(t *testing.T) {
	f := newFixture(t, "Neurology", time.Hour)

	_, err := f.svc.Admit(context.Background(), admitReq("Asha"))
	if !errors.Is(err, registry.ErrNoDoctorForSpecialization) {
		t.Fatalf("expected ErrNoDoctorForSpecialization, got %v", err)
	}
}

func TestAdmit_Validation(t *testing.T) {
	f := newFixture(t, "Cardiology", time.Hour)
	ctx := context.Background()

	if _, err := f.svc.Admit(ctx, admitReq("")); !errors.Is(err, ErrInvalidAdmission) {
		t.Errorf("expected ErrInvalidAdmission for missing name, got %v", err)
	}
	noSymptom := admitReq("Asha")
	noSymptom.Symptom = ""
	if _, err := f.svc.Admit(ctx, noSymptom); !errors.Is(err, ErrInvalidAdmission) {
		t.Errorf("expected ErrInvalidAdmission for missing symptom, got %v", err)
	}
	if len(f.repo.visits) != 0 {
		t.Error("rejected admission must not persist a visit")
	}
}

func TestAdmit_ClassifierFailure(t *testing.T) {
	repo := newMockVisitRepo()
	store := newFakeAvailability()
	windows := NewServiceWindows(store, time.Hour, zerolog.Nop())
	doctors := &fakeDoctors{bySpec: map[registry.Specialization]*registry.Doctor{}}
	svc := NewService(repo, doctors, windows, &fakeClassifier{err: errors.New("model offline")}, 5, zerolog.Nop())

	if _, err := svc.Admit(context.Background(), admitReq("Asha")); err == nil {
		t.Fatal("expected classifier error to surface")
	}
}

func TestAdmit_ConcurrentSingleWindow(t *testing.T) {
	f := newFixture(t, "Cardiology", time.Hour)
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	visits := make([]*Visit, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := f.svc.Admit(ctx, admitReq(fmt.Sprintf("patient-%d", i)))
			if err != nil {
				t.Errorf("admit %d: %v", i, err)
				return
			}
			visits[i] = v
		}(i)
	}
	wg.Wait()

	seenTokens := make(map[int]bool, n)
	seenPositions := make(map[int]bool, n)
	for i, v := range visits {
		if v == nil {
			t.Fatalf("visit %d missing", i)
		}
		if seenTokens[v.Token] {
			t.Errorf("duplicate token %d", v.Token)
		}
		seenTokens[v.Token] = true
		if seenPositions[v.WaitingNumber] {
			t.Errorf("duplicate queue position %d", v.WaitingNumber)
		}
		seenPositions[v.WaitingNumber] = true
	}

	// Exactly one availability write: the single window start.
	f.store.mu.Lock()
	writes := f.store.writes
	f.store.mu.Unlock()
	if writes != 1 {
		t.Errorf("expected exactly one availability write, got %d", writes)
	}
	if !f.windows.Open(f.doctor.ID) {
		t.Error("expected exactly one open window")
	}
}

func TestNotifyNext_FIFOAndSkipsCompleted(t *testing.T) {
	f := newFixture(t, "Cardiology", time.Hour)
	ctx := context.Background()

	a, _ := f.svc.Admit(ctx, admitReq("Asha"))
	b, _ := f.svc.Admit(ctx, admitReq("Binod"))
	c, _ := f.svc.Admit(ctx, admitReq("Chitra"))

	got, err := f.svc.NotifyNext(ctx, registry.Cardiology)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != a.ID {
		t.Errorf("expected token %d first, got %d", a.Token, got.Token)
	}

	// Completed visits drop out of the cascade.
	if err := f.svc.Complete(ctx, b.ID); err != nil {
		t.Fatal(err)
	}
	got, err = f.svc.NotifyNext(ctx, registry.Cardiology)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != c.ID {
		t.Errorf("expected token %d after skipping completed, got %d", c.Token, got.Token)
	}

	// Everyone notified: the cascade is a no-op, not an error.
	got, err = f.svc.NotifyNext(ctx, registry.Cardiology)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil on empty queue, got %+v", got)
	}
}

func TestNotifyNext_EmptyQueue(t *testing.T) {
	f := newFixture(t, "Cardiology", time.Hour)
	v, err := f.svc.NotifyNext(context.Background(), registry.Cardiology)
	if err != nil {
		t.Fatalf("empty queue must not error: %v", err)
	}
	if v != nil {
		t.Fatalf("expected nil visit, got %+v", v)
	}
}

func TestWindowExpiry_NotifiesNextPatient(t *testing.T) {
	f := newFixture(t, "Cardiology", 15*time.Millisecond)
	ctx := context.Background()

	first, err := f.svc.Admit(ctx, admitReq("Asha"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Admit(ctx, admitReq("Binod")); err != nil {
		t.Fatal(err)
	}

	waitUntil(t, 2*time.Second, func() bool { return f.store.get(f.doctor.ID) })
	waitUntil(t, 2*time.Second, func() bool {
		v, err := f.repo.GetByID(ctx, first.ID)
		return err == nil && v.Notified
	})
}

func TestComplete_UnknownVisit(t *testing.T) {
	f := newFixture(t, "Cardiology", time.Hour)
	if err := f.svc.Complete(context.Background(), uuid.New()); !errors.Is(err, ErrVisitNotFound) {
		t.Fatalf("expected ErrVisitNotFound, got %v", err)
	}
}
