package queue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/registry"
)

// AvailabilityStore persists the doctor availability flag. The registry's
// doctor repository satisfies it.
type AvailabilityStore interface {
	SetAvailability(ctx context.Context, id uuid.UUID, available bool) error
}

// availabilityRetries bounds how often an expiry retries the flip back to
// available. A doctor stuck busy blocks every future window start for the
// specialization, so exhausting the retries is logged at error level.
const availabilityRetries = 3

// ServiceWindows owns every doctor availability write in the system. One
// window per doctor at a time: Start rejects a second open window, expiry
// flips the doctor back to available and then runs the notification
// cascade, and Cancel (logout) stops a pending window for good.
//
// All store writes happen under mu, and gen stales an in-flight expiry
// flip: Start, Cancel, and SetAvailable bump the doctor's generation, and
// the expiry re-checks it before each write, so a logout (or a fresh
// window) that races the timer always lands last.
type ServiceWindows struct {
	store  AvailabilityStore
	slot   time.Duration
	logger zerolog.Logger

	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	gen    map[uuid.UUID]uint64

	// cascade is invoked after a successful availability flip on expiry.
	// Bound via bindCascade; nil until then.
	cascade func(ctx context.Context, spec registry.Specialization)
}

// NewServiceWindows builds a scheduler with the given slot duration.
func NewServiceWindows(store AvailabilityStore, slot time.Duration, logger zerolog.Logger) *ServiceWindows {
	return &ServiceWindows{
		store:  store,
		slot:   slot,
		logger: logger,
		timers: make(map[uuid.UUID]*time.Timer),
		gen:    make(map[uuid.UUID]uint64),
	}
}

// bindCascade installs the post-expiry notification hook.
func (w *ServiceWindows) bindCascade(fn func(ctx context.Context, spec registry.Specialization)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cascade = fn
}

// Start opens a service window for the doctor: marks them unavailable and
// arms the slot timer. A doctor with an open window yields ErrWindowOpen
// and no state change.
func (w *ServiceWindows) Start(ctx context.Context, doctorID uuid.UUID, spec registry.Specialization) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, open := w.timers[doctorID]; open {
		return ErrWindowOpen
	}
	w.gen[doctorID]++
	if err := w.store.SetAvailability(ctx, doctorID, false); err != nil {
		return err
	}
	w.timers[doctorID] = time.AfterFunc(w.slot, func() {
		w.expire(doctorID, spec)
	})
	w.logger.Info().
		Str("doctor_id", doctorID.String()).
		Str("specialization", string(spec)).
		Dur("slot", w.slot).
		Msg("service window opened")
	return nil
}

// Cancel stops a pending window without flipping availability; the caller
// decides the doctor's final state. Returns false when no window was open.
// The generation bump also stales an expiry that already fired but has not
// written yet.
func (w *ServiceWindows) Cancel(doctorID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.gen[doctorID]++
	t, open := w.timers[doctorID]
	if !open {
		return false
	}
	t.Stop()
	delete(w.timers, doctorID)
	w.logger.Info().Str("doctor_id", doctorID.String()).Msg("service window cancelled")
	return true
}

// Open reports whether the doctor currently has a window armed.
func (w *ServiceWindows) Open(doctorID uuid.UUID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, open := w.timers[doctorID]
	return open
}

// SetAvailable writes the availability flag directly, without touching any
// window. Login and logout route through here so this scheduler stays the
// single availability writer; the write is serialized against expiry flips
// and stales any that are in flight.
func (w *ServiceWindows) SetAvailable(ctx context.Context, doctorID uuid.UUID, available bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gen[doctorID]++
	return w.store.SetAvailability(ctx, doctorID, available)
}

// Stop cancels every armed window. Used on shutdown.
func (w *ServiceWindows) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, t := range w.timers {
		t.Stop()
		w.gen[id]++
		delete(w.timers, id)
	}
}

// expire runs on the timer goroutine when a slot elapses. The availability
// flip comes first and is retried; the cascade only runs after a successful
// flip and its failure cannot undo it. Each write happens under the mutex
// and is dropped if a Cancel or SetAvailable got there first, so an expiry
// can never resurrect a doctor who logged out mid-flip.
func (w *ServiceWindows) expire(doctorID uuid.UUID, spec registry.Specialization) {
	w.mu.Lock()
	delete(w.timers, doctorID)
	g := w.gen[doctorID]
	cascade := w.cascade
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	for attempt := 1; attempt <= availabilityRetries; attempt++ {
		w.mu.Lock()
		if w.gen[doctorID] != g {
			w.mu.Unlock()
			w.logger.Info().
				Str("doctor_id", doctorID.String()).
				Str("specialization", string(spec)).
				Msg("service window expiry superseded by a direct availability write")
			return
		}
		err = w.store.SetAvailability(ctx, doctorID, true)
		w.mu.Unlock()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	if err != nil {
		w.logger.Error().Err(err).
			Str("doctor_id", doctorID.String()).
			Str("specialization", string(spec)).
			Msg("doctor stuck unavailable after service window expiry")
		return
	}

	w.logger.Info().
		Str("doctor_id", doctorID.String()).
		Str("specialization", string(spec)).
		Msg("service window expired, doctor available")

	if cascade != nil {
		cascade(ctx, spec)
	}
}
