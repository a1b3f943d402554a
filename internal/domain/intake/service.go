package intake

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/akshat933536/Block-e-Tahzeeb/internal/domain/registry"
	"github.com/akshat933536/Block-e-Tahzeeb/internal/platform/blobstore"
)

// Adviser produces patient guidance text for a symptom description.
type Adviser interface {
	Advise(ctx context.Context, symptom string) (string, error)
}

// DoctorFinder resolves a doctor for a specialization. The registry service
// satisfies it.
type DoctorFinder interface {
	FindBySpecialization(ctx context.Context, spec registry.Specialization) (*registry.Doctor, error)
}

// SubmitRequest carries the intake form fields.
type SubmitRequest struct {
	Name    string
	Age     int
	Gender  string
	Mobile  string
	Symptom string
}

// Photo is an optional uploaded image accompanying the submission.
type Photo struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

type Service struct {
	repo    Repository
	doctors DoctorFinder
	adviser Adviser
	photos  blobstore.Store
	logger  zerolog.Logger
}

func NewService(repo Repository, doctors DoctorFinder, adviser Adviser, photos blobstore.Store, logger zerolog.Logger) *Service {
	return &Service{repo: repo, doctors: doctors, adviser: adviser, photos: photos, logger: logger}
}

// Submit runs the intake pipeline: guidance from the model, specialization
// from the guidance text, best-effort doctor lookup, photo storage, and
// persistence. A specialization with no doctor records "Not Available"
// instead of failing.
func (s *Service) Submit(ctx context.Context, req SubmitRequest, photo *Photo) (*Intake, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidIntake)
	}
	if req.Symptom == "" {
		return nil, fmt.Errorf("%w: symptom is required", ErrInvalidIntake)
	}

	guidance, err := s.adviser.Advise(ctx, req.Symptom)
	if err != nil {
		return nil, fmt.Errorf("advise: %w", err)
	}
	spec := SpecializationFromGuidance(guidance)

	doctorName := NoDoctorAssigned
	doctor, err := s.doctors.FindBySpecialization(ctx, spec)
	switch {
	case err == nil:
		doctorName = doctor.Name
	case errors.Is(err, registry.ErrNoDoctorForSpecialization):
		// advisory flow, keep going
	default:
		return nil, err
	}

	var photoID *string
	if photo != nil {
		meta, err := s.photos.Upload(ctx, blobstore.BlobMetadata{
			FileName:    photo.FileName,
			ContentType: photo.ContentType,
		}, photo.Content)
		if err != nil {
			return nil, fmt.Errorf("store photo: %w", err)
		}
		photoID = &meta.ID
	}

	in := &Intake{
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		Mobile:         req.Mobile,
		Symptom:        req.Symptom,
		Guidance:       guidance,
		Specialization: spec,
		DoctorName:     doctorName,
		PhotoID:        photoID,
	}
	if err := s.repo.Create(ctx, in); err != nil {
		return nil, fmt.Errorf("insert intake: %w", err)
	}

	s.logger.Info().
		Str("intake_id", in.ID.String()).
		Str("specialization", string(spec)).
		Str("doctor", doctorName).
		Msg("intake recorded")
	return in, nil
}

func (s *Service) GetIntake(ctx context.Context, id uuid.UUID) (*Intake, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListIntakes(ctx context.Context, limit, offset int) ([]*Intake, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// OpenPhoto streams the stored photo for an intake.
func (s *Service) OpenPhoto(ctx context.Context, id uuid.UUID) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	in, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if in.PhotoID == nil {
		return nil, nil, blobstore.ErrBlobNotFound
	}
	return s.photos.Download(ctx, *in.PhotoID)
}
