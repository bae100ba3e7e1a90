package service

import (
	"context"

	"github.com/iliyamo/library-seat-reservation/internal/model"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
)

// PolicyService manages the runtime booking policy.  The settings row is a
// singleton; Get lazily creates it with defaults, and Update replaces every
// field after bounds validation so a partially valid policy never lands in
// the database.
type PolicyService interface {
	Get(ctx context.Context) (model.LibrarySettings, error)
	Update(ctx context.Context, in model.LibrarySettings) (model.LibrarySettings, error)
}

type policyService struct {
	settings *repository.SettingsRepo
}

// NewPolicyService returns the production PolicyService.
func NewPolicyService(settings *repository.SettingsRepo) PolicyService {
	return &policyService{settings: settings}
}

func (s *policyService) Get(ctx context.Context) (model.LibrarySettings, error) {
	return s.settings.Get(ctx)
}

// Update validates the incoming policy against the documented bounds and
// overwrites the singleton row.  Validation failures surface as
// *model.PolicyError so the handler can report the offending field.
func (s *policyService) Update(ctx context.Context, in model.LibrarySettings) (model.LibrarySettings, error) {
	if err := in.Validate(); err != nil {
		return model.LibrarySettings{}, err
	}
	current, err := s.settings.Get(ctx)
	if err != nil {
		return model.LibrarySettings{}, err
	}
	in.ID = current.ID
	if err := s.settings.Update(ctx, in); err != nil {
		return model.LibrarySettings{}, err
	}
	return in, nil
}
