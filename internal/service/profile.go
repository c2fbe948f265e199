package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taponn/taponn-api/internal/core"
	"github.com/taponn/taponn-api/internal/domain/model"
	apperrors "github.com/taponn/taponn-api/internal/errors"
)

// ProfileServiceOptions groups dependencies for ProfileService.
type ProfileServiceOptions struct {
	Profiles core.ProfileRepository // Required
	Logger   *slog.Logger
}

// ProfileService provides business logic for card profiles: owner-scoped
// CRUD plus the public username lookup behind shared card links.
type ProfileService struct {
	profiles core.ProfileRepository
	logger   *slog.Logger
}

// NewProfileService constructs a new ProfileService.
func NewProfileService(opts ProfileServiceOptions) (*ProfileService, error) {
	if opts.Profiles == nil {
		return nil, errors.New("ProfileRepository is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ProfileService{
		profiles: opts.Profiles,
		logger:   opts.Logger.With("component", "profile_service"),
	}, nil
}

// Create creates a profile owned by the requesting user.
func (s *ProfileService) Create(ctx context.Context, userID string, req *model.CreateProfileRequest) (*model.Profile, error) {
	if req == nil {
		return nil, errors.New("create profile request is required")
	}
	req.UserID = userID

	profile, err := s.profiles.Create(ctx, req)
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.Conflict("This username is already taken")
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.logger.InfoContext(ctx, "profile created", "profile_id", profile.ID, "user_id", userID)
	return profile, nil
}

// Get retrieves a profile the user owns.
func (s *ProfileService) Get(ctx context.Context, userID, id string) (*model.Profile, error) {
	return s.getOwned(ctx, userID, id)
}

// GetPublic retrieves a public profile by its card username. Private
// profiles are indistinguishable from missing ones.
func (s *ProfileService) GetPublic(ctx context.Context, username string) (*model.Profile, error) {
	return s.profiles.GetByUsername(ctx, username)
}

// List returns all profiles owned by the user.
func (s *ProfileService) List(ctx context.Context, userID string) ([]*model.Profile, error) {
	return s.profiles.ListByUser(ctx, userID)
}

// Update applies a partial patch to a profile the user owns.
func (s *ProfileService) Update(ctx context.Context, userID, id string, req model.UpdateProfileRequest) (*model.Profile, error) {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return nil, err
	}
	profile, err := s.profiles.Update(ctx, id, req)
	if err != nil {
		if apperrors.IsConflict(err) {
			return nil, apperrors.Conflict("This username is already taken")
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// Delete removes a profile the user owns. Deleting a missing profile
// reports not found rather than success.
func (s *ProfileService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	ok, err := s.profiles.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if !ok {
		return apperrors.NotFound("Profile not found")
	}
	s.logger.InfoContext(ctx, "profile deleted", "profile_id", id, "user_id", userID)
	return nil
}

// getOwned fetches a profile and hides records the user does not own
// behind the same not-found error as truly missing ones.
func (s *ProfileService) getOwned(ctx context.Context, userID, id string) (*model.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if profile.UserID != userID {
		return nil, apperrors.NotFound("Profile not found")
	}
	return profile, nil
}
