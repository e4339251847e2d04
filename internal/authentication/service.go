package authentication

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/studydash/internal/profiles"
	"github.com/studydash/internal/timezone"
)

var ErrMissingCredentials = errors.New("registration and mobile number are required")

type Service struct {
	profilesStore *profiles.Store
	clock         timezone.Clock
}

func NewService(
	profilesStore *profiles.Store,
	clock timezone.Clock,
) *Service {
	return &Service{
		profilesStore: profilesStore,
		clock:         clock,
	}
}

// Login finds the profile of a registration number, creating it on first
// use. An existing profile only accepts the mobile number it was created
// with.
func (s *Service) Login(ctx context.Context, registration, mobile, name string) (*profiles.Profile, bool, error) {
	registration = profiles.NormalizeRegistration(registration)
	mobile = strings.Join(strings.Fields(mobile), "")
	if registration == "" || mobile == "" {
		return nil, false, ErrMissingCredentials
	}

	profile, err := s.profilesStore.FindByRegistration(ctx, registration)
	if errors.Is(err, profiles.ErrNotFound) {
		profile = &profiles.Profile{
			ID:           profiles.NewID(),
			Registration: registration,
			Mobile:       mobile,
			Name:         strings.TrimSpace(name),
			CreatedAt:    s.clock.Now(),
		}
		if err := s.profilesStore.Insert(ctx, profile); err != nil {
			return nil, false, fmt.Errorf("insert profile: %w", err)
		}
		return profile, true, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("find profile by registration: %w", err)
	}

	if profile.Mobile != mobile {
		return nil, false, profiles.ErrMobileMismatch
	}
	return profile, false, nil
}

func (s *Service) AuthenticateContext(ctx context.Context, profileID profiles.ID) (context.Context, error) {
	profile, err := s.profilesStore.FindByID(ctx, profileID)
	if err != nil {
		return ctx, fmt.Errorf("find profile %q: %w", profileID, err)
	}
	return profiles.NewContext(ctx, profile), nil
}
