package dashboard

import (
	"github.com/studydash/internal/profiles"
	"github.com/studydash/internal/timezone"
)

// Factory opens the dashboard of a profile.
type Factory struct {
	profilesStore *profiles.Store
	clock         timezone.Clock
	targetPercent float64
}

func NewFactory(
	profilesStore *profiles.Store,
	clock timezone.Clock,
	targetPercent float64,
) *Factory {
	return &Factory{
		profilesStore: profilesStore,
		clock:         clock,
		targetPercent: targetPercent,
	}
}

func (f *Factory) For(id profiles.ID) *Service {
	return New(f.profilesStore.Namespace(id), f.clock, f.targetPercent)
}
