package policy

import "context"

// Provider resolves the active booking-window policy for a franchise.
type Provider interface {
	BookingPolicy(ctx context.Context, franchiseID string) (Policy, error)
}

type staticProvider struct {
	policy Policy
}

func NewStaticProvider(p Policy) Provider {
	return &staticProvider{policy: p}
}

func (p *staticProvider) BookingPolicy(_ context.Context, _ string) (Policy, error) {
	return p.policy, nil
}

// SettingsSource is the persisted franchise-settings lookup the settings
// provider reads from.
type SettingsSource interface {
	GetFranchiseSettings(ctx context.Context, franchiseID string) (map[string]string, error)
}

type settingsProvider struct {
	source   SettingsSource
	fallback Policy
}

// NewSettingsProvider derives policies from persisted franchise settings.
// A franchise with no settings rows gets the fallback policy.
func NewSettingsProvider(source SettingsSource, fallback Policy) Provider {
	return &settingsProvider{source: source, fallback: fallback}
}

func (p *settingsProvider) BookingPolicy(ctx context.Context, franchiseID string) (Policy, error) {
	settings, err := p.source.GetFranchiseSettings(ctx, franchiseID)
	if err != nil {
		return Policy{}, err
	}
	if len(settings) == 0 {
		return p.fallback, nil
	}
	return FromSettings(settings)
}
