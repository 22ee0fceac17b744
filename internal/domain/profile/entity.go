// Package profile contains the user profile domain model: identity, tier,
// and preferences. Authentication here is a stub - login never verifies
// credentials and never rejects an unknown user.
package profile

import (
	"strings"
	"time"
)

// Tier is the account class. It gates feature access; the core only tracks
// the flag.
type Tier string

const (
	// TierFree is the default account class.
	TierFree Tier = "free"

	// TierPremium unlocks paid features.
	TierPremium Tier = "premium"
)

// IsValid checks that the tier is known.
func (t Tier) IsValid() bool {
	return t == TierFree || t == TierPremium
}

// Provider identifies how the user signed in.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// Profile is the singleton user profile for a persistence namespace.
type Profile struct {
	// Email identifies the user.
	Email string `json:"email"`

	// Name is the display name.
	Name string `json:"name"`

	// JoinedAt is when the profile was first created.
	JoinedAt time.Time `json:"joined_at"`

	// Tier is the account class.
	Tier Tier `json:"tier"`

	// Provider records the sign-in method.
	Provider Provider `json:"provider,omitempty"`

	// Preferences is a free-form preference map.
	Preferences map[string]interface{} `json:"preferences"`
}

// New creates a profile with defaults: free tier, empty preferences. An
// empty name falls back to the email's local part, matching what the login
// stub synthesizes for first-time users.
func New(email, name string) *Profile {
	if name == "" {
		name = DisplayNameFromEmail(email)
	}
	return &Profile{
		Email:       email,
		Name:        name,
		JoinedAt:    time.Now(),
		Tier:        TierFree,
		Provider:    ProviderLocal,
		Preferences: map[string]interface{}{},
	}
}

// DisplayNameFromEmail derives a display name from an email's local part.
func DisplayNameFromEmail(email string) string {
	if at := strings.Index(email, "@"); at > 0 {
		return email[:at]
	}
	return email
}

// Updates carries the fields a profile update may change. Nil fields are
// left untouched (shallow merge).
type Updates struct {
	Name        *string                `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Email       *string                `json:"email,omitempty" validate:"omitempty,email"`
	Preferences map[string]interface{} `json:"preferences,omitempty"`
}

// Apply performs the shallow merge of updates into the profile. Preference
// keys are merged individually; other fields are replaced when provided.
func (p *Profile) Apply(u Updates) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Preferences != nil {
		if p.Preferences == nil {
			p.Preferences = map[string]interface{}{}
		}
		for k, v := range u.Preferences {
			p.Preferences[k] = v
		}
	}
}

// Clone returns a deep copy, so callers can stage changes on a working
// copy without touching the original's preference map.
func (p *Profile) Clone() *Profile {
	out := *p
	out.Preferences = make(map[string]interface{}, len(p.Preferences))
	for k, v := range p.Preferences {
		out.Preferences[k] = v
	}
	return &out
}

// IsPremium reports whether the account is on the premium tier.
func (p *Profile) IsPremium() bool {
	return p.Tier == TierPremium
}
