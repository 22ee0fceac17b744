package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_DerivesNameFromEmail(t *testing.T) {
	p := New("jane.doe@example.com", "")

	assert.Equal(t, "jane.doe@example.com", p.Email)
	assert.Equal(t, "jane.doe", p.Name)
	assert.Equal(t, TierFree, p.Tier)
	assert.Equal(t, ProviderLocal, p.Provider)
	assert.False(t, p.JoinedAt.IsZero())
}

func TestNew_ExplicitNameWins(t *testing.T) {
	p := New("jane@example.com", "Jane")
	assert.Equal(t, "Jane", p.Name)
}

func TestApply_PartialUpdate(t *testing.T) {
	p := New("jane@example.com", "Jane")
	name := "Janet"

	p.Apply(Updates{Name: &name})

	assert.Equal(t, "Janet", p.Name)
	assert.Equal(t, "jane@example.com", p.Email)
}

func TestApply_MergesPreferences(t *testing.T) {
	p := New("jane@example.com", "Jane")
	p.Apply(Updates{Preferences: map[string]interface{}{"theme": "dark"}})
	p.Apply(Updates{Preferences: map[string]interface{}{"locale": "en"}})

	assert.Equal(t, "dark", p.Preferences["theme"])
	assert.Equal(t, "en", p.Preferences["locale"])
}

func TestClone_IndependentPreferences(t *testing.T) {
	p := New("jane@example.com", "Jane")
	p.Apply(Updates{Preferences: map[string]interface{}{"theme": "light"}})

	clone := p.Clone()
	clone.Name = "Janet"
	clone.Preferences["theme"] = "dark"

	assert.Equal(t, "Jane", p.Name)
	assert.Equal(t, "light", p.Preferences["theme"])
	assert.Equal(t, "dark", clone.Preferences["theme"])
}

func TestTier_IsValid(t *testing.T) {
	assert.True(t, TierFree.IsValid())
	assert.True(t, TierPremium.IsValid())
	assert.False(t, Tier("platinum").IsValid())
}
