package application

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/student-life-hub/student-life-hub/internal/domain/gamification"
	"github.com/student-life-hub/student-life-hub/internal/domain/profile"
	"github.com/student-life-hub/student-life-hub/internal/domain/shared"
	"github.com/student-life-hub/student-life-hub/internal/infrastructure/messaging"
	"github.com/student-life-hub/student-life-hub/internal/infrastructure/persistence"
)

type sessionFixture struct {
	manager *SessionManager
	store   *persistence.MemoryStore
	events  *[]shared.Event
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	store := persistence.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	bus := messaging.New(messaging.Config{})
	t.Cleanup(func() { bus.Close() })

	events := &[]shared.Event{}
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		*events = append(*events, e)
		return nil
	}))

	manager, err := NewSessionManager(SessionConfig{
		Store: store,
		Bus:   bus,
	})
	require.NoError(t, err)

	return &sessionFixture{manager: manager, store: store, events: events}
}

func (fx *sessionFixture) lastEventType() shared.EventType {
	if len(*fx.events) == 0 {
		return ""
	}
	return (*fx.events)[len(*fx.events)-1].EventType()
}

func TestLogin_SynthesizesProfileOnFirstRun(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	p, err := fx.manager.Login(ctx, "jane.doe@example.com", "whatever")
	require.NoError(t, err)

	assert.Equal(t, "jane.doe@example.com", p.Email)
	assert.Equal(t, "jane.doe", p.Name)
	assert.Equal(t, profile.TierFree, p.Tier)
	assert.True(t, fx.manager.IsAuthenticated())
	assert.Equal(t, shared.EventLogin, fx.lastEventType())

	// Progression keys are seeded alongside the profile.
	_, err = fx.store.Get(ctx, persistence.KeyProgression)
	assert.NoError(t, err)
}

func TestLogin_ReusesPersistedProfile(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	_, err := fx.manager.Signup(ctx, "jane@example.com", "pw", "Jane")
	require.NoError(t, err)
	require.NoError(t, fx.manager.Logout())

	p, err := fx.manager.Login(ctx, "other@example.com", "pw")
	require.NoError(t, err)

	// Single-profile storage: whoever logs in gets the stored profile.
	assert.Equal(t, "jane@example.com", p.Email)
	assert.Equal(t, "Jane", p.Name)
}

func TestLogin_RejectsMalformedEmail(t *testing.T) {
	fx := newSessionFixture(t)

	_, err := fx.manager.Login(context.Background(), "not-an-email", "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidEmail)
	assert.False(t, fx.manager.IsAuthenticated())
}

func TestSignup_ReplacesProfile(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	_, err := fx.manager.Signup(ctx, "jane@example.com", "pw", "Jane")
	require.NoError(t, err)
	assert.Equal(t, shared.EventSignup, fx.lastEventType())

	p, err := fx.manager.Signup(ctx, "john@example.com", "pw", "John")
	require.NoError(t, err)
	assert.Equal(t, "john@example.com", p.Email)
}

func TestGoogleSignIn_UsesCannedIdentity(t *testing.T) {
	fx := newSessionFixture(t)

	p, err := fx.manager.GoogleSignIn(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "user@gmail.com", p.Email)
	assert.Equal(t, profile.ProviderGoogle, p.Provider)
	assert.True(t, fx.manager.IsAuthenticated())
}

func TestLogout(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	_, err := fx.manager.Login(ctx, "jane@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, fx.manager.Logout())
	assert.False(t, fx.manager.IsAuthenticated())
	assert.Equal(t, shared.EventLogout, fx.lastEventType())

	// Profile survives the logout.
	_, err = fx.store.Get(ctx, persistence.KeyProfile)
	assert.NoError(t, err)

	assert.ErrorIs(t, fx.manager.Logout(), shared.ErrNotLoggedIn)
}

func TestUpdateProfile_RequiresSession(t *testing.T) {
	fx := newSessionFixture(t)

	name := "Janet"
	_, err := fx.manager.UpdateProfile(context.Background(), profile.Updates{Name: &name})
	assert.ErrorIs(t, err, shared.ErrNotLoggedIn)
}

func TestUpdateProfile_ShallowMerge(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	_, err := fx.manager.Signup(ctx, "jane@example.com", "pw", "Jane")
	require.NoError(t, err)

	name := "Janet"
	p, err := fx.manager.UpdateProfile(ctx, profile.Updates{
		Name:        &name,
		Preferences: map[string]interface{}{"theme": "dark"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Janet", p.Name)
	assert.Equal(t, "jane@example.com", p.Email)
	assert.Equal(t, "dark", p.Preferences["theme"])
	assert.Equal(t, shared.EventProfileUpdated, fx.lastEventType())
}

func TestUpdateProfile_RejectsInvalidEmail(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	_, err := fx.manager.Signup(ctx, "jane@example.com", "pw", "Jane")
	require.NoError(t, err)

	bad := "not-an-email"
	_, err = fx.manager.UpdateProfile(ctx, profile.Updates{Email: &bad})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestUpgradeTier(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	premium, err := fx.manager.IsPremium(ctx)
	require.NoError(t, err)
	require.False(t, premium)

	_, err = fx.manager.Login(ctx, "jane@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, fx.manager.UpgradeTier(ctx))

	premium, err = fx.manager.IsPremium(ctx)
	require.NoError(t, err)
	assert.True(t, premium)
	assert.Equal(t, profile.TierPremium, fx.manager.Current().Profile.Tier)
	assert.Equal(t, shared.EventTierUpgraded, fx.lastEventType())
}

func TestUpgradeTier_WorksWhileAnonymous(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	require.NoError(t, fx.manager.UpgradeTier(ctx))

	tier, err := fx.manager.Tier(ctx)
	require.NoError(t, err)
	assert.Equal(t, profile.TierPremium, tier)
}

func TestResetPassword_ValidatesEmailOnly(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	assert.NoError(t, fx.manager.ResetPassword(ctx, "jane@example.com"))
	assert.Error(t, fx.manager.ResetPassword(ctx, "nope"))
}

// newFlakySessionManager builds a manager over a store whose writes can be
// made to fail per key after setup.
func newFlakySessionManager(t *testing.T) (*SessionManager, *failingStore, *persistence.MemoryStore) {
	t.Helper()

	inner := persistence.NewMemoryStore()
	t.Cleanup(func() { inner.Close() })

	bus := messaging.New(messaging.Config{})
	t.Cleanup(func() { bus.Close() })

	flaky := &failingStore{Store: inner}
	manager, err := NewSessionManager(SessionConfig{Store: flaky, Bus: bus})
	require.NoError(t, err)
	return manager, flaky, inner
}

func TestUpdateProfile_PersistFailureLeavesSessionUnchanged(t *testing.T) {
	manager, flaky, inner := newFlakySessionManager(t)
	ctx := context.Background()

	_, err := manager.Signup(ctx, "jane@example.com", "pw", "Jane")
	require.NoError(t, err)

	flaky.failKey = persistence.KeyProfile

	name := "Janet"
	_, err = manager.UpdateProfile(ctx, profile.Updates{
		Name:        &name,
		Preferences: map[string]interface{}{"theme": "dark"},
	})
	require.Error(t, err)
	assert.True(t, shared.IsStorage(err))

	// The session keeps the last durable profile.
	current := manager.Current().Profile
	assert.Equal(t, "Jane", current.Name)
	assert.NotContains(t, current.Preferences, "theme")

	var stored profile.Profile
	found, err := persistence.Load(ctx, inner, persistence.KeyProfile, &stored)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Jane", stored.Name)
}

func TestUpgradeTier_PersistFailureLeavesSessionUnchanged(t *testing.T) {
	manager, flaky, _ := newFlakySessionManager(t)
	ctx := context.Background()

	_, err := manager.Signup(ctx, "jane@example.com", "pw", "Jane")
	require.NoError(t, err)

	flaky.failKey = persistence.KeyProfile

	err = manager.UpgradeTier(ctx)
	require.Error(t, err)
	assert.Equal(t, profile.TierFree, manager.Current().Profile.Tier)
}

// brokenReadStore fails reads on one key, for exercising seed probes.
type brokenReadStore struct {
	persistence.Store
	failKey string
}

func (s *brokenReadStore) Get(ctx context.Context, key string) (json.RawMessage, error) {
	if key == s.failKey {
		return nil, errors.New("io error")
	}
	return s.Store.Get(ctx, key)
}

func TestSignup_PropagatesSeedProbeFailure(t *testing.T) {
	inner := persistence.NewMemoryStore()
	defer inner.Close()

	bus := messaging.New(messaging.Config{})
	defer bus.Close()

	manager, err := NewSessionManager(SessionConfig{
		Store: &brokenReadStore{Store: inner, failKey: persistence.KeyProgression},
		Bus:   bus,
	})
	require.NoError(t, err)

	_, err = manager.Signup(context.Background(), "jane@example.com", "pw", "Jane")
	require.Error(t, err)
	assert.True(t, shared.IsStorage(err))
	assert.False(t, manager.IsAuthenticated())
}

func TestSignup_KeepsExistingProgression(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	seed := gamification.NewState()
	seed.ApplyPoints(30, 100)
	require.NoError(t, fx.store.Set(ctx, persistence.KeyProgression, seed))

	_, err := fx.manager.Signup(ctx, "jane@example.com", "pw", "Jane")
	require.NoError(t, err)

	state := gamification.NewState()
	found, err := persistence.Load(ctx, fx.store, persistence.KeyProgression, state)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 30, state.TotalPoints, "re-signup does not reset progression")
}

func TestDeleteAccount_PurgesEverything(t *testing.T) {
	fx := newSessionFixture(t)
	ctx := context.Background()

	_, err := fx.manager.Signup(ctx, "jane@example.com", "pw", "Jane")
	require.NoError(t, err)
	require.NoError(t, fx.store.Set(ctx, persistence.KeyMealsCooked, 7))

	require.NoError(t, fx.manager.DeleteAccount(ctx))

	assert.False(t, fx.manager.IsAuthenticated())
	assert.Equal(t, shared.EventAccountDeleted, fx.lastEventType())

	keys, err := fx.store.Keys(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)
}
