package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/student-life-hub/student-life-hub/internal/domain/activity"
	"github.com/student-life-hub/student-life-hub/internal/domain/gamification"
	"github.com/student-life-hub/student-life-hub/internal/domain/profile"
	"github.com/student-life-hub/student-life-hub/internal/domain/shared"
	"github.com/student-life-hub/student-life-hub/internal/infrastructure/persistence"
)

// ══════════════════════════════════════════════════════════════════════════════
// SESSION MANAGER
// Profile lifecycle and the in-memory session. Authentication is a stub:
// any well-formed email signs in, passwords are accepted and discarded,
// and credentials are never verified against anything.
// ══════════════════════════════════════════════════════════════════════════════

// Session is the current in-memory authentication state. It does not
// survive a restart; only the profile does.
type Session struct {
	ID        string
	Profile   *profile.Profile
	StartedAt time.Time
}

// SessionManager owns the session and the persisted profile.
type SessionManager struct {
	store    persistence.Store
	bus      shared.EventPublisher
	backup   *persistence.Backupper
	validate *validator.Validate
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.RWMutex
	current *Session
}

// SessionConfig configures the session manager.
type SessionConfig struct {
	Store  persistence.Store
	Bus    shared.EventPublisher
	Backup *persistence.Backupper
	Logger *slog.Logger
	Now    func() time.Time
}

// NewSessionManager creates a session manager starting anonymous.
func NewSessionManager(cfg SessionConfig) (*SessionManager, error) {
	if cfg.Store == nil {
		return nil, errors.New("session: store is required")
	}
	if cfg.Bus == nil {
		return nil, errors.New("session: event bus is required")
	}
	if cfg.Backup == nil {
		cfg.Backup = persistence.NewBackupper(cfg.Store, cfg.Logger)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &SessionManager{
		store:    cfg.Store,
		bus:      cfg.Bus,
		backup:   cfg.Backup,
		validate: validator.New(),
		logger:   cfg.Logger,
		now:      cfg.Now,
	}, nil
}

// credentials is the shape validated on login and signup. The password is
// required to be present but is otherwise ignored.
type credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
	Name     string `validate:"omitempty,min=1,max=100"`
}

// Login signs in with an email and password. Any syntactically valid email
// succeeds: if no profile exists yet one is synthesized on the spot, so
// login doubles as first-run registration.
func (m *SessionManager) Login(ctx context.Context, email, password string) (*profile.Profile, error) {
	if err := m.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return nil, shared.NewDomainError("auth", "Login", shared.ErrInvalidEmail, err.Error())
	}

	p := &profile.Profile{}
	found, err := persistence.Load(ctx, m.store, persistence.KeyProfile, p)
	if err != nil {
		return nil, shared.WrapError("auth", "Login", shared.ErrStorageUnavailable, "load profile", err)
	}
	if !found {
		p = profile.New(email, "")
		if err := m.initStorage(ctx, p); err != nil {
			return nil, err
		}
	}

	m.startSession(p)
	m.publish(shared.NewAuthEvent(shared.EventLogin, p.Email, p.Name, string(p.Tier), string(p.Provider)))
	m.logger.Info("user logged in", "email", p.Email)
	return p, nil
}

// Signup registers a fresh profile, replacing any existing one, and signs
// it in. Like Login it never rejects a well-formed request.
func (m *SessionManager) Signup(ctx context.Context, email, password, name string) (*profile.Profile, error) {
	if err := m.validate.Struct(credentials{Email: email, Password: password, Name: name}); err != nil {
		return nil, shared.NewDomainError("auth", "Signup", shared.ErrValidation, err.Error())
	}

	p := profile.New(email, name)
	if err := m.initStorage(ctx, p); err != nil {
		return nil, err
	}

	m.startSession(p)
	m.publish(shared.NewAuthEvent(shared.EventSignup, p.Email, p.Name, string(p.Tier), string(p.Provider)))
	m.logger.Info("user signed up", "email", p.Email)
	return p, nil
}

// GoogleSignIn pretends to complete an OAuth flow and signs in a canned
// Google identity.
func (m *SessionManager) GoogleSignIn(ctx context.Context) (*profile.Profile, error) {
	p := profile.New("user@gmail.com", "Google User")
	p.Provider = profile.ProviderGoogle

	if err := m.initStorage(ctx, p); err != nil {
		return nil, err
	}

	m.startSession(p)
	m.publish(shared.NewAuthEvent(shared.EventLogin, p.Email, p.Name, string(p.Tier), string(p.Provider)))
	m.logger.Info("user signed in with google", "email", p.Email)
	return p, nil
}

// Logout clears the session. The profile stays persisted.
func (m *SessionManager) Logout() error {
	m.mu.Lock()
	sess := m.current
	m.current = nil
	m.mu.Unlock()

	if sess == nil {
		return shared.ErrNotLoggedIn
	}

	p := sess.Profile
	m.publish(shared.NewAuthEvent(shared.EventLogout, p.Email, p.Name, string(p.Tier), string(p.Provider)))
	m.logger.Info("user logged out", "email", p.Email)
	return nil
}

// Current returns the active session, or nil when anonymous.
func (m *SessionManager) Current() *Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsAuthenticated reports whether a session is active.
func (m *SessionManager) IsAuthenticated() bool {
	return m.Current() != nil
}

// UpdateProfile applies a partial update to the signed-in profile. Fields
// left nil keep their stored values; preferences merge key by key. The
// merge is staged on a copy and only replaces the session profile once it
// is durable, so a failed persist leaves the session unchanged.
func (m *SessionManager) UpdateProfile(ctx context.Context, updates profile.Updates) (*profile.Profile, error) {
	sess := m.Current()
	if sess == nil {
		return nil, shared.ErrNotLoggedIn
	}

	if err := m.validate.Struct(updates); err != nil {
		return nil, shared.NewDomainError("auth", "UpdateProfile", shared.ErrValidation, err.Error())
	}

	p := sess.Profile.Clone()
	p.Apply(updates)

	if err := m.store.Set(ctx, persistence.KeyProfile, p); err != nil {
		return nil, shared.WrapError("auth", "UpdateProfile", shared.ErrStorageUnavailable, "persist profile", err)
	}

	m.mu.Lock()
	sess.Profile = p
	m.mu.Unlock()

	m.publish(shared.NewAuthEvent(shared.EventProfileUpdated, p.Email, p.Name, string(p.Tier), string(p.Provider)))
	m.logger.Info("profile updated", "email", p.Email)
	return p, nil
}

// UpgradeTier marks the account premium. It works even while anonymous
// (the tier is account state, not session state); a signed-in profile is
// updated alongside.
func (m *SessionManager) UpgradeTier(ctx context.Context) error {
	if err := m.store.Set(ctx, persistence.KeyTier, profile.TierPremium); err != nil {
		return shared.WrapError("auth", "UpgradeTier", shared.ErrStorageUnavailable, "persist tier", err)
	}

	email := ""
	if sess := m.Current(); sess != nil {
		p := sess.Profile.Clone()
		p.Tier = profile.TierPremium
		email = p.Email
		if err := m.store.Set(ctx, persistence.KeyProfile, p); err != nil {
			return shared.WrapError("auth", "UpgradeTier", shared.ErrStorageUnavailable, "persist profile", err)
		}
		m.mu.Lock()
		sess.Profile = p
		m.mu.Unlock()
	}

	m.publish(shared.NewTierUpgradedEvent(email, string(profile.TierPremium)))
	m.logger.Info("tier upgraded", "tier", profile.TierPremium)
	return nil
}

// Tier returns the persisted account tier, defaulting to free.
func (m *SessionManager) Tier(ctx context.Context) (profile.Tier, error) {
	tier := profile.TierFree
	if _, err := persistence.Load(ctx, m.store, persistence.KeyTier, &tier); err != nil {
		return profile.TierFree, shared.WrapError("auth", "Tier", shared.ErrStorageUnavailable, "load tier", err)
	}
	if !tier.IsValid() {
		return profile.TierFree, shared.ErrInvalidTier
	}
	return tier, nil
}

// IsPremium reports whether the account is on the premium tier.
func (m *SessionManager) IsPremium(ctx context.Context) (bool, error) {
	tier, err := m.Tier(ctx)
	if err != nil {
		return false, err
	}
	return tier == profile.TierPremium, nil
}

// ResetPassword accepts any well-formed email and does nothing else; there
// are no stored passwords to reset.
func (m *SessionManager) ResetPassword(ctx context.Context, email string) error {
	if err := m.validate.Var(email, "required,email"); err != nil {
		return shared.NewDomainError("auth", "ResetPassword", shared.ErrInvalidEmail, err.Error())
	}
	m.logger.Info("password reset requested", "email", email)
	return nil
}

// DeleteAccount wipes every known key and ends the session. There is no
// undo and no soft-delete window.
func (m *SessionManager) DeleteAccount(ctx context.Context) error {
	sess := m.Current()

	if err := m.backup.Purge(ctx); err != nil {
		return shared.WrapError("auth", "DeleteAccount", shared.ErrStorageUnavailable, "purge storage", err)
	}

	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()

	email := ""
	if sess != nil {
		email = sess.Profile.Email
	}
	m.publish(shared.NewAuthEvent(shared.EventAccountDeleted, email, "", "", ""))
	m.logger.Info("account deleted", "email", email)
	return nil
}

// initStorage persists a fresh profile and seeds the progression keys that
// the rest of the app assumes exist.
func (m *SessionManager) initStorage(ctx context.Context, p *profile.Profile) error {
	if err := m.store.Set(ctx, persistence.KeyProfile, p); err != nil {
		return shared.WrapError("auth", "Init", shared.ErrStorageUnavailable, "persist profile", err)
	}
	if err := m.store.Set(ctx, persistence.KeyTier, p.Tier); err != nil {
		return shared.WrapError("auth", "Init", shared.ErrStorageUnavailable, "persist tier", err)
	}

	seeds := []struct {
		key   string
		value interface{}
	}{
		{persistence.KeyProgression, gamification.NewState()},
		{persistence.KeyActivityLog, activity.NewLog()},
	}
	for _, seed := range seeds {
		_, err := m.store.Get(ctx, seed.key)
		if err == nil {
			// Existing data survives a re-signup.
			continue
		}
		if !errors.Is(err, persistence.ErrKeyNotFound) {
			return shared.WrapError("auth", "Init", shared.ErrStorageUnavailable, "probe "+seed.key, err)
		}
		if err := m.store.Set(ctx, seed.key, seed.value); err != nil {
			return shared.WrapError("auth", "Init", shared.ErrStorageUnavailable, "seed "+seed.key, err)
		}
	}
	return nil
}

func (m *SessionManager) startSession(p *profile.Profile) {
	m.mu.Lock()
	m.current = &Session{
		ID:        uuid.NewString(),
		Profile:   p,
		StartedAt: m.now(),
	}
	m.mu.Unlock()
}

func (m *SessionManager) publish(event shared.Event) {
	if err := m.bus.Publish(event); err != nil {
		m.logger.Error("failed to publish event", "event_type", event.EventType(), "error", err)
	}
}
