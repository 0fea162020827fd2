// Package lock decides when a signed-in user must re-authenticate before the
// wallet is shown, both at start-up and when the app returns to the foreground.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/model"
)

// UnlockReason is shown by the authenticator when asking the user to confirm.
const UnlockReason = "Unlock Wallet"

const enableReason = "Confirm to enable unlock"

var (
	ErrUnavailable = errors.New("re-authentication is not available on this device")
	ErrCancelled   = errors.New("confirmation cancelled")
	ErrNoUser      = errors.New("no signed-in user")
)

// Flags persists the per-user unlock settings.
type Flags interface {
	GetSettings(ctx context.Context, userID string) (model.Settings, error)
	SaveSettings(ctx context.Context, settings model.Settings) error
}

// Authenticator is the local confirmation mechanism (fingerprint, passcode,
// password re-entry).
type Authenticator interface {
	// Available returns a nil error when the device can confirm the user.
	Available(ctx context.Context) error
	Confirm(ctx context.Context, reason string) (bool, error)
}

// State is the outcome of a gate decision.
type State int

const (
	Unlocked State = iota
	Locked
)

func (s State) String() string {
	if s == Locked {
		return "locked"
	}
	return "unlocked"
}

// Gate holds the unlock state of one front-end session.
type Gate struct {
	flags  Flags
	auth   Authenticator
	logger *log.Logger

	mu        sync.Mutex
	state     State
	prompting bool
}

func NewGate(flags Flags, auth Authenticator, logger *log.Logger) *Gate {
	if logger == nil {
		logger = log.Discard()
	}
	return &Gate{flags: flags, auth: auth, logger: logger.WithComponent(log.ComponentLock)}
}

// State returns the last decision.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) set(s State) State {
	g.mu.Lock()
	g.state = s
	g.mu.Unlock()
	return s
}

// Start decides whether the session opens unlocked. Store failures open the
// wallet; a confirmation that errors keeps it locked.
func (g *Gate) Start(ctx context.Context, userID string) State {
	if userID == "" {
		return g.set(Unlocked)
	}
	st, err := g.start(ctx, userID)
	if err != nil {
		g.logger.WarnContext(ctx, "unlock check failed, opening wallet", log.FieldUserID, userID, log.FieldError, err)
		return g.set(Unlocked)
	}
	return g.set(st)
}

func (g *Gate) start(ctx context.Context, userID string) (State, error) {
	s, err := g.flags.GetSettings(ctx, userID)
	if err != nil {
		return Unlocked, err
	}
	if !s.BiometricEnabled {
		return Unlocked, nil
	}
	if consumed, err := g.consume(ctx, &s, &s.SuppressPrompt); err != nil || consumed {
		return Unlocked, err
	}
	if consumed, err := g.consume(ctx, &s, &s.BiometricJustEnabled); err != nil || consumed {
		return Unlocked, err
	}
	st, err := g.prompt(ctx)
	if err != nil {
		g.logger.WarnContext(ctx, "unlock prompt failed", log.FieldUserID, userID, log.FieldError, err)
	}
	return st, nil
}

// Resume is called when the app moves from background to foreground. It locks
// and prompts again unless a prompt is already running or was suppressed.
// The previous decision is kept when the flags cannot be read.
func (g *Gate) Resume(ctx context.Context, userID string) State {
	if userID == "" {
		return g.State()
	}
	g.mu.Lock()
	if g.prompting {
		st := g.state
		g.mu.Unlock()
		return st
	}
	g.mu.Unlock()

	s, err := g.flags.GetSettings(ctx, userID)
	if err != nil {
		g.logger.WarnContext(ctx, "resume check failed", log.FieldUserID, userID, log.FieldError, err)
		return g.State()
	}
	if consumed, err := g.consume(ctx, &s, &s.SuppressPrompt); err != nil || consumed {
		return g.State()
	}
	if !s.BiometricEnabled {
		return g.set(Unlocked)
	}
	if consumed, err := g.consume(ctx, &s, &s.BiometricJustEnabled); err != nil || consumed {
		return g.set(Unlocked)
	}

	st, err := g.prompt(ctx)
	if err != nil {
		g.logger.WarnContext(ctx, "unlock prompt failed", log.FieldUserID, userID, log.FieldError, err)
	}
	return g.set(st)
}

// prompt asks the authenticator. An unavailable authenticator unlocks.
func (g *Gate) prompt(ctx context.Context) (State, error) {
	if err := g.auth.Available(ctx); err != nil {
		return Unlocked, nil
	}

	g.mu.Lock()
	if g.prompting {
		st := g.state
		g.mu.Unlock()
		return st, nil
	}
	g.prompting = true
	g.state = Locked
	g.mu.Unlock()
	defer func() {
		g.mu.Lock()
		g.prompting = false
		g.mu.Unlock()
	}()

	ok, err := g.auth.Confirm(ctx, UnlockReason)
	if err != nil {
		return Locked, err
	}
	if !ok {
		return Locked, nil
	}
	return Unlocked, nil
}

// consume clears a one-shot flag and reports whether it was set.
func (g *Gate) consume(ctx context.Context, s *model.Settings, flag *bool) (bool, error) {
	if !*flag {
		return false, nil
	}
	*flag = false
	if err := g.flags.SaveSettings(ctx, *s); err != nil {
		return true, fmt.Errorf("failed to clear unlock flag: %w", err)
	}
	return true, nil
}

// Enable turns unlock on after the user confirms once. The next start-up does
// not prompt again.
func (g *Gate) Enable(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNoUser
	}
	if err := g.auth.Available(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	ok, err := g.auth.Confirm(ctx, enableReason)
	if err != nil {
		return fmt.Errorf("failed to confirm: %w", err)
	}
	if !ok {
		return ErrCancelled
	}
	s, err := g.flags.GetSettings(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	s.UserID = userID
	s.BiometricEnabled = true
	s.BiometricPrompted = true
	s.BiometricJustEnabled = true
	if err := g.flags.SaveSettings(ctx, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	g.logger.InfoContext(ctx, "unlock enabled", log.FieldUserID, userID)
	return nil
}

// Disable turns unlock off. It also records that the user has been asked, so
// declining the first-run offer uses this too.
func (g *Gate) Disable(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNoUser
	}
	s, err := g.flags.GetSettings(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	s.UserID = userID
	s.BiometricEnabled = false
	s.BiometricPrompted = true
	if err := g.flags.SaveSettings(ctx, s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	g.set(Unlocked)
	return nil
}

// Suppress skips the next prompt, for flows that briefly leave the app.
func (g *Gate) Suppress(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrNoUser
	}
	s, err := g.flags.GetSettings(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	s.UserID = userID
	s.SuppressPrompt = true
	return g.flags.SaveSettings(ctx, s)
}

// NeedsSetup reports whether the user has never been offered unlock.
func (g *Gate) NeedsSetup(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	s, err := g.flags.GetSettings(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load settings: %w", err)
	}
	return !s.BiometricPrompted, nil
}

// Enabled reports whether unlock is on for the user.
func (g *Gate) Enabled(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	s, err := g.flags.GetSettings(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load settings: %w", err)
	}
	return s.BiometricEnabled, nil
}
