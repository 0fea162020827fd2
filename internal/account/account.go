// Package account handles sign-up, sign-in and the signed-in user's profile.
package account

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/supabase-community/gotrue-go/types"

	"github.com/ivanoskov/wallet/internal/log"
	"github.com/ivanoskov/wallet/internal/model"
	"github.com/ivanoskov/wallet/internal/repository"
)

// MinPasswordLength is the shortest password accepted on sign-up and change.
const MinPasswordLength = 6

const defaultRole = "user"

var (
	ErrNotSignedIn          = errors.New("not signed in")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConfirmationRequired = errors.New("check your inbox to confirm the email address")
	ErrPasswordRequired     = errors.New("current and new password are required")
	ErrWeakPassword         = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrSamePassword         = errors.New("new password must differ from the current one")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrTooManyAttempts      = errors.New("too many attempts, try again later")
	ErrReloginRequired      = errors.New("session expired, sign in again")
	ErrPasswordUnsupported  = errors.New("password change is only available for email accounts")
)

// TokenStore persists the refresh token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(refreshToken string) error
	Clear() error
}

type noTokens struct{}

func (noTokens) Load() (string, error) { return "", nil }
func (noTokens) Save(string) error     { return nil }
func (noTokens) Clear() error          { return nil }

// RegisterInput is the sign-up form.
type RegisterInput struct {
	Name        string
	Email       string
	Password    string
	PhotoBase64 string
}

// GoogleLogin is a pending federated sign-in. The user opens URL and pastes
// back the code, which is exchanged together with Verifier.
type GoogleLogin struct {
	URL      string
	Verifier string
}

type Service struct {
	provider Provider
	profiles repository.ProfileStore
	tokens   TokenStore
	logger   *log.Logger

	mu      sync.Mutex
	session *types.Session
}

// NewService wires the account flows. A nil tokens keeps the session in memory only.
func NewService(provider Provider, profiles repository.ProfileStore, tokens TokenStore, logger *log.Logger) *Service {
	if tokens == nil {
		tokens = noTokens{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Service{
		provider: provider,
		profiles: profiles,
		tokens:   tokens,
		logger:   logger.WithComponent(log.ComponentAccount),
	}
}

// UserID returns the signed-in user's id, or "" when signed out.
func (s *Service) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.User.ID.String()
}

// Email returns the signed-in user's email.
func (s *Service) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return ""
	}
	return s.session.User.Email
}

func (s *Service) current() (types.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return types.Session{}, ErrNotSignedIn
	}
	return *s.session, nil
}

func (s *Service) setSession(ctx context.Context, session types.Session) {
	s.mu.Lock()
	s.session = &session
	s.mu.Unlock()
	if err := s.tokens.Save(session.RefreshToken); err != nil {
		s.logger.WarnContext(ctx, "failed to persist session", log.FieldError, err)
	}
}

// Register creates the auth user and the profile row. When the backend wants
// the email confirmed first, ErrConfirmationRequired is returned and the
// profile is created on the first sign-in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, fmt.Errorf("%w: email %q", ErrInvalidInput, in.Email)
	}
	if len(in.Password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	resp, err := s.provider.Signup(types.SignupRequest{
		Email:    in.Email,
		Password: in.Password,
		Data:     map[string]interface{}{"name": in.Name},
	})
	if err != nil {
		return nil, mapAuthError(err)
	}
	if resp.Session.AccessToken == "" {
		s.logger.InfoContext(ctx, "sign-up awaiting confirmation", log.FieldOperation, log.OpCreate)
		return nil, ErrConfirmationRequired
	}

	s.setSession(ctx, resp.Session)
	userID := resp.Session.User.ID
	if userID == uuid.Nil {
		userID = resp.User.ID
	}

	profile := &model.Profile{
		UserID:      userID.String(),
		Name:        in.Name,
		Email:       in.Email,
		Role:        defaultRole,
		PhotoBase64: in.PhotoBase64,
	}
	if err := s.profiles.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	s.logger.InfoContext(ctx, "user registered", log.FieldUserID, profile.UserID)
	return profile, nil
}

// Login signs in with email and password.
func (s *Service) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	session, err := s.provider.SignIn(email, password)
	if err != nil {
		return mapAuthError(err)
	}
	return s.signedIn(ctx, session)
}

// RefreshSession exchanges a refresh token for a new session.
func (s *Service) RefreshSession(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return ErrNotSignedIn
	}
	session, err := s.provider.Refresh(refreshToken)
	if err != nil {
		return mapAuthError(err)
	}
	return s.signedIn(ctx, session)
}

// Restore resumes the persisted session, if any. It reports whether a user
// is signed in afterwards.
func (s *Service) Restore(ctx context.Context) (bool, error) {
	token, err := s.tokens.Load()
	if err != nil {
		return false, fmt.Errorf("failed to load session: %w", err)
	}
	if token == "" {
		return false, nil
	}
	if err := s.RefreshSession(ctx, token); err != nil {
		if errors.Is(err, ErrReloginRequired) {
			_ = s.tokens.Clear()
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// BeginGoogleLogin starts a PKCE sign-in with Google.
func (s *Service) BeginGoogleLogin(ctx context.Context) (*GoogleLogin, error) {
	resp, err := s.provider.Authorize(types.AuthorizeRequest{
		Provider: types.ProviderGoogle,
		FlowType: types.FlowPKCE,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start google sign-in: %w", err)
	}
	return &GoogleLogin{URL: resp.AuthorizationURL, Verifier: resp.Verifier}, nil
}

// CompleteGoogleLogin exchanges the authorization code returned by Google.
func (s *Service) CompleteGoogleLogin(ctx context.Context, code, verifier string) error {
	code = strings.TrimSpace(code)
	if code == "" || verifier == "" {
		return fmt.Errorf("%w: authorization code is required", ErrInvalidInput)
	}
	session, err := s.provider.ExchangeCode(code, verifier)
	if err != nil {
		return mapAuthError(err)
	}
	return s.signedIn(ctx, session)
}

// signedIn stores the session and makes sure a profile row exists.
func (s *Service) signedIn(ctx context.Context, session types.Session) error {
	s.setSession(ctx, session)
	userID := session.User.ID.String()

	_, err := s.profiles.GetProfile(ctx, userID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		profile := &model.Profile{
			UserID: userID,
			Name:   displayName(session.User),
			Email:  session.User.Email,
			Role:   defaultRole,
		}
		if err := s.profiles.CreateProfile(ctx, profile); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
	default:
		return fmt.Errorf("failed to load profile: %w", err)
	}

	s.logger.InfoContext(ctx, "signed in", log.FieldOperation, log.OpLogin, log.FieldUserID, userID)
	return nil
}

func displayName(u types.User) string {
	for _, key := range []string{"name", "full_name"} {
		if v, ok := u.UserMetadata[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	if name, _, ok := strings.Cut(u.Email, "@"); ok {
		return name
	}
	return u.Email
}

// Logout signs out remotely and forgets the local session. The local session
// is cleared even when the backend call fails.
func (s *Service) Logout(ctx context.Context) error {
	s.mu.Lock()
	had := s.session != nil
	s.session = nil
	s.mu.Unlock()

	var remoteErr error
	if had {
		remoteErr = s.provider.Logout()
		if remoteErr != nil {
			s.logger.WarnContext(ctx, "remote sign-out failed", log.FieldError, remoteErr)
		}
	}
	if err := s.tokens.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.logger.InfoContext(ctx, "signed out", log.FieldOperation, log.OpLogout)
	return nil
}

// ChangePassword re-verifies the current password before setting the new one.
func (s *Service) ChangePassword(ctx context.Context, current, next string) error {
	session, err := s.current()
	if err != nil {
		return err
	}
	if current == "" || next == "" {
		return ErrPasswordRequired
	}
	if len(next) < MinPasswordLength {
		return ErrWeakPassword
	}
	if current == next {
		return ErrSamePassword
	}
	if p, ok := session.User.AppMetadata["provider"].(string); ok && p != "email" {
		return ErrPasswordUnsupported
	}

	refreshed, err := s.provider.SignIn(session.User.Email, current)
	if err != nil {
		err = mapAuthError(err)
		if errors.Is(err, ErrInvalidCredentials) {
			return ErrWrongPassword
		}
		return err
	}
	s.setSession(ctx, refreshed)

	if err := s.provider.UpdatePassword(next); err != nil {
		return mapAuthError(err)
	}
	s.logger.InfoContext(ctx, "password changed", log.FieldUserID, session.User.ID.String())
	return nil
}

// Profile returns the signed-in user's profile.
func (s *Service) Profile(ctx context.Context) (*model.Profile, error) {
	session, err := s.current()
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, session.User.ID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile changes the name and/or photo. Nil fields are left alone.
func (s *Service) UpdateProfile(ctx context.Context, name, photoBase64 *string) error {
	session, err := s.current()
	if err != nil {
		return err
	}
	patch := model.ProfilePatch{PhotoBase64: photoBase64}
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return fmt.Errorf("%w: name cannot be empty", ErrInvalidInput)
		}
		patch.Name = &trimmed
	}
	if patch.Name == nil && patch.PhotoBase64 == nil {
		return nil
	}
	if err := s.profiles.UpdateProfile(ctx, session.User.ID.String(), patch); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}
