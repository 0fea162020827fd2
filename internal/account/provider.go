package account

import (
	"fmt"

	"github.com/supabase-community/gotrue-go/types"
	"github.com/supabase-community/supabase-go"
)

// Provider is the identity backend. Sign-in calls also authorize subsequent
// data requests made through the same client.
type Provider interface {
	Signup(req types.SignupRequest) (*types.SignupResponse, error)
	SignIn(email, password string) (types.Session, error)
	Refresh(refreshToken string) (types.Session, error)
	Authorize(req types.AuthorizeRequest) (*types.AuthorizeResponse, error)
	ExchangeCode(code, verifier string) (types.Session, error)
	UpdatePassword(password string) error
	Logout() error
}

// SupabaseProvider adapts a supabase client.
type SupabaseProvider struct {
	client *supabase.Client
}

func NewSupabaseProvider(client *supabase.Client) *SupabaseProvider {
	return &SupabaseProvider{client: client}
}

func (p *SupabaseProvider) Signup(req types.SignupRequest) (*types.SignupResponse, error) {
	resp, err := p.client.Auth.Signup(req)
	if err != nil {
		return nil, err
	}
	if resp.Session.AccessToken != "" {
		p.client.UpdateAuthSession(resp.Session)
	}
	return resp, nil
}

func (p *SupabaseProvider) SignIn(email, password string) (types.Session, error) {
	return p.client.SignInWithEmailPassword(email, password)
}

func (p *SupabaseProvider) Refresh(refreshToken string) (types.Session, error) {
	return p.client.RefreshToken(refreshToken)
}

func (p *SupabaseProvider) Authorize(req types.AuthorizeRequest) (*types.AuthorizeResponse, error) {
	return p.client.Auth.Authorize(req)
}

func (p *SupabaseProvider) ExchangeCode(code, verifier string) (types.Session, error) {
	resp, err := p.client.Auth.Token(types.TokenRequest{
		GrantType:    "pkce",
		Code:         code,
		CodeVerifier: verifier,
	})
	if err != nil {
		return types.Session{}, err
	}
	p.client.UpdateAuthSession(resp.Session)
	return resp.Session, nil
}

func (p *SupabaseProvider) UpdatePassword(password string) error {
	if _, err := p.client.Auth.UpdateUser(types.UpdateUserRequest{Password: &password}); err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (p *SupabaseProvider) Logout() error {
	return p.client.Auth.Logout()
}
