package api

import (
	"context"

	"github.com/idilsaglam/tada/internal/model"
)

// AuthAPI wraps the /auth endpoints. A successful login or register stores
// the returned token so later requests are authenticated.
type AuthAPI struct {
	c *Client
}

func NewAuthAPI(c *Client) *AuthAPI { return &AuthAPI{c: c} }

func (a *AuthAPI) Login(ctx context.Context, req model.LoginRequest) (*model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return a.authenticate(ctx, "/auth/login", req)
}

func (a *AuthAPI) Register(ctx context.Context, req model.RegisterRequest) (*model.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return a.authenticate(ctx, "/auth/register", req)
}

func (a *AuthAPI) authenticate(ctx context.Context, path string, body any) (*model.AuthResponse, error) {
	env, err := Post[model.AuthResponse](ctx, a.c, path, body)
	if err != nil {
		return nil, err
	}
	if env.Content.Token != "" {
		a.c.Tokens().Set(env.Content.Token)
	}
	return &env.Content, nil
}

// Logout drops the token locally. The backend is not contacted.
func (a *AuthAPI) Logout() {
	a.c.Tokens().Clear()
}

func (a *AuthAPI) IsAuthenticated() bool { return a.c.Tokens().Present() }

func (a *AuthAPI) Token() string { return a.c.Tokens().Token() }
