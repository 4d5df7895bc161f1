package api

import (
	"context"
	"net/http"

	"github.com/fjod/go_storefront/internal/domain"
)

// AuthClient obtains credentials and resolves them to identities. Token
// storage and lifecycle live in the session gate, not here.
type AuthClient struct {
	c *Client
}

func NewAuthClient(c *Client) *AuthClient {
	return &AuthClient{c: c}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for an opaque bearer token.
func (ac *AuthClient) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := ac.c.do(ctx, http.MethodPost, "/api/auth/login", loginRequest{
		Email:    email,
		Password: password,
	}, &out); err != nil {
		return "", err
	}
	return out.Token, nil
}

// Me resolves the currently attached token to its identity profile.
func (ac *AuthClient) Me(ctx context.Context) (domain.Identity, error) {
	var identity domain.Identity
	err := ac.c.do(ctx, http.MethodGet, "/api/users/me", nil, &identity)
	return identity, err
}
