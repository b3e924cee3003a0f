package repository

import (
	"context"
	"fmt"
	"net/http"

	"github.com/noah-isme/sma-result-desk/internal/models"
	"github.com/noah-isme/sma-result-desk/pkg/httpclient"
)

// AuthRepository talks to the token and profile endpoints.
type AuthRepository struct {
	client *httpclient.Client
}

// NewAuthRepository constructs the repository.
func NewAuthRepository(client *httpclient.Client) *AuthRepository {
	return &AuthRepository{client: client}
}

// ObtainTokens exchanges credentials for an access/refresh pair.
func (r *AuthRepository) ObtainTokens(ctx context.Context, creds models.Credentials) (*models.TokenPair, error) {
	var pair models.TokenPair
	if err := r.client.DoAnonymous(ctx, http.MethodPost, "/auth/jwt/create/", creds, &pair); err != nil {
		return nil, fmt.Errorf("obtain token: %w", err)
	}
	return &pair, nil
}

// RefreshAccess trades a refresh token for a new access token.
func (r *AuthRepository) RefreshAccess(ctx context.Context, refresh string) (string, error) {
	var out struct {
		Access string `json:"access"`
	}
	body := map[string]string{"refresh": refresh}
	if err := r.client.DoAnonymous(ctx, http.MethodPost, "/auth/jwt/refresh/", body, &out); err != nil {
		return "", fmt.Errorf("refresh token: %w", err)
	}
	if out.Access == "" {
		return "", fmt.Errorf("refresh token: empty access token")
	}
	return out.Access, nil
}

// Me returns the user owning the current access token.
func (r *AuthRepository) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := r.client.Do(ctx, http.MethodGet, "/auth/users/me/", nil, &user); err != nil {
		return nil, fmt.Errorf("fetch current user: %w", err)
	}
	return &user, nil
}
