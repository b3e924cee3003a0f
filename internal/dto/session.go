package dto

import "github.com/noah-isme/sma-result-desk/internal/models"

// SignInRequest carries the credentials posted to the sign-in endpoint.
type SignInRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Credentials converts the request for the session service.
func (r SignInRequest) Credentials() models.Credentials {
	return models.Credentials{Username: r.Username, Password: r.Password}
}
