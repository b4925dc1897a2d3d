package types

import "strings"

// AuthToken is the credential pair issued at login. RefreshToken may be empty.
type AuthToken struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// HasRefresh reports whether a refresh token was issued.
func (t AuthToken) HasRefresh() bool {
	return strings.TrimSpace(t.RefreshToken) != ""
}

type AuthUser struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url"`
}

// AuthResponse is returned by the login and register endpoints.
type AuthResponse struct {
	User  AuthUser  `json:"user"`
	Token AuthToken `json:"token"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterInput struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
}

type RefreshInput struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshResponse carries the replacement access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

type PasswordResetInput struct {
	Email string `json:"email" validate:"required,email"`
}

type PasswordResetConfirmInput struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}
