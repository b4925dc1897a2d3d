package api

import (
	"context"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/packfinderz-storefront/pkg/errors"
	"github.com/angelmondragon/packfinderz-storefront/pkg/types"
	"github.com/angelmondragon/packfinderz-storefront/pkg/validators"
)

// LoginWithEmail exchanges credentials for a user and token pair.
func (c *Client) LoginWithEmail(ctx context.Context, email, password string) (*types.AuthResponse, error) {
	input := types.LoginInput{Email: strings.TrimSpace(email), Password: password}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	return fetch[types.AuthResponse](ctx, c, Request{
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Body:        input,
		SkipRefresh: true,
	})
}

func (c *Client) Register(ctx context.Context, input types.RegisterInput) (*types.AuthResponse, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	return fetch[types.AuthResponse](ctx, c, Request{
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Body:        input,
		SkipRefresh: true,
	})
}

// RefreshAccessToken runs the refresh exchange with the stored refresh token and
// returns the new access token.
func (c *Client) RefreshAccessToken(ctx context.Context) (string, error) {
	refreshToken, ok, err := c.vault.RefreshToken(ctx)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read refresh token")
	}
	if !ok {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "no refresh token stored")
	}
	return c.refreshAccessToken(c.log.WithField(ctx, "trigger", "explicit"), refreshToken)
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	input := types.PasswordResetInput{Email: strings.TrimSpace(email)}
	if err := validators.Struct(input); err != nil {
		return err
	}
	_, err := c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        "/auth/password-reset",
		Body:        input,
		SkipRefresh: true,
	})
	return err
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	input := types.PasswordResetConfirmInput{Token: strings.TrimSpace(token), NewPassword: newPassword}
	if err := validators.Struct(input); err != nil {
		return err
	}
	_, err := c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        "/auth/password-reset/confirm",
		Body:        input,
		SkipRefresh: true,
	})
	return err
}
