package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"studiosite/internal/app/session"
)

// Login authenticates against the API and, on success, stores the issued token
// (with user id, name and role) in the bound session.
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	return c.authenticate(ctx, "login", "/auth/login", creds)
}

// Register creates an account; the API signs the new user in directly.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	return c.authenticate(ctx, "register", "/auth/register", input)
}

// Logout clears the stored login. The API keeps no server-side session to revoke.
func (c *Client) Logout(ctx context.Context) error {
	if c.sess == nil {
		return nil
	}
	return c.sess.ClearAuth(ctx)
}

func (c *Client) authenticate(ctx context.Context, op, path string, body any) (*AuthResponse, error) {
	var res AuthResponse
	if _, err := c.call(ctx, op, http.MethodPost, path, body, &res); err != nil {
		return nil, err
	}

	if res.Token == "" {
		return nil, fmt.Errorf("%s: response carried no token", op)
	}

	if c.sess != nil {
		err := c.sess.SetAuth(ctx, session.Authenticated{
			Token:  res.Token,
			UserID: res.User.ID,
			Name:   res.User.Name,
			Role:   res.User.Role,
		})
		if err != nil {
			return nil, err
		}
	}

	return &res, nil
}
