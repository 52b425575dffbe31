package jwt

import "github.com/golang-jwt/jwt"

// VisitorClaims is the payload of the signed visitor cookie.
// It identifies one browser install; the id doubles as the visitor storage namespace.
type VisitorClaims struct {
	jwt.StandardClaims

	// VisitorID is the storage namespace of the browser install.
	VisitorID string `json:"vid"`
}

// UpstreamClaims is the subset of the remote API's login token the site reads.
// The token is issued and verified by the remote API; the site only inspects it.
type UpstreamClaims struct {
	jwt.StandardClaims

	ID     string `json:"id"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"name"`
}

// AccountID returns the user id carried by the token, whichever claim the API used.
func (c *UpstreamClaims) AccountID() string {
	switch {
	case c.ID != "":
		return c.ID
	case c.UserID != "":
		return c.UserID
	default:
		return c.StandardClaims.Subject
	}
}
