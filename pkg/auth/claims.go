package auth

import "github.com/golang-jwt/jwt/v5"

// Identity is the stable identifier pair the identity provider vouches for.
type Identity struct {
	UserID string
	Email  string
}

// AccessTokenClaims is the JWT claim set issued by the identity provider.
type AccessTokenClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Identity extracts the identity pair from the claims.
func (c *AccessTokenClaims) Identity() Identity {
	if c == nil {
		return Identity{}
	}
	return Identity{UserID: c.UserID, Email: c.Email}
}
