package tokens

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Subject is the identity copied into an access token.
type Subject struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// AccessClaims is the typed payload of an access token. The user id travels
// in RegisteredClaims.Subject and the token id in RegisteredClaims.ID.
type AccessClaims struct {
	Email     string `json:"email"`
	Name      string `json:"name"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	jwt.RegisteredClaims
}

func displayName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
