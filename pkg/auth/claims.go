package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the HTTP-only cookie carrying the admin session token.
const SessionCookieName = "rp_admin"

// SessionTokenPayload captures the data available when minting a JWT.
type SessionTokenPayload struct {
	Username string
	JTI      string
}

// SessionTokenClaims represents the typed JWT issued to the admin panel.
type SessionTokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}
