package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	ImageURL string `json:"image_url"`
	jwt.RegisteredClaims
}

// Tokens issues and validates identity tokens. The signing secret comes
// from configuration, never from source.
type Tokens struct {
	secret   []byte
	duration time.Duration
}

func NewTokens(secret string, duration time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), duration: duration}
}

// Generate creates a signed JWT for a specific identity.
func (t *Tokens) Generate(identity Identity) (string, error) {
	claims := &CustomClaims{
		Name:     identity.Name,
		Email:    identity.Email,
		ImageURL: identity.ImageURL,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "spill",
		},
	}

	// Create the token using the HS256 algorithm (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Resolve parses and validates the signature and expiration of a JWT
// string, returning the identity it encodes.
func (t *Tokens) Resolve(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return Identity{}, jwt.ErrSignatureInvalid
	}
	return toIdentity(claims), nil
}

// Peek extracts the identity from a token without verifying the
// signature. Clients use it to learn their own user id; it must never be
// used for authorization decisions.
func Peek(tokenString string) (Identity, error) {
	claims := &CustomClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
	if err != nil {
		return Identity{}, err
	}
	return toIdentity(claims), nil
}

func toIdentity(claims *CustomClaims) Identity {
	return Identity{
		ID:       claims.Subject,
		Name:     claims.Name,
		Email:    claims.Email,
		ImageURL: claims.ImageURL,
	}
}
