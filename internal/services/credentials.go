package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/deepthoughts/thoughts-server/internal/auth"
	"github.com/deepthoughts/thoughts-server/internal/models"
)

// DefaultTokenTTL is how long a session token stays valid
const DefaultTokenTTL = 2 * time.Hour

// TokenData is the user payload carried by a session token
type TokenData struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Claims are the JWT claims of a session token
type Claims struct {
	Data TokenData `json:"data"`
	jwt.RegisteredClaims
}

// Credentials issues and verifies session tokens
type Credentials struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCredentials creates a token issuer signing with secret
func NewCredentials(secret string, ttl time.Duration) *Credentials {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Credentials{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// HashPassword returns a salted bcrypt hash of plain
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plain matches hash
func VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IssueToken generates a signed session token for a user
func (c *Credentials) IssueToken(user *models.User) (string, error) {
	now := c.now()
	claims := Claims{
		Data: TokenData{
			ID:       user.ID,
			Username: user.Username,
			Email:    user.Email,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ParseToken validates a session token and returns the identity it carries
func (c *Credentials) ParseToken(tokenString string) (auth.Identity, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		return auth.Anonymous, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return auth.Anonymous, fmt.Errorf("invalid token")
	}
	if claims.Data.ID == "" {
		return auth.Anonymous, fmt.Errorf("user id not found in token")
	}

	return auth.Authenticated(claims.Data.ID, claims.Data.Username, claims.Data.Email), nil
}
