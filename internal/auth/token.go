package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trendhub/internal/apperr"
	"trendhub/internal/models"
)

// Claims carried by an admin bearer token.
type Claims struct {
	Role models.AdminRole `json:"role"`
	jwt.RegisteredClaims
}

// AdminID returns the subject as an ObjectID.
func (c Claims) AdminID() (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Subject)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: token subject", apperr.ErrInvalidCredentials)
	}
	return id, nil
}

type Tokens struct {
	secret []byte
	ttl    time.Duration
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue signs an HS256 token for admin valid for the configured TTL.
func (t *Tokens) Issue(admin models.Admin, now time.Time) (string, time.Time, error) {
	expires := now.Add(t.ttl)
	claims := Claims{
		Role: admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   admin.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates raw (with or without the "Bearer " prefix) and returns its
// claims. Any failure is apperr.ErrInvalidCredentials.
func (t *Tokens) Parse(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if parts := strings.SplitN(raw, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		raw = strings.TrimSpace(parts[1])
	}
	if raw == "" {
		return Claims{}, fmt.Errorf("%w: missing token", apperr.ErrInvalidCredentials)
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: invalid token", apperr.ErrInvalidCredentials)
	}
	return claims, nil
}
