// Package auth issues and checks the bearer tokens that carry an actor between requests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"BakeryStore/internal/controller/apperror"
	"BakeryStore/internal/domain/user"
)

const issuer = "bakery-store"

var ErrInvalidToken = fmt.Errorf("%w: invalid or expired token", apperror.ErrUnauthorized)

type Claims struct {
	Name string    `json:"name"`
	Role user.Role `json:"role"`
	jwt.RegisteredClaims
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        user.User `json:"user"`
}

type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *TokenIssuer) Issue(u user.User) (Token, error) {
	now := i.now()
	expires := now.Add(i.ttl)
	claims := Claims{
		Name: u.Name,
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	return Token{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   expires,
		User:        u.Public(),
	}, nil
}

// Parse validates the token and returns the actor it was issued for.
func (i *TokenIssuer) Parse(raw string) (user.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return user.Actor{}, errors.Join(ErrInvalidToken, err)
	}
	if _, err := user.NewRole(string(claims.Role)); err != nil || claims.Subject == "" {
		return user.Actor{}, ErrInvalidToken
	}
	return user.Actor{UserID: claims.Subject, Name: claims.Name, Role: claims.Role}, nil
}
