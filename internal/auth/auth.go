// Package auth validates the managed-auth bearer tokens sent by the
// dashboards and resolves them to a profile with its roles.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"condo-whatsapp/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownUser  = errors.New("user not found")
)

// User is the authenticated caller.
type User struct {
	ID    string
	Email string
	Roles []string
}

func (u *User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) IsSuperAdmin() bool {
	return u.HasRole(models.RoleSuperAdmin)
}

type Authenticator struct {
	secret []byte
	db     *gorm.DB
}

func NewAuthenticator(secret string, db *gorm.DB) *Authenticator {
	return &Authenticator{secret: []byte(secret), db: db}
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrMissingToken
	}
	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "bearer") {
		header = strings.TrimSpace(rest)
	} else if strings.EqualFold(header, "bearer") {
		header = ""
	}
	if header == "" {
		return "", ErrMissingToken
	}
	return header, nil
}

// ParseToken verifies an HS256 token and returns its subject.
func (a *Authenticator) ParseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return sub, nil
}

// Authenticate resolves the Authorization header to a known profile.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*User, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	sub, err := a.ParseToken(raw)
	if err != nil {
		return nil, err
	}

	var profile models.Profile
	if err := a.db.WithContext(ctx).First(&profile, "id = ?", sub).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, err
	}

	var roles []string
	if err := a.db.WithContext(ctx).Model(&models.UserRole{}).
		Where("user_id = ?", sub).Pluck("role", &roles).Error; err != nil {
		return nil, err
	}

	return &User{ID: profile.ID, Email: profile.Email, Roles: roles}, nil
}

// IssueToken signs a token for userID. Used by tests and local tooling.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString([]byte(secret))
}
