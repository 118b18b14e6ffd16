package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"condo-whatsapp/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Profile{}, &models.UserRole{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer abc", "abc", false},
		{"bearer   abc ", "abc", false},
		{"abc", "abc", false},
		{"", "", true},
		{"Bearer ", "", true},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if (err != nil) != tt.wantErr {
			t.Fatalf("BearerToken(%q) err = %v", tt.header, err)
		}
		if got != tt.want {
			t.Fatalf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestAuthenticate(t *testing.T) {
	db := setupDB(t)
	db.Create(&models.Profile{ID: "u1", Email: "sindico@example.com"})
	db.Create(&models.UserRole{UserID: "u1", Role: models.RoleSindico})
	a := NewAuthenticator(testSecret, db)

	tok, err := IssueToken(testSecret, "u1", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	u, err := a.Authenticate(context.Background(), "Bearer "+tok)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if u.ID != "u1" || !u.HasRole(models.RoleSindico) || u.IsSuperAdmin() {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	db := setupDB(t)
	a := NewAuthenticator(testSecret, db)

	unknown, _ := IssueToken(testSecret, "ghost", time.Hour)
	wrongKey, _ := IssueToken("other-secret", "u1", time.Hour)
	expired, _ := IssueToken(testSecret, "u1", -time.Minute)
	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte(testSecret))

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"missing", "", ErrMissingToken},
		{"garbage", "Bearer not-a-jwt", ErrInvalidToken},
		{"wrong key", "Bearer " + wrongKey, ErrInvalidToken},
		{"expired", "Bearer " + expired, ErrInvalidToken},
		{"no exp", "Bearer " + noExp, ErrInvalidToken},
		{"unknown user", "Bearer " + unknown, ErrUnknownUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Authenticate(context.Background(), tt.header)
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}
