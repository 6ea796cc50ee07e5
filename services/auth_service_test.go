package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zzoohub/meallog/models"
	"github.com/zzoohub/meallog/services"
	"github.com/zzoohub/meallog/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	svc := services.NewAuthService(db)
	ctx := context.Background()

	user, err := svc.Register(ctx, services.RegisterRequest{
		Username: "mina",
		Email:    "mina@example.com",
		Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Password == "correct-horse" {
		t.Fatalf("password stored in plaintext")
	}

	if _, err := svc.Register(ctx, services.RegisterRequest{
		Username: "mina",
		Email:    "other@example.com",
		Password: "whatever-pass",
	}); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("duplicate username error = %v, want ErrConflict", err)
	}
	if _, err := svc.Register(ctx, services.RegisterRequest{
		Username: "mina2",
		Email:    "mina@example.com",
		Password: "whatever-pass",
	}); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("duplicate email error = %v, want ErrConflict", err)
	}

	loggedIn, pair, err := svc.Login(ctx, services.LoginRequest{
		Email:    "mina@example.com",
		Password: "correct-horse",
	}, map[string]any{"device": "test"}, "127.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.LastLoginAt == nil {
		t.Fatalf("last_login_at not set")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" || pair.TokenType != "bearer" {
		t.Fatalf("token pair incomplete: %+v", pair)
	}

	parsed, err := utils.ParseJWT(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if parsed != user.ID {
		t.Fatalf("token user = %s, want %s", parsed, user.ID)
	}

	if _, _, err := svc.Login(ctx, services.LoginRequest{
		Email:    "mina@example.com",
		Password: "wrong",
	}, nil, ""); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("wrong password error = %v, want ErrUnauthorized", err)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	svc := services.NewAuthService(db)
	ctx := context.Background()

	if _, err := svc.Register(ctx, services.RegisterRequest{
		Username: "jun",
		Email:    "jun@example.com",
		Password: "another-pass",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, pair, err := svc.Login(ctx, services.LoginRequest{
		Email:    "jun@example.com",
		Password: "another-pass",
	}, nil, "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.AccessToken == "" {
		t.Fatalf("refresh returned empty access token")
	}
	if refreshed.RefreshToken != pair.RefreshToken {
		t.Fatalf("refresh token should be stable across access refreshes")
	}

	if err := svc.Logout(ctx, pair.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("refresh after logout error = %v, want ErrUnauthorized", err)
	}

	var sessions int64
	if err := db.Model(&models.UserSession{}).Count(&sessions).Error; err != nil {
		t.Fatalf("count sessions: %v", err)
	}
	if sessions != 0 {
		t.Fatalf("sessions after logout = %d, want 0", sessions)
	}
}

func TestRefreshRejectsUnknownToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	db := newTestDB(t)
	svc := services.NewAuthService(db)

	if _, err := svc.Refresh(context.Background(), "bogus-token"); !errors.Is(err, services.ErrUnauthorized) {
		t.Fatalf("unknown refresh token error = %v, want ErrUnauthorized", err)
	}
}
