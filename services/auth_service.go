package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/zzoohub/meallog/models"
	"github.com/zzoohub/meallog/utils"
)

const (
	refreshTokenBytes = 32
	refreshTokenTTL   = 30 * 24 * time.Hour
)

type AuthService struct{ db *gorm.DB }

func NewAuthService(db *gorm.DB) *AuthService { return &AuthService{db: db} }

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"` // seconds
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", req.Username).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: username already exists", ErrConflict)
	}
	if err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", req.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: hashed,
		IsActive: true,
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest, deviceInfo map[string]any, ip string) (*models.User, *TokenPair, error) {
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("email = ? AND is_active = ?", req.Email, true).
		First(&user).Error; err != nil {
		return nil, nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		return nil, nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}

	pair, err := s.createSession(ctx, &user, deviceInfo, ip)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	user.LastLoginAt = &now
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, nil, err
	}

	return &user, pair, nil
}

// Refresh rotates the access token after validating the stored session.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var session models.UserSession
	if err := s.db.WithContext(ctx).
		Where("token_hash = ? AND expires_at > ?", utils.HashToken(refreshToken), time.Now().UTC()).
		First(&session).Error; err != nil {
		return nil, fmt.Errorf("%w: session not found or expired", ErrUnauthorized)
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", session.UserID).Error; err != nil {
		return nil, fmt.Errorf("%w: user not found", ErrUnauthorized)
	}

	access, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	session.LastUsedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Model(&session).Update("last_used_at", session.LastUsedAt).Error; err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refreshToken,
		TokenType:    "bearer",
		ExpiresIn:    int((24 * time.Hour).Seconds()),
	}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.db.WithContext(ctx).
		Where("token_hash = ?", utils.HashToken(refreshToken)).
		Delete(&models.UserSession{}).Error
}

func (s *AuthService) createSession(ctx context.Context, user *models.User, deviceInfo map[string]any, ip string) (*TokenPair, error) {
	access, err := utils.GenerateJWT(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.GenerateRandomToken(refreshTokenBytes)
	if err != nil {
		return nil, err
	}

	session := &models.UserSession{
		ID:         uuid.New(),
		UserID:     user.ID,
		TokenHash:  utils.HashToken(refresh),
		IPAddress:  ip,
		ExpiresAt:  time.Now().UTC().Add(refreshTokenTTL),
		LastUsedAt: time.Now().UTC(),
	}
	if deviceInfo != nil {
		raw, err := json.Marshal(deviceInfo)
		if err == nil {
			session.DeviceInfo = raw
		}
	}
	if err := s.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int((24 * time.Hour).Seconds()),
	}, nil
}
