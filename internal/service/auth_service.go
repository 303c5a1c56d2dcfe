package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"heatbeat/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrInvalidToken    = errors.New("invalid token")
)

// AuthService handles user sign-up and JWT issuance. Sign-up also provisions
// the user's first thermostat with its baseline setting.
type AuthService struct {
	authRepo       repository.Authorization
	thermostatRepo repository.ThermostatRepo
	settingRepo    repository.SettingRepo
	signingKey     []byte
	tokenTTL       time.Duration
}

func NewAuthService(authRepo repository.Authorization, thermostatRepo repository.ThermostatRepo, settingRepo repository.SettingRepo, cfg AuthConfig) *AuthService {
	return &AuthService{
		authRepo:       authRepo,
		thermostatRepo: thermostatRepo,
		settingRepo:    settingRepo,
		signingKey:     []byte(cfg.SigningKey),
		tokenTTL:       cfg.TokenTTL,
	}
}

// Claims defines the JWT claims.
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// SignUp creates a user and their first thermostat.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (int, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") {
		return 0, errors.New("invalid email")
	}

	existing, err := s.authRepo.GetByEmail(email)
	if err != nil {
		return 0, err
	}
	if existing != nil {
		return 0, ErrEmailTaken
	}

	hash, err := hashPassword(password)
	if err != nil {
		return 0, err
	}

	id, err := s.authRepo.Create(email, hash)
	if err != nil {
		return 0, err
	}

	thermostats := NewThermostatService(s.thermostatRepo, s.settingRepo)
	if _, err := thermostats.Create(ctx, id, defaultThermostatName); err != nil {
		return 0, fmt.Errorf("provision thermostat for user %d: %w", id, err)
	}

	return id, nil
}

// GenerateToken validates credentials and returns a signed JWT.
func (s *AuthService) GenerateToken(_ context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	u, err := s.authRepo.GetByEmail(email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", ErrUserNotFound
	}

	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return "", ErrInvalidPassword
	}

	return s.issueToken(u.ID)
}

// ParseToken parses a JWT and returns the user ID.
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

func (s *AuthService) issueToken(userID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	return token.SignedString(s.signingKey)
}
