package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

// AuthService handles staff sign-in and token management. Refresh sessions
// live in memory only; a restart forces staff to sign in again.
type AuthService struct {
	staff      port.StaffStore
	sessions   port.Cache[domain.RefreshSession]
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates the auth service.
func NewAuthService(staff port.StaffStore, sessions port.Cache[domain.RefreshSession], jwtSecret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		staff:      staff,
		sessions:   sessions,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()
	span.SetAttributes(attribute.String("auth.username", req.Username))

	if req.Username == "" || req.Password == "" {
		return nil, &domain.ErrUnauthorized{Message: "Credenciales inválidas"}
	}

	cred, err := s.staff.GetStaffCredential(ctx, req.Username)
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			// Same message as a bad password so usernames cannot be probed.
			s.logger.Warn("login: unknown staff user", zap.String("username", req.Username))
			return nil, &domain.ErrUnauthorized{Message: "Credenciales inválidas"}
		}
		return nil, fmt.Errorf("get staff credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login: failed password attempt", zap.String("username", req.Username))
		return nil, &domain.ErrUnauthorized{Message: "Credenciales inválidas"}
	}

	return s.issueTokens(cred.Username, cred.DisplayName, cred.Role)
}

// ============================================================
// Refresh — POST /v1/auth/refresh
// ============================================================

func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.LoginResponse, error) {
	_, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	session, ok := s.sessions.Get(req.RefreshToken)
	if !ok {
		return nil, &domain.ErrUnauthorized{Message: "Sesión inválida o expirada"}
	}

	// Rotation: the presented token is burned before a new pair is issued.
	s.sessions.Delete(req.RefreshToken)

	return s.issueTokens(session.Username, session.DisplayName, session.Role)
}

// ============================================================
// Logout — POST /v1/auth/logout
// ============================================================

func (s *AuthService) Logout(ctx context.Context, req *domain.RefreshRequest) {
	_, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if session, ok := s.sessions.Get(req.RefreshToken); ok {
		s.sessions.Delete(req.RefreshToken)
		s.logger.Info("staff logged out", zap.String("username", session.Username))
	}
}

// ============================================================
// ValidateToken — used by middleware
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub  string `json:"sub"`
	Name string `json:"name"`
	Role string `json:"role"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido o expirado"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}

	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}

	return claims, nil
}

// ============================================================
// Internal JWT helpers
// ============================================================

func (s *AuthService) issueTokens(username, displayName, role string) (*domain.LoginResponse, error) {
	accessToken, err := s.signAccessToken(username, displayName, role)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	s.sessions.Set(refreshToken, domain.RefreshSession{
		Username:    username,
		DisplayName: displayName,
		Role:        role,
	})

	s.logger.Info("staff tokens issued", zap.String("username", username))

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		Username:     username,
		DisplayName:  displayName,
		Role:         role,
	}, nil
}

func (s *AuthService) signAccessToken(username, displayName, role string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:  username,
		Name: displayName,
		Role: role,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "cartera-castigada-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
