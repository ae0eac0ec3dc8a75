package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coopvalles/cartera-castigada-api/internal/domain"
	"github.com/coopvalles/cartera-castigada-api/internal/infra/cache"
	"github.com/coopvalles/cartera-castigada-api/internal/service"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type mockStaffStore struct {
	cred *domain.StaffCredential
	err  error
}

func (m *mockStaffStore) GetStaffCredential(_ context.Context, username string) (*domain.StaffCredential, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.cred == nil || m.cred.Username != username {
		return nil, &domain.ErrNotFound{Resource: "staff credential", ID: username}
	}
	return m.cred, nil
}

func newAuthService(t *testing.T, password string) *service.AuthService {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	store := &mockStaffStore{cred: &domain.StaffCredential{
		Username:     "mrojas",
		PasswordHash: string(hash),
		DisplayName:  "María Rojas",
		Role:         "cobranzas",
	}}
	return service.NewAuthService(
		store,
		cache.New[domain.RefreshSession](time.Hour),
		"test-secret",
		15*time.Minute,
		time.Hour,
		zap.NewNop(),
	)
}

func TestLogin_Success(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{Username: "mrojas", Password: "hunter2"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected both tokens to be issued")
	}
	if resp.DisplayName != "María Rojas" {
		t.Errorf("expected display name, got %q", resp.DisplayName)
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("expected issued token to validate, got %v", err)
	}
	if claims.Sub != "mrojas" || claims.Role != "cobranzas" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	_, err := svc.Login(context.Background(), &domain.LoginRequest{Username: "mrojas", Password: "wrong"})
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownUserSameError(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	_, wrongPass := svc.Login(context.Background(), &domain.LoginRequest{Username: "mrojas", Password: "wrong"})
	_, unknownUser := svc.Login(context.Background(), &domain.LoginRequest{Username: "ghost", Password: "wrong"})

	if wrongPass == nil || unknownUser == nil {
		t.Fatal("expected both logins to fail")
	}
	if wrongPass.Error() != unknownUser.Error() {
		t.Errorf("expected identical errors for probing protection, got %q vs %q", wrongPass, unknownUser)
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	login, err := svc.Login(context.Background(), &domain.LoginRequest{Username: "mrojas", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	refreshed, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("expected refresh to succeed, got %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("expected refresh token to rotate")
	}

	// The old token is burned.
	_, err = svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken})
	var unauth *domain.ErrUnauthorized
	if !errors.As(err, &unauth) {
		t.Fatalf("expected reused token to be rejected, got %v", err)
	}
}

func TestLogout_InvalidatesSession(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	login, err := svc.Login(context.Background(), &domain.LoginRequest{Username: "mrojas", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	svc.Logout(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken})

	if _, err := svc.Refresh(context.Background(), &domain.RefreshRequest{RefreshToken: login.RefreshToken}); err == nil {
		t.Fatal("expected refresh after logout to fail")
	}
}

func TestValidateAccessToken_Garbage(t *testing.T) {
	svc := newAuthService(t, "hunter2")

	if _, err := svc.ValidateAccessToken("not-a-jwt"); err == nil {
		t.Fatal("expected error for malformed token")
	}
}
