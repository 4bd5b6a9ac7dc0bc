package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	pkgAuth "github.com/angelmondragon/stockroom-backend/pkg/auth"
	"github.com/angelmondragon/stockroom-backend/pkg/config"
	"github.com/angelmondragon/stockroom-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/security"
	"gorm.io/gorm"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "stockroom",
	ExpirationMinutes: 30,
	RememberMeDays:    7,
}

func TestServiceLoginMintsTokenAndSession(t *testing.T) {
	user := enabledUser(t, "clerk", "clerk-secret")
	svc, sessions := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{UserName: " clerk ", Password: "clerk-secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.TokenType != "bearer" {
		t.Fatalf("unexpected token type %q", resp.TokenType)
	}
	if resp.User.UserName != "clerk" || resp.User.ID != user.UserID {
		t.Fatalf("unexpected user %+v", resp.User)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.Subject != "clerk" || claims.UserID != user.UserID {
		t.Fatalf("unexpected claims sub=%q uid=%d", claims.Subject, claims.UserID)
	}
	ttl, ok := sessions.created[claims.ID]
	if !ok {
		t.Fatalf("expected session stored for jti %q", claims.ID)
	}
	if ttl != 30*time.Minute {
		t.Fatalf("expected session ttl 30m, got %s", ttl)
	}
}

func TestServiceLoginRememberMe(t *testing.T) {
	user := enabledUser(t, "clerk", "pw")
	svc, sessions := buildTestService(t, user)

	resp, err := svc.Login(context.Background(), LoginRequest{UserName: "clerk", Password: "pw", RememberMe: true})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, _ := pkgAuth.ParseAccessToken(testJWT, resp.AccessToken)
	if got := sessions.created[claims.ID]; got != 7*24*time.Hour {
		t.Fatalf("expected remember-me ttl, got %s", got)
	}
}

func TestServiceLoginRejections(t *testing.T) {
	disabled := enabledUser(t, "gone", "pw")
	disabled.Enabled = false

	cases := map[string]struct {
		user *models.User
		err  error
		req  LoginRequest
		code pkgerrors.Code
	}{
		"wrong password": {enabledUser(t, "clerk", "pw"), nil, LoginRequest{UserName: "clerk", Password: "nope"}, pkgerrors.CodeUnauthorized},
		"disabled":       {disabled, nil, LoginRequest{UserName: "gone", Password: "pw"}, pkgerrors.CodeUnauthorized},
		"unknown user":   {nil, gorm.ErrRecordNotFound, LoginRequest{UserName: "ghost", Password: "pw"}, pkgerrors.CodeUnauthorized},
		"blank":          {nil, nil, LoginRequest{}, pkgerrors.CodeUnauthorized},
		"store down":     {nil, errors.New("dial tcp"), LoginRequest{UserName: "clerk", Password: "pw"}, pkgerrors.CodeDependency},
	}
	for name, tc := range cases {
		svc, sessions := buildTestServiceWith(t, stubUserRepo{user: tc.user, err: tc.err})
		_, err := svc.Login(context.Background(), tc.req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != tc.code {
			t.Fatalf("%s: expected %s, got %v", name, tc.code, err)
		}
		if len(sessions.created) != 0 {
			t.Fatalf("%s: no session should be stored", name)
		}
	}
}

func TestServiceLogout(t *testing.T) {
	svc, sessions := buildTestService(t, enabledUser(t, "clerk", "pw"))
	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-1" {
		t.Fatalf("expected jti-1 revoked, got %v", sessions.revoked)
	}
	if err := svc.Logout(context.Background(), ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for blank access id, got %v", err)
	}
}

func buildTestService(t *testing.T, user *models.User) (Service, *stubSessionManager) {
	return buildTestServiceWith(t, stubUserRepo{user: user})
}

func buildTestServiceWith(t *testing.T, repo stubUserRepo) (Service, *stubSessionManager) {
	t.Helper()
	hasher, err := security.NewHasher(fastPasswords)
	if err != nil {
		t.Fatalf("hasher: %v", err)
	}
	sessions := &stubSessionManager{created: map[string]time.Duration{}}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		Passwords:      hasher,
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc, sessions
}

var fastPasswords = config.PasswordConfig{ArgonMemoryKB: 1024, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}

func enabledUser(t *testing.T, name, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, fastPasswords)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{UserID: 11, UserName: name, HashedPassword: hash, Enabled: true}
}

type stubUserRepo struct {
	user *models.User
	err  error
}

func (s stubUserRepo) FindByUserName(ctx context.Context, userName string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.user == nil || s.user.UserName != userName {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

type stubSessionManager struct {
	created map[string]time.Duration
	revoked []string
}

func (s *stubSessionManager) Create(ctx context.Context, accessID string, userID int64, ttl time.Duration) error {
	s.created[accessID] = ttl
	return nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}
