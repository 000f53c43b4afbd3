package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ahmadqo/e-sertifikat/internal/config"
	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type fakeAdminRepo struct {
	admins map[uuid.UUID]*model.Admin
}

func (r fakeAdminRepo) FindByUsername(_ context.Context, username string) (*model.Admin, error) {
	for _, a := range r.admins {
		if a.Username == username {
			return a, nil
		}
	}
	return nil, nil
}

func (r fakeAdminRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Admin, error) {
	return r.admins[id], nil
}

var testJWT = config.JWTConfig{Secret: "test-secret", ExpireHours: 1, RefreshExpHours: 24}

func newAuthFixture(t *testing.T, active bool) (AuthService, *model.Admin) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	admin := &model.Admin{
		ID:       uuid.New(),
		Username: "admin",
		FullName: "Administrator",
		Password: string(hash),
		Role:     model.RoleAdmin,
		IsActive: active,
	}
	repo := fakeAdminRepo{admins: map[uuid.UUID]*model.Admin{admin.ID: admin}}
	return NewAuthService(repo, testJWT), admin
}

func TestLogin(t *testing.T) {
	svc, admin := newAuthFixture(t, true)
	ctx := context.Background()

	res, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := utils.ValidateToken(res.Token.AccessToken, testJWT.Secret, utils.TokenTypeAccess)
	if err != nil {
		t.Fatalf("access token: %v", err)
	}
	if claims.AdminID != admin.ID.String() || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}

	if _, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "salah"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v", err)
	}
	if _, err := svc.Login(ctx, LoginRequest{Username: "tidak-ada", Password: "x"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v", err)
	}
}

func TestLogin_DisabledAccount(t *testing.T) {
	svc, _ := newAuthFixture(t, false)
	if _, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "admin123"}); !errors.Is(err, ErrAccountDisabled) {
		t.Errorf("err = %v, want ErrAccountDisabled", err)
	}
}

func TestRefreshToken(t *testing.T) {
	svc, _ := newAuthFixture(t, true)
	ctx := context.Background()

	res, err := svc.Login(ctx, LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.RefreshToken(ctx, res.Token.RefreshToken); err != nil {
		t.Errorf("refresh: %v", err)
	}
	// access token tidak boleh dipakai sebagai refresh token
	if _, err := svc.RefreshToken(ctx, res.Token.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access as refresh err = %v, want ErrInvalidToken", err)
	}
}

func TestMe(t *testing.T) {
	svc, admin := newAuthFixture(t, true)

	me, err := svc.Me(context.Background(), admin.ID.String())
	if err != nil || me.Username != "admin" {
		t.Fatalf("me = (%+v, %v)", me, err)
	}
	if _, err := svc.Me(context.Background(), uuid.NewString()); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("err = %v, want ErrAdminNotFound", err)
	}
}
