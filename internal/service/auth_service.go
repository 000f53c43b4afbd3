package service

import (
	"context"
	"errors"

	"github.com/ahmadqo/e-sertifikat/internal/config"
	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/repository"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Admin model.AdminResponse `json:"admin"`
	Token utils.TokenPair     `json:"token"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

var (
	ErrInvalidCredentials = errors.New("username atau password salah")
	ErrAccountDisabled    = errors.New("akun tidak aktif, hubungi administrator")
	ErrInvalidToken       = errors.New("refresh token tidak valid atau sudah expired")
	ErrAdminNotFound      = errors.New("admin tidak ditemukan")
)

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error)
	Me(ctx context.Context, adminID string) (*model.AdminResponse, error)
}

type authService struct {
	adminRepo repository.AdminRepository
	cfg       config.JWTConfig
}

func NewAuthService(adminRepo repository.AdminRepository, cfg config.JWTConfig) AuthService {
	return &authService{adminRepo: adminRepo, cfg: cfg}
}

func (s *authService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, invalid("username", "username dan password wajib diisi")
	}

	admin, err := s.adminRepo.FindByUsername(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrInvalidCredentials
	}
	if !admin.IsActive {
		return nil, ErrAccountDisabled
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	tokenPair, err := s.issueTokens(admin)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{Admin: admin.ToResponse(), Token: *tokenPair}, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	claims, err := utils.ValidateToken(refreshToken, s.cfg.Secret, utils.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidToken
	}

	// Pastikan admin masih ada dan aktif
	adminID, err := uuid.Parse(claims.AdminID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	admin, err := s.adminRepo.FindByID(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin == nil || !admin.IsActive {
		return nil, ErrAccountDisabled
	}

	return s.issueTokens(admin)
}

func (s *authService) Me(ctx context.Context, adminID string) (*model.AdminResponse, error) {
	id, err := parseID(adminID)
	if err != nil {
		return nil, err
	}
	admin, err := s.adminRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, ErrAdminNotFound
	}

	resp := admin.ToResponse()
	return &resp, nil
}

func (s *authService) issueTokens(admin *model.Admin) (*utils.TokenPair, error) {
	claims := model.JWTClaims{
		AdminID:  admin.ID.String(),
		Username: admin.Username,
		Role:     string(admin.Role),
		Name:     admin.FullName,
	}
	return utils.GenerateTokenPair(claims, s.cfg.Secret, s.cfg.ExpireHours, s.cfg.RefreshExpHours)
}
