package handler

import (
	"net/http"

	"github.com/ahmadqo/e-sertifikat/internal/middleware"
	"github.com/ahmadqo/e-sertifikat/internal/response"
	"github.com/ahmadqo/e-sertifikat/internal/service"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// Login godoc
// @Summary      Admin login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      service.LoginRequest  true  "Username dan password"
// @Success      200   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Failure      401   {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest

	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Format request tidak valid", err.Error())
		return
	}

	errs := utils.ValidationErrors{}
	req.Username = utils.SanitizeString(req.Username)
	if req.Username == "" {
		errs["username"] = "Username wajib diisi"
	}
	if req.Password == "" {
		errs["password"] = "Password wajib diisi"
	}
	if errs.HasErrors() {
		response.BadRequest(w, "Validasi gagal", errs)
		return
	}

	result, err := h.authService.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "Login berhasil", result)
}

// RefreshToken godoc
// @Summary      Refresh access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      service.RefreshTokenRequest  true  "Refresh token"
// @Success      200   {object}  response.Response
// @Failure      401   {object}  response.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req service.RefreshTokenRequest

	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Format request tidak valid", err.Error())
		return
	}
	if req.RefreshToken == "" {
		response.BadRequest(w, "Refresh token wajib diisi", nil)
		return
	}

	tokenPair, err := h.authService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "Token berhasil diperbarui", tokenPair)
}

// Profile godoc
// @Summary      Profil admin yang sedang login
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      401  {object}  response.Response
// @Router       /auth/profile [get]
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	adminID := middleware.GetAdminIDFromContext(r.Context())
	if adminID == "" {
		response.Unauthorized(w, "Admin tidak terautentikasi")
		return
	}

	admin, err := h.authService.Me(r.Context(), adminID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Success(w, "Data admin berhasil diambil", admin)
}
