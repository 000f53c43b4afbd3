package handler

import (
	"fmt"
	"net/http"

	"github.com/ahmadqo/e-sertifikat/internal/response"
	"github.com/ahmadqo/e-sertifikat/internal/service"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/go-chi/chi/v5"
)

type CertificateHandler struct {
	issuance service.IssuanceService
	delivery service.DeliveryService
	history  service.HistoryService
}

func NewCertificateHandler(issuance service.IssuanceService, delivery service.DeliveryService, history service.HistoryService) *CertificateHandler {
	return &CertificateHandler{issuance: issuance, delivery: delivery, history: history}
}

// Generate godoc
// @Summary      Generate (ulang) sertifikat satu peserta
// @Description  Nomor sertifikat tidak berubah; URL file selalu baru
// @Tags         certificates
// @Produce      json
// @Param        attendance_id  path  string  true  "Attendance ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.GenerateResult}
// @Failure      404  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /certificates/generate/{attendance_id} [post]
func (h *CertificateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	result, err := h.issuance.GenerateOne(r.Context(), chi.URLParam(r, "attendance_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Sertifikat berhasil di-generate", result)
}

// GenerateEvent godoc
// @Summary      Generate sertifikat semua peserta event
// @Tags         certificates
// @Produce      json
// @Param        event_id  path  string  true  "Event ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.BatchResult}
// @Failure      404  {object}  response.Response
// @Router       /certificates/generate-event/{event_id} [post]
func (h *CertificateHandler) GenerateEvent(w http.ResponseWriter, r *http.Request) {
	result, err := h.issuance.GenerateForEvent(r.Context(), chi.URLParam(r, "event_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, batchMessage("Generate sertifikat", result.Succeeded, len(result.Failed)), result)
}

// Send godoc
// @Summary      Kirim sertifikat ke email peserta
// @Tags         certificates
// @Produce      json
// @Param        attendance_id  path  string  true  "Attendance ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.DeliveryResult}
// @Failure      409  {object}  response.Response
// @Failure      502  {object}  response.Response
// @Router       /certificates/send/{attendance_id} [post]
func (h *CertificateHandler) Send(w http.ResponseWriter, r *http.Request) {
	result, err := h.delivery.SendOne(r.Context(), chi.URLParam(r, "attendance_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Sertifikat berhasil dikirim", result)
}

// SendEvent godoc
// @Summary      Kirim sertifikat ke semua peserta event
// @Tags         certificates
// @Produce      json
// @Param        event_id      path   string  true   "Event ID"
// @Param        pending_only  query  bool    false  "Lewati peserta yang sudah terkirim"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.BatchResult}
// @Failure      404  {object}  response.Response
// @Router       /certificates/send-event/{event_id} [post]
func (h *CertificateHandler) SendEvent(w http.ResponseWriter, r *http.Request) {
	opts := service.SendOptions{PendingOnly: utils.IsChecked(r.URL.Query().Get("pending_only"))}

	result, err := h.delivery.SendForEvent(r.Context(), chi.URLParam(r, "event_id"), opts)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, batchMessage("Pengiriman sertifikat", result.Succeeded, len(result.Failed)), result)
}

// History godoc
// @Summary      Riwayat sertifikat per event
// @Tags         certificates
// @Produce      json
// @Param        event_id  path  string  true  "Event ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /certificates/history/{event_id} [get]
func (h *CertificateHandler) History(w http.ResponseWriter, r *http.Request) {
	entries, err := h.history.GetHistory(r.Context(), chi.URLParam(r, "event_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Riwayat sertifikat berhasil diambil", entries)
}

// Attempts godoc
// @Summary      Semua percobaan generate dan kirim untuk satu peserta
// @Tags         certificates
// @Produce      json
// @Param        attendance_id  path  string  true  "Attendance ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=model.CertificateAttempts}
// @Router       /certificates/attempts/{attendance_id} [get]
func (h *CertificateHandler) Attempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.history.GetAttempts(r.Context(), chi.URLParam(r, "attendance_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Riwayat percobaan berhasil diambil", attempts)
}

// Download godoc
// @Summary      Download PDF sertifikat
// @Tags         certificates
// @Produce      application/pdf
// @Param        attendance_id  path  string  true  "Attendance ID"
// @Security     BearerAuth
// @Success      200  {file}    binary
// @Failure      409  {object}  response.Response
// @Router       /certificates/download/{attendance_id} [get]
func (h *CertificateHandler) Download(w http.ResponseWriter, r *http.Request) {
	pdfBytes, filename, err := h.issuance.Download(r.Context(), chi.URLParam(r, "attendance_id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(pdfBytes)))
	w.WriteHeader(http.StatusOK)
	w.Write(pdfBytes)
}

// Verify godoc
// @Summary      Verifikasi nomor sertifikat (publik)
// @Tags         public
// @Produce      json
// @Param        nomor  query  string  true  "Nomor sertifikat, contoh 1/010/ABC/2025"
// @Success      200  {object}  response.Response{data=model.VerifyResponse}
// @Failure      400  {object}  response.Response
// @Router       /verify [get]
func (h *CertificateHandler) Verify(w http.ResponseWriter, r *http.Request) {
	result, err := h.issuance.Verify(r.Context(), r.URL.Query().Get("nomor"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, result.Message, result)
}

func batchMessage(op string, succeeded, failed int) string {
	if failed == 0 {
		return fmt.Sprintf("%s selesai: %d berhasil", op, succeeded)
	}
	return fmt.Sprintf("%s selesai: %d berhasil, %d gagal", op, succeeded, failed)
}
