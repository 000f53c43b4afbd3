package handler

import (
	"errors"
	"net/http"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/response"
	"github.com/ahmadqo/e-sertifikat/internal/service"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler struct {
	events           service.EventService
	admission        service.AdmissionService
	attendances      service.AttendanceService
	maxSignatureSize int64
}

func NewAttendanceHandler(
	events service.EventService,
	admission service.AdmissionService,
	attendances service.AttendanceService,
	maxSignatureSize int64,
) *AttendanceHandler {
	return &AttendanceHandler{
		events: events, admission: admission,
		attendances: attendances, maxSignatureSize: maxSignatureSize,
	}
}

type accessRequest struct {
	Password string `json:"password"`
}

// GetForm godoc
// @Summary      Form absensi publik
// @Description  Password event tidak pernah dikirim; lihat password_protected
// @Tags         attendance
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /attendance/form/{id} [get]
func (h *AttendanceHandler) GetForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.events.GetPublicForm(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Form absensi berhasil diambil", form)
}

// CheckAccess godoc
// @Summary      Cek password form absensi
// @Tags         attendance
// @Accept       json
// @Param        id    path  string         true  "Event ID"
// @Param        body  body  accessRequest  true  "Password event"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /attendance/form/{id}/access [post]
func (h *AttendanceHandler) CheckAccess(w http.ResponseWriter, r *http.Request) {
	var req accessRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Format request tidak valid", err.Error())
		return
	}

	if err := h.admission.CheckAccess(r.Context(), chi.URLParam(r, "id"), req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Akses diberikan", nil)
}

// Submit godoc
// @Summary      Kirim absensi
// @Description  multipart/form-data; tanda tangan lewat file "signature" atau data URL "signature_data"
// @Tags         attendance
// @Accept       mpfd
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Success      201  {object}  response.Response{data=model.SubmitAttendanceResponse}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /attendance/submit/{id} [post]
func (h *AttendanceHandler) Submit(w http.ResponseWriter, r *http.Request) {
	// data URL base64 ~4/3 ukuran asli
	r.Body = http.MaxBytesReader(w, r.Body, 2*h.maxSignatureSize+multipartMemory)
	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			response.BadRequest(w, "File terlalu besar atau format tidak valid", nil)
			return
		}
	} else if err := r.ParseForm(); err != nil {
		response.BadRequest(w, "Format request tidak valid", nil)
		return
	}

	req := model.SubmitAttendanceRequest{
		NamaLengkap:     r.FormValue("nama_lengkap"),
		UnitKerja:       r.FormValue("unit_kerja"),
		NIP:             r.FormValue("nip"),
		Provinsi:        r.FormValue("provinsi"),
		KabupatenKota:   r.FormValue("kabupaten_kota"),
		TanggalLahir:    r.FormValue("tanggal_lahir"),
		NomorHP:         r.FormValue("nomor_hp"),
		PangkatGolongan: r.FormValue("pangkat_golongan"),
		Jabatan:         r.FormValue("jabatan"),
		Email:           r.FormValue("email"),
		EmailKonfirmasi: r.FormValue("email_konfirmasi"),
		Pernyataan:      r.FormValue("pernyataan"),
		EventPassword:   r.FormValue("event_password"),
	}

	// error tanda tangan diputuskan service setelah cek event dan password
	signature, err := h.readSignature(r)
	switch {
	case errors.Is(err, errFileTooLarge):
		req.SignatureError = "ukuran tanda tangan terlalu besar"
	case err != nil:
		req.SignatureError = "tanda tangan tidak valid"
	default:
		req.Signature = signature
	}

	result, err := h.admission.Submit(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, "Absensi berhasil dikirim", result)
}

func (h *AttendanceHandler) readSignature(r *http.Request) (*model.UploadedFile, error) {
	if r.MultipartForm != nil {
		file, err := readFormFile(r, "signature", h.maxSignatureSize)
		if err != nil || file != nil {
			return file, err
		}
	}
	return decodeDataURL(r.FormValue("signature_data"), h.maxSignatureSize)
}

// GetByEvent godoc
// @Summary      List absensi per event, urut nomor urut
// @Tags         attendance
// @Produce      json
// @Param        event_id         path   string  true   "Event ID"
// @Param        delivery_status  query  string  false  "pending, delivered"
// @Param        page             query  int     false  "Page number"
// @Param        per_page         query  int     false  "Items per page"
// @Security     BearerAuth
// @Success      200  {object}  response.PaginatedResponse
// @Router       /attendance/event/{event_id} [get]
func (h *AttendanceHandler) GetByEvent(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.AttendanceFilter{
		DeliveryStatus: q.Get("delivery_status"),
		Page:           parseIntQuery(q.Get("page"), 1),
		PerPage:        parseIntQuery(q.Get("per_page"), 50),
	}

	list, pagination, err := h.attendances.GetByEvent(r.Context(), chi.URLParam(r, "event_id"), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Paginated(w, "Data absensi berhasil diambil", list, pagination)
}

// GetByID godoc
// @Summary      Detail absensi
// @Tags         attendance
// @Param        id  path  string  true  "Attendance ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /attendance/{id} [get]
func (h *AttendanceHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	att, err := h.attendances.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Data absensi berhasil diambil", att)
}

// Update godoc
// @Summary      Koreksi data peserta
// @Description  Nomor urut dan nomor sertifikat tidak dapat diubah
// @Tags         attendance
// @Accept       json
// @Param        id    path  string                         true  "Attendance ID"
// @Param        body  body  model.UpdateAttendanceRequest  true  "Data peserta"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /attendance/{id} [put]
func (h *AttendanceHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateAttendanceRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Format request tidak valid", err.Error())
		return
	}

	att, err := h.attendances.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Data absensi berhasil diupdate", att)
}

// Delete godoc
// @Summary      Hapus absensi
// @Tags         attendance
// @Param        id  path  string  true  "Attendance ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /attendance/{id} [delete]
func (h *AttendanceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.attendances.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Data absensi berhasil dihapus", nil)
}
