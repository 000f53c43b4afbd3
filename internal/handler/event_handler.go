package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ahmadqo/e-sertifikat/internal/middleware"
	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/response"
	"github.com/ahmadqo/e-sertifikat/internal/service"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/go-chi/chi/v5"
)

type EventHandler struct {
	svc             service.EventService
	maxTemplateSize int64
}

func NewEventHandler(svc service.EventService, maxTemplateSize int64) *EventHandler {
	return &EventHandler{svc: svc, maxTemplateSize: maxTemplateSize}
}

// GetAll godoc
// @Summary      List event
// @Tags         events
// @Produce      json
// @Param        status    query  string  false  "draft, active, closed"
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Items per page"
// @Security     BearerAuth
// @Success      200  {object}  response.PaginatedResponse
// @Router       /events [get]
func (h *EventHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.EventFilter{
		Status:  q.Get("status"),
		Page:    parseIntQuery(q.Get("page"), 1),
		PerPage: parseIntQuery(q.Get("per_page"), 10),
	}

	events, pagination, err := h.svc.GetAll(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Paginated(w, "Data event berhasil diambil", events, pagination)
}

// GetByID godoc
// @Summary      Detail event
// @Tags         events
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /events/{id} [get]
func (h *EventHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Data event berhasil diambil", event)
}

// Create godoc
// @Summary      Buat event baru
// @Description  JSON atau multipart/form-data dengan file template_sertifikat (PNG/JPEG)
// @Tags         events
// @Accept       json,mpfd
// @Produce      json
// @Security     BearerAuth
// @Success      201  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /events [post]
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, template, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	event, err := h.svc.Create(r.Context(), req, template, middleware.GetAdminIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, "Event berhasil dibuat", event)
}

// Update godoc
// @Summary      Update event
// @Tags         events
// @Accept       json,mpfd
// @Produce      json
// @Param        id  path  string  true  "Event ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /events/{id} [put]
func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	req, template, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	event, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), req, template)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Event berhasil diupdate", event)
}

// Delete godoc
// @Summary      Hapus event beserta seluruh absensinya
// @Tags         events
// @Param        id  path  string  true  "Event ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /events/{id} [delete]
func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Event berhasil dihapus", nil)
}

// Activate godoc
// @Summary      Aktifkan event (draft -> active)
// @Tags         events
// @Param        id  path  string  true  "Event ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /events/{id}/activate [patch]
func (h *EventHandler) Activate(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Activate(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Event berhasil diaktifkan", event)
}

// Close godoc
// @Summary      Tutup event
// @Tags         events
// @Param        id  path  string  true  "Event ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /events/{id}/close [patch]
func (h *EventHandler) Close(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.Close(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Event berhasil ditutup", event)
}

// GenerateLink godoc
// @Summary      Aktifkan event dan buat link form absensi
// @Tags         events
// @Param        id  path  string  true  "Event ID"
// @Security     BearerAuth
// @Success      200  {object}  response.Response
// @Router       /events/{id}/generate-link [post]
func (h *EventHandler) GenerateLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.GenerateLink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Success(w, "Link absensi berhasil dibuat", link)
}

// parseRequest terima JSON atau multipart; ok=false berarti response error sudah ditulis
func (h *EventHandler) parseRequest(w http.ResponseWriter, r *http.Request) (model.EventRequest, *model.UploadedFile, bool) {
	var req model.EventRequest

	if !isMultipart(r) {
		if err := utils.DecodeJSON(r, &req); err != nil {
			response.BadRequest(w, "Format request tidak valid", err.Error())
			return req, nil, false
		}
		return req, nil, true
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxTemplateSize+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		response.BadRequest(w, "File terlalu besar atau format tidak valid", nil)
		return req, nil, false
	}

	req = model.EventRequest{
		NamaKegiatan:      r.FormValue("nama_kegiatan"),
		NomorSurat:        r.FormValue("nomor_surat"),
		TanggalMulai:      r.FormValue("tanggal_mulai"),
		TanggalSelesai:    r.FormValue("tanggal_selesai"),
		JamMulai:          r.FormValue("jam_mulai"),
		JamSelesai:        r.FormValue("jam_selesai"),
		BatasWaktuAbsensi: r.FormValue("batas_waktu_absensi"),
		Status:            model.EventStatus(r.FormValue("status")),
	}
	if raw := r.FormValue("form_config"); raw != "" {
		var cfg model.FormConfig
		if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
			response.BadRequest(w, "Validasi gagal", map[string]string{"form_config": "form_config harus berupa JSON"})
			return req, nil, false
		}
		req.FormConfig = &cfg
	}

	template, err := readFormFile(r, "template_sertifikat", h.maxTemplateSize)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			response.BadRequest(w, "Ukuran template terlalu besar", nil)
		} else {
			response.BadRequest(w, "File template tidak valid", nil)
		}
		return req, nil, false
	}
	return req, template, true
}
