package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/repository"
	"github.com/ahmadqo/e-sertifikat/internal/response"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/google/uuid"
)

type EventService interface {
	GetAll(ctx context.Context, filter model.EventFilter) ([]*model.Event, *response.Pagination, error)
	GetByID(ctx context.Context, id string) (*model.Event, error)
	Create(ctx context.Context, req model.EventRequest, template *model.UploadedFile, createdBy string) (*model.Event, error)
	Update(ctx context.Context, id string, req model.EventRequest, template *model.UploadedFile) (*model.Event, error)
	Delete(ctx context.Context, id string) error
	Activate(ctx context.Context, id string) (*model.Event, error)
	Close(ctx context.Context, id string) (*model.Event, error)
	GenerateLink(ctx context.Context, id string) (*model.FormLink, error)
	GetPublicForm(ctx context.Context, id string) (*model.PublicForm, error)
}

type eventService struct {
	repo           repository.EventRepository
	attendanceRepo repository.AttendanceRepository
	storage        FileStorage
	frontendURL    string
	now            Clock
}

func NewEventService(
	repo repository.EventRepository,
	attendanceRepo repository.AttendanceRepository,
	storage FileStorage,
	frontendURL string,
	now Clock,
) EventService {
	if now == nil {
		now = time.Now
	}
	return &eventService{
		repo: repo, attendanceRepo: attendanceRepo,
		storage: storage, frontendURL: strings.TrimRight(frontendURL, "/"), now: now,
	}
}

func (s *eventService) GetAll(ctx context.Context, filter model.EventFilter) ([]*model.Event, *response.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 10
	}
	if filter.Status != "" && !model.EventStatus(filter.Status).Valid() {
		return nil, nil, invalid("status", "status harus draft, active, atau closed")
	}

	events, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return events, response.NewPagination(filter.Page, filter.PerPage, total), nil
}

func (s *eventService) GetByID(ctx context.Context, id string) (*model.Event, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, uid)
}

func (s *eventService) find(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (s *eventService) Create(ctx context.Context, req model.EventRequest, template *model.UploadedFile, createdBy string) (*model.Event, error) {
	event := &model.Event{
		ID:         uuid.New(),
		Status:     model.EventDraft,
		FormConfig: model.DefaultFormConfig(),
	}
	if err := applyEventRequest(event, req); err != nil {
		return nil, err
	}
	if uid, err := uuid.Parse(createdBy); err == nil {
		event.CreatedBy = &uid
	}

	existing, err := s.repo.FindByNomorSurat(ctx, event.NomorSurat)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrNomorSuratExists
	}

	if template != nil {
		url, err := s.uploadTemplate(ctx, event.NamaKegiatan, template)
		if err != nil {
			return nil, err
		}
		event.TemplateSertifikat = &url
	}

	if err := s.repo.Create(ctx, event); err != nil {
		deleteQuietly(ctx, s.storage, event.TemplateSertifikat)
		if errors.Is(err, repository.ErrDuplicateNomorSurat) {
			return nil, ErrNomorSuratExists
		}
		return nil, err
	}

	return s.find(ctx, event.ID)
}

func (s *eventService) Update(ctx context.Context, id string, req model.EventRequest, template *model.UploadedFile) (*model.Event, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	event, err := s.find(ctx, uid)
	if err != nil {
		return nil, err
	}

	current := event.Status
	if err := applyEventRequest(event, req); err != nil {
		return nil, err
	}
	if req.Status != "" {
		if !req.Status.Valid() {
			return nil, invalid("status", "status harus draft, active, atau closed")
		}
		// active/closed boleh diset langsung, kembali ke draft tidak
		if req.Status == model.EventDraft && current != model.EventDraft {
			return nil, ErrInvalidTransition
		}
		event.Status = req.Status
	}

	if existing, err := s.repo.FindByNomorSurat(ctx, event.NomorSurat); err != nil {
		return nil, err
	} else if existing != nil && existing.ID != event.ID {
		return nil, ErrNomorSuratExists
	}

	oldTemplate := event.TemplateSertifikat
	if template != nil {
		url, err := s.uploadTemplate(ctx, event.NamaKegiatan, template)
		if err != nil {
			return nil, err
		}
		event.TemplateSertifikat = &url
	}

	if err := s.repo.Update(ctx, event); err != nil {
		if template != nil {
			deleteQuietly(ctx, s.storage, event.TemplateSertifikat)
		}
		if errors.Is(err, repository.ErrDuplicateNomorSurat) {
			return nil, ErrNomorSuratExists
		}
		return nil, err
	}
	if template != nil {
		deleteQuietly(ctx, s.storage, oldTemplate)
	}
	if req.Status != "" && req.Status != current {
		if err := s.repo.UpdateStatus(ctx, uid, req.Status); err != nil {
			return nil, err
		}
	}

	return s.find(ctx, uid)
}

// Delete hapus event beserta absensinya; file template, tanda tangan dan sertifikat
// dihapus setelah baris database terhapus
func (s *eventService) Delete(ctx context.Context, id string) error {
	uid, err := parseID(id)
	if err != nil {
		return err
	}
	event, err := s.find(ctx, uid)
	if err != nil {
		return err
	}

	attendances, err := s.attendanceRepo.ListByEvent(ctx, uid)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, uid); err != nil {
		return err
	}

	deleteQuietly(ctx, s.storage, event.TemplateSertifikat)
	for _, att := range attendances {
		deleteQuietly(ctx, s.storage, att.SignatureURL)
		deleteQuietly(ctx, s.storage, att.CertificateURL)
	}
	return nil
}

// Activate draft -> active. Event yang sudah aktif dikembalikan apa adanya.
func (s *eventService) Activate(ctx context.Context, id string) (*model.Event, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	event, err := s.find(ctx, uid)
	if err != nil {
		return nil, err
	}

	switch event.Status {
	case model.EventActive:
		return event, nil
	case model.EventClosed:
		return nil, ErrInvalidTransition
	}

	if err := s.repo.UpdateStatus(ctx, uid, model.EventActive); err != nil {
		return nil, err
	}
	event.Status = model.EventActive
	return event, nil
}

func (s *eventService) Close(ctx context.Context, id string) (*model.Event, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	event, err := s.find(ctx, uid)
	if err != nil {
		return nil, err
	}
	if event.Status == model.EventClosed {
		return event, nil
	}

	if err := s.repo.UpdateStatus(ctx, uid, model.EventClosed); err != nil {
		return nil, err
	}
	event.Status = model.EventClosed
	return event, nil
}

// GenerateLink mengaktifkan event (jika masih draft) dan mengembalikan link form publik
func (s *eventService) GenerateLink(ctx context.Context, id string) (*model.FormLink, error) {
	event, err := s.Activate(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.FormLink{
		Link:         fmt.Sprintf("%s/attendance/%s", s.frontendURL, event.ID),
		EventID:      event.ID,
		NamaKegiatan: event.NamaKegiatan,
	}, nil
}

func (s *eventService) GetPublicForm(ctx context.Context, id string) (*model.PublicForm, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrEventNotFound
	}
	event, err := s.find(ctx, uid)
	if err != nil {
		return nil, err
	}
	// form publik hanya terlihat untuk event aktif
	if event.Status != model.EventActive {
		return nil, ErrEventNotFound
	}
	if err := checkAdmissionWindow(event, s.now()); err != nil {
		return nil, err
	}

	form := event.ToPublicForm()
	return &form, nil
}

func (s *eventService) uploadTemplate(ctx context.Context, name string, file *model.UploadedFile) (string, error) {
	if _, ok := utils.AllowedImageTypes[file.ContentType]; !ok {
		return "", invalid("template_sertifikat", "template harus berupa gambar PNG atau JPEG")
	}
	return s.storage.UploadImage(ctx, utils.FolderTemplates, name, file.Data, file.ContentType)
}

// checkAdmissionWindow status aktif lalu batas waktu, dalam urutan itu
func checkAdmissionWindow(event *model.Event, now time.Time) error {
	if event.Status != model.EventActive {
		return ErrEventNotActive
	}
	if now.After(event.BatasWaktuAbsensi) {
		return ErrDeadlinePassed
	}
	return nil
}

// applyEventRequest validasi dan salin field request ke event. Field kosong
// pada update berarti nilai lama dipertahankan.
func applyEventRequest(event *model.Event, req model.EventRequest) error {
	isNew := event.NomorSurat == ""

	if name := utils.SanitizeString(req.NamaKegiatan); name != "" {
		event.NamaKegiatan = name
	} else if isNew {
		return invalid("nama_kegiatan", "nama kegiatan wajib diisi")
	}

	if nomor := utils.SanitizeString(req.NomorSurat); nomor != "" {
		event.NomorSurat = nomor
	} else if isNew {
		return invalid("nomor_surat", "nomor surat wajib diisi")
	}

	if req.TanggalMulai != "" {
		t, err := time.ParseInLocation(dateLayout, req.TanggalMulai, time.Local)
		if err != nil {
			return invalid("tanggal_mulai", "format tanggal harus YYYY-MM-DD")
		}
		event.TanggalMulai = t
	} else if isNew {
		return invalid("tanggal_mulai", "tanggal mulai wajib diisi")
	}

	if req.TanggalSelesai != "" {
		t, err := time.ParseInLocation(dateLayout, req.TanggalSelesai, time.Local)
		if err != nil {
			return invalid("tanggal_selesai", "format tanggal harus YYYY-MM-DD")
		}
		event.TanggalSelesai = t
	} else if isNew {
		event.TanggalSelesai = event.TanggalMulai
	}
	if event.TanggalSelesai.Before(event.TanggalMulai) {
		return invalid("tanggal_selesai", "tanggal selesai tidak boleh sebelum tanggal mulai")
	}

	if req.JamMulai != "" {
		if !utils.IsValidClock(req.JamMulai) {
			return invalid("jam_mulai", "format jam harus HH:MM")
		}
		event.JamMulai = req.JamMulai
	}
	if req.JamSelesai != "" {
		if !utils.IsValidClock(req.JamSelesai) {
			return invalid("jam_selesai", "format jam harus HH:MM")
		}
		event.JamSelesai = req.JamSelesai
	}

	if req.BatasWaktuAbsensi != "" {
		t, err := parseDeadline(req.BatasWaktuAbsensi)
		if err != nil {
			return invalid("batas_waktu_absensi", "format batas waktu tidak valid")
		}
		event.BatasWaktuAbsensi = t
	} else if isNew {
		return invalid("batas_waktu_absensi", "batas waktu absensi wajib diisi")
	}

	if req.FormConfig != nil {
		event.FormConfig = *req.FormConfig
	}
	return nil
}

const dateLayout = "2006-01-02"

var deadlineLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

func parseDeadline(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range deadlineLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid deadline %q", s)
}
