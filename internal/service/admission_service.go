package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/repository"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/google/uuid"
)

// AdmissionService pintu masuk absensi publik
type AdmissionService interface {
	CheckAccess(ctx context.Context, eventID, password string) error
	Submit(ctx context.Context, eventID string, req model.SubmitAttendanceRequest) (*model.SubmitAttendanceResponse, error)
}

type admissionService struct {
	eventRepo      repository.EventRepository
	attendanceRepo repository.AttendanceRepository
	storage        FileStorage
	now            Clock
}

func NewAdmissionService(
	eventRepo repository.EventRepository,
	attendanceRepo repository.AttendanceRepository,
	storage FileStorage,
	now Clock,
) AdmissionService {
	if now == nil {
		now = time.Now
	}
	return &admissionService{
		eventRepo: eventRepo, attendanceRepo: attendanceRepo,
		storage: storage, now: now,
	}
}

// CheckAccess cek password form tanpa menyimpan apa pun
func (s *admissionService) CheckAccess(ctx context.Context, eventID, password string) error {
	event, err := s.openEvent(ctx, eventID, s.now())
	if err != nil {
		return err
	}
	return checkPassword(event.FormConfig, password)
}

func (s *admissionService) Submit(ctx context.Context, eventID string, req model.SubmitAttendanceRequest) (*model.SubmitAttendanceResponse, error) {
	now := s.now()
	event, err := s.openEvent(ctx, eventID, now)
	if err != nil {
		return nil, err
	}
	if err := checkPassword(event.FormConfig, req.EventPassword); err != nil {
		return nil, err
	}

	att, err := buildAttendance(event.FormConfig, req)
	if err != nil {
		return nil, err
	}
	att.ID = uuid.New()
	att.EventID = event.ID

	if email := att.EmailAddress(); email != "" {
		existing, err := s.attendanceRepo.FindByEventAndEmail(ctx, event.ID, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrDuplicateSubmission
		}
	}

	if req.Signature != nil && len(req.Signature.Data) > 0 {
		url, err := s.storage.UploadImage(ctx, utils.FolderSignatures, att.NamaLengkap, req.Signature.Data, req.Signature.ContentType)
		if err != nil {
			return nil, err
		}
		att.SignatureURL = &url
	}

	if err := s.attendanceRepo.Admit(ctx, att, now); err != nil {
		deleteQuietly(ctx, s.storage, att.SignatureURL)
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, ErrDuplicateSubmission
		case errors.Is(err, repository.ErrAdmissionClosed):
			// status atau batas waktu berubah di antara pengecekan dan transaksi
			return nil, s.closedReason(ctx, event.ID, now)
		}
		return nil, err
	}

	log.Printf("attendance admitted: event=%s seq=%d", event.ID, att.UrutanAbsensi)
	return &model.SubmitAttendanceResponse{
		ID:              att.ID,
		NomorSertifikat: att.NomorSertifikat,
		UrutanAbsensi:   att.UrutanAbsensi,
	}, nil
}

// openEvent event harus ada, aktif, dan belum lewat batas waktu
func (s *admissionService) openEvent(ctx context.Context, eventID string, now time.Time) (*model.Event, error) {
	uid, err := uuid.Parse(eventID)
	if err != nil {
		return nil, ErrEventNotFound
	}
	event, err := s.eventRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	if err := checkAdmissionWindow(event, now); err != nil {
		return nil, err
	}
	return event, nil
}

func (s *admissionService) closedReason(ctx context.Context, eventID uuid.UUID, now time.Time) error {
	event, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		return ErrEventNotFound
	}
	if err := checkAdmissionWindow(event, now); err != nil {
		return err
	}
	return ErrEventNotActive
}

func checkPassword(cfg model.FormConfig, supplied string) error {
	if !cfg.PasswordProtected() {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(cfg.EventPassword), []byte(supplied)) != 1 {
		return ErrAccessDenied
	}
	return nil
}

// buildAttendance validasi field sesuai form_config. Error pertama yang ditemukan dikembalikan.
func buildAttendance(cfg model.FormConfig, req model.SubmitAttendanceRequest) (*model.Attendance, error) {
	clean := utils.SanitizeString
	att := &model.Attendance{
		NamaLengkap:     clean(req.NamaLengkap),
		UnitKerja:       clean(req.UnitKerja),
		NIP:             clean(req.NIP),
		Provinsi:        clean(req.Provinsi),
		KabupatenKota:   clean(req.KabupatenKota),
		NomorHP:         clean(req.NomorHP),
		PangkatGolongan: clean(req.PangkatGolongan),
		Jabatan:         clean(req.Jabatan),
	}

	required := []struct {
		on    bool
		field string
		value string
		label string
	}{
		{cfg.RequireName, "nama_lengkap", att.NamaLengkap, "nama lengkap"},
		{cfg.RequireUnit, "unit_kerja", att.UnitKerja, "unit kerja"},
		{cfg.RequireNIP, "nip", att.NIP, "NIP"},
		{cfg.RequireProvince, "provinsi", att.Provinsi, "provinsi"},
		{cfg.RequireCity, "kabupaten_kota", att.KabupatenKota, "kabupaten/kota"},
		{cfg.RequireDob, "tanggal_lahir", clean(req.TanggalLahir), "tanggal lahir"},
		{cfg.RequirePhone, "nomor_hp", att.NomorHP, "nomor HP"},
		{cfg.RequireRank, "pangkat_golongan", att.PangkatGolongan, "pangkat/golongan"},
		{cfg.RequirePosition, "jabatan", att.Jabatan, "jabatan"},
	}
	for _, f := range required {
		if f.on && f.value == "" {
			return nil, invalid(f.field, f.label+" wajib diisi")
		}
		if err := checkFormat(f.field, f.value); err != nil {
			return nil, err
		}
	}

	if dob := clean(req.TanggalLahir); dob != "" {
		t, _ := time.ParseInLocation(dateLayout, dob, time.Local)
		att.TanggalLahir = &t
	}

	email := clean(req.Email)
	if email == "" && cfg.RequireEmail {
		return nil, invalid("email", "email wajib diisi")
	}
	if email != "" {
		if email != clean(req.EmailKonfirmasi) {
			return nil, invalid("email_konfirmasi", "email dan konfirmasi email tidak sama")
		}
		if !utils.IsValidEmail(email) {
			return nil, invalid("email", "format email tidak valid")
		}
		email = strings.ToLower(email)
		att.Email = &email
	}

	if cfg.RequirePernyataan && !utils.IsChecked(req.Pernyataan) {
		return nil, invalid("pernyataan", "pernyataan wajib dicentang")
	}

	if req.SignatureError != "" {
		return nil, invalid("signature", req.SignatureError)
	}
	if req.Signature == nil || len(req.Signature.Data) == 0 {
		if cfg.RequireSignature {
			return nil, invalid("signature", "tanda tangan wajib diisi")
		}
	} else if _, ok := utils.AllowedImageTypes[req.Signature.ContentType]; !ok {
		return nil, invalid("signature", "tanda tangan harus berupa gambar PNG atau JPEG")
	}

	return att, nil
}

// checkFormat cek format field yang punya aturan khusus; nilai kosong selalu lolos
func checkFormat(field, value string) error {
	if value == "" {
		return nil
	}
	switch field {
	case "nip":
		if !utils.IsValidNIP(value) {
			return invalid(field, "NIP harus 8-18 digit angka")
		}
	case "tanggal_lahir":
		if _, err := time.ParseInLocation(dateLayout, value, time.Local); err != nil {
			return invalid(field, "format tanggal harus YYYY-MM-DD")
		}
	case "nomor_hp":
		if !utils.IsValidPhone(value) {
			return invalid(field, "format nomor HP tidak valid")
		}
	case "email":
		if !utils.IsValidEmail(value) {
			return invalid(field, "format email tidak valid")
		}
	}
	return nil
}
