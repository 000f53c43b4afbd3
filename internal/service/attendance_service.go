package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/repository"
	"github.com/ahmadqo/e-sertifikat/internal/response"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
)

// AttendanceService pengelolaan data absensi oleh admin
type AttendanceService interface {
	GetByEvent(ctx context.Context, eventID string, filter model.AttendanceFilter) ([]*model.Attendance, *response.Pagination, error)
	GetByID(ctx context.Context, id string) (*model.Attendance, error)
	Update(ctx context.Context, id string, req model.UpdateAttendanceRequest) (*model.Attendance, error)
	Delete(ctx context.Context, id string) error
}

type attendanceService struct {
	repo      repository.AttendanceRepository
	eventRepo repository.EventRepository
	storage   FileStorage
}

func NewAttendanceService(repo repository.AttendanceRepository, eventRepo repository.EventRepository, storage FileStorage) AttendanceService {
	return &attendanceService{repo: repo, eventRepo: eventRepo, storage: storage}
}

func (s *attendanceService) GetByEvent(ctx context.Context, eventID string, filter model.AttendanceFilter) ([]*model.Attendance, *response.Pagination, error) {
	uid, err := parseID(eventID)
	if err != nil {
		return nil, nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, nil, err
	}
	if event == nil {
		return nil, nil, ErrEventNotFound
	}

	switch model.DeliveryStatus(filter.DeliveryStatus) {
	case "", model.DeliveryPending, model.DeliveryDelivered:
	default:
		return nil, nil, invalid("delivery_status", "delivery_status harus pending atau delivered")
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 50
	}
	filter.EventID = uid

	list, total, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, nil, err
	}
	return list, response.NewPagination(filter.Page, filter.PerPage, total), nil
}

func (s *attendanceService) GetByID(ctx context.Context, id string) (*model.Attendance, error) {
	uid, err := parseID(id)
	if err != nil {
		return nil, err
	}
	att, err := s.repo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, ErrAttendanceNotFound
	}
	return att, nil
}

// Update koreksi data pribadi. Field kosong tidak mengubah nilai lama.
func (s *attendanceService) Update(ctx context.Context, id string, req model.UpdateAttendanceRequest) (*model.Attendance, error) {
	att, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := []struct {
		field string
		value string
		dst   *string
	}{
		{"nama_lengkap", req.NamaLengkap, &att.NamaLengkap},
		{"unit_kerja", req.UnitKerja, &att.UnitKerja},
		{"nip", req.NIP, &att.NIP},
		{"provinsi", req.Provinsi, &att.Provinsi},
		{"kabupaten_kota", req.KabupatenKota, &att.KabupatenKota},
		{"nomor_hp", req.NomorHP, &att.NomorHP},
		{"pangkat_golongan", req.PangkatGolongan, &att.PangkatGolongan},
		{"jabatan", req.Jabatan, &att.Jabatan},
	}
	for _, f := range fields {
		v := utils.SanitizeString(f.value)
		if v == "" {
			continue
		}
		if err := checkFormat(f.field, v); err != nil {
			return nil, err
		}
		*f.dst = v
	}

	if dob := utils.SanitizeString(req.TanggalLahir); dob != "" {
		if err := checkFormat("tanggal_lahir", dob); err != nil {
			return nil, err
		}
		t, _ := time.ParseInLocation(dateLayout, dob, time.Local)
		att.TanggalLahir = &t
	}

	if email := utils.SanitizeString(req.Email); email != "" {
		if err := checkFormat("email", email); err != nil {
			return nil, err
		}
		email = strings.ToLower(email)
		att.Email = &email
	}

	if err := s.repo.Update(ctx, att); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateSubmission
		}
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// Delete tidak bergantung pada status sertifikat. Nomor urut yang terhapus tidak dipakai ulang.
func (s *attendanceService) Delete(ctx context.Context, id string) error {
	att, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, att.ID); err != nil {
		return err
	}
	deleteQuietly(ctx, s.storage, att.SignatureURL)
	deleteQuietly(ctx, s.storage, att.CertificateURL)
	return nil
}
