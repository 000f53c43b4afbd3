package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/config"
	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/repository"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/google/uuid"
)

const qrCodeSize = 256

// IssuanceService generate PDF sertifikat. Jalur ini tidak pernah menulis
// urutan_absensi atau nomor_sertifikat; keduanya hanya dibaca.
type IssuanceService interface {
	GenerateOne(ctx context.Context, attendanceID string) (*model.GenerateResult, error)
	GenerateForEvent(ctx context.Context, eventID string) (*model.BatchResult, error)
	Download(ctx context.Context, attendanceID string) ([]byte, string, error)
	Verify(ctx context.Context, nomorSertifikat string) (*model.VerifyResponse, error)
}

type issuanceService struct {
	eventRepo      repository.EventRepository
	attendanceRepo repository.AttendanceRepository
	ledger         repository.CertificateRepository
	storage        FileStorage
	renderer       CertificateRenderer
	cfg            config.CertificateConfig
	appURL         string
	now            Clock
}

func NewIssuanceService(
	eventRepo repository.EventRepository,
	attendanceRepo repository.AttendanceRepository,
	ledger repository.CertificateRepository,
	storage FileStorage,
	renderer CertificateRenderer,
	cfg config.CertificateConfig,
	appURL string,
	now Clock,
) IssuanceService {
	if now == nil {
		now = time.Now
	}
	return &issuanceService{
		eventRepo: eventRepo, attendanceRepo: attendanceRepo, ledger: ledger,
		storage: storage, renderer: renderer, cfg: cfg,
		appURL: strings.TrimRight(appURL, "/"), now: now,
	}
}

// templateImage gambar template event yang sudah diunduh; err terisi jika template tidak tersedia
type templateImage struct {
	data        []byte
	contentType string
	err         error
}

func (s *issuanceService) GenerateOne(ctx context.Context, attendanceID string) (*model.GenerateResult, error) {
	uid, err := parseID(attendanceID)
	if err != nil {
		return nil, err
	}
	att, err := s.attendanceRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, ErrAttendanceNotFound
	}

	// event boleh sudah closed; issuance tidak bergantung pada jendela absensi
	event, err := s.eventRepo.FindByID(ctx, att.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	return s.issue(ctx, event, s.loadTemplate(ctx, event), att)
}

func (s *issuanceService) GenerateForEvent(ctx context.Context, eventID string) (*model.BatchResult, error) {
	uid, err := parseID(eventID)
	if err != nil {
		return nil, err
	}
	event, err := s.eventRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	attendances, err := s.attendanceRepo.ListByEvent(ctx, uid)
	if err != nil {
		return nil, err
	}

	tmpl := s.loadTemplate(ctx, event)
	return runBatch(ctx, "generate certificate", s.cfg.BatchConcurrency, attendances,
		func(ctx context.Context, att *model.Attendance) error {
			_, err := s.issue(ctx, event, tmpl, att)
			return err
		}), nil
}

func (s *issuanceService) loadTemplate(ctx context.Context, event *model.Event) *templateImage {
	if event.TemplateSertifikat == nil || *event.TemplateSertifikat == "" {
		return &templateImage{err: utils.ErrTemplateMissing}
	}
	data, contentType, err := s.storage.Download(ctx, *event.TemplateSertifikat)
	if err != nil {
		return &templateImage{err: fmt.Errorf("template tidak dapat diunduh: %w", err)}
	}
	return &templateImage{data: data, contentType: contentType}
}

// issue render, upload, lalu simpan URL sertifikat. Kegagalan di tahap mana pun
// tidak mengubah data absensi dan dicatat di ledger.
func (s *issuanceService) issue(ctx context.Context, event *model.Event, tmpl *templateImage, att *model.Attendance) (*model.GenerateResult, error) {
	result, err := s.render(ctx, event, tmpl, att)
	s.record(ctx, att.ID, result, err)
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *issuanceService) render(ctx context.Context, event *model.Event, tmpl *templateImage, att *model.Attendance) (*model.GenerateResult, error) {
	if tmpl.err != nil {
		return nil, &RenderError{AttendanceID: att.ID, Err: tmpl.err}
	}

	qr, err := utils.GenerateQRCodePNG(utils.VerifyURL(s.appURL, att.NomorSertifikat), qrCodeSize)
	if err != nil {
		return nil, &RenderError{AttendanceID: att.ID, Err: err}
	}

	now := s.now()
	pdf, err := s.renderer.Render(utils.CertificatePDFData{
		TemplateImage:   tmpl.data,
		TemplateType:    tmpl.contentType,
		NamaLengkap:     att.NamaLengkap,
		UnitKerja:       att.UnitKerja,
		NomorSertifikat: att.NomorSertifikat,
		NamaKegiatan:    event.NamaKegiatan,
		TanggalMulai:    event.TanggalMulai,
		TanggalSelesai:  event.TanggalSelesai,
		IssuerName:      s.cfg.IssuerName,
		IssuerTitle:     s.cfg.IssuerTitle,
		QRCodePNG:       qr,
		IssuedAt:        now,
	})
	if err != nil {
		return nil, &RenderError{AttendanceID: att.ID, Err: err}
	}

	url, err := s.storage.UploadPDF(ctx, utils.FolderCertificates, pdf,
		fmt.Sprintf("sertifikat-%d-%s", att.UrutanAbsensi, att.NamaLengkap))
	if err != nil {
		return nil, err
	}

	previous, err := s.attendanceRepo.UpdateCertificate(ctx, att.ID, url, now)
	if err != nil {
		deleteQuietly(ctx, s.storage, &url)
		return nil, fmt.Errorf("simpan URL sertifikat: %w", err)
	}
	// hapus file yang benar-benar digantikan, bukan dari snapshot awal
	deleteQuietly(ctx, s.storage, previous)

	return &model.GenerateResult{
		AttendanceID:    att.ID,
		CertificateURL:  url,
		NomorSertifikat: att.NomorSertifikat,
	}, nil
}

func (s *issuanceService) record(ctx context.Context, attendanceID uuid.UUID, result *model.GenerateResult, issueErr error) {
	rec := &model.IssuanceRecord{AttendanceID: attendanceID, Outcome: model.OutcomeSuccess}
	if issueErr != nil {
		rec.Outcome = model.OutcomeFailed
		rec.Reason = issueErr.Error()
	} else {
		rec.CertificateURL = &result.CertificateURL
	}
	if err := s.ledger.RecordIssuance(context.WithoutCancel(ctx), rec); err != nil {
		log.Printf("warning: failed to record issuance for attendance %s: %v", attendanceID, err)
	}
}

// Download isi PDF sertifikat beserta nama file untuk Content-Disposition
func (s *issuanceService) Download(ctx context.Context, attendanceID string) ([]byte, string, error) {
	uid, err := parseID(attendanceID)
	if err != nil {
		return nil, "", err
	}
	att, err := s.attendanceRepo.FindByID(ctx, uid)
	if err != nil {
		return nil, "", err
	}
	if att == nil {
		return nil, "", ErrAttendanceNotFound
	}
	if att.CertificateURL == nil {
		return nil, "", ErrNotGenerated
	}

	data, _, err := s.storage.Download(ctx, *att.CertificateURL)
	if err != nil {
		return nil, "", err
	}
	return data, certificateFileName(att), nil
}

func (s *issuanceService) Verify(ctx context.Context, nomorSertifikat string) (*model.VerifyResponse, error) {
	nomor := utils.SanitizeString(nomorSertifikat)
	if nomor == "" {
		return nil, invalid("nomor", "nomor sertifikat wajib diisi")
	}

	att, err := s.attendanceRepo.FindByNomorSertifikat(ctx, nomor)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return &model.VerifyResponse{
			IsValid:         false,
			NomorSertifikat: nomor,
			Message:         "Nomor sertifikat tidak terdaftar",
		}, nil
	}

	event, err := s.eventRepo.FindByID(ctx, att.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, errors.New("event sertifikat tidak ditemukan")
	}

	return &model.VerifyResponse{
		IsValid:         true,
		NomorSertifikat: att.NomorSertifikat,
		NamaLengkap:     att.NamaLengkap,
		NamaKegiatan:    event.NamaKegiatan,
		TanggalMulai:    &event.TanggalMulai,
		Message:         "Sertifikat valid",
	}, nil
}

func certificateFileName(att *model.Attendance) string {
	return fmt.Sprintf("Sertifikat-%d.pdf", att.UrutanAbsensi)
}
