package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/config"
	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/repository"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/google/uuid"
)

var errNoEmail = errors.New("peserta tidak memiliki alamat email")

type SendOptions struct {
	// PendingOnly lewati peserta yang sudah pernah terkirim
	PendingOnly bool
}

type DeliveryService interface {
	SendOne(ctx context.Context, attendanceID string) (*model.DeliveryResult, error)
	SendForEvent(ctx context.Context, eventID string, opts SendOptions) (*model.BatchResult, error)
}

type deliveryService struct {
	eventRepo      repository.EventRepository
	attendanceRepo repository.AttendanceRepository
	ledger         repository.CertificateRepository
	storage        FileStorage
	mailer         CertificateMailer
	cfg            config.CertificateConfig
	now            Clock
}

func NewDeliveryService(
	eventRepo repository.EventRepository,
	attendanceRepo repository.AttendanceRepository,
	ledger repository.CertificateRepository,
	storage FileStorage,
	mailer CertificateMailer,
	cfg config.CertificateConfig,
	now Clock,
) DeliveryService {
	if now == nil {
		now = time.Now
	}
	if cfg.DeliveryLock <= 0 {
		cfg.DeliveryLock = 2 * time.Minute
	}
	return &deliveryService{
		eventRepo: eventRepo, attendanceRepo: attendanceRepo, ledger: ledger,
		storage: storage, mailer: mailer, cfg: cfg, now: now,
	}
}

func (s *deliveryService) SendOne(ctx context.Context, attendanceID string) (*model.DeliveryResult, error) {
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
	event, err := s.eventRepo.FindByID(ctx, att.EventID)
	if err != nil {
		return nil, err
	}
	if event == nil {
		return nil, ErrEventNotFound
	}

	return s.send(ctx, event, att)
}

// SendForEvent kirim ke semua peserta yang sudah punya sertifikat. Peserta tanpa
// sertifikat (dan yang sudah terkirim bila PendingOnly) dihitung skipped.
func (s *deliveryService) SendForEvent(ctx context.Context, eventID string, opts SendOptions) (*model.BatchResult, error) {
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

	eligible := make([]*model.Attendance, 0, len(attendances))
	for _, att := range attendances {
		if att.CertificateURL == nil {
			continue
		}
		if opts.PendingOnly && att.DeliveryStatus == model.DeliveryDelivered {
			continue
		}
		eligible = append(eligible, att)
	}

	result := runBatch(ctx, "send certificate", s.cfg.BatchConcurrency, eligible,
		func(ctx context.Context, att *model.Attendance) error {
			_, err := s.send(ctx, event, att)
			return err
		})
	result.Skipped += len(attendances) - len(eligible)
	result.Total = len(attendances)
	return result, nil
}

// send klaim lease pengiriman di database sebelum email dikirim, sehingga satu
// peserta tidak pernah dikirimi dua proses sekaligus
func (s *deliveryService) send(ctx context.Context, event *model.Event, att *model.Attendance) (*model.DeliveryResult, error) {
	if att.CertificateURL == nil {
		return nil, ErrNotGenerated
	}
	recipient := att.EmailAddress()
	if recipient == "" {
		derr := &DeliveryError{AttendanceID: att.ID, Err: errNoEmail}
		s.record(ctx, att.ID, recipient, derr)
		return nil, derr
	}

	now := s.now()
	ok, err := s.attendanceRepo.AcquireDeliveryLock(ctx, att.ID, now, now.Add(s.cfg.DeliveryLock))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, s.lockReason(ctx, att.ID)
	}

	if err := s.deliver(ctx, event, att, recipient); err != nil {
		if rerr := s.attendanceRepo.ReleaseDeliveryLock(context.WithoutCancel(ctx), att.ID); rerr != nil {
			log.Printf("warning: failed to release delivery lock for attendance %s: %v", att.ID, rerr)
		}
		s.record(ctx, att.ID, recipient, err)
		return nil, err
	}
	s.record(ctx, att.ID, recipient, nil)

	// email sudah terkirim; pakai context tanpa cancel agar status tetap tersimpan.
	// Bila gagal, lease dibiarkan sampai kedaluwarsa supaya tidak langsung dikirim ulang.
	deliveredAt := s.now()
	if err := s.attendanceRepo.MarkDelivered(context.WithoutCancel(ctx), att.ID, deliveredAt); err != nil {
		log.Printf("error: certificate mailed but status not saved for attendance %s: %v", att.ID, err)
		return nil, err
	}

	return &model.DeliveryResult{
		AttendanceID:    att.ID,
		Recipient:       recipient,
		NomorSertifikat: att.NomorSertifikat,
		DeliveredAt:     deliveredAt,
	}, nil
}

func (s *deliveryService) deliver(ctx context.Context, event *model.Event, att *model.Attendance, recipient string) error {
	pdf, _, err := s.storage.Download(ctx, *att.CertificateURL)
	if err != nil {
		return &DeliveryError{AttendanceID: att.ID, Err: err}
	}

	err = s.mailer.SendCertificate(ctx, utils.CertificateMail{
		To:              recipient,
		Name:            att.NamaLengkap,
		NamaKegiatan:    event.NamaKegiatan,
		NomorSertifikat: att.NomorSertifikat,
		FileName:        certificateFileName(att),
		Attachment:      pdf,
	})
	if err != nil {
		return &DeliveryError{AttendanceID: att.ID, Err: err}
	}
	return nil
}

// lockReason lease gagal diklaim: sertifikat dihapus di tengah jalan atau sedang dikirim
func (s *deliveryService) lockReason(ctx context.Context, id uuid.UUID) error {
	current, err := s.attendanceRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrAttendanceNotFound
	}
	if current.CertificateURL == nil {
		return ErrNotGenerated
	}
	return ErrDeliveryInProgress
}

func (s *deliveryService) record(ctx context.Context, attendanceID uuid.UUID, recipient string, sendErr error) {
	rec := &model.DeliveryRecord{AttendanceID: attendanceID, Recipient: recipient, Outcome: model.OutcomeSuccess}
	if sendErr != nil {
		rec.Outcome = model.OutcomeFailed
		rec.Reason = sendErr.Error()
	}
	if err := s.ledger.RecordDelivery(context.WithoutCancel(ctx), rec); err != nil {
		log.Printf("warning: failed to record delivery for attendance %s: %v", attendanceID, err)
	}
}
