package repository

import (
	"context"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// CertificateRepository menyimpan riwayat percobaan generate dan pengiriman sertifikat
type CertificateRepository interface {
	RecordIssuance(ctx context.Context, rec *model.IssuanceRecord) error
	RecordDelivery(ctx context.Context, rec *model.DeliveryRecord) error
	History(ctx context.Context, eventID uuid.UUID) ([]*model.HistoryEntry, error)
	IssuancesByAttendance(ctx context.Context, attendanceID uuid.UUID) ([]*model.IssuanceRecord, error)
	DeliveriesByAttendance(ctx context.Context, attendanceID uuid.UUID) ([]*model.DeliveryRecord, error)
}

type certificateRepository struct {
	db *sqlx.DB
}

func NewCertificateRepository(db *sqlx.DB) CertificateRepository {
	return &certificateRepository{db: db}
}

func (r *certificateRepository) RecordIssuance(ctx context.Context, rec *model.IssuanceRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `
		INSERT INTO certificate_issuances (id, attendance_id, certificate_url, outcome, reason, created_at)
		VALUES (:id, :attendance_id, :certificate_url, :outcome, :reason, NOW())
	`
	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

func (r *certificateRepository) RecordDelivery(ctx context.Context, rec *model.DeliveryRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	query := `
		INSERT INTO certificate_deliveries (id, attendance_id, recipient, outcome, reason, created_at)
		VALUES (:id, :attendance_id, :recipient, :outcome, :reason, NOW())
	`
	_, err := r.db.NamedExecContext(ctx, query, rec)
	return err
}

// History proyeksi absensi + percobaan kirim terakhir yang gagal, urut berdasarkan urutan absensi
func (r *certificateRepository) History(ctx context.Context, eventID uuid.UUID) ([]*model.HistoryEntry, error) {
	query := `
		SELECT a.id AS attendance_id, a.urutan_absensi, a.nama_lengkap, a.email,
		       a.nomor_sertifikat, a.certificate_url, a.delivery_status,
		       a.generated_at, a.delivered_at,
		       (SELECT d.reason FROM certificate_deliveries d
		         WHERE d.attendance_id = a.id AND d.outcome = 'failed'
		           AND (a.delivered_at IS NULL OR d.created_at > a.delivered_at)
		         ORDER BY d.created_at DESC LIMIT 1) AS last_delivery_error
		FROM attendances a
		WHERE a.event_id = $1
		ORDER BY a.urutan_absensi ASC
	`
	entries := []*model.HistoryEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, eventID); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *certificateRepository) IssuancesByAttendance(ctx context.Context, attendanceID uuid.UUID) ([]*model.IssuanceRecord, error) {
	records := []*model.IssuanceRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, attendance_id, certificate_url, outcome, reason, created_at
		FROM certificate_issuances
		WHERE attendance_id = $1
		ORDER BY created_at DESC
	`, attendanceID)
	return records, err
}

func (r *certificateRepository) DeliveriesByAttendance(ctx context.Context, attendanceID uuid.UUID) ([]*model.DeliveryRecord, error) {
	records := []*model.DeliveryRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT id, attendance_id, recipient, outcome, reason, created_at
		FROM certificate_deliveries
		WHERE attendance_id = $1
		ORDER BY created_at DESC
	`, attendanceID)
	return records, err
}

var _ CertificateRepository = (*certificateRepository)(nil)
