package model

import (
	"time"

	"github.com/google/uuid"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// IssuanceRecord satu percobaan generate sertifikat
type IssuanceRecord struct {
	ID             uuid.UUID `db:"id"              json:"id"`
	AttendanceID   uuid.UUID `db:"attendance_id"   json:"attendance_id"`
	CertificateURL *string   `db:"certificate_url" json:"certificate_url"`
	Outcome        Outcome   `db:"outcome"         json:"outcome"`
	Reason         string    `db:"reason"          json:"reason"`
	CreatedAt      time.Time `db:"created_at"      json:"created_at"`
}

// DeliveryRecord satu percobaan kirim email sertifikat
type DeliveryRecord struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	AttendanceID uuid.UUID `db:"attendance_id" json:"attendance_id"`
	Recipient    string    `db:"recipient"     json:"recipient"`
	Outcome      Outcome   `db:"outcome"       json:"outcome"`
	Reason       string    `db:"reason"        json:"reason"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

type GenerateResult struct {
	AttendanceID    uuid.UUID `json:"attendance_id"`
	CertificateURL  string    `json:"certificate_url"`
	NomorSertifikat string    `json:"nomor_sertifikat"`
}

type BatchFailure struct {
	AttendanceID  uuid.UUID `json:"attendance_id"`
	UrutanAbsensi int       `json:"urutan_absensi"`
	Reason        string    `json:"reason"`
}

// BatchResult ringkasan operasi massal; gagal per peserta tidak menghentikan batch
type BatchResult struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    []BatchFailure `json:"failed"`
	Skipped   int            `json:"skipped"`
}

// HistoryEntry baris riwayat sertifikat per peserta
type HistoryEntry struct {
	AttendanceID    uuid.UUID      `db:"attendance_id"    json:"attendance_id"`
	UrutanAbsensi   int            `db:"urutan_absensi"   json:"urutan_absensi"`
	NamaLengkap     string         `db:"nama_lengkap"     json:"nama_lengkap"`
	Email           *string        `db:"email"            json:"email"`
	NomorSertifikat string         `db:"nomor_sertifikat" json:"nomor_sertifikat"`
	CertificateURL  *string        `db:"certificate_url"  json:"certificate_url"`
	DeliveryStatus  DeliveryStatus `db:"delivery_status"  json:"delivery_status"`
	GeneratedAt     *time.Time     `db:"generated_at"     json:"generated_at"`
	DeliveredAt     *time.Time     `db:"delivered_at"     json:"delivered_at"`
	LastDeliveryErr *string        `db:"last_delivery_error" json:"last_delivery_error,omitempty"`
}

// VerifyResponse untuk endpoint publik verifikasi nomor sertifikat
type VerifyResponse struct {
	IsValid         bool       `json:"is_valid"`
	NomorSertifikat string     `json:"nomor_sertifikat"`
	NamaLengkap     string     `json:"nama_lengkap,omitempty"`
	NamaKegiatan    string     `json:"nama_kegiatan,omitempty"`
	TanggalMulai    *time.Time `json:"tanggal_mulai,omitempty"`
	Message         string     `json:"message"`
}

type DeliveryResult struct {
	AttendanceID    uuid.UUID `json:"attendance_id"`
	Recipient       string    `json:"recipient"`
	NomorSertifikat string    `json:"nomor_sertifikat"`
	DeliveredAt     time.Time `json:"delivered_at"`
}

// CertificateAttempts semua percobaan generate dan kirim untuk satu peserta, terbaru dulu
type CertificateAttempts struct {
	AttendanceID uuid.UUID         `json:"attendance_id"`
	Issuances    []*IssuanceRecord `json:"issuances"`
	Deliveries   []*DeliveryRecord `json:"deliveries"`
}
