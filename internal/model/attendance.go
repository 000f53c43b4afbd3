package model

import (
	"time"

	"github.com/google/uuid"
)

type DeliveryStatus string

const (
	DeliveryPending   DeliveryStatus = "pending"
	DeliveryDelivered DeliveryStatus = "delivered"
)

type Attendance struct {
	ID                uuid.UUID      `db:"id"                 json:"id"`
	EventID           uuid.UUID      `db:"event_id"           json:"event_id"`
	NamaLengkap       string         `db:"nama_lengkap"       json:"nama_lengkap"`
	UnitKerja         string         `db:"unit_kerja"         json:"unit_kerja"`
	NIP               string         `db:"nip"                json:"nip"`
	Provinsi          string         `db:"provinsi"           json:"provinsi"`
	KabupatenKota     string         `db:"kabupaten_kota"     json:"kabupaten_kota"`
	TanggalLahir      *time.Time     `db:"tanggal_lahir"      json:"tanggal_lahir"`
	NomorHP           string         `db:"nomor_hp"           json:"nomor_hp"`
	PangkatGolongan   string         `db:"pangkat_golongan"   json:"pangkat_golongan"`
	Jabatan           string         `db:"jabatan"            json:"jabatan"`
	Email             *string        `db:"email"              json:"email"`
	SignatureURL      *string        `db:"signature_url"      json:"signature_url"`
	UrutanAbsensi     int            `db:"urutan_absensi"     json:"urutan_absensi"`
	NomorSertifikat   string         `db:"nomor_sertifikat"   json:"nomor_sertifikat"`
	DeliveryStatus    DeliveryStatus `db:"delivery_status"    json:"delivery_status"`
	CertificateURL    *string        `db:"certificate_url"    json:"certificate_url"`
	GeneratedAt       *time.Time     `db:"generated_at"       json:"generated_at"`
	DeliveredAt       *time.Time     `db:"delivered_at"       json:"delivered_at"`
	DeliveryLockUntil *time.Time     `db:"delivery_locked_until" json:"-"`
	CreatedAt         time.Time      `db:"created_at"         json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"         json:"updated_at"`
}

func (a *Attendance) EmailAddress() string {
	if a.Email == nil {
		return ""
	}
	return *a.Email
}

// SubmitAttendanceRequest data mentah dari form publik
type SubmitAttendanceRequest struct {
	NamaLengkap     string
	UnitKerja       string
	NIP             string
	Provinsi        string
	KabupatenKota   string
	TanggalLahir    string // format: YYYY-MM-DD
	NomorHP         string
	PangkatGolongan string
	Jabatan         string
	Email           string
	EmailKonfirmasi string
	Pernyataan      string
	EventPassword   string
	Signature       *UploadedFile
	// SignatureError tanda tangan gagal dibaca; dilaporkan sebagai error validasi
	SignatureError string
}

type SubmitAttendanceResponse struct {
	ID              uuid.UUID `json:"id"`
	NomorSertifikat string    `json:"nomor_sertifikat"`
	UrutanAbsensi   int       `json:"urutan_absensi"`
}

// UpdateAttendanceRequest koreksi data peserta oleh admin.
// Urutan dan nomor sertifikat sengaja tidak ada di sini.
type UpdateAttendanceRequest struct {
	NamaLengkap     string `json:"nama_lengkap"`
	UnitKerja       string `json:"unit_kerja"`
	NIP             string `json:"nip"`
	Provinsi        string `json:"provinsi"`
	KabupatenKota   string `json:"kabupaten_kota"`
	TanggalLahir    string `json:"tanggal_lahir"`
	NomorHP         string `json:"nomor_hp"`
	PangkatGolongan string `json:"pangkat_golongan"`
	Jabatan         string `json:"jabatan"`
	Email           string `json:"email"`
}

type AttendanceFilter struct {
	EventID        uuid.UUID
	DeliveryStatus string
	Page           int
	PerPage        int
}
