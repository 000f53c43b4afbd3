package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

type EventStatus string

const (
	EventDraft  EventStatus = "draft"
	EventActive EventStatus = "active"
	EventClosed EventStatus = "closed"
)

func (s EventStatus) Valid() bool {
	switch s {
	case EventDraft, EventActive, EventClosed:
		return true
	}
	return false
}

type Event struct {
	ID                 uuid.UUID   `db:"id"                  json:"id"`
	NamaKegiatan       string      `db:"nama_kegiatan"       json:"nama_kegiatan"`
	NomorSurat         string      `db:"nomor_surat"         json:"nomor_surat"`
	TanggalMulai       time.Time   `db:"tanggal_mulai"       json:"tanggal_mulai"`
	TanggalSelesai     time.Time   `db:"tanggal_selesai"     json:"tanggal_selesai"`
	JamMulai           string      `db:"jam_mulai"           json:"jam_mulai"`
	JamSelesai         string      `db:"jam_selesai"         json:"jam_selesai"`
	BatasWaktuAbsensi  time.Time   `db:"batas_waktu_absensi" json:"batas_waktu_absensi"`
	TemplateSertifikat *string     `db:"template_sertifikat" json:"template_sertifikat"`
	FormConfig         FormConfig  `db:"form_config"         json:"form_config"`
	Status             EventStatus `db:"status"              json:"status"`
	AttendanceSeq      int         `db:"attendance_seq"      json:"-"`
	CreatedBy          *uuid.UUID  `db:"created_by"          json:"created_by"`
	CreatedAt          time.Time   `db:"created_at"          json:"created_at"`
	UpdatedAt          time.Time   `db:"updated_at"          json:"updated_at"`

	// Join fields
	CreatedByName    *string `db:"created_by_name"   json:"created_by_name,omitempty"`
	TotalAttendances *int64  `db:"total_attendances" json:"total_attendances,omitempty"`
}

// AcceptsAdmission true jika event aktif dan batas waktu absensi belum lewat
func (e *Event) AcceptsAdmission(now time.Time) bool {
	return e.Status == EventActive && !now.After(e.BatasWaktuAbsensi)
}

// FormConfig menentukan field mana yang wajib diisi peserta.
// Key JSON mengikuti format yang disimpan panel admin.
type FormConfig struct {
	RequireName       bool   `json:"requireName"`
	RequireUnit       bool   `json:"requireUnit"`
	RequireNIP        bool   `json:"requireNIP"`
	RequireDob        bool   `json:"requireDob"`
	RequirePhone      bool   `json:"requirePhone"`
	RequireRank       bool   `json:"requireRank"`
	RequirePosition   bool   `json:"requirePosition"`
	RequireEmail      bool   `json:"requireEmail"`
	RequireSignature  bool   `json:"requireSignature"`
	RequirePernyataan bool   `json:"requirePernyataan"`
	RequireProvince   bool   `json:"requireProvince"`
	RequireCity       bool   `json:"requireCity"`
	EventPassword     string `json:"eventPassword,omitempty"`
}

// DefaultFormConfig sama dengan nilai awal form pembuatan event di panel admin
func DefaultFormConfig() FormConfig {
	return FormConfig{
		RequireName:       true,
		RequireUnit:       true,
		RequireNIP:        false,
		RequireDob:        true,
		RequirePhone:      true,
		RequireRank:       false,
		RequirePosition:   false,
		RequireEmail:      true,
		RequireSignature:  true,
		RequirePernyataan: true,
		RequireProvince:   true,
		RequireCity:       true,
	}
}

func (c FormConfig) PasswordProtected() bool {
	return c.EventPassword != ""
}

// UnmarshalJSON mengisi key yang tidak ada dengan nilai default
func (c *FormConfig) UnmarshalJSON(data []byte) error {
	type alias FormConfig
	cfg := alias(DefaultFormConfig())
	if err := json.Unmarshal(data, &cfg); err != nil {
		return err
	}
	*c = FormConfig(cfg)
	return nil
}

func (c FormConfig) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *FormConfig) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*c = DefaultFormConfig()
		return nil
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return errors.New("form_config: tipe data tidak didukung")
	}
}

// PublicForm adalah data event yang boleh dilihat peserta (tanpa password)
type PublicForm struct {
	ID                uuid.UUID   `json:"id"`
	NamaKegiatan      string      `json:"nama_kegiatan"`
	NomorSurat        string      `json:"nomor_surat"`
	TanggalMulai      time.Time   `json:"tanggal_mulai"`
	TanggalSelesai    time.Time   `json:"tanggal_selesai"`
	JamMulai          string      `json:"jam_mulai"`
	JamSelesai        string      `json:"jam_selesai"`
	BatasWaktuAbsensi time.Time   `json:"batas_waktu_absensi"`
	FormConfig        FormConfig  `json:"form_config"`
	PasswordProtected bool        `json:"password_protected"`
	Status            EventStatus `json:"status"`
}

func (e *Event) ToPublicForm() PublicForm {
	cfg := e.FormConfig
	cfg.EventPassword = ""
	return PublicForm{
		ID:                e.ID,
		NamaKegiatan:      e.NamaKegiatan,
		NomorSurat:        e.NomorSurat,
		TanggalMulai:      e.TanggalMulai,
		TanggalSelesai:    e.TanggalSelesai,
		JamMulai:          e.JamMulai,
		JamSelesai:        e.JamSelesai,
		BatasWaktuAbsensi: e.BatasWaktuAbsensi,
		FormConfig:        cfg,
		PasswordProtected: e.FormConfig.PasswordProtected(),
		Status:            e.Status,
	}
}

type EventRequest struct {
	NamaKegiatan      string      `json:"nama_kegiatan"`
	NomorSurat        string      `json:"nomor_surat"`
	TanggalMulai      string      `json:"tanggal_mulai"`       // format: YYYY-MM-DD
	TanggalSelesai    string      `json:"tanggal_selesai"`     // format: YYYY-MM-DD
	JamMulai          string      `json:"jam_mulai"`           // format: HH:MM
	JamSelesai        string      `json:"jam_selesai"`         // format: HH:MM
	BatasWaktuAbsensi string      `json:"batas_waktu_absensi"` // RFC3339 atau YYYY-MM-DDTHH:MM
	FormConfig        *FormConfig `json:"form_config"`
	Status            EventStatus `json:"status"` // hanya dipakai saat update
}

// UploadedFile file dari multipart yang sudah dibaca ke memori
type UploadedFile struct {
	Data        []byte
	ContentType string
}

type EventFilter struct {
	Status  string
	Page    int
	PerPage int
}

type FormLink struct {
	Link         string    `json:"link"`
	EventID      uuid.UUID `json:"event_id"`
	NamaKegiatan string    `json:"nama_kegiatan"`
}
