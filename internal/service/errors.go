package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidID = errors.New("ID tidak valid")

	ErrEventNotFound       = errors.New("event tidak ditemukan")
	ErrEventNotActive      = errors.New("event belum dibuka atau sudah ditutup")
	ErrDeadlinePassed      = errors.New("batas waktu absensi sudah lewat")
	ErrInvalidTransition   = errors.New("perubahan status event tidak diizinkan")
	ErrNomorSuratExists    = errors.New("nomor surat sudah digunakan event lain")
	ErrAccessDenied        = errors.New("password event salah")
	ErrAttendanceNotFound  = errors.New("data absensi tidak ditemukan")
	ErrDuplicateSubmission = errors.New("email ini sudah melakukan absensi pada event ini")
	ErrNotGenerated        = errors.New("sertifikat belum di-generate")
	ErrDeliveryInProgress  = errors.New("sertifikat sedang dikirim oleh proses lain")
)

// ValidationError field pertama yang tidak lolos validasi
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// RenderError gagal membuat file sertifikat. Data absensi tidak berubah.
type RenderError struct {
	AttendanceID uuid.UUID
	Err          error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("gagal generate sertifikat: %v", e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DeliveryError gagal mengirim email; status pengiriman tetap pending sehingga bisa dicoba ulang
type DeliveryError struct {
	AttendanceID uuid.UUID
	Err          error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("gagal mengirim sertifikat: %v", e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

func parseID(id string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return uid, nil
}
