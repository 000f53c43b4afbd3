package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateNomorSurat nomor surat sudah dipakai event lain
	ErrDuplicateNomorSurat = errors.New("repository: duplicate nomor_surat")
	// ErrDuplicateEmail peserta dengan email yang sama sudah absen di event ini
	ErrDuplicateEmail = errors.New("repository: duplicate attendance email")
	// ErrAdmissionClosed event tidak aktif atau sudah lewat batas waktu saat counter dikunci
	ErrAdmissionClosed = errors.New("repository: event not accepting admissions")
)

const (
	constraintNomorSurat  = "events_nomor_surat_key"
	constraintEventEmail  = "attendances_event_email_key"
	pgUniqueViolationCode = "23505"
)

func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraint
}
