package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/ahmadqo/e-sertifikat/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AttendanceRepository interface {
	Admit(ctx context.Context, att *model.Attendance, now time.Time) error
	FindAll(ctx context.Context, filter model.AttendanceFilter) ([]*model.Attendance, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Attendance, error)
	FindByEventAndEmail(ctx context.Context, eventID uuid.UUID, email string) (*model.Attendance, error)
	FindByNomorSertifikat(ctx context.Context, nomor string) (*model.Attendance, error)
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Attendance, error)
	Update(ctx context.Context, att *model.Attendance) error
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateCertificate(ctx context.Context, id uuid.UUID, certificateURL string, generatedAt time.Time) (*string, error)
	AcquireDeliveryLock(ctx context.Context, id uuid.UUID, now, until time.Time) (bool, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error
	ReleaseDeliveryLock(ctx context.Context, id uuid.UUID) error
}

type attendanceRepository struct {
	db *sqlx.DB
}

func NewAttendanceRepository(db *sqlx.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	id, event_id, nama_lengkap, unit_kerja, nip, provinsi, kabupaten_kota, tanggal_lahir,
	nomor_hp, pangkat_golongan, jabatan, email, signature_url, urutan_absensi, nomor_sertifikat,
	delivery_status, certificate_url, generated_at, delivered_at, delivery_locked_until,
	created_at, updated_at`

// Admit menaikkan counter event dan menyimpan absensi dalam satu transaksi.
// UPDATE pada baris event memegang row lock sampai commit, sehingga submit
// untuk event yang sama antre satu per satu tanpa mengunci event lain.
// Jika insert gagal (mis. email duplikat) rollback ikut mengembalikan counter,
// jadi urutan tetap tanpa celah.
func (r *attendanceRepository) Admit(ctx context.Context, att *model.Attendance, now time.Time) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		seq        int
		nomorSurat string
	)
	err = tx.QueryRowxContext(ctx, `
		UPDATE events
		SET attendance_seq = attendance_seq + 1
		WHERE id = $1 AND status = 'active' AND batas_waktu_absensi >= $2
		RETURNING attendance_seq, nomor_surat
	`, att.EventID, now).Scan(&seq, &nomorSurat)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAdmissionClosed
		}
		return fmt.Errorf("lock event counter: %w", err)
	}

	att.UrutanAbsensi = seq
	att.NomorSertifikat = utils.FormatCertificateNumber(seq, nomorSurat)
	att.DeliveryStatus = model.DeliveryPending

	query := `
		INSERT INTO attendances (id, event_id, nama_lengkap, unit_kerja, nip, provinsi, kabupaten_kota,
		                         tanggal_lahir, nomor_hp, pangkat_golongan, jabatan, email, signature_url,
		                         urutan_absensi, nomor_sertifikat, delivery_status, created_at, updated_at)
		VALUES (:id, :event_id, :nama_lengkap, :unit_kerja, :nip, :provinsi, :kabupaten_kota,
		        :tanggal_lahir, :nomor_hp, :pangkat_golongan, :jabatan, :email, :signature_url,
		        :urutan_absensi, :nomor_sertifikat, :delivery_status, NOW(), NOW())
	`
	if _, err := tx.NamedExecContext(ctx, query, att); err != nil {
		if isUniqueViolation(err, constraintEventEmail) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert attendance: %w", err)
	}

	return tx.Commit()
}

func (r *attendanceRepository) FindAll(ctx context.Context, filter model.AttendanceFilter) ([]*model.Attendance, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 50
	}

	where := "event_id = $1"
	args := []interface{}{filter.EventID}
	argIdx := 2

	if filter.DeliveryStatus != "" {
		where += fmt.Sprintf(" AND delivery_status = $%d", argIdx)
		args = append(args, filter.DeliveryStatus)
		argIdx++
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM attendances WHERE %s", where), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PerPage
	query := fmt.Sprintf(`
		SELECT %s FROM attendances
		WHERE %s
		ORDER BY urutan_absensi ASC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, where, argIdx, argIdx+1)
	args = append(args, filter.PerPage, offset)

	var list []*model.Attendance
	if err := r.db.SelectContext(ctx, &list, query, args...); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *attendanceRepository) findOne(ctx context.Context, where string, args ...interface{}) (*model.Attendance, error) {
	var att model.Attendance
	query := fmt.Sprintf("SELECT %s FROM attendances WHERE %s LIMIT 1", attendanceColumns, where)
	if err := r.db.GetContext(ctx, &att, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &att, nil
}

func (r *attendanceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Attendance, error) {
	return r.findOne(ctx, "id = $1", id)
}

func (r *attendanceRepository) FindByEventAndEmail(ctx context.Context, eventID uuid.UUID, email string) (*model.Attendance, error) {
	return r.findOne(ctx, "event_id = $1 AND email = $2", eventID, email)
}

func (r *attendanceRepository) FindByNomorSertifikat(ctx context.Context, nomor string) (*model.Attendance, error) {
	return r.findOne(ctx, "nomor_sertifikat = $1", nomor)
}

// ListByEvent semua absensi event, urut berdasarkan urutan absensi
func (r *attendanceRepository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]*model.Attendance, error) {
	var list []*model.Attendance
	query := fmt.Sprintf("SELECT %s FROM attendances WHERE event_id = $1 ORDER BY urutan_absensi ASC", attendanceColumns)
	if err := r.db.SelectContext(ctx, &list, query, eventID); err != nil {
		return nil, err
	}
	return list, nil
}

// Update hanya data pribadi peserta; urutan_absensi dan nomor_sertifikat tidak ikut diubah
func (r *attendanceRepository) Update(ctx context.Context, att *model.Attendance) error {
	query := `
		UPDATE attendances SET
			nama_lengkap = :nama_lengkap, unit_kerja = :unit_kerja, nip = :nip,
			provinsi = :provinsi, kabupaten_kota = :kabupaten_kota, tanggal_lahir = :tanggal_lahir,
			nomor_hp = :nomor_hp, pangkat_golongan = :pangkat_golongan, jabatan = :jabatan,
			email = :email, updated_at = NOW()
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, att)
	if isUniqueViolation(err, constraintEventEmail) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *attendanceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM attendances WHERE id = $1", id)
	return err
}

// UpdateCertificate ganti URL sertifikat dan return URL yang tersimpan sebelumnya
// (nil bila belum ada atau absensi sudah dihapus)
func (r *attendanceRepository) UpdateCertificate(ctx context.Context, id uuid.UUID, certificateURL string, generatedAt time.Time) (*string, error) {
	var previous *string
	err := r.db.GetContext(ctx, &previous, `
		WITH old AS (
			SELECT id, certificate_url FROM attendances WHERE id = $3 FOR UPDATE
		)
		UPDATE attendances a SET certificate_url = $1, generated_at = $2, updated_at = NOW()
		FROM old
		WHERE a.id = old.id
		RETURNING old.certificate_url
	`, certificateURL, generatedAt, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return previous, err
}

// AcquireDeliveryLock klaim lease pengiriman. Return false jika peserta sedang
// dikirimi proses lain (lease belum habis) atau sertifikat belum ada.
func (r *attendanceRepository) AcquireDeliveryLock(ctx context.Context, id uuid.UUID, now, until time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE attendances SET delivery_locked_until = $1
		WHERE id = $2
		  AND certificate_url IS NOT NULL
		  AND (delivery_locked_until IS NULL OR delivery_locked_until < $3)
	`, until, id, now)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *attendanceRepository) MarkDelivered(ctx context.Context, id uuid.UUID, deliveredAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE attendances
		SET delivery_status = 'delivered', delivered_at = $1, delivery_locked_until = NULL, updated_at = NOW()
		WHERE id = $2
	`, deliveredAt, id)
	return err
}

func (r *attendanceRepository) ReleaseDeliveryLock(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE attendances SET delivery_locked_until = NULL WHERE id = $1", id)
	return err
}

var _ AttendanceRepository = (*attendanceRepository)(nil)
