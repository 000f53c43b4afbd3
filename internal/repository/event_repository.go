package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type EventRepository interface {
	FindAll(ctx context.Context, filter model.EventFilter) ([]*model.Event, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error)
	FindByNomorSurat(ctx context.Context, nomorSurat string) (*model.Event, error)
	Create(ctx context.Context, event *model.Event) error
	Update(ctx context.Context, event *model.Event) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.EventStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type eventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventColumns = `
	e.id, e.nama_kegiatan, e.nomor_surat, e.tanggal_mulai, e.tanggal_selesai,
	e.jam_mulai, e.jam_selesai, e.batas_waktu_absensi, e.template_sertifikat,
	e.form_config, e.status, e.attendance_seq, e.created_by, e.created_at, e.updated_at`

func (r *eventRepository) FindAll(ctx context.Context, filter model.EventFilter) ([]*model.Event, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PerPage <= 0 {
		filter.PerPage = 10
	}

	where := "1=1"
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		where = fmt.Sprintf("e.status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT COUNT(*) FROM events e WHERE %s", where), args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.PerPage
	query := fmt.Sprintf(`
		SELECT %s, a.full_name AS created_by_name,
		       (SELECT COUNT(*) FROM attendances WHERE event_id = e.id) AS total_attendances
		FROM events e
		LEFT JOIN admins a ON e.created_by = a.id
		WHERE %s
		ORDER BY e.created_at DESC
		LIMIT $%d OFFSET $%d
	`, eventColumns, where, argIdx, argIdx+1)

	args = append(args, filter.PerPage, offset)

	var events []*model.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *eventRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Event, error) {
	var event model.Event
	query := fmt.Sprintf(`
		SELECT %s, a.full_name AS created_by_name,
		       (SELECT COUNT(*) FROM attendances WHERE event_id = e.id) AS total_attendances
		FROM events e
		LEFT JOIN admins a ON e.created_by = a.id
		WHERE e.id = $1
	`, eventColumns)
	err := r.db.GetContext(ctx, &event, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) FindByNomorSurat(ctx context.Context, nomorSurat string) (*model.Event, error) {
	var event model.Event
	query := fmt.Sprintf("SELECT %s FROM events e WHERE e.nomor_surat = $1", eventColumns)
	err := r.db.GetContext(ctx, &event, query, nomorSurat)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	query := `
		INSERT INTO events (id, nama_kegiatan, nomor_surat, tanggal_mulai, tanggal_selesai,
		                    jam_mulai, jam_selesai, batas_waktu_absensi, template_sertifikat,
		                    form_config, status, attendance_seq, created_by, created_at, updated_at)
		VALUES (:id, :nama_kegiatan, :nomor_surat, :tanggal_mulai, :tanggal_selesai,
		        :jam_mulai, :jam_selesai, :batas_waktu_absensi, :template_sertifikat,
		        :form_config, :status, 0, :created_by, NOW(), NOW())
	`
	_, err := r.db.NamedExecContext(ctx, query, event)
	if isUniqueViolation(err, constraintNomorSurat) {
		return ErrDuplicateNomorSurat
	}
	return err
}

// Update tidak menyentuh attendance_seq; counter hanya diubah oleh AttendanceRepository.Admit
// Update menulis field data event. Status hanya lewat UpdateStatus supaya
// perubahan status dari request lain tidak tertimpa.
func (r *eventRepository) Update(ctx context.Context, event *model.Event) error {
	query := `
		UPDATE events SET
			nama_kegiatan = :nama_kegiatan, nomor_surat = :nomor_surat,
			tanggal_mulai = :tanggal_mulai, tanggal_selesai = :tanggal_selesai,
			jam_mulai = :jam_mulai, jam_selesai = :jam_selesai,
			batas_waktu_absensi = :batas_waktu_absensi, template_sertifikat = :template_sertifikat,
			form_config = :form_config, updated_at = NOW()
		WHERE id = :id
	`
	_, err := r.db.NamedExecContext(ctx, query, event)
	if isUniqueViolation(err, constraintNomorSurat) {
		return ErrDuplicateNomorSurat
	}
	return err
}

func (r *eventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.EventStatus) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE events SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	return err
}

// Delete ikut menghapus attendances dan ledger sertifikat lewat ON DELETE CASCADE
func (r *eventRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	return err
}

var _ EventRepository = (*eventRepository)(nil)
