package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ahmadqo/e-sertifikat/internal/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type AdminRepository interface {
	FindByUsername(ctx context.Context, username string) (*model.Admin, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Admin, error)
}

type adminRepository struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) AdminRepository {
	return &adminRepository{db: db}
}

func (r *adminRepository) FindByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	query := `
		SELECT id, username, full_name, email, password, role, is_active, created_at, updated_at
		FROM admins
		WHERE username = $1
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &admin, query, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // not found, bukan error
		}
		return nil, err
	}
	return &admin, nil
}

func (r *adminRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Admin, error) {
	var admin model.Admin
	query := `
		SELECT id, username, full_name, email, password, role, is_active, created_at, updated_at
		FROM admins
		WHERE id = $1
		LIMIT 1
	`
	err := r.db.GetContext(ctx, &admin, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &admin, nil
}
