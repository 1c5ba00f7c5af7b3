package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/dbx"
	"github.com/google/uuid"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	created := *user
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	conflict := fmt.Errorf("user %s: %w", created.Email, common.ErrConflict)

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, created.Email).Scan(&exists)
		if err != nil {
			return common.NewStorageError(collectionName, "read", err)
		}
		if exists > 0 {
			return conflict
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO users (id, email, password_hash, firstname, lastname, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, created.ID, created.Email, created.PasswordHash, created.FirstName, created.LastName, dbx.FormatTime(created.CreatedAt))
		if dbx.IsUniqueViolation(err) {
			return conflict
		}
		if err != nil {
			return common.NewStorageError(collectionName, "write", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *SQLiteRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.get(ctx, `WHERE email = ?`, email)
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.get(ctx, `WHERE id = ?`, id)
}

func (r *SQLiteRepository) get(ctx context.Context, where string, arg string) (*models.User, error) {
	query := `SELECT id, email, password_hash, firstname, lastname, created_at FROM users ` + where

	u := &models.User{}
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.NewStorageError(collectionName, "read", err)
	}
	if u.CreatedAt, err = dbx.ParseTime(createdAt); err != nil {
		return nil, common.NewStorageError(collectionName, "decode", err)
	}
	return u, nil
}
