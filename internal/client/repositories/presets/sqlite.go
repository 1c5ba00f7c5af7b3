package presets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/dbx"
)

// SQLiteRepository needs the *sql.DB itself: group deletion runs in a
// transaction.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) CreateGroup(ctx context.Context, g *models.PresetGroup) (*models.PresetGroup, error) {
	created := *g
	fillGroup(&created)

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var n int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM preset_groups WHERE user_id = ? AND group_name = ?`,
			created.UserID, created.GroupName).Scan(&n)
		if err != nil {
			return common.NewStorageError(collectionName, "read", err)
		}
		if n > 0 {
			return fmt.Errorf("group %q: %w", created.GroupName, common.ErrConflict)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO preset_groups (id, user_id, group_name, created_at) VALUES (?, ?, ?, ?)`,
			created.ID, created.UserID, created.GroupName, dbx.FormatTime(created.CreatedAt))
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("group %q: %w", created.GroupName, common.ErrConflict)
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

func (r *SQLiteRepository) ListGroups(ctx context.Context, userID string) ([]models.PresetGroup, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, group_name, created_at FROM preset_groups WHERE user_id = ?`, userID)
	if err != nil {
		return nil, common.NewStorageError(collectionName, "read", err)
	}
	defer rows.Close()

	out := []models.PresetGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError(collectionName, "read", err)
	}
	sortGroups(out)
	return out, nil
}

func (r *SQLiteRepository) GetGroup(ctx context.Context, userID, groupID string) (*models.PresetGroup, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, group_name, created_at FROM preset_groups WHERE id = ? AND user_id = ?`,
		groupID, userID)
	g, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, groupNotFound(groupID)
	}
	return g, err
}

func (r *SQLiteRepository) DeleteGroup(ctx context.Context, userID, groupID string) (int, error) {
	var removed int64
	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM preset_groups WHERE id = ? AND user_id = ?`, groupID, userID)
		if err != nil {
			return common.NewStorageError(collectionName, "write", err)
		}
		if _, err := dbx.RequireAffected(res); err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return groupNotFound(groupID)
			}
			return common.NewStorageError(collectionName, "write", err)
		}

		res, err = tx.ExecContext(ctx,
			`DELETE FROM presets WHERE group_id = ? AND user_id = ?`, groupID, userID)
		if err != nil {
			return common.NewStorageError(collectionName, "write", err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return common.NewStorageError(collectionName, "write", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int(removed), nil
}

func (r *SQLiteRepository) CreatePreset(ctx context.Context, p *models.Preset) (*models.Preset, error) {
	created := *p
	fillPreset(&created)

	err := dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var n int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM preset_groups WHERE id = ? AND user_id = ?`,
			created.GroupID, created.UserID).Scan(&n)
		if err != nil {
			return common.NewStorageError(collectionName, "read", err)
		}
		if n == 0 {
			return groupNotFound(created.GroupID)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO presets (id, user_id, group_id, command, type, button, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, created.ID, created.UserID, created.GroupID, created.Command, string(created.Type), created.Button,
			dbx.FormatTime(created.CreatedAt))
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

func (r *SQLiteRepository) ListPresets(ctx context.Context, userID, groupID string) ([]models.Preset, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, group_id, command, type, button, created_at
		FROM presets WHERE user_id = ? AND group_id = ?
	`, userID, groupID)
	if err != nil {
		return nil, common.NewStorageError(collectionName, "read", err)
	}
	defer rows.Close()

	out := []models.Preset{}
	for rows.Next() {
		var (
			p         models.Preset
			typ       string
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.GroupID, &p.Command, &typ, &p.Button, &createdAt); err != nil {
			return nil, common.NewStorageError(collectionName, "read", err)
		}
		p.Type = models.Method(typ)
		if p.CreatedAt, err = dbx.ParseTime(createdAt); err != nil {
			return nil, common.NewStorageError(collectionName, "decode", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError(collectionName, "read", err)
	}
	sortPresets(out)
	return out, nil
}

func (r *SQLiteRepository) DeletePreset(ctx context.Context, userID, presetID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM presets WHERE id = ? AND user_id = ?`, presetID, userID)
	if err != nil {
		return common.NewStorageError(collectionName, "write", err)
	}
	if _, err := dbx.RequireAffected(res); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return presetNotFound(presetID)
		}
		return common.NewStorageError(collectionName, "write", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGroup(s scanner) (*models.PresetGroup, error) {
	g := &models.PresetGroup{}
	var createdAt string
	if err := s.Scan(&g.ID, &g.UserID, &g.GroupName, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, common.NewStorageError(collectionName, "read", err)
	}
	var err error
	if g.CreatedAt, err = dbx.ParseTime(createdAt); err != nil {
		return nil, common.NewStorageError(collectionName, "decode", err)
	}
	return g, nil
}
