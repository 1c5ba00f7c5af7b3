package bookmarks

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/anylogcli/internal/client/models"
	"github.com/dmitrijs2005/anylogcli/internal/common"
	"github.com/dmitrijs2005/anylogcli/internal/dbx"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Add(ctx context.Context, userID, node string) (*models.Bookmark, bool, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO bookmarks (user_id, node, description, created_at)
		VALUES (?, ?, '', ?)
		ON CONFLICT(user_id, node) DO NOTHING
	`, userID, node, dbx.FormatTime(now))
	if err != nil {
		return nil, false, common.NewStorageError(collectionName, "write", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, false, common.NewStorageError(collectionName, "write", err)
	}
	if n == 1 {
		return &models.Bookmark{UserID: userID, Node: node, CreatedAt: now}, true, nil
	}

	bm, err := r.get(ctx, userID, node)
	if err != nil {
		return nil, false, err
	}
	return bm, false, nil
}

func (r *SQLiteRepository) get(ctx context.Context, userID, node string) (*models.Bookmark, error) {
	bm := &models.Bookmark{UserID: userID, Node: node}
	var createdAt string
	err := r.db.QueryRowContext(ctx,
		`SELECT description, created_at FROM bookmarks WHERE user_id = ? AND node = ?`,
		userID, node).Scan(&bm.Description, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(userID, node)
		}
		return nil, common.NewStorageError(collectionName, "read", err)
	}
	if bm.CreatedAt, err = dbx.ParseTime(createdAt); err != nil {
		return nil, common.NewStorageError(collectionName, "decode", err)
	}
	return bm, nil
}

func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]models.Bookmark, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT node, description, created_at FROM bookmarks WHERE user_id = ?`, userID)
	if err != nil {
		return nil, common.NewStorageError(collectionName, "read", err)
	}
	defer rows.Close()

	out := []models.Bookmark{}
	for rows.Next() {
		bm := models.Bookmark{UserID: userID}
		var createdAt string
		if err := rows.Scan(&bm.Node, &bm.Description, &createdAt); err != nil {
			return nil, common.NewStorageError(collectionName, "read", err)
		}
		if bm.CreatedAt, err = dbx.ParseTime(createdAt); err != nil {
			return nil, common.NewStorageError(collectionName, "decode", err)
		}
		out = append(out, bm)
	}
	if err := rows.Err(); err != nil {
		return nil, common.NewStorageError(collectionName, "read", err)
	}

	sortBookmarks(out)
	return out, nil
}

func (r *SQLiteRepository) UpdateDescription(ctx context.Context, userID, node, description string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bookmarks SET description = ? WHERE user_id = ? AND node = ?`,
		description, userID, node)
	if err != nil {
		return common.NewStorageError(collectionName, "write", err)
	}
	return affected(res, userID, node)
}

func (r *SQLiteRepository) Delete(ctx context.Context, userID, node string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM bookmarks WHERE user_id = ? AND node = ?`, userID, node)
	if err != nil {
		return common.NewStorageError(collectionName, "write", err)
	}
	return affected(res, userID, node)
}

func affected(res sql.Result, userID, node string) error {
	if _, err := dbx.RequireAffected(res); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return notFound(userID, node)
		}
		return common.NewStorageError(collectionName, "write", err)
	}
	return nil
}
