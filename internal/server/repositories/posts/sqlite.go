package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pinboard/internal/common"
	"github.com/dmitrijs2005/pinboard/internal/dbx"
	"github.com/dmitrijs2005/pinboard/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, post *models.Post) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (id, user_id, title, description, image_handle, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, post.ID, post.OwnerID, post.Title, post.Description, post.ImageHandle, dbx.ToMillis(post.CreatedAt))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	p, err := scanSQLitePost(r.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListRecent(ctx context.Context, limit int) ([]*models.Post, error) {
	return r.list(ctx, `
		SELECT `+postColumns+` FROM posts p
		ORDER BY p.created_at DESC, p.rowid DESC
		LIMIT ?
	`, limit)
}

func (r *SQLiteRepository) ListOwned(ctx context.Context, userID string) ([]*models.Post, error) {
	return r.list(ctx, `
		SELECT `+postColumns+` FROM user_posts up
		JOIN posts p ON p.id = up.post_id
		WHERE up.user_id = ?
		ORDER BY up.seq
	`, userID)
}

func (r *SQLiteRepository) AppendOwned(ctx context.Context, userID, postID string) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO user_posts (user_id, post_id) VALUES (?, ?)`, userID, postID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) RemoveOwned(ctx context.Context, userID, postID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM user_posts WHERE user_id = ? AND post_id = ?`, userID, postID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) OwnedIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT post_id FROM user_posts WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return ids, nil
}

func (r *SQLiteRepository) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Post{}
	for rows.Next() {
		p, err := scanSQLitePost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func scanSQLitePost(row rowScanner) (*models.Post, error) {
	p := &models.Post{}
	var createdAt int64
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Title, &p.Description, &p.ImageHandle, &createdAt); err != nil {
		return nil, err
	}
	p.CreatedAt = dbx.FromMillis(createdAt)
	return p, nil
}
