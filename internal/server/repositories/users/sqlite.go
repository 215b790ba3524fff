package users

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

func (r *SQLiteRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, email, contact, display_name, profile_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.UserName, user.PasswordHash, user.Email, user.Contact,
		user.DisplayName, user.ProfileImage, dbx.ToMillis(user.CreatedAt))
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *SQLiteRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, userName)
}

func (r *SQLiteRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	result := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+dbx.Placeholders(len(ids), 1, false)+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanSQLiteUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *SQLiteRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET
		  display_name = COALESCE(?, display_name),
		  username     = COALESCE(?, username),
		  email        = COALESCE(?, email),
		  contact      = COALESCE(?, contact)
		WHERE id = ?
		RETURNING `+userColumns,
		upd.DisplayName, upd.UserName, upd.Email, upd.Contact, id)

	u, err := scanSQLiteUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// ReplaceProfileImage reads then writes; callers run it inside a transaction.
func (r *SQLiteRepository) ReplaceProfileImage(ctx context.Context, id, handle string) (string, error) {
	var previous string
	err := r.db.QueryRowContext(ctx, `SELECT profile_image FROM users WHERE id = ?`, id).Scan(&previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, `UPDATE users SET profile_image = ? WHERE id = ?`, handle, id); err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}

	return previous, nil
}

func (r *SQLiteRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanSQLiteUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func scanSQLiteUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var createdAt int64
	err := row.Scan(&u.ID, &u.UserName, &u.PasswordHash, &u.Email, &u.Contact,
		&u.DisplayName, &u.ProfileImage, &createdAt)
	if err != nil {
		return nil, err
	}
	u.CreatedAt = dbx.FromMillis(createdAt)
	return u, nil
}
