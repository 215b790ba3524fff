// Package services contains server-side business logic: the credential
// store, session authority, authorization gate, content ownership ledger and
// the upload pipeline that feeds it.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/common"
	"github.com/dmitrijs2005/pinboard/internal/server/auth"
	"github.com/dmitrijs2005/pinboard/internal/server/models"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// RegisterInput carries the fields of a registration form.
type RegisterInput struct {
	Username    string
	Email       string
	Contact     string
	DisplayName string
	Password    string
}

// UserService persists identities and verifies credentials. It never
// creates sessions.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	now         func() time.Time
}

// NewUserService constructs a UserService.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		now:         time.Now,
	}
}

// Register creates a user with a bcrypt-hashed password. Username and
// password are required; a taken username yields common.ErrorAlreadyExists.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}
	if len(in.Password) > auth.MaxPasswordLength {
		return nil, fmt.Errorf("%w: password is too long (max %d bytes)", common.ErrorValidation, auth.MaxPasswordLength)
	}

	repo := s.repomanager.Users(s.db)

	_, err := repo.GetByUserName(ctx, username)
	switch {
	case err == nil:
		return nil, common.ErrorAlreadyExists
	case !errors.Is(err, common.ErrorNotFound):
		return nil, fmt.Errorf("error looking up user: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		UserName:     username,
		PasswordHash: hash,
		Email:        strings.TrimSpace(in.Email),
		Contact:      strings.TrimSpace(in.Contact),
		DisplayName:  strings.TrimSpace(in.DisplayName),
		PostIDs:      []string{},
		CreatedAt:    s.now().UTC(),
	}

	// the unique index catches a registration racing the lookup above
	u, err := repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Verify checks a username/password pair and returns the user id. Unknown
// users and wrong passwords both yield common.ErrorInvalidCredentials after
// a comparable amount of work.
func (s *UserService) Verify(ctx context.Context, username, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUserName(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.BurnPasswordCheck(password)
			return "", common.ErrorInvalidCredentials
		}
		return "", fmt.Errorf("error looking up user: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return "", common.ErrorInvalidCredentials
	}

	return user.ID, nil
}
