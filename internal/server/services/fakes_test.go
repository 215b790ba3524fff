package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/dbx"
	"github.com/dmitrijs2005/pinboard/internal/server/models"
	postsrepo "github.com/dmitrijs2005/pinboard/internal/server/repositories/posts"
	sessionsrepo "github.com/dmitrijs2005/pinboard/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/pinboard/internal/server/repositories/users"
)

type fakeUsersRepo struct {
	usersrepo.Repository

	createOut *models.User
	createErr error

	getOut *models.User
	getErr error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	if f.createOut != nil {
		return f.createOut, nil
	}
	return u, nil
}

func (f *fakeUsersRepo) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getOut, nil
}

type fakePostsRepo struct {
	postsrepo.Repository

	created   []*models.Post
	createErr error
	appendErr error
	appended  []string
}

func (f *fakePostsRepo) Create(ctx context.Context, p *models.Post) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, p)
	return nil
}

func (f *fakePostsRepo) AppendOwned(ctx context.Context, userID, postID string) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, postID)
	return nil
}

type fakeSessionsRepo struct {
	sessionsrepo.Repository

	created   []*models.Session
	createErr error
	deleted   []string
	deleteErr error
	findErr   error
}

func (f *fakeSessionsRepo) Create(ctx context.Context, s *models.Session) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, s)
	return nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, hash string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, hash)
	return nil
}

func (f *fakeSessionsRepo) FindActive(ctx context.Context, hash string, now time.Time) (*models.Session, error) {
	return nil, f.findErr
}

func (f *fakeSessionsRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, f.deleteErr
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	p *fakePostsRepo
	s *fakeSessionsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository       { return m.u }
func (m *fakeRepoManager) Posts(db dbx.DBTX) postsrepo.Repository       { return m.p }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository { return m.s }
