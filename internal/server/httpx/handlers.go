package httpx

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/pinboard/internal/server/auth"
	"github.com/dmitrijs2005/pinboard/internal/server/models"
	"github.com/dmitrijs2005/pinboard/internal/server/services"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 1 << 20

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFrom(r.Context())
	writeJSON(w, http.StatusOK, landingView{Authenticated: ok, UserID: userID})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.fail(w, r, err)
		return
	}

	u, err := s.users.Register(r.Context(), services.RegisterInput{
		Username:    r.PostFormValue("username"),
		Email:       r.PostFormValue("email"),
		Contact:     r.PostFormValue("contact"),
		DisplayName: r.PostFormValue("fullname"),
		Password:    r.PostFormValue("password"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "user_id", u.ID)
	s.startSession(w, r, u.ID)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.fail(w, r, err)
		return
	}

	userID, err := s.users.Verify(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.startSession(w, r, userID)
}

// startSession binds a fresh session to userID, replacing the one the
// request came with, and sends the caller to its profile.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, userID string) {
	token, err := s.sessions.Establish(r.Context(), readSessionCookie(r), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeSessionCookie(w, r, token, s.sessionLifetime)
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Terminate(r.Context(), readSessionCookie(r)); err != nil {
		s.fail(w, r, err)
		return
	}
	clearSessionCookie(w, r)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	userID, err := s.gate.Authenticated(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	p, err := s.content.Profile(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.profileView(r.Context(), p))
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	userID, err := s.gate.Authenticated(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	items, err := s.content.Feed(r.Context(), userID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.feedView(r.Context(), items))
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.fail(w, r, err)
		return
	}

	file, closer, err := formFile(r, "postimage")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer closer()

	_, err = s.media.CreatePost(r.Context(), services.PostUpload{
		Title:       r.PostFormValue("title"),
		Description: r.PostFormValue("description"),
		File:        file,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (s *Server) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.parseForm(w, r); err != nil {
		s.fail(w, r, err)
		return
	}

	file, closer, err := formFile(r, "image")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer closer()

	if _, err := s.media.SetProfileImage(r.Context(), file); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, err := s.gate.Authenticated(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.parseForm(w, r); err != nil {
		s.fail(w, r, err)
		return
	}

	upd := models.ProfileUpdate{
		DisplayName: formField(r, "name"),
		UserName:    formField(r, "username"),
		Email:       formField(r, "email"),
		Contact:     formField(r, "contact"),
	}
	if _, err := s.content.UpdateProfile(r.Context(), userID, upd); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if _, err := s.media.DeletePost(r.Context(), r.PathValue("postID")); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, "/edit", http.StatusSeeOther)
}

// parseForm parses a urlencoded or multipart form body capped at
// maxUploadSize.
func (s *Server) parseForm(w http.ResponseWriter, r *http.Request) error {
	if s.maxUploadSize > 0 {
		if r.ContentLength > s.maxUploadSize {
			return &http.MaxBytesError{Limit: s.maxUploadSize}
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)
	}
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return err
}

// formField returns nil for fields absent from the submitted form.
func formField(r *http.Request, name string) *string {
	if _, ok := r.PostForm[name]; !ok {
		return nil
	}
	v := r.PostForm.Get(name)
	return &v
}

// formFile returns the uploaded file under name, or nil when the request
// carries none.
func formFile(r *http.Request, name string) (*services.FileUpload, func(), error) {
	f, hdr, err := r.FormFile(name)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, err
	}
	return &services.FileUpload{Name: hdr.Filename, Size: hdr.Size, Content: f}, closeFile(f), nil
}

func closeFile(f multipart.File) func() {
	return func() { _ = f.Close() }
}
