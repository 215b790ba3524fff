package httpx

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/pinboard/internal/logging"
	"github.com/dmitrijs2005/pinboard/internal/server/auth"
	"github.com/dmitrijs2005/pinboard/internal/server/config"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/pinboard/internal/server/repositories/repotest"
	"github.com/dmitrijs2005/pinboard/internal/server/services"
	"github.com/dmitrijs2005/pinboard/internal/server/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	auth.PasswordCost = bcrypt.MinCost
}

type testApp struct {
	db        *sql.DB
	uploadDir string
	srv       *httptest.Server
	svc       Services
}

// newTestApp runs the full stack on SQLite and a local upload directory.
func newTestApp(t *testing.T, tweak ...func(*config.Config)) *testApp {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.UploadDir = t.TempDir()
	cfg.MaxUploadSize = 1 << 20
	cfg.RequestTimeout = 5 * time.Second
	for _, f := range tweak {
		f(cfg)
	}

	db := repotest.OpenSQLite(t)
	rm := repomanager.NewSQLiteRepositoryManager()
	fs, err := storage.NewLocalStorage(cfg.UploadDir)
	require.NoError(t, err)

	logger := logging.NewDiscardLogger()
	sessions := services.NewSessionService(db, rm, []byte(cfg.SecretKey), cfg.SessionLifetime)
	gate := services.NewGate(sessions)
	content := services.NewContentService(db, rm, gate)
	svc := Services{
		Users:    services.NewUserService(db, rm),
		Sessions: sessions,
		Gate:     gate,
		Content:  content,
		Media:    services.NewMediaService(gate, content, fs, logger),
	}

	srv := httptest.NewServer(NewServer(cfg, svc, logger))
	t.Cleanup(srv.Close)

	return &testApp{db: db, uploadDir: cfg.UploadDir, srv: srv, svc: svc}
}

// client returns a browser-like client that keeps cookies and does not
// follow redirects.
func (a *testApp) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(t *testing.T, c *http.Client, path string) *http.Response {
	t.Helper()
	resp, err := c.Get(a.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testApp) postForm(t *testing.T, c *http.Client, path string, form url.Values) *http.Response {
	t.Helper()
	resp, err := c.PostForm(a.srv.URL+path, form)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// postMultipart sends fields plus, when fileName is not empty, one file
// under fileField.
func (a *testApp) postMultipart(t *testing.T, c *http.Client, path string, fields map[string]string, fileField, fileName string, content []byte) *http.Response {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile(fileField, fileName)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, a.srv.URL+path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (a *testApp) register(t *testing.T, c *http.Client, name string) {
	t.Helper()
	resp := a.postForm(t, c, "/register", url.Values{
		"username": {name},
		"email":    {name + "@example.com"},
		"contact":  {"555"},
		"fullname": {strings.ToUpper(name)},
		"password": {"pw-" + name},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/profile", resp.Header.Get("Location"))
}

func (a *testApp) profile(t *testing.T, c *http.Client) profileView {
	t.Helper()
	resp := a.get(t, c, "/profile")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v profileView
	decode(t, resp, &v)
	return v
}

func (a *testApp) feed(t *testing.T, c *http.Client) []feedItemView {
	t.Helper()
	resp := a.get(t, c, "/feed")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var v []feedItemView
	decode(t, resp, &v)
	return v
}

func (a *testApp) createPost(t *testing.T, c *http.Client, title, description, fileName string) *http.Response {
	t.Helper()
	return a.postMultipart(t, c, "/createpost",
		map[string]string{"title": title, "description": description},
		"postimage", fileName, []byte("image-bytes"))
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
