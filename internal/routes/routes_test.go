package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minhwang72/monsil-wedding/internal/config"
	"github.com/minhwang72/monsil-wedding/internal/database"
	"github.com/minhwang72/monsil-wedding/internal/models"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testServer struct {
	t      *testing.T
	app    *App
	db     *gorm.DB
	cfg    *config.Config
	cookie []*http.Cookie
	token  string
}

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, Mode: gin.TestMode},
		Database: config.DatabaseConfig{
			Driver:       "sqlite",
			SQLitePath:   filepath.Join(dir, "test.db"),
			MaxOpenConns: 1,
			MaxIdleConns: 1,
			QueryTimeout: 5 * time.Second,
		},
		Session: config.SessionConfig{Name: "wedding_admin", Secret: "session-secret-for-tests", MaxAge: 3600},
		JWT:     config.JWTConfig{Secret: "jwt-secret-for-tests", ExpireHours: 1},
		Admin:   config.AdminConfig{Username: "admin", Password: "pw1234"},
		File: config.FileConfig{
			UploadPath:        filepath.Join(dir, "uploads"),
			MaxUploadSize:     5 << 20,
			MaxDimension:      1920,
			JPEGQuality:       85,
			UploadTimeout:     10 * time.Second,
			AllowedExtensions: []string{"jpg", "jpeg", "png", "webp"},
		},
		Cache:     config.CacheConfig{Enabled: true, TTL: time.Minute},
		Sweep:     config.SweepConfig{Interval: time.Hour, GracePeriod: time.Hour},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 1000, Burst: 100},
		CORS:      config.CORSConfig{AllowOrigins: []string{"http://localhost:3000"}},
	}
}

func newTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()
	cfg := testConfig(t)
	for _, m := range mutate {
		m(cfg)
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, database.EnsureAdmin(db, cfg.Admin))

	app, err := Setup(db, cfg)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	return &testServer{t: t, app: app, db: db, cfg: cfg}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range s.cookie {
		req.AddCookie(c)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.app.Router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) request(method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(req)
}

func (s *testServer) upload(target string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("file", filename)
	require.NoError(s.t, err)
	_, err = part.Write(content)
	require.NoError(s.t, err)
	require.NoError(s.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(req)
}

func (s *testServer) login() {
	rec := s.request(http.MethodPost, "/api/admin/login", models.AdminLoginRequest{Username: "admin", Password: "pw1234"})
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	s.cookie = rec.Result().Cookies()
	require.NotEmpty(s.t, s.cookie)
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(w, h, color.NRGBA{G: 180, A: 255}), imaging.PNG))
	return buf.Bytes()
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	var status map[string]string
	env := decode(t, rec, &status)
	assert.True(t, env.Success)
	assert.Equal(t, "ok", status["database"])
}

func TestUnknownAPIRoute(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decode(t, rec, nil)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestServeUploads(t *testing.T) {
	s := newTestServer(t)
	dir := filepath.Join(s.cfg.File.UploadPath, "gallery")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "photo.jpg"), []byte("jpeg"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0644))

	// a file outside the upload root that traversal would reach
	secret := filepath.Join(filepath.Dir(s.cfg.File.UploadPath), "secret.jpg")
	require.NoError(t, os.WriteFile(secret, []byte("secret"), 0644))

	tests := []struct {
		path string
		code int
	}{
		{"/api/uploads/gallery/photo.jpg", http.StatusOK},
		{"/api/uploads/../../etc/passwd", http.StatusBadRequest},
		{"/api/uploads/..%2F..%2Fetc%2Fpasswd", http.StatusBadRequest},
		{"/api/uploads/gallery/../../secret.jpg", http.StatusBadRequest},
		{"/api/uploads/../secret.jpg", http.StatusBadRequest},
		{"/api/uploads//etc/passwd", http.StatusBadRequest},
		{"/api/uploads/", http.StatusBadRequest},
		{"/api/uploads/gallery/notes.txt", http.StatusForbidden},
		{"/api/uploads/gallery/missing.jpg", http.StatusNotFound},
		{"/api/uploads/gallery.jpg", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := s.request(http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.NotContains(t, rec.Body.String(), "secret")
		})
	}

	rec := s.request(http.MethodGet, "/api/uploads/gallery/photo.jpg", nil)
	assert.Equal(t, "jpeg", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age")
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodGet, "/api/admin/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.request(http.MethodPost, "/api/gallery", models.GalleryCreateRequest{Filename: "a.jpg", ImageType: "gallery"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.request(http.MethodPut, "/api/gallery/reorder", models.GalleryReorderRequest{IDs: []uint{1}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.request(http.MethodDelete, "/api/gallery/1", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.request(http.MethodPost, "/api/contacts", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.request(http.MethodPost, "/api/admin/login", models.AdminLoginRequest{Username: "admin", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.request(http.MethodPost, "/api/admin/login", map[string]string{"username": "admin"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = s.request(http.MethodPost, "/api/admin/login", models.AdminLoginRequest{Username: "admin", Password: "pw1234"})
	require.Equal(t, http.StatusOK, rec.Code)
	var login models.AdminLoginResponse
	decode(t, rec, &login)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, "admin", login.Admin.Username)

	// session cookie
	s.cookie = rec.Result().Cookies()
	rec = s.request(http.MethodGet, "/api/admin/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	// bearer token without a cookie
	s.cookie = nil
	s.token = login.Token
	rec = s.request(http.MethodGet, "/api/admin/me", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	s.token = "not-a-token"
	rec = s.request(http.MethodGet, "/api/admin/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	s.token = ""

	s.login()
	rec = s.request(http.MethodPost, "/api/admin/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	s.cookie = rec.Result().Cookies()
	rec = s.request(http.MethodGet, "/api/admin/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	limited := func(cfg *config.Config) {
		cfg.RateLimit = config.RateLimitConfig{RequestsPerMinute: 1, Burst: 2}
	}
	attempt := func(s *testServer, n int) int {
		body, err := json.Marshal(models.AdminLoginRequest{Username: "admin", Password: "wrong"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", n))
		return s.do(req).Code
	}

	t.Run("forwarded header from untrusted peer is ignored", func(t *testing.T) {
		s := newTestServer(t, limited)
		var codes []int
		for i := 1; i <= 6; i++ {
			codes = append(codes, attempt(s, i))
		}
		assert.Equal(t, []int{401, 401, 429, 429, 429, 429}, codes)
	})

	t.Run("trusted proxy forwards client address", func(t *testing.T) {
		s := newTestServer(t, limited, func(cfg *config.Config) {
			// httptest requests come from 192.0.2.1
			cfg.Server.TrustedProxies = []string{"192.0.2.1"}
		})
		for i := 1; i <= 4; i++ {
			assert.Equal(t, http.StatusUnauthorized, attempt(s, i))
		}
	})
}

func TestGuestbookFlow(t *testing.T) {
	s := newTestServer(t)

	rec := s.request(http.MethodPost, "/api/guestbook", models.GuestbookCreateRequest{Name: "Kim", Password: "1234", Content: "Congrats!"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var entry models.GuestbookEntry
	decode(t, rec, &entry)
	assert.NotContains(t, rec.Body.String(), "password")

	rec = s.request(http.MethodPost, "/api/guestbook", models.GuestbookCreateRequest{Name: " ", Password: "12", Content: ""})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	target := fmt.Sprintf("/api/guestbook/%d", entry.ID)
	rec = s.request(http.MethodDelete, target, models.GuestbookDeleteRequest{Password: "9999"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = s.request(http.MethodDelete, target, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var page models.GuestbookPage
	decode(t, s.request(http.MethodGet, "/api/guestbook", nil), &page)
	require.Len(t, page.Entries, 1)
	assert.Equal(t, entry.ID, page.Entries[0].ID)

	rec = s.request(http.MethodDelete, target, models.GuestbookDeleteRequest{Password: "1234"})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.request(http.MethodDelete, target, models.GuestbookDeleteRequest{Password: "1234"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	decode(t, s.request(http.MethodGet, "/api/guestbook", nil), &page)
	assert.Empty(t, page.Entries)
}

func TestGuestbookHugePage(t *testing.T) {
	s := newTestServer(t)
	rec := s.request(http.MethodPost, "/api/guestbook", models.GuestbookCreateRequest{Name: "Kim", Password: "1234", Content: "Congrats!"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.request(http.MethodGet, "/api/guestbook?page=9223372036854775807", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page models.GuestbookPage
	decode(t, rec, &page)
	assert.Empty(t, page.Entries)
	assert.Equal(t, math.MaxInt32/20, page.Pagination.Page)
}

func TestGuestbookAdminDeletesWithoutPassword(t *testing.T) {
	s := newTestServer(t)
	rec := s.request(http.MethodPost, "/api/guestbook", models.GuestbookCreateRequest{Name: "Lee", Password: "1234", Content: "hello"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var entry models.GuestbookEntry
	decode(t, rec, &entry)

	s.login()
	rec = s.request(http.MethodDelete, fmt.Sprintf("/api/guestbook/%d", entry.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestContacts(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.request(http.MethodPost, "/api/contacts", models.ContactSaveRequest{
		Side: models.SideBride, Relation: "bride", Name: "Jiyoung", Phone: "010-1234-5678",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.request(http.MethodPost, "/api/contacts", models.ContactSaveRequest{
		Side: models.SideGroom, Relation: "groom", Name: "Minho", Phone: "call me",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	rec = s.request(http.MethodPost, "/api/contacts", models.ContactSaveRequest{
		Side: models.SideGroom, Relation: "groom", Name: "Minho",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var contacts []models.Contact
	decode(t, s.request(http.MethodGet, "/api/contacts", nil), &contacts)
	require.Len(t, contacts, 2)
	assert.Equal(t, models.SideGroom, contacts[0].Side)

	rec = s.request(http.MethodDelete, fmt.Sprintf("/api/contacts/%d", contacts[0].ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.request(http.MethodGet, "/api/contacts", nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	decode(t, rec, &contacts)
	assert.Len(t, contacts, 1)
}

type uploadData struct {
	Image struct {
		Path   string `json:"path"`
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"image"`
	Entry *models.GalleryImage `json:"entry"`
}

func TestGalleryUploadReorderDelete(t *testing.T) {
	s := newTestServer(t)
	s.login()

	var ids []uint
	var paths []string
	for i := 0; i < 3; i++ {
		rec := s.upload("/api/admin/upload", nil, fmt.Sprintf("p%d.png", i), pngBytes(t, 3000, 1500))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var out uploadData
		decode(t, rec, &out)
		require.NotNil(t, out.Entry)
		assert.Equal(t, models.ImageTypeGallery, out.Entry.ImageType)
		assert.Equal(t, 1920, out.Image.Width)
		assert.Equal(t, 960, out.Image.Height)
		ids = append(ids, out.Entry.ID)
		paths = append(paths, out.Image.Path)
	}

	rec := s.upload("/api/admin/upload", map[string]string{"image_type": "main"}, "cover.png", pngBytes(t, 200, 300))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var cover uploadData
	decode(t, rec, &cover)

	var images []models.GalleryImage
	rec = s.request(http.MethodGet, "/api/gallery", nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	decode(t, rec, &images)
	require.Len(t, images, 4)
	assert.Equal(t, cover.Entry.ID, images[0].ID)
	assert.Equal(t, []uint{ids[0], ids[1], ids[2]}, []uint{images[1].ID, images[2].ID, images[3].ID})

	rec = s.request(http.MethodGet, "/api/gallery", nil)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	order := []uint{ids[2], ids[0], ids[1]}
	rec = s.request(http.MethodPut, "/api/gallery/reorder", models.GalleryReorderRequest{IDs: order})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.request(http.MethodGet, "/api/gallery", nil)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	decode(t, rec, &images)
	require.Len(t, images, 4)
	for i, id := range order {
		assert.Equal(t, id, images[i+1].ID)
		require.NotNil(t, images[i+1].OrderIndex)
		assert.Equal(t, i, *images[i+1].OrderIndex)
	}

	rec = s.request(http.MethodPut, "/api/gallery/reorder", models.GalleryReorderRequest{IDs: []uint{ids[0], ids[0]}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.request(http.MethodPut, "/api/gallery/reorder", models.GalleryReorderRequest{IDs: []uint{ids[0], 999}})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// both delete forms
	rec = s.request(http.MethodDelete, fmt.Sprintf("/api/gallery/%d", ids[0]), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.request(http.MethodDelete, fmt.Sprintf("/api/gallery?id=%d", ids[1]), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.request(http.MethodDelete, fmt.Sprintf("/api/gallery/%d", ids[1]), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = s.request(http.MethodDelete, "/api/gallery?id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	decode(t, s.request(http.MethodGet, "/api/gallery", nil), &images)
	require.Len(t, images, 2)
	assert.Equal(t, cover.Entry.ID, images[0].ID)
	assert.Equal(t, ids[2], images[1].ID)

	assert.NoFileExists(t, filepath.Join(s.cfg.File.UploadPath, paths[0]))
	assert.NoFileExists(t, filepath.Join(s.cfg.File.UploadPath, paths[1]))
	assert.FileExists(t, filepath.Join(s.cfg.File.UploadPath, paths[2]))

	rec = s.request(http.MethodGet, images[1].URL, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMainImageReplaced(t *testing.T) {
	s := newTestServer(t)
	s.login()

	var first, second uploadData
	rec := s.upload("/api/admin/upload", map[string]string{"image_type": "main"}, "a.png", pngBytes(t, 50, 50))
	require.Equal(t, http.StatusCreated, rec.Code)
	decode(t, rec, &first)
	rec = s.upload("/api/admin/upload", map[string]string{"image_type": "main"}, "b.png", pngBytes(t, 50, 50))
	require.Equal(t, http.StatusCreated, rec.Code)
	decode(t, rec, &second)

	var images []models.GalleryImage
	decode(t, s.request(http.MethodGet, "/api/gallery", nil), &images)
	require.Len(t, images, 1)
	assert.Equal(t, second.Entry.ID, images[0].ID)
	assert.NoFileExists(t, filepath.Join(s.cfg.File.UploadPath, first.Image.Path))
}

func TestUploadRejections(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.File.MaxUploadSize = 2048 })
	s.login()

	heic := append([]byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic"), make([]byte, 64)...)
	tests := []struct {
		name    string
		target  string
		fields  map[string]string
		content []byte
		code    int
	}{
		{"heic", "/api/admin/upload", nil, heic, http.StatusUnsupportedMediaType},
		{"text", "/api/upload/image", nil, []byte("plain text file"), http.StatusUnsupportedMediaType},
		{"too large", "/api/admin/upload", nil, make([]byte, 4096), http.StatusRequestEntityTooLarge},
		{"empty", "/api/upload/image", nil, nil, http.StatusBadRequest},
		{"bad type", "/api/admin/upload", map[string]string{"image_type": "banner"}, pngBytes(t, 10, 10), http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.upload(tt.target, tt.fields, "x.bin", tt.content)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			env := decode(t, rec, nil)
			assert.False(t, env.Success)
		})
	}

	var count int64
	require.NoError(t, s.db.Model(&models.GalleryImage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUploadTimeout(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.File.UploadTimeout = time.Nanosecond })
	s.login()

	for _, target := range []string{"/api/admin/upload", "/api/upload/image"} {
		rec := s.upload(target, map[string]string{"image_type": "main"}, "slow.png", pngBytes(t, 200, 200))
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code, rec.Body.String())
		env := decode(t, rec, nil)
		assert.False(t, env.Success)
	}

	var count int64
	require.NoError(t, s.db.Unscoped().Model(&models.GalleryImage{}).Count(&count).Error)
	assert.Zero(t, count)

	var files []string
	err := filepath.WalkDir(s.cfg.File.UploadPath, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFreeImageUpload(t *testing.T) {
	s := newTestServer(t)
	s.login()

	rec := s.upload("/api/upload/image", nil, "inline.png", pngBytes(t, 64, 64))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out uploadData
	decode(t, rec, &out)
	assert.Nil(t, out.Entry)
	assert.Contains(t, out.Image.Path, "images/")
	assert.FileExists(t, filepath.Join(s.cfg.File.UploadPath, out.Image.Path))

	var count int64
	require.NoError(t, s.db.Model(&models.GalleryImage{}).Count(&count).Error)
	assert.Zero(t, count)

	// free uploads are never swept
	rec = s.request(http.MethodPost, "/api/admin/sweep", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.FileExists(t, filepath.Join(s.cfg.File.UploadPath, out.Image.Path))
}

func TestGalleryDegradesToEmptyList(t *testing.T) {
	s := newTestServer(t)
	sqlDB, err := s.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	for i := 0; i < 2; i++ {
		rec := s.request(http.MethodGet, "/api/gallery", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEqual(t, "HIT", rec.Header().Get("X-Cache"))
		var images []models.GalleryImage
		env := decode(t, rec, &images)
		assert.True(t, env.Success)
		assert.Empty(t, images)
	}

	rec := s.request(http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
