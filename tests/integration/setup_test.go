package integration

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/alumni-informatik/events-server/internal/api"
	"github.com/alumni-informatik/events-server/internal/config"
	"github.com/alumni-informatik/events-server/internal/domain/events"
	"github.com/alumni-informatik/events-server/internal/storage/jsonfile"
	"github.com/alumni-informatik/events-server/internal/uploads"
)

// testEnv is a full server instance on an ephemeral port, backed by
// temp directories, with a cookie-carrying client for the CSRF flow.
type testEnv struct {
	Server    *httptest.Server
	Client    *http.Client
	Store     *jsonfile.Store
	UploadDir string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dataDir := t.TempDir()
	uploadDir := t.TempDir()

	cfg := config.Config{
		Server:   config.ServerConfig{Host: "127.0.0.1", Port: 0, BaseURL: "http://localhost"},
		Storage:  config.StorageConfig{EventsFile: filepath.Join(dataDir, "events.json"), LockTimeout: 2 * time.Second},
		Uploads:  config.UploadsConfig{Dir: uploadDir, PublicPath: "/uploads", MaxImageBytes: config.DefaultMaxImageBytes},
		Security: config.SecurityConfig{CSRFSecret: "integration-secret-0123456789"},
		RateLimit: config.RateLimitConfig{
			PublicPerMinute: 10000,
			AdminPerMinute:  10000,
		},
		Timezone:    "Europe/Zurich",
		Environment: "test",
	}

	store, err := jsonfile.New(cfg.Storage.EventsFile, cfg.Storage.LockTimeout)
	require.NoError(t, err)
	ingest, err := uploads.New(cfg.Uploads.Dir, cfg.Uploads.PublicPath, cfg.Uploads.MaxImageBytes)
	require.NoError(t, err)
	service := events.NewService(store, ingest, cfg.Location())

	router, err := api.NewRouter(api.RouterDeps{
		Config:    cfg,
		Logger:    zerolog.Nop(),
		Store:     store,
		Service:   service,
		Version:   "test",
		GitCommit: "none",
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		Server:    server,
		Client:    &http.Client{Jar: jar},
		Store:     store,
		UploadDir: uploadDir,
	}
}

var csrfFieldRe = regexp.MustCompile(`name="csrf" value="([^"]+)"`)

// fetchCSRFToken loads the add-event form, which sets the CSRF cookie
// on the client jar, and returns the matching form token.
func fetchCSRFToken(t *testing.T, env *testEnv) string {
	t.Helper()

	resp, err := env.Client.Get(env.Server.URL + "/admin/")
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	match := csrfFieldRe.FindSubmatch(body)
	require.NotNil(t, match, "add page should embed a csrf token")
	return string(match[1])
}
