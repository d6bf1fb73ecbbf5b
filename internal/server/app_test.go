package server

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/swapboard/internal/logging"
	"github.com/dmitrijs2005/swapboard/internal/server/config"
	"github.com/dmitrijs2005/swapboard/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	c := &config.Config{}
	c.LoadDefaults()
	c.BindAddress = "127.0.0.1"
	c.Port = 0
	c.DatabaseDSN = filepath.Join(dir, "board.db")
	c.UploadDir = filepath.Join(dir, "uploads")
	c.ShutdownTimeout = time.Second
	return c
}

func TestNewApp_ServesTheBoard(t *testing.T) {
	ctx := context.Background()
	app, err := newApp(ctx, testConfig(t), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(app.close)

	form := url.Values{"brand": {"Acme"}, "wanted_size": {"M"}}
	req := httptest.NewRequest(http.MethodPost, "/post", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	app.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusFound, w.Code)

	w = httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?search_size=M", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Acme")

	w = httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	app.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestNewApp_MigrationsAreIdempotentAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	c := testConfig(t)

	first, err := newApp(ctx, c, logging.Discard())
	require.NoError(t, err)
	first.close()

	second, err := newApp(ctx, c, logging.Discard())
	require.NoError(t, err)
	second.close()
}

// recordOpens wraps openManager and collects every manager it hands out.
func recordOpens(t *testing.T) *[]*repomanager.Manager {
	t.Helper()
	orig := openManager
	t.Cleanup(func() { openManager = orig })

	var opened []*repomanager.Manager
	openManager = func(ctx context.Context, dsn string) (*repomanager.Manager, error) {
		m, err := orig(ctx, dsn)
		if m != nil {
			opened = append(opened, m)
		}
		return m, err
	}
	return &opened
}

func TestNewApp_StartupFailuresReleaseResources(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, c *config.Config)
		wantErr string
		opened  bool
	}{
		{
			name: "unopenable dsn",
			prepare: func(t *testing.T, c *config.Config) {
				c.DatabaseDSN = filepath.Join(t.TempDir(), "missing", "dir", "board.db")
			},
			wantErr: "db init error",
		},
		{
			name: "migration failure",
			prepare: func(t *testing.T, c *config.Config) {
				db, err := sql.Open("sqlite", c.DatabaseDSN)
				require.NoError(t, err)
				defer db.Close()
				// an index cannot be created on a view
				_, err = db.Exec(`CREATE VIEW posts AS SELECT 1 AS wanted_size`)
				require.NoError(t, err)
			},
			wantErr: "db migrate error",
			opened:  true,
		},
		{
			name: "upload dir is a file",
			prepare: func(t *testing.T, c *config.Config) {
				require.NoError(t, os.WriteFile(c.UploadDir, []byte("x"), 0o600))
			},
			wantErr: "image backend init error",
			opened:  true,
		},
		{
			name: "s3 without bucket",
			prepare: func(t *testing.T, c *config.Config) {
				c.ImageBackend = config.ImageBackendS3
				c.S3Bucket = ""
			},
			wantErr: "image backend init error",
			opened:  true,
		},
		{
			name: "bad redis url",
			prepare: func(t *testing.T, c *config.Config) {
				c.RedisURL = "not-a-url"
			},
			wantErr: "redis init error",
			opened:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opened := recordOpens(t)
			c := testConfig(t)
			tt.prepare(t, c)

			app, err := newApp(context.Background(), c, logging.Discard())

			require.Error(t, err)
			assert.ErrorContains(t, err, tt.wantErr)
			assert.Nil(t, app)

			if !tt.opened {
				assert.Empty(t, *opened)
				return
			}
			require.Len(t, *opened, 1)
			assert.Error(t, (*opened)[0].Ping(context.Background()), "pool must be closed")
		})
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	app, err := newApp(ctx, testConfig(t), logging.Discard())
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
