package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/minio/madmin-go/v3"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/NeelODE/drive/internal/config"
	"github.com/NeelODE/drive/internal/services"
)

// MockMinioClient implements services.MinioClient for blob-backed journeys
type MockMinioClient struct {
	mock.Mock
}

func (m *MockMinioClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockMinioClient) ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) ([]minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]minio.ObjectInfo), args.Error(1)
}

func (m *MockMinioClient) ListObjectsChannel(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo {
	args := m.Called(ctx, bucketName, opts)
	objects, _ := args.Get(0).([]minio.ObjectInfo)
	ch := make(chan minio.ObjectInfo, len(objects))
	for _, obj := range objects {
		ch <- obj
	}
	close(ch)
	return ch
}

func (m *MockMinioClient) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Get(0).(minio.ObjectInfo), args.Error(1)
}

func (m *MockMinioClient) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, opts)
	return args.Get(0).(minio.UploadInfo), args.Error(1)
}

func (m *MockMinioClient) GetObjectReader(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, bucketName, objectName, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(int64), args.Error(2)
}

func (m *MockMinioClient) CopyObject(ctx context.Context, bucketName, srcObject, dstObject string) error {
	args := m.Called(ctx, bucketName, srcObject, dstObject)
	return args.Error(0)
}

func (m *MockMinioClient) RemoveObject(ctx context.Context, bucketName, objectName string, opts minio.RemoveObjectOptions) error {
	args := m.Called(ctx, bucketName, objectName, opts)
	return args.Error(0)
}

func (m *MockMinioClient) RemoveObjects(ctx context.Context, bucketName string, objectNames []string) error {
	args := m.Called(ctx, bucketName, objectNames)
	return args.Error(0)
}

func (m *MockMinioClient) PresignedGetObject(ctx context.Context, bucketName, objectName string, expires time.Duration, reqParams url.Values) (*url.URL, error) {
	args := m.Called(ctx, bucketName, objectName, expires, reqParams)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*url.URL), args.Error(1)
}

// MockAdminClient implements services.MinioAdminClient
type MockAdminClient struct {
	mock.Mock
}

func (m *MockAdminClient) DataUsageInfo(ctx context.Context) (madmin.DataUsageInfo, error) {
	args := m.Called(ctx)
	return args.Get(0).(madmin.DataUsageInfo), args.Error(1)
}

// MockMinioFactory hands out the mocks above
type MockMinioFactory struct {
	mock.Mock
}

func (m *MockMinioFactory) NewAdminClient(creds services.Credentials) (services.MinioAdminClient, error) {
	args := m.Called(creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(services.MinioAdminClient), args.Error(1)
}

func (m *MockMinioFactory) NewClient(creds services.Credentials) (services.MinioClient, error) {
	args := m.Called(creds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(services.MinioClient), args.Error(1)
}

// testConfig is a local-backend configuration rooted in a temp dir
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.Server{
			Addr:            config.DefaultAddr,
			BodyLimit:       config.DefaultBodyLimit,
			MaxTextViewSize: config.DefaultMaxTextViewSize,
		},
		Storage: config.Storage{Root: t.TempDir()},
		Auth:    config.Auth{TokenTTL: config.DefaultTokenTTL},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *echo.Echo {
	t.Helper()
	store, err := services.NewLocalStorage(cfg.Storage.Root)
	require.NoError(t, err)
	tokens := services.NewTokenService(cfg.Auth.Secret, cfg.Auth.Password, cfg.Auth.TokenTTL)
	return newServer(cfg, store, tokens)
}

// browser replays cookies between requests and echoes the CSRF cookie back
// in the header, the way the bundled UI does
type browser struct {
	t       *testing.T
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func newBrowser(t *testing.T, e *echo.Echo) *browser {
	b := &browser{t: t, e: e, cookies: make(map[string]*http.Cookie)}
	b.get("/health")
	require.Contains(t, b.cookies, "csrf")
	return b
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	for _, c := range b.cookies {
		req.AddCookie(c)
	}
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		if c, ok := b.cookies["csrf"]; ok {
			req.Header.Set("X-CSRF-Token", c.Value)
		}
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}

	rec := httptest.NewRecorder()
	b.e.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 || c.Value == "" {
			delete(b.cookies, c.Name)
			continue
		}
		b.cookies[c.Name] = c
	}
	return rec
}

func (b *browser) get(target string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (b *browser) postJSON(target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return b.do(req)
}
