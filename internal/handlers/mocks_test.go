package handlers

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/NeelODE/drive/internal/models"
)

// MockStorage is a testify mock of services.Storage
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) Name() string {
	return "mock"
}

func (m *MockStorage) List(ctx context.Context, dir string) ([]models.DirectoryEntry, error) {
	args := m.Called(ctx, dir)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.DirectoryEntry), args.Error(1)
}

func (m *MockStorage) Stat(ctx context.Context, p string) (models.StorageEntry, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(models.StorageEntry), args.Error(1)
}

func (m *MockStorage) Exists(ctx context.Context, p string) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *MockStorage) Open(ctx context.Context, p string) (io.ReadCloser, models.StorageEntry, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Get(1).(models.StorageEntry), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(models.StorageEntry), args.Error(2)
}

func (m *MockStorage) Archive(ctx context.Context, dir string, w io.Writer) error {
	args := m.Called(ctx, dir, w)
	return args.Error(0)
}

func (m *MockStorage) Upload(ctx context.Context, dir, name string, r io.Reader, size int64) error {
	args := m.Called(ctx, dir, name, r, size)
	return args.Error(0)
}

func (m *MockStorage) CreateFolder(ctx context.Context, dir, name string) error {
	args := m.Called(ctx, dir, name)
	return args.Error(0)
}

func (m *MockStorage) Delete(ctx context.Context, p string) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockStorage) Copy(ctx context.Context, src, dst string) error {
	args := m.Called(ctx, src, dst)
	return args.Error(0)
}

func (m *MockStorage) Move(ctx context.Context, src, dst string) error {
	args := m.Called(ctx, src, dst)
	return args.Error(0)
}

func (m *MockStorage) Usage(ctx context.Context) (models.Usage, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.Usage), args.Error(1)
}
